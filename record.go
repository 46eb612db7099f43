// Copyright 2026 Patrick J. Scruggs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package logcap

import (
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// TestIDKey is the reserved metadata key used for per-test isolation tags.
// Records carrying this key are only captured by interceptors installed with
// a matching test identifier (or with isolation disabled).
const TestIDKey = "test_id"

// Record is everything known about one captured log event. Records are
// immutable once constructed and compared by identity, never by content:
// two records built from identical field values remain distinct, which is
// what keeps duplicate log lines distinguishable in position-based queries.
// Always handle records as *Record.
type Record struct {
	className  string
	methodName string
	levelName  string
	severity   Severity
	time       time.Time
	goroutine  string
	span       trace.SpanContext
	message    string
	metadata   Metadata
	cause      error
}

// RecordParams carries the field values for NewRecord. Zero values get the
// documented defaults: UnknownName for the origin names, the normalized
// severity name for LevelName, time.Now() for Time, and the calling
// goroutine's identity for Goroutine.
type RecordParams struct {
	ClassName  string
	MethodName string
	LevelName  string
	Severity   Severity
	Time       time.Time
	Goroutine  string
	Span       trace.SpanContext
	Message    string
	Metadata   Metadata
	Cause      error
}

// NewRecord builds an immutable record. Interceptors construct records
// internally; this constructor exists for tests and custom collectors that
// assemble sequences by hand.
func NewRecord(p RecordParams) *Record {
	if p.ClassName == "" {
		p.ClassName = UnknownName
	}
	if p.MethodName == "" {
		p.MethodName = UnknownName
	}
	if p.LevelName == "" {
		p.LevelName = p.Severity.String()
	}
	if p.Time.IsZero() {
		p.Time = time.Now()
	}
	if p.Goroutine == "" {
		p.Goroutine = currentGoroutineID()
	}
	return &Record{
		className:  p.ClassName,
		methodName: p.MethodName,
		levelName:  p.LevelName,
		severity:   p.Severity,
		time:       p.Time,
		goroutine:  p.Goroutine,
		span:       p.Span,
		message:    p.Message,
		metadata:   p.Metadata.Clone(),
		cause:      p.Cause,
	}
}

// ClassName returns the origin class (package path plus receiver type, or
// bare package path), or UnknownName.
func (r *Record) ClassName() string { return r.className }

// MethodName returns the origin method or function name, or UnknownName.
func (r *Record) MethodName() string { return r.methodName }

// OuterClassName returns the enclosing scope of the origin class; see
// Sequence.FromSameOuterClass.
func (r *Record) OuterClassName() string { return outerClassName(r.className) }

// LevelName returns the backend's raw level name, e.g. "DEBUG" or "warn".
func (r *Record) LevelName() string { return r.levelName }

// Severity returns the normalized severity class.
func (r *Record) Severity() Severity { return r.severity }

// Time returns when the event was logged, with sub-second precision.
func (r *Record) Time() time.Time { return r.time }

// Goroutine returns the opaque identity token of the emitting goroutine.
func (r *Record) Goroutine() string { return r.goroutine }

// Span returns the trace span context active when the event was logged, if
// the backend adapter could observe one; otherwise an invalid span context.
func (r *Record) Span() trace.SpanContext { return r.span }

// Message returns the log message with any trailing context block already
// stripped.
func (r *Record) Message() string { return r.message }

// Metadata returns a copy of the record's decoded metadata.
func (r *Record) Metadata() Metadata { return r.metadata.Clone() }

// HasMetadata reports whether key was present, with or without values.
func (r *Record) HasMetadata(key string) bool { return r.metadata.Has(key) }

// MetadataValues returns the ordered values recorded for key; nil when the
// key is absent.
func (r *Record) MetadataValues(key string) []Value { return r.metadata.Values(key) }

// Cause returns the error attached to the event, or nil.
func (r *Record) Cause() error { return r.cause }

// String formats the record for diagnostics and quantifier failure samples.
func (r *Record) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s [%s/%s] %s.%s: %q",
		r.time.Format("15:04:05.000000"), r.levelName, r.severity,
		r.className, r.methodName, r.message)
	if !r.metadata.IsEmpty() {
		fmt.Fprintf(&sb, " metadata=%s", AppendContext("", r.metadata))
	}
	if r.cause != nil {
		fmt.Fprintf(&sb, " cause=%v", r.cause)
	}
	return sb.String()
}
