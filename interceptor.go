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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/pjscruggs/logcap/internal/wire"
)

// Event is the raw payload a backend adapter delivers for one log call.
// Adapters must call the deliver callback synchronously on the goroutine
// that made the log call, so goroutine identity can be captured faithfully.
type Event struct {
	// Level is the native numeric level on the backend's own scale.
	Level int
	// LevelName is the backend's name for the level; empty falls back to
	// the normalized class name.
	LevelName string
	// Message is the formatted message, possibly carrying a trailing
	// context block.
	Message string
	// Time is when the backend recorded the event; zero means delivery time.
	Time time.Time
	// Cause is the error attached to the log call, if the backend exposes one.
	Cause error
	// PC is a call-site program counter hint; zero when unavailable.
	PC uintptr
	// Class and Method, when non-empty, override PC-based resolution for
	// backends that already know the origin names. Synthetic shapes are
	// still demangled.
	Class, Method string
	// Ctx is the context active at the log call, used to recover the
	// current trace span. nil is fine.
	Ctx context.Context
}

// Backend is the attach contract a logging backend adapter must satisfy:
// register a listener on a named channel at a minimum severity, deliver zero
// or more raw events, and deregister on detach. Implementations live in the
// logcap<backend> subpackages.
type Backend interface {
	// Name identifies the adapter, e.g. "slog" or "zerolog".
	Name() string
	// Thresholds returns the adapter's native level scale.
	Thresholds() Thresholds
	// Attach registers a listener for channel at the given minimum severity
	// and returns a detach function. Detach must be safe to call once; the
	// Handle wrapper guarantees it is called at most once.
	Attach(channel string, min Severity, deliver func(Event)) (detach func() error, err error)
}

// Prober is the optional self-test surface of a Backend: emit one scripted
// event, carrying msg and cause, through the adapter's native logging
// pipeline on the given channel. Probe uses it to grade adapter capability.
type Prober interface {
	EmitProbe(channel, msg string, cause error)
}

// Collector receives fully-built records that passed the test-id filter.
type Collector func(*Record)

// Option configures an attachment. Options are applied in order; later
// options override earlier ones.
type Option func(*attachConfig)

type attachConfig struct {
	testID     string
	thresholds *Thresholds
	diag       *slog.Logger
}

// WithTestID enables per-test isolation: records tagged with a different
// test_id metadata value are dropped, while untagged records and records
// tagged with exactly this id are kept. The empty string (the default)
// disables isolation.
func WithTestID(id string) Option {
	return func(c *attachConfig) { c.testID = id }
}

// WithThresholds overrides the backend's native level scale for severity
// classification.
func WithThresholds(t Thresholds) Option {
	return func(c *attachConfig) { c.thresholds = &t }
}

// WithDiagnosticLogger routes this attachment's diagnostics (degraded
// metadata parses and the like) to l instead of the package logger.
func WithDiagnosticLogger(l *slog.Logger) Option {
	return func(c *attachConfig) { c.diag = l }
}

func (c attachConfig) diagnostics() *slog.Logger {
	if c.diag != nil {
		return c.diag
	}
	return diagnosticLogger()
}

// Handle detaches one channel attachment. Close is idempotent and always
// succeeds from the caller's perspective: detach failures are swallowed and
// surfaced only as diagnostics.
type Handle struct {
	channel   string
	closeOnce sync.Once
	detach    func() error
	onClose   func()
	diag      *slog.Logger
}

// Channel returns the attached channel name.
func (h *Handle) Channel() string { return h.channel }

// Close detaches the listener. Safe to call multiple times; always nil.
func (h *Handle) Close() error {
	h.closeOnce.Do(func() {
		if h.onClose != nil {
			h.onClose()
		}
		if h.detach == nil {
			return
		}
		if err := h.detach(); err != nil {
			h.diag.Warn("logcap: backend detach failed", "channel", h.channel, "error", err)
		}
	})
	return nil
}

// AttachCollector registers collect on a backend channel at the given
// minimum severity. Every delivered event is decoded, classified, attributed
// to a call site, wrapped into a Record, and, if it passes the test-id
// filter, handed to collect. Attaching the same channel twice through this
// primitive is not guarded; use Interceptor for the fail-fast double-attach
// check.
func AttachCollector(backend Backend, channel string, min Severity, collect Collector, opts ...Option) (*Handle, error) {
	if backend == nil {
		return nil, fmt.Errorf("logcap: nil backend")
	}
	if collect == nil {
		return nil, fmt.Errorf("logcap: nil collector")
	}
	cfg := attachConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	thresholds := backend.Thresholds()
	if cfg.thresholds != nil {
		thresholds = *cfg.thresholds
	}

	deliver := func(ev Event) {
		r := buildRecord(ev, thresholds, cfg)
		if acceptsTestID(r, cfg.testID) {
			collect(r)
		}
	}
	detach, err := backend.Attach(channel, min, deliver)
	if err != nil {
		return nil, fmt.Errorf("logcap: attach %q on backend %q: %w", channel, backend.Name(), err)
	}
	return &Handle{channel: channel, detach: detach, diag: cfg.diagnostics()}, nil
}

// buildRecord translates one raw backend event into an immutable Record.
func buildRecord(ev Event, thresholds Thresholds, cfg attachConfig) *Record {
	msg, md, problems := wire.Decode(ev.Message)
	for _, p := range problems {
		cfg.diagnostics().Warn("logcap: degraded metadata parse", "problem", p, "message", ev.Message)
	}

	class, method := ev.Class, ev.Method
	switch {
	case class != "" || method != "":
		// Backend-supplied names may still be synthetic runtime symbols.
		if method != "" && class == "" {
			class, method = demangleFunction(method)
		}
	case ev.PC != 0:
		class, method = resolveCallSite(ev.PC)
	default:
		class, method = UnknownName, UnknownName
	}

	var span trace.SpanContext
	if ev.Ctx != nil {
		span = trace.SpanContextFromContext(ev.Ctx)
	}

	return NewRecord(RecordParams{
		ClassName:  class,
		MethodName: method,
		LevelName:  ev.LevelName,
		Severity:   thresholds.Classify(ev.Level),
		Time:       ev.Time,
		Span:       span,
		Message:    msg,
		Metadata:   md,
		Cause:      ev.Cause,
	})
}

// acceptsTestID implements the isolation filter: with no isolation requested
// everything passes; otherwise untagged records pass (ambient logging stays
// observable) and tagged records pass only on an exact id match.
func acceptsTestID(r *Record, testID string) bool {
	if testID == "" {
		return true
	}
	if !r.HasMetadata(TestIDKey) {
		return true
	}
	for _, v := range r.MetadataValues(TestIDKey) {
		if v.Kind() == KindString && v.StrVal() == testID {
			return true
		}
	}
	return false
}

// ErrAlreadyAttached reports a second Attach for a channel that is already
// attached on the same Interceptor. Concurrent double-attachment of one
// channel is a usage error, not a supported configuration.
var ErrAlreadyAttached = errors.New("logcap: channel already attached")

// Interceptor owns the capture buffer for one test and the set of channel
// attachments feeding it. The zero value is not usable; call NewInterceptor.
type Interceptor struct {
	backend Backend
	buffer  *Buffer
	opts    []Option

	mu       sync.Mutex
	attached map[string]*Handle
}

// NewInterceptor builds an interceptor over backend. The options apply to
// every subsequent Attach; per-call options override them.
func NewInterceptor(backend Backend, opts ...Option) *Interceptor {
	return &Interceptor{
		backend:  backend,
		buffer:   NewBuffer(),
		opts:     opts,
		attached: make(map[string]*Handle),
	}
}

// Attach hooks the interceptor's capture buffer onto a channel at the given
// minimum severity. It fails fast with ErrAlreadyAttached when the channel
// is already attached and not yet closed.
func (in *Interceptor) Attach(channel string, min Severity, opts ...Option) (*Handle, error) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if _, dup := in.attached[channel]; dup {
		return nil, fmt.Errorf("%w: %q", ErrAlreadyAttached, channel)
	}
	merged := make([]Option, 0, len(in.opts)+len(opts))
	merged = append(merged, in.opts...)
	merged = append(merged, opts...)
	h, err := AttachCollector(in.backend, channel, min, in.buffer.Append, merged...)
	if err != nil {
		return nil, err
	}
	h.onClose = func() { in.release(channel) }
	in.attached[channel] = h
	return h, nil
}

func (in *Interceptor) release(channel string) {
	in.mu.Lock()
	delete(in.attached, channel)
	in.mu.Unlock()
}

// Records returns a snapshot of everything captured so far, in capture order.
func (in *Interceptor) Records() Sequence { return in.buffer.Snapshot() }

// Close detaches every remaining attachment. Always nil; detach failures
// are swallowed per the Handle contract.
func (in *Interceptor) Close() error {
	in.mu.Lock()
	handles := make([]*Handle, 0, len(in.attached))
	for _, h := range in.attached {
		handles = append(handles, h)
	}
	in.mu.Unlock()
	for _, h := range handles {
		_ = h.Close()
	}
	return nil
}
