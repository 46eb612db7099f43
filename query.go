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
	"sort"
	"strings"
)

// maxFailureSample bounds how many offending records a failed quantifier
// reports.
const maxFailureSample = 10

// Predicate pairs a record test with a human-readable description of its
// intent. The description appears verbatim in quantifier failure messages,
// so phrase it as a property: "message contains \"foo\"".
type Predicate struct {
	desc string
	fn   func(*Record) bool
}

// NewPredicate builds a predicate from a description and a match function.
func NewPredicate(desc string, fn func(*Record) bool) Predicate {
	return Predicate{desc: desc, fn: fn}
}

// Describe returns the predicate's human-readable intent.
func (p Predicate) Describe() string { return p.desc }

// Matches reports whether r satisfies the predicate. A zero predicate
// matches everything.
func (p Predicate) Matches(r *Record) bool {
	if p.fn == nil {
		return true
	}
	return p.fn(r)
}

// And returns a predicate satisfied only when both p and q are.
func (p Predicate) And(q Predicate) Predicate {
	return Predicate{
		desc: fmt.Sprintf("(%s) and (%s)", p.desc, q.desc),
		fn:   func(r *Record) bool { return p.Matches(r) && q.Matches(r) },
	}
}

// Or returns a predicate satisfied when either p or q is.
func (p Predicate) Or(q Predicate) Predicate {
	return Predicate{
		desc: fmt.Sprintf("(%s) or (%s)", p.desc, q.desc),
		fn:   func(r *Record) bool { return p.Matches(r) || q.Matches(r) },
	}
}

// Not returns the logical negation of p.
func Not(p Predicate) Predicate {
	return Predicate{
		desc: fmt.Sprintf("not (%s)", p.desc),
		fn:   func(r *Record) bool { return !p.Matches(r) },
	}
}

// MessageContains matches records whose message contains sub.
func MessageContains(sub string) Predicate {
	return NewPredicate(
		fmt.Sprintf("message contains %q", sub),
		func(r *Record) bool { return strings.Contains(r.Message(), sub) },
	)
}

// SeverityIs matches records of exactly the given class.
func SeverityIs(s Severity) Predicate {
	return NewPredicate(
		fmt.Sprintf("severity is %v", s),
		func(r *Record) bool { return r.Severity() == s },
	)
}

// SeverityAtLeast matches records at or above the given class.
func SeverityAtLeast(s Severity) Predicate {
	return NewPredicate(
		fmt.Sprintf("severity >= %v", s),
		func(r *Record) bool { return r.Severity() >= s },
	)
}

// SeverityAtMost matches records at or below the given class.
func SeverityAtMost(s Severity) Predicate {
	return NewPredicate(
		fmt.Sprintf("severity <= %v", s),
		func(r *Record) bool { return r.Severity() <= s },
	)
}

// HasMetadataKey matches records whose metadata registered key, with or
// without values.
func HasMetadataKey(key string) Predicate {
	return NewPredicate(
		fmt.Sprintf("metadata has key %q", key),
		func(r *Record) bool { return r.HasMetadata(key) },
	)
}

// MetadataContains matches records where key carries a value equal to want
// in both kind and payload.
func MetadataContains(key string, want Value) Predicate {
	return NewPredicate(
		fmt.Sprintf("metadata %s=%v (%v)", key, want, want.Kind()),
		func(r *Record) bool {
			for _, v := range r.MetadataValues(key) {
				if v.Equal(want) {
					return true
				}
			}
			return false
		},
	)
}

// HasCause matches records carrying any error cause.
func HasCause() Predicate {
	return NewPredicate("has a cause", func(r *Record) bool { return r.Cause() != nil })
}

// FromClass matches records attributed to the named class. The unknown
// sentinel never matches.
func FromClass(class string) Predicate {
	return NewPredicate(
		fmt.Sprintf("from class %q", class),
		func(r *Record) bool { return r.ClassName() != UnknownName && r.ClassName() == class },
	)
}

// FromMethod matches records attributed to the named method. The unknown
// sentinel never matches.
func FromMethod(method string) Predicate {
	return NewPredicate(
		fmt.Sprintf("from method %q", method),
		func(r *Record) bool { return r.MethodName() != UnknownName && r.MethodName() == method },
	)
}

// Sequence is an immutable, ordered view over captured records. Filtering
// operations return new sequences and never mutate the receiver, so a
// sequence can be shared and re-filtered freely. The zero Sequence is empty.
type Sequence struct {
	recs []*Record
}

// NewSequence builds a sequence over a copy of recs, preserving order.
func NewSequence(recs []*Record) Sequence {
	out := make([]*Record, len(recs))
	copy(out, recs)
	return Sequence{recs: out}
}

// Len returns the number of records in the sequence.
func (s Sequence) Len() int { return len(s.recs) }

// IsEmpty reports whether the sequence has no records.
func (s Sequence) IsEmpty() bool { return len(s.recs) == 0 }

// At returns the record at capture-order position i.
func (s Sequence) At(i int) *Record { return s.recs[i] }

// Records returns a copy of the underlying record slice.
func (s Sequence) Records() []*Record {
	out := make([]*Record, len(s.recs))
	copy(out, s.recs)
	return out
}

// Filter returns the order-preserving sub-sequence of records matching p.
func (s Sequence) Filter(p Predicate) Sequence {
	var out []*Record
	for _, r := range s.recs {
		if p.Matches(r) {
			out = append(out, r)
		}
	}
	return Sequence{recs: out}
}

// indexOf locates ref by identity; -1 when absent.
func (s Sequence) indexOf(ref *Record) int {
	for i, r := range s.recs {
		if r == ref {
			return i
		}
	}
	return -1
}

// mustIndexOf is the fail-fast membership check shared by the comparative
// matchers: passing a reference record that is not part of the sequence
// being filtered is a usage error, not a silent empty result.
func (s Sequence) mustIndexOf(ref *Record, op string) int {
	if ref == nil {
		panic(fmt.Sprintf("logcap: %s called with nil reference record", op))
	}
	i := s.indexOf(ref)
	if i < 0 {
		panic(fmt.Sprintf("logcap: %s reference record is not a member of the sequence being filtered: %s", op, ref))
	}
	return i
}

// Before restricts to the records strictly preceding ref in capture order,
// excluding ref itself. It panics when ref is not a member of s.
func (s Sequence) Before(ref *Record) Sequence {
	i := s.mustIndexOf(ref, "Before")
	return Sequence{recs: s.recs[:i:i]}
}

// After restricts to the records strictly following ref in capture order,
// excluding ref itself. It panics when ref is not a member of s.
func (s Sequence) After(ref *Record) Sequence {
	i := s.mustIndexOf(ref, "After")
	return Sequence{recs: s.recs[i+1:]}
}

// InSameThread restricts to records emitted on the same goroutine as ref.
// It panics when ref is not a member of s.
func (s Sequence) InSameThread(ref *Record) Sequence {
	s.mustIndexOf(ref, "InSameThread")
	return s.Filter(NewPredicate(
		fmt.Sprintf("in same goroutine as reference (%s)", ref.Goroutine()),
		func(r *Record) bool { return r.Goroutine() == ref.Goroutine() },
	))
}

// FromSameClass restricts to records attributed to ref's origin class.
// Records with an unresolved class never match, even against themselves.
// It panics when ref is not a member of s.
func (s Sequence) FromSameClass(ref *Record) Sequence {
	s.mustIndexOf(ref, "FromSameClass")
	return s.Filter(FromClass(ref.ClassName()))
}

// FromSameMethod restricts to records attributed to both ref's origin class
// and method, with the same unknown-never-matches rule. It panics when ref
// is not a member of s.
func (s Sequence) FromSameMethod(ref *Record) Sequence {
	s.mustIndexOf(ref, "FromSameMethod")
	return s.Filter(FromClass(ref.ClassName()).And(FromMethod(ref.MethodName())))
}

// FromSameOuterClass restricts to records whose origin class shares ref's
// enclosing scope (the package for a method's receiver type). Unresolved
// identities never match. It panics when ref is not a member of s.
func (s Sequence) FromSameOuterClass(ref *Record) Sequence {
	s.mustIndexOf(ref, "FromSameOuterClass")
	outer := ref.OuterClassName()
	return s.Filter(NewPredicate(
		fmt.Sprintf("from same outer class %q", outer),
		func(r *Record) bool {
			return r.OuterClassName() != UnknownName && r.OuterClassName() == outer
		},
	))
}

// InSameTrace restricts to records captured under the same trace ID as ref.
// Records without a valid span context never match, even against themselves.
// It panics when ref is not a member of s.
func (s Sequence) InSameTrace(ref *Record) Sequence {
	s.mustIndexOf(ref, "InSameTrace")
	refSpan := ref.Span()
	return s.Filter(NewPredicate(
		fmt.Sprintf("in same trace as reference (%s)", refSpan.TraceID()),
		func(r *Record) bool {
			return refSpan.IsValid() && r.Span().IsValid() &&
				r.Span().TraceID() == refSpan.TraceID()
		},
	))
}

// SortedByTime returns the sequence reordered by timestamp. Records with
// identical timestamps land in unspecified relative order; this operator
// does not establish a cross-goroutine chronology that capture never had.
func (s Sequence) SortedByTime() Sequence {
	out := s.Records()
	sort.Slice(out, func(i, j int) bool { return out[i].Time().Before(out[j].Time()) })
	return Sequence{recs: out}
}

// QuantifierError reports a failed Every, Any, or None evaluation, carrying
// the predicate's intent and a bounded sample of the offending records.
type QuantifierError struct {
	Quantifier  string    // "every", "any", or "none"
	Description string    // the predicate's description
	Checked     int       // size of the evaluated sub-sequence
	Offending   []*Record // at most maxFailureSample records
}

// Error formats the failure with its record sample.
func (e *QuantifierError) Error() string {
	var sb strings.Builder
	switch e.Quantifier {
	case "any":
		fmt.Fprintf(&sb, "expected at least one of %d records where %s; found none",
			e.Checked, e.Description)
	default:
		fmt.Fprintf(&sb, "%s(%s) failed over %d records; %d offending",
			e.Quantifier, e.Description, e.Checked, len(e.Offending))
	}
	for _, r := range e.Offending {
		sb.WriteString("\n  ")
		sb.WriteString(r.String())
	}
	return sb.String()
}

// Every passes (returns nil) iff no record in the sequence fails p. An empty
// sequence passes vacuously.
func (s Sequence) Every(p Predicate) error {
	var offending []*Record
	for _, r := range s.recs {
		if !p.Matches(r) && len(offending) < maxFailureSample {
			offending = append(offending, r)
		}
	}
	if len(offending) == 0 {
		return nil
	}
	return &QuantifierError{Quantifier: "every", Description: p.Describe(), Checked: len(s.recs), Offending: offending}
}

// None passes iff no record in the sequence satisfies p; the logical dual of
// Every. An empty sequence passes vacuously.
func (s Sequence) None(p Predicate) error {
	var offending []*Record
	for _, r := range s.recs {
		if p.Matches(r) && len(offending) < maxFailureSample {
			offending = append(offending, r)
		}
	}
	if len(offending) == 0 {
		return nil
	}
	return &QuantifierError{Quantifier: "none", Description: p.Describe(), Checked: len(s.recs), Offending: offending}
}

// Any passes iff at least one record satisfies p. An empty sequence fails.
// The failure sample holds the first non-matching records, capped like the
// other quantifiers.
func (s Sequence) Any(p Predicate) error {
	var sample []*Record
	for _, r := range s.recs {
		if p.Matches(r) {
			return nil
		}
		if len(sample) < maxFailureSample {
			sample = append(sample, r)
		}
	}
	return &QuantifierError{Quantifier: "any", Description: p.Describe(), Checked: len(s.recs), Offending: sample}
}
