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

package wire

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// flatten converts metadata into a comparable map of untyped value lists,
// preserving tag-only keys as empty slices.
func flatten(md Metadata) map[string][]any {
	out := make(map[string][]any)
	for _, k := range md.Keys() {
		vals := md.Values(k)
		flat := make([]any, 0, len(vals))
		for _, v := range vals {
			flat = append(flat, v.Any())
		}
		out[k] = flat
	}
	return out
}

func TestDecode(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name         string
		raw          string
		wantMsg      string
		wantMD       map[string][]any
		wantProblems int
	}{
		{
			name:    "NoBlock",
			raw:     "plain message with no context",
			wantMsg: "plain message with no context",
			wantMD:  map[string][]any{},
		},
		{
			name:    "TypedValues",
			raw:     "msg [CONTEXT foo=true bar=10 baz=3.1415926 ]",
			wantMsg: "msg",
			wantMD:  map[string][]any{"foo": {true}, "bar": {int64(10)}, "baz": {3.1415926}},
		},
		{
			name:    "QuotedEscapes",
			raw:     `msg [CONTEXT foo="xxx\\yyy\nzzz" ]`,
			wantMsg: "msg",
			wantMD:  map[string][]any{"foo": {"xxx\\yyy\nzzz"}},
		},
		{
			name:    "QuotedNeverInferred",
			raw:     `msg [CONTEXT n="10" b="true" ]`,
			wantMsg: "msg",
			wantMD:  map[string][]any{"n": {"10"}, "b": {"true"}},
		},
		{
			name:    "CaseInsensitiveBooleans",
			raw:     "msg [CONTEXT a=TRUE b=False ]",
			wantMsg: "msg",
			wantMD:  map[string][]any{"a": {true}, "b": {false}},
		},
		{
			name:    "NegativeAndWideIntegers",
			raw:     "msg [CONTEXT a=-42 b=9223372036854775807 ]",
			wantMsg: "msg",
			wantMD:  map[string][]any{"a": {int64(-42)}, "b": {int64(9223372036854775807)}},
		},
		{
			name:    "IntegerOverflowBecomesFloat",
			raw:     "msg [CONTEXT big=92233720368547758080 ]",
			wantMsg: "msg",
			wantMD:  map[string][]any{"big": {92233720368547758080.0}},
		},
		{
			name:    "TagOnlyKey",
			raw:     "msg [CONTEXT flagged ]",
			wantMsg: "msg",
			wantMD:  map[string][]any{"flagged": {}},
		},
		{
			name:    "RepeatedKeyAppends",
			raw:     "msg [CONTEXT k=1 k=2 k=three ]",
			wantMsg: "msg",
			wantMD:  map[string][]any{"k": {int64(1), int64(2), "three"}},
			// "three" is the degraded literal-string path.
			wantProblems: 1,
		},
		{
			name:    "NewlineBoundary",
			raw:     "line one\n[CONTEXT k=1 ]",
			wantMsg: "line one",
			wantMD:  map[string][]any{"k": {int64(1)}},
		},
		{
			name:    "BlockIsEntireMessage",
			raw:     "[CONTEXT k=1 ]",
			wantMsg: "",
			wantMD:  map[string][]any{"k": {int64(1)}},
		},
		{
			name:    "UnquotedStringFallback",
			raw:     "msg [CONTEXT path=/tmp/x ]",
			wantMsg: "msg",
			wantMD:  map[string][]any{"path": {"/tmp/x"}},
			// Literal fallback is diagnosable.
			wantProblems: 1,
		},
		{
			name:    "QuotedValueWithSpaces",
			raw:     `msg [CONTEXT q="a b c" ]`,
			wantMsg: "msg",
			wantMD:  map[string][]any{"q": {"a b c"}},
		},
		{
			name:         "UnknownEscapeKeptLiterally",
			raw:          `msg [CONTEXT q="a\qb" ]`,
			wantMsg:      "msg",
			wantMD:       map[string][]any{"q": {`a\qb`}},
			wantProblems: 1,
		},

		// Shapes that must NOT be recognized as context blocks.
		{
			name:    "NotTrailing",
			raw:     "msg [CONTEXT foo=true ] trailing text",
			wantMsg: "msg [CONTEXT foo=true ] trailing text",
			wantMD:  map[string][]any{},
		},
		{
			name:    "ExtraSpaceAfterBracket",
			raw:     "msg [ CONTEXT foo=true ]",
			wantMsg: "msg [ CONTEXT foo=true ]",
			wantMD:  map[string][]any{},
		},
		{
			name:    "LowercaseKeyword",
			raw:     "msg [context foo=true ]",
			wantMsg: "msg [context foo=true ]",
			wantMD:  map[string][]any{},
		},
		{
			name:    "MissingSpaceBeforeClose",
			raw:     "msg [CONTEXT foo=true]",
			wantMsg: "msg [CONTEXT foo=true]",
			wantMD:  map[string][]any{},
		},
		{
			name:    "NoBoundaryBeforeBlock",
			raw:     "msg[CONTEXT foo=true ]",
			wantMsg: "msg[CONTEXT foo=true ]",
			wantMD:  map[string][]any{},
		},
		{
			name:    "EmptyPairsRegion",
			raw:     "msg [CONTEXT ]",
			wantMsg: "msg [CONTEXT ]",
			wantMD:  map[string][]any{},
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			gotMsg, gotMD, problems := Decode(tc.raw)
			if gotMsg != tc.wantMsg {
				t.Errorf("Decode(%q) message = %q, want %q", tc.raw, gotMsg, tc.wantMsg)
			}
			if diff := cmp.Diff(tc.wantMD, flatten(gotMD)); diff != "" {
				t.Errorf("Decode(%q) metadata mismatch (-want +got):\n%s", tc.raw, diff)
			}
			if len(problems) != tc.wantProblems {
				t.Errorf("Decode(%q) problems = %v, want %d", tc.raw, problems, tc.wantProblems)
			}
		})
	}
}

// TestDecodeIdempotence re-decodes the clean message produced by Decode and
// expects it back unchanged with empty metadata.
func TestDecodeIdempotence(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"msg [CONTEXT foo=true bar=10 ]",
		"line one\n[CONTEXT k=1 ]",
		"plain",
		"[CONTEXT only ]",
	}
	for _, raw := range inputs {
		clean, _, _ := Decode(raw)
		again, md, problems := Decode(clean)
		if again != clean {
			t.Errorf("Decode(Decode(%q)) message = %q, want %q", raw, again, clean)
		}
		if !md.IsEmpty() {
			t.Errorf("Decode(Decode(%q)) metadata = %v, want empty", raw, flatten(md))
		}
		if len(problems) != 0 {
			t.Errorf("Decode(Decode(%q)) problems = %v, want none", raw, problems)
		}
	}
}

// TestDecodeEscapedBackslash verifies that an escaped backslash immediately
// before the closing quote does not swallow the quote.
func TestDecodeEscapedBackslash(t *testing.T) {
	t.Parallel()

	raw := `msg [CONTEXT a="x\\" b=1 ]`
	gotMsg, gotMD, _ := Decode(raw)
	if gotMsg != "msg" {
		t.Fatalf("Decode(%q) message = %q, want %q", raw, gotMsg, "msg")
	}
	want := map[string][]any{"a": {`x\`}, "b": {int64(1)}}
	if diff := cmp.Diff(want, flatten(gotMD)); diff != "" {
		t.Errorf("Decode(%q) metadata mismatch (-want +got):\n%s", raw, diff)
	}
}

// TestScanQuotedLoneBackslash exercises the malformed-escape path directly:
// the scanner keeps the remainder literally and flags the condition instead
// of panicking.
func TestScanQuotedLoneBackslash(t *testing.T) {
	t.Parallel()

	val, _, problems := scanQuoted(`"abc\`, 0)
	if val != `abc\` {
		t.Errorf("scanQuoted() = %q, want %q", val, `abc\`)
	}
	if len(problems) != 1 {
		t.Errorf("scanQuoted() problems = %v, want 1", problems)
	}
}

func TestEncode(t *testing.T) {
	t.Parallel()

	var md Metadata
	md.Append("foo", Bool(true))
	md.Append("bar", Int64(10))
	md.Append("baz", Float64(3.1415926))
	md.Append("quoted", Str("a \"b\"\nc\\d"))
	md.Append("tag")

	got := Encode("msg", md)
	want := `msg [CONTEXT foo=true bar=10 baz=3.1415926 quoted="a \"b\"\nc\\d" tag ]`
	if got != want {
		t.Fatalf("Encode() = %q, want %q", got, want)
	}

	if got := Encode("msg", Metadata{}); got != "msg" {
		t.Errorf("Encode() with empty metadata = %q, want %q", got, "msg")
	}
}

// TestEncodeDecodeRoundTrip verifies Decode is the exact inverse of Encode
// for all four value kinds, repeated keys, and tag-only keys.
func TestEncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()

	var md Metadata
	md.Append("b", Bool(false))
	md.Append("i", Int64(-7), Int64(12))
	md.Append("f", Float64(0.5))
	md.Append("s", Str("with space\tand tab"))
	md.Append("present")

	encoded := Encode("hello world", md)
	gotMsg, gotMD, problems := Decode(encoded)
	if gotMsg != "hello world" {
		t.Errorf("round trip message = %q, want %q", gotMsg, "hello world")
	}
	if diff := cmp.Diff(flatten(md), flatten(gotMD)); diff != "" {
		t.Errorf("round trip metadata mismatch (-want +got):\n%s", diff)
	}
	if len(problems) != 0 {
		t.Errorf("round trip problems = %v, want none", problems)
	}
}
