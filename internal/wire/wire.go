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

// Package wire implements the embedded-metadata wire format shared with
// logging backends: a trailing "[CONTEXT key=value ... ]" block appended to a
// formatted message. Decode recovers the clean message and the typed metadata;
// Encode is its exact inverse. The grammar is a boundary contract with
// existing emitters, so spacing and escaping here are bit-exact and must not
// be "improved".
package wire

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Kind identifies which of the four supported value types a Value holds.
type Kind int

// The four metadata value kinds. Integers narrower than 64 bits are widened
// losslessly to KindInt64 before storage.
const (
	KindBool Kind = iota
	KindInt64
	KindFloat64
	KindString
)

// String returns a short lower-case name for the kind.
func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt64:
		return "int64"
	case KindFloat64:
		return "float64"
	case KindString:
		return "string"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is an immutable tagged union over the four supported metadata types.
// The zero Value is an empty string.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
}

// Bool returns a Value holding b.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int64 returns a Value holding i.
func Int64(i int64) Value { return Value{kind: KindInt64, i: i} }

// Float64 returns a Value holding f.
func Float64(f float64) Value { return Value{kind: KindFloat64, f: f} }

// Str returns a Value holding s.
func Str(s string) Value { return Value{kind: KindString, s: s} }

// Kind reports which type the value holds.
func (v Value) Kind() Kind { return v.kind }

// BoolVal returns the boolean payload, or false when the kind is not KindBool.
func (v Value) BoolVal() bool { return v.b }

// Int64Val returns the integer payload, or 0 when the kind is not KindInt64.
func (v Value) Int64Val() int64 { return v.i }

// Float64Val returns the float payload, or 0 when the kind is not KindFloat64.
func (v Value) Float64Val() float64 { return v.f }

// StrVal returns the string payload, or "" when the kind is not KindString.
func (v Value) StrVal() string { return v.s }

// Any returns the payload as an untyped value.
func (v Value) Any() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt64:
		return v.i
	case KindFloat64:
		return v.f
	default:
		return v.s
	}
}

// Equal reports whether two values hold the same kind and payload.
func (v Value) Equal(o Value) bool { return v == o }

// String formats the payload for human-readable output. KindString payloads
// are returned verbatim; other kinds use their canonical literal form.
func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt64:
		return strconv.FormatInt(v.i, 10)
	case KindFloat64:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	default:
		return v.s
	}
}

// Metadata is an insertion-ordered multimap from key to typed values. A key
// may be present with an empty value list (tag-only presence). The zero value
// is an empty, usable map.
type Metadata struct {
	keys   []string
	values map[string][]Value
}

// Append adds vals to key's value list, registering the key on first use.
// Calling Append with no values registers tag-only presence.
func (m *Metadata) Append(key string, vals ...Value) {
	if m.values == nil {
		m.values = make(map[string][]Value)
	}
	if _, seen := m.values[key]; !seen {
		m.keys = append(m.keys, key)
		m.values[key] = nil
	}
	m.values[key] = append(m.values[key], vals...)
}

// Keys returns the metadata keys in first-insertion order.
func (m Metadata) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Values returns the ordered values recorded for key. The returned slice is
// a copy; it is empty (but non-nil presence is reported by Has) for tag-only
// keys and nil for absent keys.
func (m Metadata) Values(key string) []Value {
	vals, ok := m.values[key]
	if !ok {
		return nil
	}
	out := make([]Value, len(vals))
	copy(out, vals)
	return out
}

// Has reports whether key was registered, with or without values.
func (m Metadata) Has(key string) bool {
	_, ok := m.values[key]
	return ok
}

// Len returns the number of distinct keys.
func (m Metadata) Len() int { return len(m.keys) }

// IsEmpty reports whether no keys are registered.
func (m Metadata) IsEmpty() bool { return len(m.keys) == 0 }

// Clone returns an independent copy of the metadata.
func (m Metadata) Clone() Metadata {
	var out Metadata
	for _, k := range m.keys {
		out.Append(k, m.values[k]...)
	}
	return out
}

// contextBlock matches a well-formed trailing context block: an optional
// space-or-newline boundary, the literal "[CONTEXT ", one or more
// key[=value] pairs each followed by a single space, and the closing "]"
// anchored to the end of the message. Values are either double-quoted with
// backslash escapes or unquoted tokens that do not start with a quote and
// contain no whitespace.
var contextBlock = regexp.MustCompile(
	`(?:^|[ \n])\[CONTEXT ((?:[^\s=]+(?:=(?:"(?:[^"\\]|\\.)*"|[^\s"]\S*))? )+)\]$`)

// Decode splits raw into its clean message and the metadata recovered from a
// trailing context block. When no well-formed block is present the whole
// input is returned as the message with empty metadata. Decode never fails:
// malformed content inside an otherwise well-formed block degrades to the
// most literal interpretation available, and each degradation is reported in
// problems for optional diagnostics.
func Decode(raw string) (msg string, md Metadata, problems []string) {
	loc := contextBlock.FindStringSubmatchIndex(raw)
	if loc == nil {
		return raw, Metadata{}, nil
	}
	// loc[0] is the start of the match including the boundary character (if
	// any), so slicing there also strips the separating space or newline.
	msg = raw[:loc[0]]
	problems = parsePairs(raw[loc[2]:loc[3]], &md)
	return msg, md, problems
}

// parsePairs scans the pairs region of a context block. The region has
// already been shape-validated by contextBlock, but the scanner still never
// panics on unexpected input; it records a problem and keeps going.
func parsePairs(s string, md *Metadata) (problems []string) {
	i := 0
	for i < len(s) {
		j := i
		for j < len(s) && s[j] != '=' && s[j] != ' ' {
			j++
		}
		key := s[i:j]
		if key == "" {
			// Stray separator; skip it rather than loop forever.
			i = j + 1
			continue
		}
		if j >= len(s) || s[j] == ' ' {
			md.Append(key)
			i = j + 1
			continue
		}
		// s[j] == '=': a value follows.
		j++
		if j < len(s) && s[j] == '"' {
			val, next, probs := scanQuoted(s, j)
			problems = append(problems, probs...)
			md.Append(key, Str(val))
			i = next + 1 // skip the separating space
			continue
		}
		k := j
		for k < len(s) && s[k] != ' ' {
			k++
		}
		token := s[j:k]
		val, prob := inferValue(token)
		if prob != "" {
			problems = append(problems, prob)
		}
		md.Append(key, val)
		i = k + 1
	}
	return problems
}

// scanQuoted consumes a double-quoted value starting at the opening quote,
// returning the unescaped body and the index just past the closing quote.
// A malformed trailing escape or missing close quote is kept literally and
// reported, never raised.
func scanQuoted(s string, start int) (val string, next int, problems []string) {
	var sb strings.Builder
	i := start + 1
	for i < len(s) {
		c := s[i]
		switch c {
		case '"':
			return sb.String(), i + 1, problems
		case '\\':
			if i+1 >= len(s) {
				sb.WriteByte('\\')
				problems = append(problems, "trailing backslash in quoted value")
				return sb.String(), i + 1, problems
			}
			e := s[i+1]
			switch e {
			case '\\', '"':
				sb.WriteByte(e)
			case 'n':
				sb.WriteByte('\n')
			case 'r':
				sb.WriteByte('\r')
			case 't':
				sb.WriteByte('\t')
			default:
				sb.WriteByte('\\')
				sb.WriteByte(e)
				problems = append(problems, fmt.Sprintf("unknown escape %q in quoted value", string([]byte{'\\', e})))
			}
			i += 2
		default:
			sb.WriteByte(c)
			i++
		}
	}
	problems = append(problems, "unterminated quoted value")
	return sb.String(), i, problems
}

// inferValue applies the unquoted-token inference order: boolean, then
// 64-bit integer, then 64-bit float, then literal string. The string
// fallback is the degraded path and is reported as a problem.
func inferValue(token string) (Value, string) {
	if strings.EqualFold(token, "true") {
		return Bool(true), ""
	}
	if strings.EqualFold(token, "false") {
		return Bool(false), ""
	}
	if i, err := strconv.ParseInt(token, 10, 64); err == nil {
		return Int64(i), ""
	}
	if f, err := strconv.ParseFloat(token, 64); err == nil {
		return Float64(f), ""
	}
	return Str(token), fmt.Sprintf("unquoted value %q kept as literal string", token)
}

// escaper rewrites the five characters the wire format escapes in quoted
// values. Anything else passes through untouched.
var escaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

// Encode appends md to msg as a trailing context block, or returns msg
// unchanged when md is empty. Decode(Encode(msg, md)) recovers msg and md
// exactly, provided msg itself carries no trailing context block.
func Encode(msg string, md Metadata) string {
	if md.IsEmpty() {
		return msg
	}
	var sb strings.Builder
	sb.WriteString(msg)
	if msg != "" && !strings.HasSuffix(msg, "\n") {
		sb.WriteByte(' ')
	}
	sb.WriteString("[CONTEXT ")
	for _, key := range md.keys {
		vals := md.values[key]
		if len(vals) == 0 {
			sb.WriteString(key)
			sb.WriteByte(' ')
			continue
		}
		for _, v := range vals {
			sb.WriteString(key)
			sb.WriteByte('=')
			if v.Kind() == KindString {
				sb.WriteByte('"')
				sb.WriteString(escaper.Replace(v.StrVal()))
				sb.WriteByte('"')
			} else {
				sb.WriteString(v.String())
			}
			sb.WriteByte(' ')
		}
	}
	sb.WriteByte(']')
	return sb.String()
}
