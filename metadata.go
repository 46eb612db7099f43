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
	"github.com/pjscruggs/logcap/internal/wire"
)

// Metadata is the insertion-ordered multimap of typed key/value context
// recovered from a log message's trailing "[CONTEXT ... ]" block.
// It is an alias for the internal wire.Metadata type.
type Metadata = wire.Metadata

// Value is one typed metadata value: exactly a bool, int64, float64, or
// string. It is an alias for the internal wire.Value type.
type Value = wire.Value

// ValueKind identifies which of the four types a Value holds.
type ValueKind = wire.Kind

// The four supported metadata value kinds.
const (
	KindBool    ValueKind = wire.KindBool
	KindInt64   ValueKind = wire.KindInt64
	KindFloat64 ValueKind = wire.KindFloat64
	KindString  ValueKind = wire.KindString
)

// BoolValue returns a Value holding b.
func BoolValue(b bool) Value { return wire.Bool(b) }

// IntValue returns a Value holding i. Narrower integer types must be widened
// by the caller; the widening is lossless.
func IntValue(i int64) Value { return wire.Int64(i) }

// FloatValue returns a Value holding f.
func FloatValue(f float64) Value { return wire.Float64(f) }

// StringValue returns a Value holding s.
func StringValue(s string) Value { return wire.Str(s) }

// DecodeMessage splits a formatted log message into its clean message and
// the metadata encoded in a trailing context block. Inputs without a
// well-formed trailing block come back unchanged with empty metadata.
// DecodeMessage never fails; malformed content degrades to the most literal
// interpretation and is reported through the package diagnostic logger.
func DecodeMessage(raw string) (string, Metadata) {
	msg, md, problems := wire.Decode(raw)
	for _, p := range problems {
		diagnosticLogger().Warn("logcap: degraded metadata parse",
			"problem", p, "message", raw)
	}
	return msg, md
}

// AppendContext encodes md onto msg as a trailing context block, the exact
// inverse of DecodeMessage. Adapters use it to tunnel structured fields
// through backends that only carry a formatted message string.
func AppendContext(msg string, md Metadata) string {
	return wire.Encode(msg, md)
}
