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
	"math"
)

// Severity is the normalized 5-class ordinal used to compare log levels
// across backends. The ordering of the constants is the ordering of the
// classes; plain < and > comparisons are meaningful.
type Severity int

// The five severity classes, from least to most severe.
const (
	SeverityFinest Severity = iota
	SeverityFine
	SeverityInfo
	SeverityWarning
	SeveritySevere
)

// String returns the canonical upper-case name of the class, matching the
// names used in normalized level fields (e.g. "FINEST", "WARNING").
func (s Severity) String() string {
	switch s {
	case SeverityFinest:
		return "FINEST"
	case SeverityFine:
		return "FINE"
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARNING"
	case SeveritySevere:
		return "SEVERE"
	default:
		return fmt.Sprintf("SEVERITY(%d)", int(s))
	}
}

// Thresholds maps a backend's native numeric level scale onto Severity using
// four breakpoints. A native value below Fine classifies as SeverityFinest;
// otherwise the value classifies as the most severe class whose breakpoint it
// reaches. Backends whose scale decreases with severity must translate onto
// an increasing scale before building a Thresholds table.
type Thresholds struct {
	Fine    int
	Info    int
	Warning int
	Severe  int
}

// DefaultThresholds is the log/slog level scale (Debug -4, Info 0, Warn 4,
// Error 8). Interceptors fall back to it when neither the backend nor an
// option supplies a table.
var DefaultThresholds = Thresholds{Fine: -4, Info: 0, Warning: 4, Severe: 8}

// Classify converts a native level value into its severity class. It is
// total (never fails) and monotonic: a larger native value never classifies
// below a smaller one.
func (t Thresholds) Classify(native int) Severity {
	switch {
	case native >= t.Severe:
		return SeveritySevere
	case native >= t.Warning:
		return SeverityWarning
	case native >= t.Info:
		return SeverityInfo
	case native >= t.Fine:
		return SeverityFine
	default:
		return SeverityFinest
	}
}

// NativeMin returns the smallest native level value that classifies as s,
// used by adapters to translate a minimum severity into a backend-native
// filter threshold. SeverityFinest has no lower bound.
func (t Thresholds) NativeMin(s Severity) int {
	switch s {
	case SeveritySevere:
		return t.Severe
	case SeverityWarning:
		return t.Warning
	case SeverityInfo:
		return t.Info
	case SeverityFine:
		return t.Fine
	default:
		return math.MinInt
	}
}
