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
	"log/slog"
	"sync"
	"sync/atomic"
)

// packageDiag holds the logger used for the library's own diagnostics:
// degraded metadata parses, unknown call-site naming conventions, and
// capability shortfalls. nil means slog.Default().
var packageDiag atomic.Pointer[slog.Logger]

// SetDiagnosticLogger replaces the logger used for library diagnostics.
// Passing nil restores slog.Default(). Diagnostics are advisory; nothing in
// the capture or query paths depends on them being observed.
func SetDiagnosticLogger(l *slog.Logger) {
	packageDiag.Store(l)
}

func diagnosticLogger() *slog.Logger {
	if l := packageDiag.Load(); l != nil {
		return l
	}
	return slog.Default()
}

// warnLatches holds one sync.Once per diagnostic category so repeated
// conditions (e.g. an unrecognized naming convention hit on every log line)
// warn exactly once per process. This is intentional process-lifetime state,
// reset only between process runs.
var warnLatches sync.Map // category string -> *sync.Once

// warnOnce emits a diagnostic warning at most once per process for the given
// category.
func warnOnce(category, msg string, args ...any) {
	latch, _ := warnLatches.LoadOrStore(category, new(sync.Once))
	latch.(*sync.Once).Do(func() {
		diagnosticLogger().Warn(msg, args...)
	})
}
