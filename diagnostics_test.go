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
	"log/slog"
	"sync"
	"testing"
)

// memHandler is a minimal slog.Handler collecting messages for inspection.
type memHandler struct {
	mu   sync.Mutex
	msgs []string
}

func (h *memHandler) Enabled(context.Context, slog.Level) bool { return true }
func (h *memHandler) WithAttrs([]slog.Attr) slog.Handler       { return h }
func (h *memHandler) WithGroup(string) slog.Handler            { return h }

func (h *memHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	h.msgs = append(h.msgs, r.Message)
	h.mu.Unlock()
	return nil
}

// occurrences counts exact message matches, so concurrent diagnostics from
// unrelated tests sharing the package logger cannot skew the assertion.
func (h *memHandler) occurrences(msg string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, m := range h.msgs {
		if m == msg {
			n++
		}
	}
	return n
}

func TestWarnOnceLatchesPerCategory(t *testing.T) {
	h := &memHandler{}
	SetDiagnosticLogger(slog.New(h))
	defer SetDiagnosticLogger(nil)

	warnOnce("test:category-a", "category a fired")
	warnOnce("test:category-a", "category a fired")
	warnOnce("test:category-a", "category a fired again")
	warnOnce("test:category-b", "category b fired")

	if got := h.occurrences("category a fired"); got != 1 {
		t.Errorf("category a warned %d times, want 1", got)
	}
	if got := h.occurrences("category a fired again"); got != 0 {
		t.Errorf("latched category warned again %d times, want 0", got)
	}
	if got := h.occurrences("category b fired"); got != 1 {
		t.Errorf("category b warned %d times, want 1", got)
	}
}

func TestSetDiagnosticLoggerNilRestoresDefault(t *testing.T) {
	h := &memHandler{}
	SetDiagnosticLogger(slog.New(h))
	SetDiagnosticLogger(nil)

	if diagnosticLogger() == nil {
		t.Fatal("diagnosticLogger() = nil after reset")
	}
	if diagnosticLogger().Handler() == slog.Handler(h) {
		t.Error("reset diagnostic logger still routes to the test handler")
	}
}

func TestDecodeMessageReportsDegradedParse(t *testing.T) {
	h := &memHandler{}
	SetDiagnosticLogger(slog.New(h))
	defer SetDiagnosticLogger(nil)

	// \q is not a recognized escape: kept literally, flagged.
	msg, md := DecodeMessage(`oops [CONTEXT note="a\qb" ]`)
	if msg != "oops" {
		t.Errorf("clean message = %q, want %q", msg, "oops")
	}
	vals := md.Values("note")
	if len(vals) != 1 || vals[0].StrVal() != `a\qb` {
		t.Errorf("Values(note) = %v, want the literal body", vals)
	}
	if got := h.occurrences("logcap: degraded metadata parse"); got == 0 {
		t.Error("degraded parse produced no diagnostic")
	}
}
