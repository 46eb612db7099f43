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
	"errors"
	"runtime"
	"testing"
)

// fakeProber emits the scripted probe with a configurable fidelity, standing
// in for adapters that preserve more or less of the original log call.
type fakeProber struct {
	*fakeBackend
	fidelity Capability
	silent   bool
}

func newFakeProber(name string, fidelity Capability) *fakeProber {
	b := newFakeBackend()
	b.name = name
	return &fakeProber{fakeBackend: b, fidelity: fidelity}
}

func (p *fakeProber) EmitProbe(channel, msg string, cause error) {
	if p.silent {
		return
	}
	ev := Event{Level: 0, Message: msg}
	if p.fidelity == CapabilityFull {
		ev.Cause = cause
		pc, _, _, _ := runtime.Caller(0)
		ev.PC = pc
	}
	p.Emit(channel, ev)
}

func TestCapabilityString(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		c    Capability
		want string
	}{
		{CapabilityNone, "NONE"},
		{CapabilityPartial, "PARTIAL"},
		{CapabilityFull, "FULL"},
		{Capability(9), "CAPABILITY(9)"},
	}
	for _, tc := range testCases {
		tc := tc
		if got := tc.c.String(); got != tc.want {
			t.Errorf("Capability(%d).String() = %q, want %q", int(tc.c), got, tc.want)
		}
	}
}

func TestProbeGrading(t *testing.T) {
	t.Parallel()

	t.Run("FullPipeline", func(t *testing.T) {
		t.Parallel()
		if got := Probe(newFakeProber("full", CapabilityFull)); got != CapabilityFull {
			t.Errorf("Probe() = %v, want FULL", got)
		}
	})
	t.Run("MessageOnlyPipeline", func(t *testing.T) {
		t.Parallel()
		if got := Probe(newFakeProber("partial", CapabilityPartial)); got != CapabilityPartial {
			t.Errorf("Probe() = %v, want PARTIAL", got)
		}
	})
	t.Run("SilentPipeline", func(t *testing.T) {
		t.Parallel()
		p := newFakeProber("silent", CapabilityFull)
		p.silent = true
		if got := Probe(p); got != CapabilityNone {
			t.Errorf("Probe() = %v, want NONE", got)
		}
	})
	t.Run("NotAProber", func(t *testing.T) {
		t.Parallel()
		if got := Probe(newFakeBackend()); got != CapabilityNone {
			t.Errorf("Probe() = %v, want NONE for a backend without EmitProbe", got)
		}
	})
	t.Run("NilBackend", func(t *testing.T) {
		t.Parallel()
		if got := Probe(nil); got != CapabilityNone {
			t.Errorf("Probe(nil) = %v, want NONE", got)
		}
	})
	t.Run("AttachFailure", func(t *testing.T) {
		t.Parallel()
		p := newFakeProber("broken", CapabilityFull)
		p.attachErr = errors.New("no channels available")
		if got := Probe(p); got != CapabilityNone {
			t.Errorf("Probe() = %v, want NONE when attach fails", got)
		}
	})
}

// TestProbeDetaches verifies the probe attachment does not leak: the probe
// listener is gone once Probe returns.
func TestProbeDetaches(t *testing.T) {
	t.Parallel()

	p := newFakeProber("tidy", CapabilityFull)
	if got := Probe(p); got != CapabilityFull {
		t.Fatalf("Probe() = %v, want FULL", got)
	}
	p.mu.Lock()
	detached := p.detached
	p.mu.Unlock()
	if detached != 1 {
		t.Errorf("probe left %d detach calls, want 1", detached)
	}
}

func TestSelectBackend(t *testing.T) {
	t.Parallel()

	full := newFakeProber("full", CapabilityFull)
	full2 := newFakeProber("full2", CapabilityFull)
	partial := newFakeProber("partial", CapabilityPartial)
	var none Backend = newFakeBackend()

	testCases := []struct {
		name       string
		candidates []Backend
		wantName   string
		wantCap    Capability
	}{
		{"FullBeatsPartial", []Backend{partial, full}, "full", CapabilityFull},
		{"OrderBreaksTies", []Backend{full, full2}, "full", CapabilityFull},
		{"PartialBeatsNone", []Backend{none, partial}, "partial", CapabilityPartial},
		{"NoneIsStillSelected", []Backend{none}, "fake", CapabilityNone},
		{"NilCandidatesSkipped", []Backend{nil, partial, nil}, "partial", CapabilityPartial},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			b, c := SelectBackend(tc.candidates...)
			if b == nil {
				t.Fatal("SelectBackend() returned nil backend")
			}
			if b.Name() != tc.wantName || c != tc.wantCap {
				t.Errorf("SelectBackend() = (%q, %v), want (%q, %v)",
					b.Name(), c, tc.wantName, tc.wantCap)
			}
		})
	}

	t.Run("Empty", func(t *testing.T) {
		t.Parallel()
		b, c := SelectBackend()
		if b != nil || c != CapabilityNone {
			t.Errorf("SelectBackend() = (%v, %v), want (nil, NONE)", b, c)
		}
	})
}
