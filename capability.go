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
	"fmt"
)

// Capability grades how much of a record an adapter can actually populate,
// as observed by probing the live pipeline rather than trusting the
// adapter's documentation.
type Capability int

const (
	// CapabilityNone: the probe event never reached the collector. The
	// adapter is not usable for capture in this process.
	CapabilityNone Capability = iota
	// CapabilityPartial: events arrive, but the adapter loses the cause
	// or the call site. Message and severity assertions still work.
	CapabilityPartial
	// CapabilityFull: events arrive with cause, call-site attribution,
	// and intact metadata.
	CapabilityFull
)

// String returns "NONE", "PARTIAL" or "FULL".
func (c Capability) String() string {
	switch c {
	case CapabilityNone:
		return "NONE"
	case CapabilityPartial:
		return "PARTIAL"
	case CapabilityFull:
		return "FULL"
	default:
		return fmt.Sprintf("CAPABILITY(%d)", int(c))
	}
}

// probeChannel is reserved for capability probes. Adapters treat it like any
// other channel name.
const probeChannel = "logcap.probe"

// errProbe is the scripted cause pushed through the adapter during a probe.
var errProbe = errors.New("capability probe")

// Probe attaches to the backend's probe channel, pushes one scripted event
// through the adapter's native pipeline, and grades what came out the other
// side. Backends that do not implement Prober grade as CapabilityNone, since
// nothing can be verified about them.
func Probe(b Backend, opts ...Option) Capability {
	if b == nil {
		return CapabilityNone
	}
	prober, ok := b.(Prober)
	if !ok {
		diagnosticLogger().Warn("logcap: backend is not probeable",
			"backend", b.Name())
		return CapabilityNone
	}

	var got []*Record
	h, err := AttachCollector(b, probeChannel, SeverityFinest,
		func(r *Record) { got = append(got, r) }, opts...)
	if err != nil {
		diagnosticLogger().Warn("logcap: probe attach failed",
			"backend", b.Name(), "error", err)
		return CapabilityNone
	}
	defer h.Close()

	// Delivery is synchronous per the Backend contract, so got is
	// complete once EmitProbe returns.
	prober.EmitProbe(probeChannel, "capability probe [CONTEXT probe=true ]", errProbe)
	if len(got) == 0 {
		return CapabilityNone
	}

	r := got[0]
	if r.Cause() != nil && r.ClassName() != UnknownName && r.HasMetadata("probe") {
		return CapabilityFull
	}
	return CapabilityPartial
}

// SelectBackend probes every candidate and returns the most capable one,
// breaking ties in favor of the earliest candidate. It returns (nil,
// CapabilityNone) when no candidate is given. A winner below CapabilityFull
// is reported through the diagnostic logger so degraded assertions do not
// surprise later.
func SelectBackend(candidates ...Backend) (Backend, Capability) {
	var best Backend
	bestCap := CapabilityNone
	for _, b := range candidates {
		if b == nil {
			continue
		}
		c := Probe(b)
		if best == nil || c > bestCap {
			best, bestCap = b, c
		}
		if bestCap == CapabilityFull {
			break
		}
	}
	if best != nil && bestCap < CapabilityFull {
		diagnosticLogger().Warn("logcap: selected backend is not fully capable",
			"backend", best.Name(), "capability", bestCap.String())
	}
	return best, bestCap
}
