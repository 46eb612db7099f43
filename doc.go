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

// Package logcap captures log output during tests and makes assertions
// about it: what was logged, at what severity, from where, and in what
// order.
//
// # Model
//
// A Backend adapter taps one logging library and delivers raw events per
// named channel. An Interceptor attaches to channels, normalizes each event
// into an immutable Record, and accumulates records in capture order. A
// Sequence snapshot of those records is then narrowed with predicates and
// comparative filters and checked with the Every, Any, and None quantifiers.
//
// Severity is normalized onto five classes (FINEST, FINE, INFO, WARNING,
// SEVERE) so assertions survive a change of logging backend. Each adapter
// publishes the Thresholds table for its native level scale.
//
// Structured context travels inside the message as a trailing block of the
// form
//
//	payload sent [CONTEXT user="bob" attempt=2 final=true ]
//
// which DecodeMessage splits back into the clean message and typed
// Metadata. Adapters that can see structured fields encode them into this
// block with AppendContext, so metadata survives backends that only carry a
// formatted string.
//
// # Capturing
//
// The usual entry point is the logcaptest subpackage, which ties capture to
// a test's lifecycle. The manual equivalent:
//
//	backend := logcapslog.New()
//	in := logcap.NewInterceptor(backend)
//	h, err := in.Attach("app.server", logcap.SeverityFine)
//	if err != nil { ... }
//	defer in.Close()
//
//	logger := backend.Logger("app.server")
//	logger.Warn("request slow", "elapsed_ms", 1840)
//
//	recs := in.Records()
//	err = recs.None(logcap.SeverityAtLeast(logcap.SeveritySevere))
//
// Quantifier failures return a QuantifierError carrying a bounded sample of
// the offending records. Filters that compare against a reference record
// (Before, InSameThread, and the rest) panic if the reference is not a
// member of the sequence being filtered, since that is a bug in the test,
// not a property of the logs.
//
// Records tagged with a test_id metadata value can be isolated per test:
// with WithTestID, records tagged for a different test are dropped while
// untagged records still flow. Parallel tests can then share one process
// logger without seeing each other's noise.
//
// # Adapters
//
// Four adapters ship as subpackages: logcapslog (log/slog, fully capable),
// logcaplogrus (logrus; fully capable when the tapped logger reports
// callers), logcapzerolog and logcapgrpc (hook- and string-based, partially
// capable). Probe grades a live adapter by pushing a scripted event through
// it, and SelectBackend picks the most capable of several candidates.
//
// Degraded conditions inside the library (malformed context blocks,
// unresolvable call sites, failed detaches) never fail capture; they are
// reported through the diagnostic logger, see SetDiagnosticLogger.
package logcap
