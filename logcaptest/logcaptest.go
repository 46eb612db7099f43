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

// Package logcaptest binds capture to the lifecycle of one Go test: Install
// attaches at the start, the test's cleanup detaches, and an optional
// per-test isolation id keeps parallel tests from seeing each other's tagged
// records.
package logcaptest

import (
	"testing"

	"github.com/google/uuid"

	"github.com/pjscruggs/logcap"
)

// Config describes what one test wants captured.
type Config struct {
	// Backend is the adapter to tap. Required.
	Backend logcap.Backend
	// Channels maps each channel to attach onto its minimum severity.
	// At least one entry is required.
	Channels map[string]logcap.Severity
	// Isolate assigns the capture a fresh test id. Records tagged with a
	// different id are dropped; untagged records are still captured. Tag
	// produced messages with Capture.Tag.
	Isolate bool
	// Options are extra attachment options, applied after the ones Install
	// derives from this config.
	Options []logcap.Option
}

// Capture is one test's window onto the log stream. All methods are safe for
// concurrent use.
type Capture struct {
	t      testing.TB
	in     *logcap.Interceptor
	testID string
}

// Install attaches capture per cfg and schedules detach on test cleanup.
// Configuration mistakes fail the test immediately.
func Install(t testing.TB, cfg Config) *Capture {
	t.Helper()
	if cfg.Backend == nil {
		t.Fatal("logcaptest: Config.Backend is required")
	}
	if len(cfg.Channels) == 0 {
		t.Fatal("logcaptest: Config.Channels must name at least one channel")
	}

	c := &Capture{t: t}
	opts := make([]logcap.Option, 0, len(cfg.Options)+1)
	if cfg.Isolate {
		c.testID = uuid.NewString()
		opts = append(opts, logcap.WithTestID(c.testID))
	}
	opts = append(opts, cfg.Options...)

	c.in = logcap.NewInterceptor(cfg.Backend, opts...)
	for channel, min := range cfg.Channels {
		if _, err := c.in.Attach(channel, min); err != nil {
			_ = c.in.Close()
			t.Fatalf("logcaptest: attach %q: %v", channel, err)
		}
	}
	t.Cleanup(func() { _ = c.in.Close() })
	return c
}

// TestID returns the isolation id, or "" when Isolate was off.
func (c *Capture) TestID() string { return c.testID }

// Records returns a snapshot of everything captured so far.
func (c *Capture) Records() logcap.Sequence { return c.in.Records() }

// Tag stamps msg with this capture's test id so the resulting record passes
// the isolation filter. Without isolation the message is returned unchanged.
func (c *Capture) Tag(msg string) string {
	if c.testID == "" {
		return msg
	}
	md := logcap.Metadata{}
	md.Append(logcap.TestIDKey, logcap.StringValue(c.testID))
	return logcap.AppendContext(msg, md)
}

// Every fails the test unless every captured record matches p.
func (c *Capture) Every(p logcap.Predicate) {
	c.t.Helper()
	if err := c.Records().Every(p); err != nil {
		c.t.Fatal(err)
	}
}

// Any fails the test unless at least one captured record matches p.
func (c *Capture) Any(p logcap.Predicate) {
	c.t.Helper()
	if err := c.Records().Any(p); err != nil {
		c.t.Fatal(err)
	}
}

// None fails the test if any captured record matches p.
func (c *Capture) None(p logcap.Predicate) {
	c.t.Helper()
	if err := c.Records().None(p); err != nil {
		c.t.Fatal(err)
	}
}
