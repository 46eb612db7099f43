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

// Package logcapslog captures log/slog output. It is the fully capable
// adapter: the slog record carries the call-site program counter, structured
// attributes, and the log call's context, so captured records have call-site
// attribution, metadata, cause, and trace identity.
//
// Use Logger to obtain a *slog.Logger bound to a named channel, or route an
// existing logger through NewHandler. Logging on a channel with no listeners
// is a cheap no-op.
package logcapslog

import (
	"sync"

	"github.com/pjscruggs/logcap"
)

// Backend is a channel registry for slog capture. The zero value is not
// usable; call New.
type Backend struct {
	mu       sync.Mutex
	channels map[string]*channel
}

// New returns an empty backend with no channels attached.
func New() *Backend {
	return &Backend{channels: make(map[string]*channel)}
}

// Name implements logcap.Backend.
func (b *Backend) Name() string { return "slog" }

// Thresholds implements logcap.Backend. slog's scale is the package default.
func (b *Backend) Thresholds() logcap.Thresholds { return logcap.DefaultThresholds }

// Attach implements logcap.Backend. The minimum severity is translated to a
// native slog level so disabled log calls short-circuit in Enabled.
func (b *Backend) Attach(name string, min logcap.Severity, deliver func(logcap.Event)) (func() error, error) {
	ch := b.channel(name)
	return ch.attach(b.Thresholds().NativeMin(min), deliver), nil
}

func (b *Backend) channel(name string) *channel {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch, ok := b.channels[name]
	if !ok {
		ch = &channel{}
		b.channels[name] = ch
	}
	return ch
}

// channel fans slog records out to its listeners. Listener slots are
// append-only; detach nils the slot so indices held by closures stay valid.
type channel struct {
	mu        sync.RWMutex
	listeners []*listener
}

type listener struct {
	min     int
	deliver func(logcap.Event)
}

func (c *channel) attach(min int, deliver func(logcap.Event)) (detach func() error) {
	c.mu.Lock()
	c.listeners = append(c.listeners, &listener{min: min, deliver: deliver})
	l := c.listeners[len(c.listeners)-1]
	c.mu.Unlock()
	var once sync.Once
	return func() error {
		once.Do(func() {
			c.mu.Lock()
			for i, cand := range c.listeners {
				if cand == l {
					c.listeners = append(c.listeners[:i], c.listeners[i+1:]...)
					break
				}
			}
			c.mu.Unlock()
		})
		return nil
	}
}

func (c *channel) enabled(level int) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, l := range c.listeners {
		if level >= l.min {
			return true
		}
	}
	return false
}

func (c *channel) dispatch(ev logcap.Event) {
	c.mu.RLock()
	listeners := append([]*listener(nil), c.listeners...)
	c.mu.RUnlock()
	for _, l := range listeners {
		if ev.Level >= l.min {
			l.deliver(ev)
		}
	}
}
