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

// Package logcapzerolog captures zerolog output through a zerolog.Hook.
//
// Hooks observe the level and the final message but not the structured
// fields already written to the event, so this adapter is partially capable:
// no cause and no call-site attribution. Metadata still round-trips when the
// message itself carries a context block, and the log call's context (set
// with zerolog's Ctx plumbing) is forwarded for trace identity.
package logcapzerolog

import (
	"io"
	"sync"

	"github.com/rs/zerolog"

	"github.com/pjscruggs/logcap"
)

// nativeThresholds maps zerolog's increasing level scale: Trace (-1) falls
// below Debug and classifies as FINEST.
var nativeThresholds = logcap.Thresholds{
	Fine:    int(zerolog.DebugLevel),
	Info:    int(zerolog.InfoLevel),
	Warning: int(zerolog.WarnLevel),
	Severe:  int(zerolog.ErrorLevel),
}

// Backend is a channel registry for zerolog capture. The zero value is not
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
func (b *Backend) Name() string { return "zerolog" }

// Thresholds implements logcap.Backend.
func (b *Backend) Thresholds() logcap.Thresholds { return nativeThresholds }

// Attach implements logcap.Backend.
func (b *Backend) Attach(name string, min logcap.Severity, deliver func(logcap.Event)) (func() error, error) {
	return b.channel(name).attach(nativeThresholds.NativeMin(min), deliver), nil
}

// Hook returns a zerolog.Hook feeding the named channel. Install it on an
// existing logger with Logger.Hook.
func (b *Backend) Hook(name string) zerolog.Hook {
	return hook{ch: b.channel(name)}
}

// Logger returns a discard-output zerolog logger whose events are captured
// on the named channel, for tests that do not already have a logger to tap.
func (b *Backend) Logger(name string) zerolog.Logger {
	return zerolog.New(io.Discard).With().Timestamp().Logger().Hook(b.Hook(name))
}

// EmitProbe implements logcap.Prober. The Err field is attached so the probe
// reflects what a real error log loses on the hook path.
func (b *Backend) EmitProbe(channel, msg string, cause error) {
	logger := b.Logger(channel)
	logger.Error().Err(cause).Msg(msg)
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

type hook struct {
	ch *channel
}

// Run translates one hook invocation into a channel event. Hooks run on the
// logging goroutine before the event is written, which keeps goroutine
// identity intact downstream.
func (h hook) Run(e *zerolog.Event, level zerolog.Level, message string) {
	if level == zerolog.Disabled {
		return
	}
	ev := logcap.Event{
		Level:     int(level),
		LevelName: zerolog.LevelFieldMarshalFunc(level),
		Message:   message,
	}
	if e != nil {
		ev.Ctx = e.GetCtx()
	}
	h.ch.dispatch(ev)
}

type channel struct {
	mu        sync.RWMutex
	listeners []*listener
}

type listener struct {
	min     int
	deliver func(logcap.Event)
}

func (c *channel) attach(min int, deliver func(logcap.Event)) (detach func() error) {
	l := &listener{min: min, deliver: deliver}
	c.mu.Lock()
	c.listeners = append(c.listeners, l)
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
