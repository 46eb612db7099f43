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

// Package logcaplogrus captures logrus output through a logrus.Hook.
//
// Hooks receive the full entry, so fields, the WithError cause, the entry's
// context, and the entry time all survive capture. Call-site attribution
// needs the caller frame, which logrus only computes when the tapped logger
// has SetReportCaller(true); without it records attribute to the unknown
// name.
//
// logrus levels decrease as severity increases, so they are flipped onto an
// increasing native scale before classification.
package logcaplogrus

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/pjscruggs/logcap"
)

// toNative flips logrus's decreasing scale (Panic 0 .. Trace 6) into an
// increasing one (Trace 0 .. Panic 6).
func toNative(l logrus.Level) int {
	return int(logrus.TraceLevel) - int(l)
}

var nativeThresholds = logcap.Thresholds{
	Fine:    toNative(logrus.DebugLevel),
	Info:    toNative(logrus.InfoLevel),
	Warning: toNative(logrus.WarnLevel),
	Severe:  toNative(logrus.ErrorLevel),
}

// Backend is a channel registry for logrus capture. The zero value is not
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
func (b *Backend) Name() string { return "logrus" }

// Thresholds implements logcap.Backend, on the flipped scale.
func (b *Backend) Thresholds() logcap.Thresholds { return nativeThresholds }

// Attach implements logcap.Backend.
func (b *Backend) Attach(name string, min logcap.Severity, deliver func(logcap.Event)) (func() error, error) {
	return b.channel(name).attach(nativeThresholds.NativeMin(min), deliver), nil
}

// Hook returns a logrus.Hook feeding the named channel. Install it on an
// existing logger with AddHook.
func (b *Backend) Hook(name string) logrus.Hook {
	return &hook{ch: b.channel(name)}
}

// Logger returns a discard-output logrus logger captured on the named
// channel. Caller reporting is enabled so records carry call-site names.
func (b *Backend) Logger(name string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logger.SetLevel(logrus.TraceLevel)
	logger.SetReportCaller(true)
	logger.AddHook(b.Hook(name))
	return logger
}

// EmitProbe implements logcap.Prober through a caller-reporting logger, the
// adapter's best-case configuration.
func (b *Backend) EmitProbe(channel, msg string, cause error) {
	b.Logger(channel).WithError(cause).Error(msg)
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

// Levels subscribes to everything; listener minimums filter downstream.
func (h *hook) Levels() []logrus.Level { return logrus.AllLevels }

// Fire translates one entry into a channel event. Fields ride inside the
// message as a context block; the logrus.ErrorKey field becomes the cause.
func (h *hook) Fire(entry *logrus.Entry) error {
	md := logcap.Metadata{}
	var cause error

	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := entry.Data[k]
		if k == logrus.ErrorKey {
			if err, ok := v.(error); ok {
				cause = err
				continue
			}
		}
		md.Append(k, fieldValue(v))
	}

	ev := logcap.Event{
		Level:     toNative(entry.Level),
		LevelName: entry.Level.String(),
		Message:   logcap.AppendContext(entry.Message, md),
		Time:      entry.Time,
		Cause:     cause,
		Ctx:       entry.Context,
	}
	if entry.Caller != nil {
		ev.PC = entry.Caller.PC
	}
	h.ch.dispatch(ev)
	return nil
}

// fieldValue narrows one logrus field into a metadata value, stringifying
// anything outside the four wire kinds.
func fieldValue(v any) logcap.Value {
	switch x := v.(type) {
	case bool:
		return logcap.BoolValue(x)
	case int:
		return logcap.IntValue(int64(x))
	case int8:
		return logcap.IntValue(int64(x))
	case int16:
		return logcap.IntValue(int64(x))
	case int32:
		return logcap.IntValue(int64(x))
	case int64:
		return logcap.IntValue(x)
	case uint:
		return logcap.IntValue(int64(x))
	case uint8:
		return logcap.IntValue(int64(x))
	case uint16:
		return logcap.IntValue(int64(x))
	case uint32:
		return logcap.IntValue(int64(x))
	case uint64:
		return logcap.IntValue(int64(x))
	case float32:
		return logcap.FloatValue(float64(x))
	case float64:
		return logcap.FloatValue(x)
	case string:
		return logcap.StringValue(x)
	default:
		return logcap.StringValue(fmt.Sprint(x))
	}
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
