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

// Package logcapgrpc captures grpc-go's internal logging through a
// grpclog.LoggerV2. Install the logger with grpclog.SetLoggerV2 before any
// gRPC activity; grpc-go requires that from init time.
//
// grpclog carries a formatted string and nothing else, so the adapter is
// partially capable: no cause, no call site, no context. grpc-go's output is
// one undifferentiated stream and normally maps onto the single Channel.
package logcapgrpc

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"google.golang.org/grpc/grpclog"

	"github.com/pjscruggs/logcap"
)

// Channel is the channel name grpc-go's own logging is delivered on.
const Channel = "grpc"

// grpclog severity constants, in grpclog's own order.
const (
	levelInfo = iota
	levelWarning
	levelError
	levelFatal
)

var levelNames = [...]string{"INFO", "WARNING", "ERROR", "FATAL"}

// nativeThresholds: grpclog has no sub-info level, so nothing ever
// classifies FINE or below.
var nativeThresholds = logcap.Thresholds{
	Fine:    levelInfo - 1,
	Info:    levelInfo,
	Warning: levelWarning,
	Severe:  levelError,
}

// Backend is a channel registry for grpclog capture. The zero value is not
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
func (b *Backend) Name() string { return "grpclog" }

// Thresholds implements logcap.Backend.
func (b *Backend) Thresholds() logcap.Thresholds { return nativeThresholds }

// Attach implements logcap.Backend. grpc-go itself only feeds Channel, but
// arbitrary names are accepted so probing and multi-logger setups work.
func (b *Backend) Attach(name string, min logcap.Severity, deliver func(logcap.Event)) (func() error, error) {
	return b.channel(name).attach(nativeThresholds.NativeMin(min), deliver), nil
}

// Logger returns a grpclog.LoggerV2 feeding Channel, for
// grpclog.SetLoggerV2.
func (b *Backend) Logger() grpclog.LoggerV2 {
	return &loggerV2{ch: b.channel(Channel)}
}

// EmitProbe implements logcap.Prober. grpclog has no error field, so the
// cause is dropped, which is exactly what the capability grade should see.
func (b *Backend) EmitProbe(channel, msg string, _ error) {
	l := &loggerV2{ch: b.channel(channel)}
	l.Error(msg)
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

// loggerV2 adapts the fan-out channel to grpclog's nine logging methods.
type loggerV2 struct {
	ch *channel
}

func (l *loggerV2) log(level int, msg string) {
	l.ch.dispatch(logcap.Event{
		Level:     level,
		LevelName: levelNames[level],
		Message:   msg,
	})
}

func (l *loggerV2) Info(args ...any)                 { l.log(levelInfo, fmt.Sprint(args...)) }
func (l *loggerV2) Infoln(args ...any)               { l.log(levelInfo, sprintln(args)) }
func (l *loggerV2) Infof(format string, args ...any) { l.log(levelInfo, fmt.Sprintf(format, args...)) }

func (l *loggerV2) Warning(args ...any)   { l.log(levelWarning, fmt.Sprint(args...)) }
func (l *loggerV2) Warningln(args ...any) { l.log(levelWarning, sprintln(args)) }
func (l *loggerV2) Warningf(format string, args ...any) {
	l.log(levelWarning, fmt.Sprintf(format, args...))
}

func (l *loggerV2) Error(args ...any)                 { l.log(levelError, fmt.Sprint(args...)) }
func (l *loggerV2) Errorln(args ...any)               { l.log(levelError, sprintln(args)) }
func (l *loggerV2) Errorf(format string, args ...any) { l.log(levelError, fmt.Sprintf(format, args...)) }

// Fatal delivers before exiting, so the crash reason is captured even though
// the process is about to die. grpclog requires Fatal to exit.
func (l *loggerV2) Fatal(args ...any) {
	l.log(levelFatal, fmt.Sprint(args...))
	os.Exit(1)
}

func (l *loggerV2) Fatalln(args ...any) {
	l.log(levelFatal, sprintln(args))
	os.Exit(1)
}

func (l *loggerV2) Fatalf(format string, args ...any) {
	l.log(levelFatal, fmt.Sprintf(format, args...))
	os.Exit(1)
}

// V claims every verbosity level so nothing is filtered before capture.
func (l *loggerV2) V(int) bool { return true }

func sprintln(args []any) string {
	return strings.TrimSuffix(fmt.Sprintln(args...), "\n")
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
