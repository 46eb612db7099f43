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

package logcapslog

import (
	"context"
	"log/slog"

	"github.com/pjscruggs/logcap"
)

// causeKeys are the attribute keys treated as the record's cause when their
// value is an error. The first match wins and is consumed.
var causeKeys = map[string]bool{"err": true, "error": true}

// Logger returns a *slog.Logger whose output is captured on the named
// channel. Loggers for the same channel share listeners.
func (b *Backend) Logger(name string) *slog.Logger {
	return slog.New(b.NewHandler(name))
}

// NewHandler returns a slog.Handler that feeds the named channel, for wiring
// capture into an existing logger, possibly beside another handler.
func (b *Backend) NewHandler(name string) slog.Handler {
	return &handler{ch: b.channel(name)}
}

// handler translates slog records into channel events. WithAttrs and
// WithGroup follow the usual immutable-handler discipline.
type handler struct {
	ch     *channel
	prefix string
	attrs  []slog.Attr
}

// Enabled reports whether any listener wants this level, so silent channels
// cost one RLock per log call.
func (h *handler) Enabled(_ context.Context, level slog.Level) bool {
	return h.ch.enabled(int(level))
}

func (h *handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	h2 := *h
	h2.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	h2.attrs = append(h2.attrs, h.attrs...)
	for _, a := range attrs {
		h2.attrs = append(h2.attrs, slog.Attr{Key: h.prefix + a.Key, Value: a.Value})
	}
	return &h2
}

func (h *handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := *h
	h2.prefix = h.prefix + name + "."
	return &h2
}

// Handle builds the channel event. Attributes ride inside the message as a
// context block; the first err/error attribute becomes the cause instead.
func (h *handler) Handle(ctx context.Context, r slog.Record) error {
	md := logcap.Metadata{}
	var cause error

	consume := func(prefix string, a slog.Attr) {
		a.Value = a.Value.Resolve()
		if cause == nil && causeKeys[a.Key] {
			if err, ok := a.Value.Any().(error); ok {
				cause = err
				return
			}
		}
		appendAttr(&md, prefix, a)
	}
	for _, a := range h.attrs {
		consume("", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		consume(h.prefix, a)
		return true
	})

	h.ch.dispatch(logcap.Event{
		Level:     int(r.Level),
		LevelName: r.Level.String(),
		Message:   logcap.AppendContext(r.Message, md),
		Time:      r.Time,
		Cause:     cause,
		PC:        r.PC,
		Ctx:       ctx,
	})
	return nil
}

// appendAttr flattens one attribute into the metadata map. Groups recurse
// with a dotted prefix; non-scalar values are stringified.
func appendAttr(md *logcap.Metadata, prefix string, a slog.Attr) {
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		inner := prefix + a.Key + "."
		if a.Key == "" {
			inner = prefix
		}
		for _, ga := range v.Group() {
			appendAttr(md, inner, ga)
		}
		return
	}
	if a.Key == "" {
		return
	}
	key := prefix + a.Key
	switch v.Kind() {
	case slog.KindBool:
		md.Append(key, logcap.BoolValue(v.Bool()))
	case slog.KindInt64:
		md.Append(key, logcap.IntValue(v.Int64()))
	case slog.KindUint64:
		md.Append(key, logcap.IntValue(int64(v.Uint64())))
	case slog.KindFloat64:
		md.Append(key, logcap.FloatValue(v.Float64()))
	case slog.KindString:
		md.Append(key, logcap.StringValue(v.String()))
	default:
		md.Append(key, logcap.StringValue(v.String()))
	}
}

// EmitProbe implements logcap.Prober by driving a real log call through the
// channel, so a probe exercises the same path as production logging.
func (b *Backend) EmitProbe(channel, msg string, cause error) {
	b.Logger(channel).Error(msg, "error", cause)
}
