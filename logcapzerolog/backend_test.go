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

package logcapzerolog_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/pjscruggs/logcap"
	"github.com/pjscruggs/logcap/logcapzerolog"
)

func capture(t *testing.T, channel string, min logcap.Severity) (*logcapzerolog.Backend, *logcap.Interceptor) {
	t.Helper()
	backend := logcapzerolog.New()
	in := logcap.NewInterceptor(backend)
	_, err := in.Attach(channel, min)
	require.NoError(t, err)
	t.Cleanup(func() { _ = in.Close() })
	return backend, in
}

func TestCapturesMessageAndLevel(t *testing.T) {
	t.Parallel()

	backend, in := capture(t, "app", logcap.SeverityFinest)
	logger := backend.Logger("app")
	logger.Warn().Msg("running hot")

	recs := in.Records()
	require.Equal(t, 1, recs.Len())
	r := recs.At(0)
	assert.Equal(t, "running hot", r.Message())
	assert.Equal(t, logcap.SeverityWarning, r.Severity())
	assert.Equal(t, "warn", r.LevelName())
	assert.Equal(t, logcap.UnknownName, r.ClassName())
	assert.Nil(t, r.Cause())
}

func TestMessageContextBlockSurvives(t *testing.T) {
	t.Parallel()

	backend, in := capture(t, "app", logcap.SeverityFinest)
	logger := backend.Logger("app")
	logger.Info().Msg(`retrying [CONTEXT attempt=2 host="db-1" ]`)

	recs := in.Records()
	require.Equal(t, 1, recs.Len())
	r := recs.At(0)
	assert.Equal(t, "retrying", r.Message())
	vals := r.MetadataValues("attempt")
	require.Len(t, vals, 1)
	assert.Equal(t, int64(2), vals[0].Int64Val())
}

func TestTraceLevelClassifiesFinest(t *testing.T) {
	t.Parallel()

	backend, in := capture(t, "app", logcap.SeverityFinest)
	logger := backend.Logger("app")
	logger.Trace().Msg("very detailed")
	logger.Debug().Msg("detailed")

	recs := in.Records()
	require.Equal(t, 2, recs.Len())
	assert.Equal(t, logcap.SeverityFinest, recs.At(0).Severity())
	assert.Equal(t, logcap.SeverityFine, recs.At(1).Severity())
}

func TestMinimumSeverityFilters(t *testing.T) {
	t.Parallel()

	backend, in := capture(t, "app", logcap.SeveritySevere)
	logger := backend.Logger("app")
	logger.Warn().Msg("ignorable")
	logger.Error().Msg("not ignorable")

	recs := in.Records()
	require.Equal(t, 1, recs.Len())
	assert.Equal(t, "not ignorable", recs.At(0).Message())
}

func TestEventContextCarriesSpan(t *testing.T) {
	t.Parallel()

	span := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: trace.TraceID{0x03}, SpanID: trace.SpanID{0x04},
	})
	ctx := trace.ContextWithSpanContext(context.Background(), span)

	backend, in := capture(t, "app", logcap.SeverityFinest)
	logger := backend.Logger("app")
	logger.Info().Ctx(ctx).Msg("traced")

	recs := in.Records()
	require.Equal(t, 1, recs.Len())
	assert.Equal(t, span.TraceID(), recs.At(0).Span().TraceID())
}

// TestProbeGradesPartial pins the hook path's known losses: the Err field
// and the call site never reach the hook.
func TestProbeGradesPartial(t *testing.T) {
	t.Parallel()
	assert.Equal(t, logcap.CapabilityPartial, logcap.Probe(logcapzerolog.New()))
}

func TestProbeEventDropsCause(t *testing.T) {
	t.Parallel()

	backend, in := capture(t, "probe", logcap.SeverityFinest)
	backend.EmitProbe("probe", "scripted [CONTEXT probe=true ]", errors.New("ignored"))

	recs := in.Records()
	require.Equal(t, 1, recs.Len())
	r := recs.At(0)
	assert.Nil(t, r.Cause())
	assert.True(t, r.HasMetadata("probe"))
}
