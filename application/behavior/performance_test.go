package behavior

import (
	"context"
	"errors"
	"testing"
	"time"

	"catalog/application/mediator"
	"catalog/pkg/metrics"
	"catalog/pkg/result"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"
)

type renameWidget struct {
	mediator.Command
	ID   string
	Name string
}

type findWidget struct {
	mediator.Query
	ID string
}

// steppingClock returns start on the first call and start+elapsed afterwards.
func steppingClock(elapsed time.Duration) func() time.Time {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	calls := 0
	return func() time.Time {
		calls++
		if calls == 1 {
			return start
		}
		return start.Add(elapsed)
	}
}

func TestPerformanceNeverAltersResultProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		elapsed := time.Duration(rapid.Int64Range(0, int64(2*time.Second)).Draw(t, "elapsed"))
		msg := rapid.StringN(1, 30, -1).Draw(t, "message")

		p := NewPerformance(zap.NewNop())
		p.now = steppingClock(elapsed)

		want := result.Failure[string](msg)
		got, err := p.Handle(context.Background(), renameWidget{ID: "w1"}, func(context.Context) (any, error) {
			return want, nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.(result.Result[string]) != want {
			t.Fatalf("result changed: %+v", got)
		}
	})
}

func TestPerformanceWarnsAboutSlowRequests(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	p := NewPerformance(zap.New(core))
	p.now = steppingClock(750 * time.Millisecond)

	req := renameWidget{ID: "w1", Name: "gear"}
	_, err := p.Handle(context.Background(), req, func(context.Context) (any, error) {
		return result.Success("ok"), nil
	})
	require.NoError(t, err)

	entries := logs.FilterMessage("Long running request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "behavior.renameWidget", fields["request"])
	assert.Equal(t, 750*time.Millisecond, fields["elapsed"])
	assert.Equal(t, DefaultSlowThreshold, fields["threshold"])
	assert.Equal(t, req, fields["payload"])
}

func TestPerformanceStaysQuietForFastRequests(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	p := NewPerformance(zap.New(core))
	p.now = steppingClock(DefaultSlowThreshold)

	_, err := p.Handle(context.Background(), findWidget{ID: "w1"}, func(context.Context) (any, error) {
		return result.Success(1), nil
	})
	require.NoError(t, err)
	assert.Zero(t, logs.Len())
}

func TestPerformanceThresholdOption(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	p := NewPerformance(zap.New(core), WithThreshold(10*time.Millisecond))
	p.now = steppingClock(20 * time.Millisecond)

	_, err := p.Handle(context.Background(), findWidget{}, func(context.Context) (any, error) {
		return result.Success(1), nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessage("Long running request").Len())
}

func TestPerformancePropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	p := NewPerformance(nil)
	p.now = steppingClock(time.Second)

	got, err := p.Handle(context.Background(), renameWidget{}, func(context.Context) (any, error) {
		return nil, boom
	})
	assert.Nil(t, got)
	assert.Same(t, boom, err)
}

func TestPerformanceRecordsMetrics(t *testing.T) {
	collector := metrics.New("test")
	p := NewPerformance(nil, WithMetrics(collector))
	p.now = steppingClock(time.Second)

	_, err := p.Handle(context.Background(), renameWidget{}, func(context.Context) (any, error) {
		return result.Failure[int]("nope"), nil
	})
	require.NoError(t, err)

	families, err := collector.Registry().Gather()
	require.NoError(t, err)
	names := make(map[string]bool, len(families))
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	assert.True(t, names["test_pipeline_request_duration_seconds"])
	assert.True(t, names["test_pipeline_requests_total"])
	assert.True(t, names["test_pipeline_slow_requests_total"])
}
