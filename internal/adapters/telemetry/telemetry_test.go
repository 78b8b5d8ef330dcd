package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopTelemetry(t *testing.T) {
	ctx := context.Background()
	tel := NewNoopTelemetry()

	tel.RecordStage(ctx, StageInfo{Stage: StageCompile, Duration: time.Millisecond, Success: true})
	tel.RecordError(ctx, ErrorInfo{Error: errors.New("boom"), Stage: StageExecute})
	tel.RecordDataset(ctx, DatasetInfo{Source: "memory", Table: "users", Found: true})

	assert.NoError(t, tel.Flush(ctx))
	assert.NoError(t, tel.Close(ctx))
}

func TestMetricsTelemetry(t *testing.T) {
	ctx := context.Background()
	tel := NewMetricsTelemetry(&Config{Type: "metrics", ServiceName: "querycraft"})

	tel.RecordStage(ctx, StageInfo{Stage: StageExecute, Duration: 2 * time.Millisecond, Success: true, Rows: 3})
	tel.RecordStage(ctx, StageInfo{Stage: StageExecute, Duration: 200 * time.Millisecond, Success: false})
	tel.RecordStage(ctx, StageInfo{Stage: StageCompile, Duration: 50 * time.Microsecond, Success: true, Cached: true})
	tel.RecordError(ctx, ErrorInfo{Error: errors.New("no such table"), Stage: StageExecute})
	tel.RecordError(ctx, ErrorInfo{Error: errors.New("?")})
	tel.RecordDataset(ctx, DatasetInfo{Source: "files", Table: "users", Found: true, Rows: 4})
	tel.RecordDataset(ctx, DatasetInfo{Source: "files", Table: "ghosts"})

	snap := tel.Snapshot()
	assert.Equal(t, "querycraft", snap.Service)

	exec := snap.Stages[StageExecute]
	assert.Equal(t, int64(2), exec.Count)
	assert.Equal(t, int64(1), exec.Failures)
	assert.InDelta(t, 0.2, exec.MaxSeconds, 1e-9)
	assert.InDelta(t, 0.101, exec.MeanSeconds, 1e-9)
	require.Len(t, exec.Buckets, len(DefaultBuckets))
	assert.Equal(t, Bucket{LE: 0.005, Count: 1}, exec.Buckets[3])
	assert.Equal(t, Bucket{LE: 0.5, Count: 2}, exec.Buckets[7])

	assert.Equal(t, int64(1), snap.Stages[StageCompile].CacheHits)
	assert.Equal(t, map[string]int64{"execute": 1, "unknown": 1}, snap.Errors)
	assert.Equal(t, DatasetStats{Loads: 2, Misses: 1, Rows: 4}, snap.Datasets["files"])

	require.NoError(t, tel.Close(ctx))
	assert.ErrorIs(t, tel.Flush(ctx), ErrClosed)
}

func TestNewTelemetry(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		want    any
		wantErr bool
	}{
		{"Nil config", nil, &NoopTelemetry{}, false},
		{"Empty type", &Config{}, &NoopTelemetry{}, false},
		{"Metrics", &Config{Type: "metrics"}, &MetricsTelemetry{}, false},
		{"Unknown", &Config{Type: "statsd"}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tel, err := NewTelemetry(tt.config)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, tel)
		})
	}
}
