// Package telemetry records how long preview stages take and how often they
// fail.
package telemetry

import (
	"context"
	"time"
)

// Telemetry defines the telemetry adapter interface.
type Telemetry interface {
	// RecordStage records one preview stage (compile, explain, lint,
	// execute) of one run.
	RecordStage(ctx context.Context, info StageInfo)

	// RecordError records an error.
	RecordError(ctx context.Context, info ErrorInfo)

	// RecordDataset records a dataset load.
	RecordDataset(ctx context.Context, info DatasetInfo)

	// Flush flushes any buffered telemetry data.
	Flush(ctx context.Context) error

	// Close closes the telemetry adapter.
	Close(ctx context.Context) error
}

// Stage names a preview stage.
type Stage string

const (
	StageCompile Stage = "compile"
	StageExplain Stage = "explain"
	StageLint    Stage = "lint"
	StageExecute Stage = "execute"
	StagePreview Stage = "preview"
)

// StageInfo describes one stage of one preview run.
type StageInfo struct {
	// RunID identifies the preview run.
	RunID string

	// Stage is the stage that ran.
	Stage Stage

	// QueryType is the statement kind of the state.
	QueryType string

	// Duration is how long the stage took.
	Duration time.Duration

	// Success indicates if the stage succeeded.
	Success bool

	// Cached is set when the result came from the cache.
	Cached bool

	// Rows is the number of rows produced, for execute.
	Rows int
}

// ErrorInfo contains information about an error.
type ErrorInfo struct {
	// Error is the error that occurred.
	Error error

	// RunID identifies the preview run, if any.
	RunID string

	// Stage is the stage that failed.
	Stage Stage

	// Table is the table involved, if any.
	Table string
}

// DatasetInfo describes one table load from a dataset provider.
type DatasetInfo struct {
	// Source is the provider kind (memory, files, sql, pebble).
	Source string

	// Table is the table that was read.
	Table string

	// Duration is how long the load took.
	Duration time.Duration

	// Found is false when the provider does not know the table.
	Found bool

	// Rows is the number of rows loaded.
	Rows int
}

// Config holds telemetry configuration.
type Config struct {
	// Type is the telemetry type (noop, metrics).
	Type string

	// ServiceName labels the snapshot.
	ServiceName string
}
