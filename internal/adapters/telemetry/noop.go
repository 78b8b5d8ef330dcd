package telemetry

import (
	"context"
)

// NoopTelemetry discards everything.
type NoopTelemetry struct{}

// NewNoopTelemetry creates a new no-op telemetry adapter.
func NewNoopTelemetry() *NoopTelemetry {
	return &NoopTelemetry{}
}

func (n *NoopTelemetry) RecordStage(ctx context.Context, info StageInfo) {}

func (n *NoopTelemetry) RecordError(ctx context.Context, info ErrorInfo) {}

func (n *NoopTelemetry) RecordDataset(ctx context.Context, info DatasetInfo) {}

func (n *NoopTelemetry) Flush(ctx context.Context) error {
	return nil
}

func (n *NoopTelemetry) Close(ctx context.Context) error {
	return nil
}

var _ Telemetry = (*NoopTelemetry)(nil)
