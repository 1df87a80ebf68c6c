// Package events announces pipeline outcomes to downstream consumers.
// Emission is best effort: a broker outage never fails a run that already
// published its snapshot.
package events

import (
	"context"
	"encoding/json"

	"github.com/Gobusters/ectologger"

	"github.com/sk123/theyownwhat-sub000/pkg/kafka"
	"github.com/sk123/theyownwhat-sub000/pkg/models"
	"github.com/sk123/theyownwhat-sub000/pkg/tracing"
)

// SchemaVersion is the current event schema version
const SchemaVersion = "1.0"

// Emitter emits run lifecycle events. A nil *Emitter is valid and emits
// nothing, so callers don't branch on whether eventing is configured.
type Emitter struct {
	producer *kafka.Producer
	logger   ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(producer *kafka.Producer, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

// EmitRunCompleted emits run.completed with the run summary.
func (e *Emitter) EmitRunCompleted(ctx context.Context, summary *models.PipelineRun) {
	if e == nil {
		return
	}
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitRunCompleted")
	defer span.End()

	data, _ := json.Marshal(map[string]any{
		"schema_version": SchemaVersion,
		"summary":        summary,
	})

	event := &kafka.RunEvent{
		EventType: "run.completed",
		RunID:     summary.RunID,
		Data:      data,
	}

	if err := e.producer.PublishRunEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Warn("Failed to emit run.completed event")
	}
}

// EmitRunFailed emits run.failed with the error message.
func (e *Emitter) EmitRunFailed(ctx context.Context, runID string, runErr error) {
	if e == nil {
		return
	}
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitRunFailed")
	defer span.End()

	data, _ := json.Marshal(map[string]any{
		"schema_version": SchemaVersion,
		"error":          runErr.Error(),
	})

	event := &kafka.RunEvent{
		EventType: "run.failed",
		RunID:     runID,
		Data:      data,
	}

	if err := e.producer.PublishRunEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Warn("Failed to emit run.failed event")
	}
}

// EmitNetworksPublished emits networks.published after a successful
// snapshot cutover.
func (e *Emitter) EmitNetworksPublished(ctx context.Context, runID string, networkCount, membershipCount int) {
	if e == nil {
		return
	}
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitNetworksPublished")
	defer span.End()

	data, _ := json.Marshal(map[string]any{
		"schema_version":   SchemaVersion,
		"network_count":    networkCount,
		"membership_count": membershipCount,
	})

	event := &kafka.RunEvent{
		EventType: "networks.published",
		RunID:     runID,
		Data:      data,
	}

	if err := e.producer.PublishRunEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Warn("Failed to emit networks.published event")
	}
}
