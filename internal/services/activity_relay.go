package services

import (
	"context"
	"fmt"

	"github.com/akc-construction/crm/internal/events"
	"github.com/akc-construction/crm/internal/metrics"
	"github.com/akc-construction/crm/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ActivityRelay pushes unpublished activity rows to subscribers. Delivery is
// at least once: a row is marked only after its publish succeeded.
type ActivityRelay struct {
	store     ActivityStore
	publisher events.Publisher
	batchSize int
	log       *zap.Logger
}

func NewActivityRelay(store ActivityStore, publisher events.Publisher, batchSize int, log *zap.Logger) *ActivityRelay {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &ActivityRelay{store: store, publisher: publisher, batchSize: batchSize, log: log}
}

// RunOnce publishes one batch, oldest first, and returns how many rows were
// marked published. The first publish failure ends the batch.
func (r *ActivityRelay) RunOnce(ctx context.Context) (int, error) {
	pending, err := r.store.ListUnpublished(ctx, r.batchSize)
	if err != nil {
		return 0, fmt.Errorf("list unpublished activity: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	published := make([]uuid.UUID, 0, len(pending))
	var publishErr error
	for i := range pending {
		if err := r.publisher.Publish(ctx, events.StreamActivity, ActivityEvent(&pending[i])); err != nil {
			metrics.ActivityRelayErrors.Inc()
			publishErr = fmt.Errorf("publish activity %s: %w", pending[i].ID, err)
			break
		}
		published = append(published, pending[i].ID)
	}

	if len(published) > 0 {
		if err := r.store.MarkPublished(ctx, published); err != nil {
			return 0, fmt.Errorf("mark activity published: %w", err)
		}
		metrics.ActivityPublished.Add(float64(len(published)))
	}
	return len(published), publishErr
}

// ActivityEvent is the wire form of an activity row.
func ActivityEvent(entry *models.ActivityLog) events.Event {
	payload := map[string]any{
		"id":           entry.ID.String(),
		"action":       entry.Action,
		"actor_email":  entry.ActorEmail,
		"module_type":  entry.ModuleType,
		"reference_id": entry.ReferenceID,
		"created_at":   entry.CreatedAt,
	}
	if entry.Status != nil {
		payload["status"] = *entry.Status
	}
	if entry.PreviousStatus != nil {
		payload["previous_status"] = *entry.PreviousStatus
	}
	if len(entry.DetailsJSON) > 0 {
		payload["details"] = entry.DetailsJSON
	}
	return events.Event{Type: events.EventActivityRecorded, Payload: payload}
}

// Full reports whether a batch of n rows used the whole batch size, so more
// rows may be waiting.
func (r *ActivityRelay) Full(n int) bool {
	return n >= r.batchSize
}
