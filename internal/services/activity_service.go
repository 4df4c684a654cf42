package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/akc-construction/crm/internal/models"
	"github.com/akc-construction/crm/internal/repositories"
)

// RecordInput describes one activity entry. Details is marshalled to JSON.
type RecordInput struct {
	Action         string
	ActorEmail     string
	ModuleType     string
	ReferenceID    string
	Status         string
	PreviousStatus string
	Details        any
}

// ActivityRecorder appends activity rows. Callers run Record inside the same
// transaction as the mutation it describes, so a failed insert rolls the
// mutation back.
type ActivityRecorder struct {
	store ActivityStore
}

func NewActivityRecorder(store ActivityStore) *ActivityRecorder {
	return &ActivityRecorder{store: store}
}

func (r *ActivityRecorder) Record(ctx context.Context, in RecordInput) (*models.ActivityLog, error) {
	if in.Action == "" || in.ModuleType == "" || in.ReferenceID == "" {
		return nil, fmt.Errorf("activity entry needs action, module and reference")
	}
	if strings.TrimSpace(in.ActorEmail) == "" {
		return nil, invalid("actor_email", "is required")
	}

	entry := &models.ActivityLog{
		Action:      in.Action,
		ActorEmail:  in.ActorEmail,
		ModuleType:  in.ModuleType,
		ReferenceID: in.ReferenceID,
	}
	if in.Status != "" {
		entry.Status = &in.Status
	}
	if in.PreviousStatus != "" {
		entry.PreviousStatus = &in.PreviousStatus
	}
	if in.Details != nil {
		raw, err := json.Marshal(in.Details)
		if err != nil {
			return nil, fmt.Errorf("marshal activity details: %w", err)
		}
		entry.DetailsJSON = raw
	}

	if err := r.store.Insert(ctx, entry); err != nil {
		return nil, fmt.Errorf("record activity %q: %w", in.Action, err)
	}
	return entry, nil
}

// List returns entries newest first.
func (r *ActivityRecorder) List(ctx context.Context, f repositories.ActivityFilter) ([]models.ActivityLog, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Limit > 200 {
		f.Limit = 200
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return r.store.List(ctx, f)
}
