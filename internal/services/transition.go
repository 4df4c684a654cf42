package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/akc-construction/crm/internal/metrics"
	"github.com/akc-construction/crm/internal/models"
	"github.com/akc-construction/crm/internal/repositories"
	"github.com/akc-construction/crm/internal/seqid"
)

const maxCreateAttempts = 3

type statusChange struct {
	entity  string
	module  string
	id      string
	from    string
	to      string
	actor   string
	details map[string]any
	apply   func(ctx context.Context) error // compare-and-set on from
}

// transition guards a status move, applies it and records "Status Changed"
// in one transaction. A rejected move has no side effects.
func transition(ctx context.Context, tx Transactor, recorder *ActivityRecorder, c statusChange) error {
	if strings.TrimSpace(c.to) == "" {
		return invalid("status", "is required")
	}
	if !models.IsTransitionAllowed(c.entity, c.from, c.to) {
		metrics.RejectedTransitions.WithLabelValues(c.entity).Inc()
		return &TransitionError{Entity: c.entity, From: c.from, To: c.to}
	}

	err := tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := c.apply(ctx); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrStatusConflict
			}
			return err
		}
		_, err := recorder.Record(ctx, RecordInput{
			Action:         models.ActionStatusChanged,
			ActorEmail:     c.actor,
			ModuleType:     c.module,
			ReferenceID:    c.id,
			Status:         c.to,
			PreviousStatus: c.from,
			Details:        c.details,
		})
		return err
	})
	if err != nil {
		return err
	}

	metrics.StatusTransitions.WithLabelValues(c.entity, c.from, c.to).Inc()
	return nil
}

// withIDRetry reruns create while it fails on a duplicate key, which happens
// when a concurrent request took the same sequence value.
func withIDRetry(create func() error) error {
	var err error
	for attempt := 0; attempt < maxCreateAttempts; attempt++ {
		err = create()
		if !errors.Is(err, repositories.ErrDuplicateKey) {
			return err
		}
	}
	return err
}

// nextSequence reserves the next value in the counter for prefix, seeded from
// the highest id already stored so existing ids are never reissued. A highest
// id without a numeric suffix is an error, never floor 0.
func nextSequence(ctx context.Context, seqs SequenceStore, highest func(ctx context.Context, prefix string) (string, error), scope, prefix string) (int, error) {
	top, err := highest(ctx, prefix)
	if err != nil {
		return 0, err
	}
	floor := 0
	if top != "" {
		n, ok := seqid.ParseSequence(top, prefix)
		if !ok {
			return 0, fmt.Errorf("highest id %q has no sequence after prefix %q", top, prefix)
		}
		floor = n
	}
	return seqs.Next(ctx, scope+":"+prefix, floor)
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
