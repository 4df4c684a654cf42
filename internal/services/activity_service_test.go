package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/akc-construction/crm/internal/events"
	"github.com/akc-construction/crm/internal/models"
	"github.com/akc-construction/crm/internal/repositories"
	"github.com/akc-construction/crm/internal/testutil"
	"go.uber.org/zap"
)

func TestRecordStoresEntry(t *testing.T) {
	store := testutil.NewStore()
	rec := NewActivityRecorder(store.Activity)

	entry, err := rec.Record(context.Background(), RecordInput{
		Action:         models.ActionStatusChanged,
		ActorEmail:     actor,
		ModuleType:     models.ModuleProjects,
		ReferenceID:    "PROJ-2403-001",
		Status:         models.ProjectStatusApproved,
		PreviousStatus: models.ProjectStatusPending,
		Details:        map[string]any{"name": "Dock Repair"},
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if entry.CreatedAt.IsZero() || entry.PublishedAt != nil {
		t.Errorf("unexpected entry: %+v", entry)
	}

	var details map[string]string
	if err := json.Unmarshal(entry.DetailsJSON, &details); err != nil || details["name"] != "Dock Repair" {
		t.Errorf("details = %s (%v)", entry.DetailsJSON, err)
	}
}

func TestRecordRequiresActor(t *testing.T) {
	rec := NewActivityRecorder(testutil.NewStore().Activity)
	_, err := rec.Record(context.Background(), RecordInput{
		Action: models.ActionCustomerCreated, ModuleType: models.ModuleCustomers, ReferenceID: "24-0001",
	})
	assertValidation(t, err, "actor_email")
}

func TestRecorderListClampsLimit(t *testing.T) {
	store := testutil.NewStore()
	rec := NewActivityRecorder(store.Activity)
	ctx := context.Background()
	for i := 0; i < 210; i++ {
		if _, err := rec.Record(ctx, RecordInput{
			Action: models.ActionCustomerUpdated, ActorEmail: actor, ModuleType: models.ModuleCustomers, ReferenceID: "24-0001",
		}); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		limit int
		want  int
	}{
		{0, 50},
		{10, 10},
		{1000, 200},
	}
	for _, tt := range tests {
		got, err := rec.List(ctx, repositories.ActivityFilter{Limit: tt.limit})
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != tt.want {
			t.Errorf("limit %d: got %d entries, want %d", tt.limit, len(got), tt.want)
		}
	}
}

type recordingPublisher struct {
	published []events.Event
	failAfter int // fail once this many events went out; <0 never fails
}

func (p *recordingPublisher) Publish(ctx context.Context, stream string, event events.Event) error {
	if stream != events.StreamActivity {
		return errors.New("unexpected stream " + stream)
	}
	if p.failAfter >= 0 && len(p.published) >= p.failAfter {
		return errors.New("redis unavailable")
	}
	p.published = append(p.published, event)
	return nil
}

func seedActivity(t *testing.T, store *testutil.Store, n int) {
	t.Helper()
	rec := NewActivityRecorder(store.Activity)
	for i := 0; i < n; i++ {
		if _, err := rec.Record(context.Background(), RecordInput{
			Action: models.ActionTimeLogCreated, ActorEmail: actor, ModuleType: models.ModuleTimeLogs, ReferenceID: "TL-1",
		}); err != nil {
			t.Fatal(err)
		}
	}
}

func TestActivityRelayPublishesOldestFirst(t *testing.T) {
	store := testutil.NewStore()
	seedActivity(t, store, 3)
	pub := &recordingPublisher{failAfter: -1}
	relay := NewActivityRelay(store.Activity, pub, 2, zap.NewNop())
	ctx := context.Background()

	n, err := relay.RunOnce(ctx)
	if err != nil || n != 2 {
		t.Fatalf("first run: n=%d err=%v", n, err)
	}
	if !relay.Full(n) {
		t.Error("a full batch should ask for another run")
	}
	n, err = relay.RunOnce(ctx)
	if err != nil || n != 1 {
		t.Fatalf("second run: n=%d err=%v", n, err)
	}
	if relay.Full(n) {
		t.Error("a short batch means the outbox is drained")
	}
	n, _ = relay.RunOnce(ctx)
	if n != 0 {
		t.Errorf("third run published %d", n)
	}

	all := store.Activity.All()
	for i, ev := range pub.published {
		if ev.Type != events.EventActivityRecorded || ev.Payload["id"] != all[i].ID.String() {
			t.Errorf("event %d = %+v, want entry %s", i, ev, all[i].ID)
		}
	}
	for _, e := range all {
		if e.PublishedAt == nil {
			t.Errorf("entry %s not marked published", e.ID)
		}
	}
}

func TestActivityRelayStopsAtFirstFailure(t *testing.T) {
	store := testutil.NewStore()
	seedActivity(t, store, 3)
	pub := &recordingPublisher{failAfter: 1}
	relay := NewActivityRelay(store.Activity, pub, 10, zap.NewNop())

	n, err := relay.RunOnce(context.Background())
	if err == nil {
		t.Fatal("expected publish error")
	}
	if n != 1 {
		t.Errorf("marked %d, want 1", n)
	}

	pending, _ := store.Activity.ListUnpublished(context.Background(), 10)
	if len(pending) != 2 {
		t.Errorf("pending = %d, want 2 left for the next tick", len(pending))
	}
}

func TestActivityEventCarriesStatuses(t *testing.T) {
	status, prev := models.ProjectStatusApproved, models.ProjectStatusPending
	ev := ActivityEvent(&models.ActivityLog{
		Action: models.ActionStatusChanged, ModuleType: models.ModuleProjects, ReferenceID: "PROJ-2403-001",
		Status: &status, PreviousStatus: &prev,
	})
	if ev.Payload["status"] != status || ev.Payload["previous_status"] != prev {
		t.Errorf("payload = %+v", ev.Payload)
	}
}
