package events

import "context"

// Channels
const (
	StreamActivity = "events:activity"
)

// Event types
const (
	EventActivityRecorded = "activity_recorded"
)

type Event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

type Publisher interface {
	Publish(ctx context.Context, stream string, event Event) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, stream string, handler func(Event)) error
}
