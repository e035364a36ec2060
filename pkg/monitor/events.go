package monitor

import (
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
)

// EventType represents the type of module event.
type EventType string

const (
	EventStarted     EventType = "started"
	EventAssertion   EventType = "assertion"
	EventCompleted   EventType = "completed"
	EventFailed      EventType = "failed"
	EventErrored     EventType = "errored"
	EventRunFinished EventType = "run_finished"
)

// EventSource is the CloudEvents source of every event.
const EventSource = "jester"

// ModuleEvent represents a lifecycle event during a run.
type ModuleEvent struct {
	Type        EventType     `json:"type"`
	ModuleID    string        `json:"module_id,omitempty"`
	Description string        `json:"description,omitempty"`
	Status      string        `json:"status,omitempty"`
	Message     string        `json:"message,omitempty"`
	Total       int           `json:"total,omitempty"`
	Failed      int           `json:"failed,omitempty"`
	Duration    time.Duration `json:"duration,omitempty"`
	Timestamp   time.Time     `json:"timestamp"`
}

// CloudEventType is the CloudEvents type attribute of t.
func (t EventType) CloudEventType() string {
	return "jester.module." + string(t)
}

// ToCloudEvent wraps e in a CloudEvents envelope.
func ToCloudEvent(e ModuleEvent) cloudevents.Event {
	return newCloudEvent(e.Type.CloudEventType(), e.ModuleID, e.Timestamp, e)
}

func newCloudEvent(
	eventType, subject string, at time.Time, data any,
) cloudevents.Event {
	event := cloudevents.NewEvent()
	event.SetID(eventID())
	event.SetSource(EventSource)
	event.SetType(eventType)
	event.SetTime(at)
	if subject != "" {
		event.SetSubject(subject)
	}
	_ = event.SetData(cloudevents.ApplicationJSON, data)
	return event
}

func eventID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return id.String()
}
