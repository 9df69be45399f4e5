package event

import (
	"time"

	"github.com/google/uuid"
)

// Event is anything a record raises for the outbox. The stream name selects
// the outbox table and the topic consumers subscribe to.
type Event interface {
	GetEventHeader() Header
	GetStreamName() string
}

type Header struct {
	ID         uuid.UUID `json:"id"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewEventHeader() Header {
	return Header{ID: uuid.New(), OccurredAt: time.Now().UTC()}
}

func (h *Header) GetEventHeader() Header {
	return *h
}

// Recorder collects a record's events until its store commits them. The zero
// value is ready to use.
type Recorder struct {
	events []Event
}

func (r *Recorder) AddEvent(e Event) {
	if r == nil || e == nil {
		return
	}
	r.events = append(r.events, e)
}

func (r *Recorder) GetUncommittedEvents() []Event {
	if r == nil {
		return nil
	}
	return r.events
}

func (r *Recorder) MarkEventsAsCommitted() {
	if r == nil {
		return
	}
	r.events = nil
}
