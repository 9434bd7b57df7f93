package eventbus

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

type EventType string

const (
	EventTaskCreated       EventType = "task.created"
	EventTaskUpdated       EventType = "task.updated"
	EventTaskDeleted       EventType = "task.deleted"
	EventTaskStatusChanged EventType = "task.status_changed"
	EventSubmissionCreated EventType = "submission.created"
)

// Event describes a change to a task within an organization. Watchers and
// dispatchers treat it as an invalidation signal, not a diff: consumers
// re-read and re-evaluate the affected organization's tasks.
type Event struct {
	ID             string
	Type           EventType
	OrganizationID string
	TaskID         string
	ActorName      string
	Metadata       map[string]string
	CreatedAt      time.Time
}

type Bus struct {
	mu          sync.RWMutex
	subscribers map[string]chan *Event
}

func New() *Bus {
	return &Bus{
		subscribers: make(map[string]chan *Event),
	}
}

func (b *Bus) Subscribe(bufSize int) (string, <-chan *Event) {
	id := ulid.Make().String()
	ch := make(chan *Event, bufSize)
	b.mu.Lock()
	b.subscribers[id] = ch
	b.mu.Unlock()
	return id, ch
}

func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	if ch, ok := b.subscribers[id]; ok {
		close(ch)
		delete(b.subscribers, id)
	}
	b.mu.Unlock()
}

func (b *Bus) Publish(event *Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			// buffer full, drop event for this subscriber
		}
	}
}

func (b *Bus) PublishNew(eventType EventType, organizationID, taskID, actorName string, metadata map[string]string) {
	b.Publish(&Event{
		ID:             ulid.Make().String(),
		Type:           eventType,
		OrganizationID: organizationID,
		TaskID:         taskID,
		ActorName:      actorName,
		Metadata:       metadata,
		CreatedAt:      time.Now(),
	})
}
