package eventbus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusPublishSubscribe(t *testing.T) {
	bus := New()
	id, ch := bus.Subscribe(8)
	defer bus.Unsubscribe(id)

	bus.PublishNew(EventTaskCreated, "org1", "task1", "Ada Lovelace", map[string]string{"k": "v"})

	select {
	case ev := <-ch:
		assert.NotEmpty(t, ev.ID)
		assert.Equal(t, EventTaskCreated, ev.Type)
		assert.Equal(t, "org1", ev.OrganizationID)
		assert.Equal(t, "task1", ev.TaskID)
		assert.Equal(t, "Ada Lovelace", ev.ActorName)
		assert.Equal(t, "v", ev.Metadata["k"])
		assert.False(t, ev.CreatedAt.IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}
}

func TestBusMultipleSubscribers(t *testing.T) {
	bus := New()
	id1, ch1 := bus.Subscribe(8)
	id2, ch2 := bus.Subscribe(8)
	defer bus.Unsubscribe(id1)
	defer bus.Unsubscribe(id2)

	bus.PublishNew(EventTaskUpdated, "org1", "task1", "", nil)

	for _, ch := range []<-chan *Event{ch1, ch2} {
		select {
		case ev := <-ch:
			assert.Equal(t, EventTaskUpdated, ev.Type)
		case <-time.After(2 * time.Second):
			t.Fatal("event not delivered to all subscribers")
		}
	}
}

func TestBusDropsWhenBufferFull(t *testing.T) {
	bus := New()
	id, ch := bus.Subscribe(1)
	defer bus.Unsubscribe(id)

	// The second publish must not block even though nobody is reading.
	done := make(chan struct{})
	go func() {
		bus.PublishNew(EventTaskCreated, "org1", "task1", "", nil)
		bus.PublishNew(EventTaskCreated, "org1", "task2", "", nil)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}

	ev := <-ch
	assert.Equal(t, "task1", ev.TaskID)
	select {
	case ev := <-ch:
		t.Fatalf("unexpected second event: %s", ev.TaskID)
	default:
	}
}

func TestBusUnsubscribeClosesChannel(t *testing.T) {
	bus := New()
	id, ch := bus.Subscribe(1)

	bus.Unsubscribe(id)
	_, ok := <-ch
	require.False(t, ok)

	// Publishing after unsubscribe must not panic on the closed channel.
	bus.PublishNew(EventTaskDeleted, "org1", "task1", "", nil)
}
