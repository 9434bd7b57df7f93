package notification_test

import (
	"context"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orgsuite/taskengine/internal/directory"
	"github.com/orgsuite/taskengine/internal/eventbus"
	"github.com/orgsuite/taskengine/internal/notification"
	"github.com/orgsuite/taskengine/internal/task"
	taskrepo "github.com/orgsuite/taskengine/internal/task/repositoryimpl"
	"github.com/orgsuite/taskengine/pkg/cerr"
	"github.com/orgsuite/taskengine/pkg/storage"
)

type recordedNotification struct {
	RecipientID string
	Subject     string
}

// recordingSink captures deliveries so tests can assert on them.
type recordingSink struct {
	ch chan recordedNotification
}

func (s *recordingSink) Notify(ctx context.Context, recipientID, subject, body string) {
	s.ch <- recordedNotification{RecipientID: recipientID, Subject: subject}
}

type fakeDirectory struct {
	members map[string]*directory.Member
}

func (d *fakeDirectory) GetMember(ctx context.Context, id string) (*directory.Member, error) {
	if m, ok := d.members[id]; ok {
		return m, nil
	}
	return nil, cerr.NewError(cerr.NotFound, "member not found", nil)
}

func (d *fakeDirectory) GetCommittee(ctx context.Context, id string) (*directory.Committee, error) {
	return nil, cerr.NewError(cerr.NotFound, "committee not found", nil)
}

func startDispatcher(t *testing.T) (*eventbus.Bus, task.Repository, *recordingSink) {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	repo := taskrepo.NewYAMLRepository(store)
	bus := eventbus.New()
	sink := &recordingSink{ch: make(chan recordedNotification, 16)}
	dir := &fakeDirectory{members: map[string]*directory.Member{
		"m1": {ID: "m1", Name: "Ada Lovelace"},
		"m2": {ID: "m2", Name: "Grace Hopper"},
	}}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go notification.NewDispatcher(bus, repo, dir, sink).Start(ctx)
	// Give the dispatcher a moment to subscribe before events flow.
	time.Sleep(100 * time.Millisecond)
	return bus, repo, sink
}

func storeTask(t *testing.T, repo task.Repository, memberIDs []string) *task.Task {
	t.Helper()
	now := time.Now()
	ta := &task.Task{
		ID:                ulid.Make().String(),
		OrganizationID:    "org1",
		Title:             "Prepare venue",
		StartTime:         now.Add(-48 * time.Hour),
		DueTime:           now.Add(-24 * time.Hour),
		AssignedMemberIDs: memberIDs,
		Status:            task.StatusOverdue,
		CreatedBy:         "Ada Lovelace",
		CreatedByID:       "m1",
	}
	require.NoError(t, repo.Create(context.Background(), ta))
	return ta
}

func TestDispatcherNotifiesAssigneesOnOverduePromotion(t *testing.T) {
	bus, repo, sink := startDispatcher(t)
	ta := storeTask(t, repo, []string{"m1", "m2"})

	bus.PublishNew(eventbus.EventTaskStatusChanged, "org1", ta.ID, "", map[string]string{
		"old_status": string(task.StatusInProgress),
		"new_status": string(task.StatusOverdue),
	})

	got := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case n := <-sink.ch:
			assert.Equal(t, "Task overdue", n.Subject)
			got[n.RecipientID] = true
		case <-time.After(2 * time.Second):
			t.Fatal("overdue notification not delivered")
		}
	}
	assert.True(t, got["m1"])
	assert.True(t, got["m2"])
}

func TestDispatcherIgnoresRoutineStatusChanges(t *testing.T) {
	bus, repo, sink := startDispatcher(t)
	ta := storeTask(t, repo, []string{"m1"})

	bus.PublishNew(eventbus.EventTaskStatusChanged, "org1", ta.ID, "", map[string]string{
		"old_status": string(task.StatusStarted),
		"new_status": string(task.StatusInProgress),
	})

	select {
	case n := <-sink.ch:
		t.Fatalf("unexpected notification for routine transition: %+v", n)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestDispatcherSuppressesCreatorSelfSubmission(t *testing.T) {
	bus, repo, sink := startDispatcher(t)
	ta := storeTask(t, repo, []string{"m1"})

	// The creator submitting their own task gets no ping.
	bus.PublishNew(eventbus.EventSubmissionCreated, "org1", ta.ID, "Ada Lovelace", map[string]string{
		"submitter_id": "m1",
	})
	select {
	case n := <-sink.ch:
		t.Fatalf("unexpected notification for self-submission: %+v", n)
	case <-time.After(200 * time.Millisecond):
	}

	// A different submitter does.
	bus.PublishNew(eventbus.EventSubmissionCreated, "org1", ta.ID, "Grace Hopper", map[string]string{
		"submitter_id": "m2",
	})
	select {
	case n := <-sink.ch:
		assert.Equal(t, "m1", n.RecipientID)
		assert.Equal(t, "Submission received", n.Subject)
	case <-time.After(2 * time.Second):
		t.Fatal("submission notification not delivered")
	}
}
