package task_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orgsuite/taskengine/internal/task"
	"github.com/orgsuite/taskengine/pkg/cerr"
)

func TestSubmitCompletesTask(t *testing.T) {
	svc, _, clock, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, validDraft())
	require.NoError(t, err)

	clock.Set(t, "2026-03-11T12:00:00Z")
	got, err := svc.Submit(ctx, created.ID, &task.SubmissionDraft{
		SubmitterID: "m1",
		Content:     "venue photos attached",
	})
	require.NoError(t, err)
	assert.Equal(t, task.StatusCompleted, got.Status)
	require.Len(t, got.Submissions, 1)
	assert.Equal(t, "m1", got.Submissions[0].SubmitterID)
	assert.Equal(t, "Ada Lovelace", got.Submissions[0].SubmitterName)
}

func TestSubmitWindowIsInclusive(t *testing.T) {
	svc, _, clock, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, validDraft())
	require.NoError(t, err)

	// Exactly at the start time.
	clock.Set(t, "2026-03-10T09:00:00Z")
	_, err = svc.Submit(ctx, created.ID, &task.SubmissionDraft{SubmitterID: "m1"})
	require.NoError(t, err)

	// Exactly at the due time.
	clock.Set(t, "2026-03-12T17:00:00Z")
	_, err = svc.Submit(ctx, created.ID, &task.SubmissionDraft{SubmitterID: "m1"})
	require.NoError(t, err)
}

func TestSubmitBeforeStart(t *testing.T) {
	svc, _, clock, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, validDraft())
	require.NoError(t, err)

	clock.Set(t, "2026-03-10T08:59:59Z")
	_, err = svc.Submit(ctx, created.ID, &task.SubmissionDraft{SubmitterID: "m1"})
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.FailedPrecondition))
}

func TestSubmitAfterDue(t *testing.T) {
	svc, _, clock, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, validDraft())
	require.NoError(t, err)

	// The grace day keeps the status out of Overdue until the next
	// morning, but submissions close at the due time itself.
	clock.Set(t, "2026-03-12T17:00:01Z")
	_, err = svc.Submit(ctx, created.ID, &task.SubmissionDraft{SubmitterID: "m1"})
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.FailedPrecondition))
}

func TestSubmitLimit(t *testing.T) {
	svc, _, clock, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, validDraft())
	require.NoError(t, err)

	clock.Set(t, "2026-03-11T12:00:00Z")
	for i := 0; i < task.MaxSubmissions; i++ {
		_, err = svc.Submit(ctx, created.ID, &task.SubmissionDraft{SubmitterID: "m1"})
		require.NoError(t, err)
	}

	_, err = svc.Submit(ctx, created.ID, &task.SubmissionDraft{SubmitterID: "m2"})
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.ResourceExhausted))

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Len(t, got.Submissions, task.MaxSubmissions)
	assert.Equal(t, task.StatusCompleted, got.Status)
}

func TestSubmitUnknownSubmitterGetsPlaceholderName(t *testing.T) {
	svc, _, clock, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, validDraft())
	require.NoError(t, err)

	clock.Set(t, "2026-03-11T12:00:00Z")
	got, err := svc.Submit(ctx, created.ID, &task.SubmissionDraft{SubmitterID: "ghost"})
	require.NoError(t, err)
	assert.Equal(t, "Unknown Member", got.Submissions[0].SubmitterName)
}

func TestAddComment(t *testing.T) {
	svc, _, clock, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, validDraft())
	require.NoError(t, err)

	clock.Set(t, "2026-03-11T12:00:00Z")
	_, err = svc.Submit(ctx, created.ID, &task.SubmissionDraft{SubmitterID: "m1"})
	require.NoError(t, err)

	got, err := svc.AddComment(ctx, created.ID, 0, &task.CommentDraft{
		AuthorID: "m2",
		Text:     "looks good",
	})
	require.NoError(t, err)
	require.Len(t, got.Submissions[0].Comments, 1)
	assert.Equal(t, "Grace Hopper", got.Submissions[0].Comments[0].AuthorName)
	assert.Equal(t, "looks good", got.Submissions[0].Comments[0].Text)

	// Comments have no cap.
	for i := 0; i < 5; i++ {
		_, err = svc.AddComment(ctx, created.ID, 0, &task.CommentDraft{AuthorID: "m1", Text: "follow-up"})
		require.NoError(t, err)
	}
	got, err = svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Len(t, got.Submissions[0].Comments, 6)
}

func TestAddCommentInvalidIndex(t *testing.T) {
	svc, _, clock, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, validDraft())
	require.NoError(t, err)

	clock.Set(t, "2026-03-11T12:00:00Z")
	_, err = svc.Submit(ctx, created.ID, &task.SubmissionDraft{SubmitterID: "m1"})
	require.NoError(t, err)

	for _, idx := range []int{-1, 1, 5} {
		_, err = svc.AddComment(ctx, created.ID, idx, &task.CommentDraft{AuthorID: "m2", Text: "nope"})
		require.Error(t, err)
		assert.True(t, cerr.IsCode(err, cerr.NotFound), "index %d", idx)
	}
}
