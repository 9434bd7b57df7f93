package task

import (
	"context"
	"fmt"

	"github.com/orgsuite/taskengine/internal/eventbus"
	"github.com/orgsuite/taskengine/pkg/cerr"
)

// MaxSubmissions caps the submissions list per task, across all
// assignees.
const MaxSubmissions = 3

// SubmissionDraft is the caller-supplied shape of a new submission.
type SubmissionDraft struct {
	SubmitterID string
	Content     string
	Attachments []string
}

// Submit accepts a submission against the task. The submission window is
// inclusive on both ends: now == startTime and now == dueTime both pass.
// Acceptance completes the task unconditionally; completion is
// submission-driven, never date-driven.
func (s *Service) Submit(ctx context.Context, taskID string, draft *SubmissionDraft) (*Task, error) {
	t, err := s.repo.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	if now.Before(t.StartTime) {
		return nil, cerr.NewError(cerr.FailedPrecondition, "submission before start date", nil)
	}
	if t.DueTime.Before(now) {
		return nil, cerr.NewError(cerr.FailedPrecondition, "deadline passed", nil)
	}
	if len(t.Submissions) >= MaxSubmissions {
		return nil, cerr.NewError(cerr.ResourceExhausted, "submission limit reached", nil)
	}

	submitterName := s.memberName(ctx, draft.SubmitterID)
	t.Submissions = append(t.Submissions, Submission{
		SubmitterID:   draft.SubmitterID,
		SubmitterName: submitterName,
		Content:       draft.Content,
		Attachments:   draft.Attachments,
		SubmittedAt:   now,
	})
	t.Status = StatusCompleted
	t.UpdatedAt = now
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}

	s.logActivity(ctx, t.OrganizationID, fmt.Sprintf("submitted work for task %q", t.Title), submitterName, now)
	s.bus.PublishNew(eventbus.EventSubmissionCreated, t.OrganizationID, t.ID, submitterName, map[string]string{
		"submitter_id": draft.SubmitterID,
	})
	return t, nil
}

// CommentDraft is the caller-supplied shape of a new comment on a
// submission.
type CommentDraft struct {
	AuthorID string
	Text     string
}

// AddComment appends a comment to the submission at submissionIndex.
// There is no cap on comments.
func (s *Service) AddComment(ctx context.Context, taskID string, submissionIndex int, draft *CommentDraft) (*Task, error) {
	t, err := s.repo.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if submissionIndex < 0 || submissionIndex >= len(t.Submissions) {
		return nil, cerr.NewError(cerr.NotFound, "submission not found", nil)
	}

	now := s.clock()
	sub := &t.Submissions[submissionIndex]
	sub.Comments = append(sub.Comments, Comment{
		AuthorID:   draft.AuthorID,
		AuthorName: s.memberName(ctx, draft.AuthorID),
		Text:       draft.Text,
		PostedAt:   now,
	})
	t.UpdatedAt = now
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}
