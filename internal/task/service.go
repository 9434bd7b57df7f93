package task

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/orgsuite/taskengine/internal/activitylog"
	"github.com/orgsuite/taskengine/internal/assignee"
	"github.com/orgsuite/taskengine/internal/directory"
	"github.com/orgsuite/taskengine/internal/eventbus"
	"github.com/orgsuite/taskengine/pkg/cerr"
	"github.com/orgsuite/taskengine/pkg/panicerr"
)

// Service owns task persistence and the lifecycle rules around it. Status
// is never advanced by a background timer: every read re-derives it from
// the clock and persists the correction, so any number of concurrent
// viewers converge on the same value.
type Service struct {
	repo     Repository
	dir      directory.Directory
	bus      *eventbus.Bus
	activity activitylog.Repository
	clock    func() time.Time
}

type ServiceOption func(*Service)

// WithClock replaces the wall clock, for tests.
func WithClock(clock func() time.Time) ServiceOption {
	return func(s *Service) {
		s.clock = clock
	}
}

func NewService(repo Repository, dir directory.Directory, bus *eventbus.Bus, activity activitylog.Repository, opts ...ServiceOption) *Service {
	s := &Service{
		repo:     repo,
		dir:      dir,
		bus:      bus,
		activity: activity,
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Draft is the caller-supplied shape of a new task.
type Draft struct {
	OrganizationID       string
	EventID              string
	Title                string
	Description          string
	StartTime            time.Time
	DueTime              time.Time
	AssignedMemberIDs    []string
	AssignedCommitteeIDs []string
	CreatedBy            string
	CreatedByID          string
	Attachments          []string
}

// Create validates the draft and persists a new task in Started state.
// A task must name at least one reachable recipient: direct members and
// expanded committee members together must be non-empty.
func (s *Service) Create(ctx context.Context, draft *Draft) (*Task, error) {
	if draft.OrganizationID == "" {
		return nil, cerr.NewError(cerr.InvalidArgument, "organization id is required", nil)
	}
	if draft.Title == "" {
		return nil, cerr.NewError(cerr.InvalidArgument, "title is required", nil)
	}
	if draft.DueTime.Before(draft.StartTime) {
		return nil, cerr.NewError(cerr.InvalidArgument, "due time must not be before start time", nil)
	}
	res, err := assignee.Resolve(ctx, s.dir, draft.AssignedMemberIDs, draft.AssignedCommitteeIDs)
	if err != nil {
		return nil, err
	}
	if len(res.RecipientIDs) == 0 {
		return nil, cerr.NewError(cerr.InvalidArgument, "task has no addressable recipient", nil)
	}

	now := s.clock()
	t := &Task{
		ID:                   ulid.Make().String(),
		OrganizationID:       draft.OrganizationID,
		EventID:              draft.EventID,
		Title:                draft.Title,
		Description:          draft.Description,
		StartTime:            draft.StartTime,
		DueTime:              draft.DueTime,
		AssignedMemberIDs:    draft.AssignedMemberIDs,
		AssignedCommitteeIDs: draft.AssignedCommitteeIDs,
		Status:               StatusStarted,
		CreatedBy:            draft.CreatedBy,
		CreatedByID:          draft.CreatedByID,
		Attachments:          draft.Attachments,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}

	s.logActivity(ctx, t.OrganizationID, fmt.Sprintf("created task %q", t.Title), t.CreatedBy, now)
	s.bus.PublishNew(eventbus.EventTaskCreated, t.OrganizationID, t.ID, t.CreatedBy, nil)
	return t, nil
}

// Get returns the task with its status reconciled against the clock.
func (s *Service) Get(ctx context.Context, id string) (*Task, error) {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.reconcile(ctx, t)
	return t, nil
}

// List returns the organization's tasks, each with its status reconciled
// against the clock.
func (s *Service) List(ctx context.Context, organizationID string) ([]*Task, error) {
	tasks, err := s.repo.ListByOrganization(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	for _, t := range tasks {
		s.reconcile(ctx, t)
	}
	return tasks, nil
}

// Resolve expands the task's assignees into the effective recipient set.
func (s *Service) Resolve(ctx context.Context, t *Task) (*assignee.Resolution, error) {
	return assignee.Resolve(ctx, s.dir, t.AssignedMemberIDs, t.AssignedCommitteeIDs)
}

// Patch is a partial update. Nil fields are left unchanged. Submissions
// are deliberately absent: they only change through Submit and AddComment.
type Patch struct {
	Title                *string
	Description          *string
	EventID              *string
	StartTime            *time.Time
	DueTime              *time.Time
	AssignedMemberIDs    *[]string
	AssignedCommitteeIDs *[]string
	Attachments          *[]string
}

// Update applies the patch, re-validates the invariants and recomputes
// the status. Date edits go through the edit transition rules (Extended /
// Extended-Overdue / Overdue); any other edit just re-derives the status
// from the clock, so editing assignees never moves it.
func (s *Service) Update(ctx context.Context, id string, patch *Patch, actorName string) (*Task, error) {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	// The stored status may be stale: with lazy recomputation a task that
	// lapsed past its boundary carries the old value until some read
	// corrects it. Edit transitions key on the canonical status, so
	// re-derive it from the pre-patch fields before anything changes.
	now := s.clock()
	prev := Evaluate(t, now)
	t.Status = prev

	datesChanged := false
	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.EventID != nil {
		t.EventID = *patch.EventID
	}
	if patch.StartTime != nil && !patch.StartTime.Equal(t.StartTime) {
		t.StartTime = *patch.StartTime
		datesChanged = true
	}
	if patch.DueTime != nil && !patch.DueTime.Equal(t.DueTime) {
		t.DueTime = *patch.DueTime
		datesChanged = true
	}
	if patch.AssignedMemberIDs != nil {
		t.AssignedMemberIDs = *patch.AssignedMemberIDs
	}
	if patch.AssignedCommitteeIDs != nil {
		t.AssignedCommitteeIDs = *patch.AssignedCommitteeIDs
	}
	if patch.Attachments != nil {
		t.Attachments = *patch.Attachments
	}

	if t.DueTime.Before(t.StartTime) {
		return nil, cerr.NewError(cerr.InvalidArgument, "due time must not be before start time", nil)
	}
	if patch.AssignedMemberIDs != nil || patch.AssignedCommitteeIDs != nil {
		res, err := assignee.Resolve(ctx, s.dir, t.AssignedMemberIDs, t.AssignedCommitteeIDs)
		if err != nil {
			return nil, err
		}
		if len(res.RecipientIDs) == 0 {
			return nil, cerr.NewError(cerr.InvalidArgument, "task has no addressable recipient", nil)
		}
	}

	if datesChanged {
		t.Status = EvaluateEdit(prev, t, now)
	} else {
		t.Status = Evaluate(t, now)
	}
	t.UpdatedAt = now
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}

	s.logActivity(ctx, t.OrganizationID, fmt.Sprintf("edited task %q", t.Title), actorName, now)
	s.bus.PublishNew(eventbus.EventTaskUpdated, t.OrganizationID, t.ID, actorName, map[string]string{
		"old_status": string(prev),
		"new_status": string(t.Status),
	})
	return t, nil
}

// Delete removes the task record. Attachment blobs are the caller's
// responsibility; nothing cascades.
func (s *Service) Delete(ctx context.Context, id string, actorName string) error {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	now := s.clock()
	s.logActivity(ctx, t.OrganizationID, fmt.Sprintf("deleted task %q", t.Title), actorName, now)
	s.bus.PublishNew(eventbus.EventTaskDeleted, t.OrganizationID, t.ID, actorName, nil)
	return nil
}

// Watch delivers the organization's full evaluated task set immediately
// and again after every change to any task in that scope. Invalidation is
// deliberately coarse; consumers re-render from the delivered set. The
// channel closes when ctx is cancelled.
func (s *Service) Watch(ctx context.Context, organizationID string) (<-chan []*Task, error) {
	subID, events := s.bus.Subscribe(64)

	initial, err := s.List(ctx, organizationID)
	if err != nil {
		s.bus.Unsubscribe(subID)
		return nil, err
	}

	out := make(chan []*Task, 1)
	out <- initial

	go func() {
		defer close(out)
		defer s.bus.Unsubscribe(subID)
		err := panicerr.SafeContext(func(ctx context.Context) error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case ev, ok := <-events:
					if !ok {
						return nil
					}
					if ev.OrganizationID != "" && ev.OrganizationID != organizationID {
						continue
					}
					tasks, err := s.List(ctx, organizationID)
					if err != nil {
						slog.WarnContext(ctx, "watch: failed to list tasks", "organization_id", organizationID, "error", err)
						continue
					}
					select {
					case <-ctx.Done():
						return nil
					case out <- tasks:
					}
				}
			}
		})(ctx)
		if err != nil {
			slog.ErrorContext(ctx, "watch loop crashed", "organization_id", organizationID, "error", err)
		}
	}()
	return out, nil
}

// reconcile persists a corrected status if the clock has moved the task
// on since the last write. Failures are logged only: Evaluate is
// deterministic in (fields, now), so any concurrent reader writes the
// same correction and last-write-wins is safe.
func (s *Service) reconcile(ctx context.Context, t *Task) {
	now := s.clock()
	status := Evaluate(t, now)
	if status == t.Status {
		return
	}
	prev := t.Status
	t.Status = status
	t.UpdatedAt = now
	if err := s.repo.Update(ctx, t); err != nil {
		slog.WarnContext(ctx, "failed to persist status correction", "task_id", t.ID, "error", err)
		return
	}
	// The write above fires once per actual transition, so the feed gets
	// one line per promotion, not one per read.
	s.logActivity(ctx, t.OrganizationID, fmt.Sprintf("task %q became %s", t.Title, status.DisplayName()), "", now)
	s.bus.PublishNew(eventbus.EventTaskStatusChanged, t.OrganizationID, t.ID, "", map[string]string{
		"old_status": string(prev),
		"new_status": string(status),
	})
}

func (s *Service) logActivity(ctx context.Context, organizationID, description, actorName string, ts time.Time) {
	if s.activity == nil {
		return
	}
	e := &activitylog.Entry{
		ID:             ulid.Make().String(),
		OrganizationID: organizationID,
		Description:    description,
		ActorName:      actorName,
		Timestamp:      ts,
	}
	if err := s.activity.Append(ctx, e); err != nil {
		slog.WarnContext(ctx, "failed to append activity entry", "organization_id", organizationID, "error", err)
	}
}

func (s *Service) memberName(ctx context.Context, id string) string {
	m, err := s.dir.GetMember(ctx, id)
	if err != nil {
		return assignee.UnknownMemberName
	}
	return m.Name
}
