package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/orgsuite/taskengine/internal/assignee"
	"github.com/orgsuite/taskengine/internal/directory"
	"github.com/orgsuite/taskengine/internal/eventbus"
	"github.com/orgsuite/taskengine/internal/task"
	"github.com/orgsuite/taskengine/pkg/panicerr"
)

// Dispatcher turns task change events into notifications: assignees hear
// about new tasks, the creator hears about submissions. Delivery faults
// never reach the flow that made the change.
type Dispatcher struct {
	eventBus *eventbus.Bus
	taskRepo task.Repository
	dir      directory.Directory
	sink     Sink
}

func NewDispatcher(eventBus *eventbus.Bus, taskRepo task.Repository, dir directory.Directory, sink Sink) *Dispatcher {
	return &Dispatcher{
		eventBus: eventBus,
		taskRepo: taskRepo,
		dir:      dir,
		sink:     sink,
	}
}

func (d *Dispatcher) Start(ctx context.Context) {
	subID, ch := d.eventBus.Subscribe(256)
	defer d.eventBus.Unsubscribe(subID)

	slog.Info("notification dispatcher started")
	err := panicerr.SafeContext(func(ctx context.Context) error {
		for {
			select {
			case <-ctx.Done():
				slog.Info("notification dispatcher stopped")
				return nil
			case event, ok := <-ch:
				if !ok {
					return nil
				}
				switch event.Type {
				case eventbus.EventTaskCreated:
					d.handleTaskCreated(ctx, event)
				case eventbus.EventSubmissionCreated:
					d.handleSubmissionCreated(ctx, event)
				case eventbus.EventTaskStatusChanged:
					d.handleStatusChanged(ctx, event)
				}
			}
		}
	})(ctx)
	if err != nil {
		slog.Error("notification dispatcher crashed", "error", err)
	}
}

func (d *Dispatcher) handleTaskCreated(ctx context.Context, event *eventbus.Event) {
	t, err := d.taskRepo.Get(ctx, event.TaskID)
	if err != nil {
		slog.ErrorContext(ctx, "notification dispatcher: failed to get task", "task_id", event.TaskID, "error", err)
		return
	}
	res, err := assignee.Resolve(ctx, d.dir, t.AssignedMemberIDs, t.AssignedCommitteeIDs)
	if err != nil {
		slog.ErrorContext(ctx, "notification dispatcher: failed to resolve assignees", "task_id", t.ID, "error", err)
		return
	}

	subject := "New task assigned"
	body := fmt.Sprintf("%s assigned you %q, due %s", t.CreatedBy, t.Title, t.DueTime.Format("Jan 2 15:04"))
	for _, recipientID := range res.RecipientIDs {
		d.sink.Notify(ctx, recipientID, subject, body)
	}
}

// handleStatusChanged covers clock-driven promotions. Only the lapse into
// Overdue is worth a ping; Started to In-Progress is routine.
func (d *Dispatcher) handleStatusChanged(ctx context.Context, event *eventbus.Event) {
	if task.Status(event.Metadata["new_status"]) != task.StatusOverdue {
		return
	}
	t, err := d.taskRepo.Get(ctx, event.TaskID)
	if err != nil {
		slog.ErrorContext(ctx, "notification dispatcher: failed to get task", "task_id", event.TaskID, "error", err)
		return
	}
	res, err := assignee.Resolve(ctx, d.dir, t.AssignedMemberIDs, t.AssignedCommitteeIDs)
	if err != nil {
		slog.ErrorContext(ctx, "notification dispatcher: failed to resolve assignees", "task_id", t.ID, "error", err)
		return
	}

	subject := "Task overdue"
	body := fmt.Sprintf("%q passed its due date (%s)", t.Title, t.DueTime.Format("Jan 2 15:04"))
	for _, recipientID := range res.RecipientIDs {
		d.sink.Notify(ctx, recipientID, subject, body)
	}
}

func (d *Dispatcher) handleSubmissionCreated(ctx context.Context, event *eventbus.Event) {
	t, err := d.taskRepo.Get(ctx, event.TaskID)
	if err != nil {
		slog.ErrorContext(ctx, "notification dispatcher: failed to get task", "task_id", event.TaskID, "error", err)
		return
	}
	if t.CreatedByID == "" {
		return
	}
	// The submitter may be the creator; the portal still wants the ping
	// suppressed in that case.
	if event.Metadata["submitter_id"] == t.CreatedByID {
		return
	}
	d.sink.Notify(ctx, t.CreatedByID,
		"Submission received",
		fmt.Sprintf("%s submitted work for %q", event.ActorName, t.Title))
}
