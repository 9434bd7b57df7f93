package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/fatih/color"

	"github.com/orgsuite/taskengine/internal/client"
	"github.com/orgsuite/taskengine/internal/task"
)

var (
	app     = kingpin.New("taskctl", "Command line client for the task engine")
	baseURL = app.Flag("url", "Server base URL").Envar("TASKENGINE_URL").Default("http://localhost:3200").String()
	apiKey  = app.Flag("api-key", "API key").Envar("TASKENGINE_API_KEY").Required().String()
	actor   = app.Flag("actor", "Acting user's display name").Envar("TASKENGINE_ACTOR").Default("taskctl").String()
	actorID = app.Flag("actor-id", "Acting user's member id").Envar("TASKENGINE_ACTOR_ID").String()

	listCmd = app.Command("list", "List an organization's tasks")
	listOrg = listCmd.Arg("organization", "Organization ID").Required().String()

	showCmd = app.Command("show", "Show task details")
	showID  = showCmd.Arg("id", "Task ID").Required().String()

	createCmd        = app.Command("create", "Create a new task")
	createOrg        = createCmd.Arg("organization", "Organization ID").Required().String()
	createTitle      = createCmd.Arg("title", "Task title").Required().String()
	createDesc       = createCmd.Flag("description", "Task description").String()
	createEvent      = createCmd.Flag("event", "Linked event ID").String()
	createStart      = createCmd.Flag("start", "Start time (RFC3339)").Required().String()
	createDue        = createCmd.Flag("due", "Due time (RFC3339)").Required().String()
	createMembers    = createCmd.Flag("member", "Assigned member ID (repeatable)").Strings()
	createCommittees = createCmd.Flag("committee", "Assigned committee ID (repeatable)").Strings()

	submitCmd       = app.Command("submit", "Record a submission against a task")
	submitID        = submitCmd.Arg("id", "Task ID").Required().String()
	submitContent   = submitCmd.Flag("content", "Submission content").String()
	submitSubmitter = submitCmd.Flag("submitter", "Submitter member ID").Required().String()

	deleteCmd = app.Command("delete", "Delete a task")
	deleteID  = deleteCmd.Arg("id", "Task ID").Required().String()

	assigneesCmd = app.Command("assignees", "Resolve a task's assignees")
	assigneesID  = assigneesCmd.Arg("id", "Task ID").Required().String()
)

func main() {
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	c := client.NewTaskClient(*baseURL, *apiKey, client.WithActor(*actor, *actorID))
	ctx := context.Background()

	var err error
	switch command {
	case listCmd.FullCommand():
		err = handleList(ctx, c)
	case showCmd.FullCommand():
		err = handleShow(ctx, c)
	case createCmd.FullCommand():
		err = handleCreate(ctx, c)
	case submitCmd.FullCommand():
		err = handleSubmit(ctx, c)
	case deleteCmd.FullCommand():
		err = handleDelete(ctx, c)
	case assigneesCmd.FullCommand():
		err = handleAssignees(ctx, c)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var statusColors = map[task.Status]*color.Color{
	task.StatusStarted:         color.New(color.FgCyan),
	task.StatusInProgress:      color.New(color.FgBlue),
	task.StatusCompleted:       color.New(color.FgGreen),
	task.StatusOverdue:         color.New(color.FgRed),
	task.StatusExtended:        color.New(color.FgYellow),
	task.StatusExtendedOverdue: color.New(color.FgRed, color.Bold),
}

func coloredStatus(s task.Status) string {
	if c, ok := statusColors[s]; ok {
		return c.Sprint(s.DisplayName())
	}
	return s.DisplayName()
}

func handleList(ctx context.Context, c *client.TaskClient) error {
	tasks, err := c.ListTasks(ctx, *listOrg)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tSTATUS\tDUE\tSUBMISSIONS")
	for _, t := range tasks {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d/%d\n",
			t.ID, t.Title, coloredStatus(t.Status),
			t.DueTime.Local().Format("2006-01-02 15:04"),
			len(t.Submissions), task.MaxSubmissions)
	}
	return w.Flush()
}

func handleShow(ctx context.Context, c *client.TaskClient) error {
	t, err := c.GetTask(ctx, *showID)
	if err != nil {
		return err
	}
	fmt.Printf("ID:           %s\n", t.ID)
	fmt.Printf("Organization: %s\n", t.OrganizationID)
	if t.EventID != "" {
		fmt.Printf("Event:        %s\n", t.EventID)
	}
	fmt.Printf("Title:        %s\n", t.Title)
	if t.Description != "" {
		fmt.Printf("Description:  %s\n", t.Description)
	}
	fmt.Printf("Status:       %s\n", coloredStatus(t.Status))
	fmt.Printf("Start:        %s\n", t.StartTime.Local().Format(time.RFC3339))
	fmt.Printf("Due:          %s\n", t.DueTime.Local().Format(time.RFC3339))
	fmt.Printf("Created by:   %s\n", t.CreatedBy)
	if len(t.AssignedMemberIDs) > 0 {
		fmt.Printf("Members:      %s\n", strings.Join(t.AssignedMemberIDs, ", "))
	}
	if len(t.AssignedCommitteeIDs) > 0 {
		fmt.Printf("Committees:   %s\n", strings.Join(t.AssignedCommitteeIDs, ", "))
	}
	for i, sub := range t.Submissions {
		fmt.Printf("Submission %d: %s at %s (%d comments)\n",
			i, sub.SubmitterID, sub.SubmittedAt.Local().Format(time.RFC3339), len(sub.Comments))
	}
	return nil
}

func handleCreate(ctx context.Context, c *client.TaskClient) error {
	start, err := time.Parse(time.RFC3339, *createStart)
	if err != nil {
		return fmt.Errorf("invalid start time: %w", err)
	}
	due, err := time.Parse(time.RFC3339, *createDue)
	if err != nil {
		return fmt.Errorf("invalid due time: %w", err)
	}
	t, err := c.CreateTask(ctx, *createOrg, &client.CreateTaskRequest{
		EventID:              *createEvent,
		Title:                *createTitle,
		Description:          *createDesc,
		StartTime:            start,
		DueTime:              due,
		AssignedMemberIDs:    *createMembers,
		AssignedCommitteeIDs: *createCommittees,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Created task %s\n", t.ID)
	return nil
}

func handleSubmit(ctx context.Context, c *client.TaskClient) error {
	t, err := c.Submit(ctx, *submitID, &client.SubmitRequest{
		SubmitterID: *submitSubmitter,
		Content:     *submitContent,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Submitted (%d/%d), task is now %s\n", len(t.Submissions), task.MaxSubmissions, coloredStatus(t.Status))
	return nil
}

func handleDelete(ctx context.Context, c *client.TaskClient) error {
	if err := c.DeleteTask(ctx, *deleteID); err != nil {
		return err
	}
	fmt.Printf("Deleted task %s\n", *deleteID)
	return nil
}

func handleAssignees(ctx context.Context, c *client.TaskClient) error {
	res, err := c.GetAssignees(ctx, *assigneesID)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RECIPIENT\tNAME")
	for _, id := range res.RecipientIDs {
		fmt.Fprintf(w, "%s\t%s\n", id, res.DisplayNames[id])
	}
	return w.Flush()
}
