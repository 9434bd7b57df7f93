package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/orgsuite/taskengine/internal/assignee"
	"github.com/orgsuite/taskengine/internal/task"
)

// TaskClient provides client operations against the task API.
type TaskClient struct {
	baseURL    string
	apiKey     string
	actorName  string
	actorID    string
	httpClient *http.Client
}

type Option func(*TaskClient)

// WithActor sets the acting user's display name and id, sent as headers
// on every mutating request.
func WithActor(name, id string) Option {
	return func(c *TaskClient) {
		c.actorName = name
		c.actorID = id
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *TaskClient) {
		c.httpClient = hc
	}
}

// NewTaskClient creates a new task client. baseURL is the server root
// without the /api prefix.
func NewTaskClient(baseURL, apiKey string, opts ...Option) *TaskClient {
	c := &TaskClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type taskResponse struct {
	Task *task.Task `json:"task"`
}

type tasksResponse struct {
	Tasks []*task.Task `json:"tasks"`
}

// CreateTaskRequest is the payload for CreateTask.
type CreateTaskRequest struct {
	EventID              string    `json:"eventId,omitempty"`
	Title                string    `json:"title"`
	Description          string    `json:"description,omitempty"`
	StartTime            time.Time `json:"startTime"`
	DueTime              time.Time `json:"dueTime"`
	AssignedMemberIDs    []string  `json:"assignedMemberIds,omitempty"`
	AssignedCommitteeIDs []string  `json:"assignedCommitteeIds,omitempty"`
	Attachments          []string  `json:"attachments,omitempty"`
}

// CreateTask creates a new task in the organization.
func (c *TaskClient) CreateTask(ctx context.Context, organizationID string, req *CreateTaskRequest) (*task.Task, error) {
	var resp taskResponse
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/organizations/%s/tasks", organizationID), req, &resp)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return resp.Task, nil
}

// ListTasks lists the organization's tasks with evaluated statuses.
func (c *TaskClient) ListTasks(ctx context.Context, organizationID string) ([]*task.Task, error) {
	var resp tasksResponse
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/organizations/%s/tasks", organizationID), nil, &resp)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return resp.Tasks, nil
}

// GetTask gets a specific task.
func (c *TaskClient) GetTask(ctx context.Context, taskID string) (*task.Task, error) {
	var resp taskResponse
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/tasks/%s", taskID), nil, &resp)
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return resp.Task, nil
}

// UpdateTaskRequest carries the fields to change; nil fields are left as is.
type UpdateTaskRequest struct {
	Title                *string    `json:"title,omitempty"`
	Description          *string    `json:"description,omitempty"`
	EventID              *string    `json:"eventId,omitempty"`
	StartTime            *time.Time `json:"startTime,omitempty"`
	DueTime              *time.Time `json:"dueTime,omitempty"`
	AssignedMemberIDs    *[]string  `json:"assignedMemberIds,omitempty"`
	AssignedCommitteeIDs *[]string  `json:"assignedCommitteeIds,omitempty"`
	Attachments          *[]string  `json:"attachments,omitempty"`
}

// UpdateTask applies a partial update to a task.
func (c *TaskClient) UpdateTask(ctx context.Context, taskID string, req *UpdateTaskRequest) (*task.Task, error) {
	var resp taskResponse
	err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/api/tasks/%s", taskID), req, &resp)
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	return resp.Task, nil
}

// DeleteTask deletes a task.
func (c *TaskClient) DeleteTask(ctx context.Context, taskID string) error {
	var resp struct{}
	err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/tasks/%s", taskID), nil, &resp)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

// GetAssignees resolves a task's effective recipients and display names.
func (c *TaskClient) GetAssignees(ctx context.Context, taskID string) (*assignee.Resolution, error) {
	var resp struct {
		RecipientIDs []string          `json:"recipientIds"`
		DisplayNames map[string]string `json:"displayNames"`
	}
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/tasks/%s/assignees", taskID), nil, &resp)
	if err != nil {
		return nil, fmt.Errorf("failed to get assignees: %w", err)
	}
	return &assignee.Resolution{
		RecipientIDs: resp.RecipientIDs,
		DisplayNames: resp.DisplayNames,
	}, nil
}

// SubmitRequest is the payload for Submit.
type SubmitRequest struct {
	SubmitterID string   `json:"submitterId"`
	Content     string   `json:"content,omitempty"`
	Attachments []string `json:"attachments,omitempty"`
}

// Submit records a submission against a task.
func (c *TaskClient) Submit(ctx context.Context, taskID string, req *SubmitRequest) (*task.Task, error) {
	var resp taskResponse
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/tasks/%s/submissions", taskID), req, &resp)
	if err != nil {
		return nil, fmt.Errorf("failed to submit: %w", err)
	}
	return resp.Task, nil
}

// AddComment adds a comment to the submission at the given index.
func (c *TaskClient) AddComment(ctx context.Context, taskID string, submissionIndex int, authorID, text string) (*task.Task, error) {
	body := struct {
		AuthorID string `json:"authorId"`
		Text     string `json:"text"`
	}{AuthorID: authorID, Text: text}
	var resp taskResponse
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/tasks/%s/submissions/%d/comments", taskID, submissionIndex), body, &resp)
	if err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}
	return resp.Task, nil
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (c *TaskClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.actorName != "" {
		req.Header.Set("X-Actor-Name", c.actorName)
	}
	if c.actorID != "" {
		req.Header.Set("X-Actor-Id", c.actorID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr apiError
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil || apiErr.Code == "" {
			return fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
		return &apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
