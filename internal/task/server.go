package task

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/orgsuite/taskengine/internal/assignee"
	"github.com/orgsuite/taskengine/pkg/cerr"
)

// actorHeader and actorIDHeader carry the acting user's display name and
// identity, resolved by the portal's session layer in front of this API.
const (
	actorHeader   = "X-Actor-Name"
	actorIDHeader = "X-Actor-Id"
)

type Server struct {
	svc *Service
}

func NewServer(svc *Service) *Server {
	return &Server{svc: svc}
}

// Routes registers the JSON endpoints. They all run under the cerr
// receiver middleware: handlers set a response or error on the context
// and the middleware writes it.
func (s *Server) Routes(r chi.Router) {
	r.Post("/organizations/{organizationID}/tasks", s.handleCreate)
	r.Get("/organizations/{organizationID}/tasks", s.handleList)
	r.Get("/tasks/{taskID}", s.handleGet)
	r.Patch("/tasks/{taskID}", s.handleUpdate)
	r.Delete("/tasks/{taskID}", s.handleDelete)
	r.Get("/tasks/{taskID}/assignees", s.handleAssignees)
	r.Post("/tasks/{taskID}/submissions", s.handleSubmit)
	r.Post("/tasks/{taskID}/submissions/{submissionIndex}/comments", s.handleAddComment)
}

type taskResponse struct {
	Task *Task `json:"task"`
}

type tasksResponse struct {
	Tasks []*Task `json:"tasks"`
}

type createTaskRequest struct {
	EventID              string    `json:"eventId"`
	Title                string    `json:"title"`
	Description          string    `json:"description"`
	StartTime            time.Time `json:"startTime"`
	DueTime              time.Time `json:"dueTime"`
	AssignedMemberIDs    []string  `json:"assignedMemberIds"`
	AssignedCommitteeIDs []string  `json:"assignedCommitteeIds"`
	Attachments          []string  `json:"attachments"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid request body", err)
		return
	}
	t, err := s.svc.Create(ctx, &Draft{
		OrganizationID:       chi.URLParam(r, "organizationID"),
		EventID:              req.EventID,
		Title:                req.Title,
		Description:          req.Description,
		StartTime:            req.StartTime,
		DueTime:              req.DueTime,
		AssignedMemberIDs:    req.AssignedMemberIDs,
		AssignedCommitteeIDs: req.AssignedCommitteeIDs,
		CreatedBy:            r.Header.Get(actorHeader),
		CreatedByID:          r.Header.Get(actorIDHeader),
		Attachments:          req.Attachments,
	})
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponseWithStatus(ctx, http.StatusCreated, taskResponse{Task: t})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tasks, err := s.svc.List(ctx, chi.URLParam(r, "organizationID"))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, tasksResponse{Tasks: tasks})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	t, err := s.svc.Get(ctx, chi.URLParam(r, "taskID"))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, taskResponse{Task: t})
}

type updateTaskRequest struct {
	Title                *string    `json:"title"`
	Description          *string    `json:"description"`
	EventID              *string    `json:"eventId"`
	StartTime            *time.Time `json:"startTime"`
	DueTime              *time.Time `json:"dueTime"`
	AssignedMemberIDs    *[]string  `json:"assignedMemberIds"`
	AssignedCommitteeIDs *[]string  `json:"assignedCommitteeIds"`
	Attachments          *[]string  `json:"attachments"`
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req updateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid request body", err)
		return
	}
	t, err := s.svc.Update(ctx, chi.URLParam(r, "taskID"), &Patch{
		Title:                req.Title,
		Description:          req.Description,
		EventID:              req.EventID,
		StartTime:            req.StartTime,
		DueTime:              req.DueTime,
		AssignedMemberIDs:    req.AssignedMemberIDs,
		AssignedCommitteeIDs: req.AssignedCommitteeIDs,
		Attachments:          req.Attachments,
	}, r.Header.Get(actorHeader))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, taskResponse{Task: t})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := s.svc.Delete(ctx, chi.URLParam(r, "taskID"), r.Header.Get(actorHeader)); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, struct{}{})
}

type assigneesResponse struct {
	RecipientIDs []string          `json:"recipientIds"`
	DisplayNames map[string]string `json:"displayNames"`
}

func (s *Server) handleAssignees(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	t, err := s.svc.Get(ctx, chi.URLParam(r, "taskID"))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	var res *assignee.Resolution
	res, err = s.svc.Resolve(ctx, t)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, assigneesResponse{
		RecipientIDs: res.RecipientIDs,
		DisplayNames: res.DisplayNames,
	})
}

type submitRequest struct {
	SubmitterID string   `json:"submitterId"`
	Content     string   `json:"content"`
	Attachments []string `json:"attachments"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid request body", err)
		return
	}
	t, err := s.svc.Submit(ctx, chi.URLParam(r, "taskID"), &SubmissionDraft{
		SubmitterID: req.SubmitterID,
		Content:     req.Content,
		Attachments: req.Attachments,
	})
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponseWithStatus(ctx, http.StatusCreated, taskResponse{Task: t})
}

type addCommentRequest struct {
	AuthorID string `json:"authorId"`
	Text     string `json:"text"`
}

func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	idx, err := strconv.Atoi(chi.URLParam(r, "submissionIndex"))
	if err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid submission index", err)
		return
	}
	var req addCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid request body", err)
		return
	}
	t, err := s.svc.AddComment(ctx, chi.URLParam(r, "taskID"), idx, &CommentDraft{
		AuthorID: req.AuthorID,
		Text:     req.Text,
	})
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponseWithStatus(ctx, http.StatusCreated, taskResponse{Task: t})
}

// ServeWatch streams the organization's evaluated task set as
// server-sent events: the full set on connect and again after every
// change. It bypasses the JSON receiver middleware because the response
// is long-lived.
func (s *Server) ServeWatch(w http.ResponseWriter, r *http.Request) {
	fl, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	ch, err := s.svc.Watch(r.Context(), chi.URLParam(r, "organizationID"))
	if err != nil {
		var cErr *cerr.Error
		status := http.StatusInternalServerError
		if errors.As(err, &cErr) {
			status = cErr.Code.HTTPCode()
		}
		http.Error(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fl.Flush()

	for tasks := range ch {
		payload, err := json.Marshal(tasksResponse{Tasks: tasks})
		if err != nil {
			continue
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
			return
		}
		fl.Flush()
	}
}
