package activitylog

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/orgsuite/taskengine/pkg/cerr"
)

type Server struct {
	repo Repository
}

func NewServer(repo Repository) *Server {
	return &Server{repo: repo}
}

func (s *Server) Routes(r chi.Router) {
	r.Get("/organizations/{organizationID}/activity", s.handleList)
}

type listResponse struct {
	Entries []*Entry `json:"entries"`
	Total   int      `json:"total"`
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit, offset := 50, 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	entries, total, err := s.repo.ListByOrganization(ctx, chi.URLParam(r, "organizationID"), limit, offset)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, listResponse{Entries: entries, Total: total})
}
