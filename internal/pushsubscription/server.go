package pushsubscription

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/orgsuite/taskengine/pkg/cerr"
)

type Server struct {
	repo Repository
}

func NewServer(repo Repository) *Server {
	return &Server{repo: repo}
}

func (s *Server) Routes(r chi.Router) {
	r.Post("/push/subscriptions", s.handleSubscribe)
	r.Delete("/push/subscriptions", s.handleUnsubscribe)
}

type subscribeRequest struct {
	MemberID       string `json:"memberId"`
	OrganizationID string `json:"organizationId"`
	Endpoint       string `json:"endpoint"`
	P256dhKey      string `json:"p256dhKey"`
	AuthKey        string `json:"authKey"`
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid request body", err)
		return
	}
	if req.MemberID == "" || req.Endpoint == "" {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "member id and endpoint are required", nil)
		return
	}

	// Re-registering an endpoint replaces the previous record. Only a
	// missing record means "nothing to replace"; any other failure would
	// leave a duplicate behind, so it surfaces.
	existing, err := s.repo.FindByEndpoint(ctx, req.Endpoint)
	switch {
	case err == nil:
		if err := s.repo.Delete(ctx, existing.ID); err != nil {
			cerr.SetJSONError(ctx, err)
			return
		}
	case !cerr.IsCode(err, cerr.NotFound):
		cerr.SetJSONError(ctx, err)
		return
	}

	sub := &Subscription{
		ID:             ulid.Make().String(),
		MemberID:       req.MemberID,
		OrganizationID: req.OrganizationID,
		Endpoint:       req.Endpoint,
		P256dhKey:      req.P256dhKey,
		AuthKey:        req.AuthKey,
		CreatedAt:      time.Now(),
	}
	if err := s.repo.Create(ctx, sub); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponseWithStatus(ctx, http.StatusCreated, struct {
		ID string `json:"id"`
	}{ID: sub.ID})
}

type unsubscribeRequest struct {
	Endpoint string `json:"endpoint"`
}

func (s *Server) handleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req unsubscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid request body", err)
		return
	}
	if err := s.repo.DeleteByEndpoint(ctx, req.Endpoint); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, struct{}{})
}
