package attachment

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/orgsuite/taskengine/pkg/cerr"
)

// maxUploadBytes bounds a single attachment upload.
const maxUploadBytes = 32 << 20

type Server struct {
	gateway Gateway
}

func NewServer(gateway Gateway) *Server {
	return &Server{gateway: gateway}
}

func (s *Server) Routes(r chi.Router) {
	r.Post("/attachments", s.handleUpload)
}

type uploadResponse struct {
	Ref string `json:"ref"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid multipart body", err)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "missing file field", err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		cerr.SetNewJSONError(ctx, cerr.Internal, "server error", err)
		return
	}
	ref, err := s.gateway.Upload(ctx, header.Filename, data)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponseWithStatus(ctx, http.StatusCreated, uploadResponse{Ref: ref})
}
