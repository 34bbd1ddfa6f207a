package domkey

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hazyhaar/domkey/baseline"
	"github.com/hazyhaar/domkey/safeio"
)

// maxBodyBytes caps JSON request bodies. Two documents at the per-document
// ceiling fit, JSON escaping included.
const maxBodyBytes = 2 * safeio.MaxDocumentBytes

// RegisterHTTP mounts the REST surface on r. Middleware (request IDs,
// logging, recovery) is the caller's business; see kit.HTTPContext.
func (s *Service) RegisterHTTP(r chi.Router) {
	r.Get("/health", s.handleHealth)
	r.Post("/v1/key", s.handleKey)
	r.Post("/v1/match", s.handleMatch)
	r.Route("/v1/baselines", func(r chi.Router) {
		r.Get("/", s.handleListBaselines)
		r.Post("/", s.handleRecordBaseline)
		r.Get("/{name}", s.handleGetBaseline)
		r.Delete("/{name}", s.handleDeleteBaseline)
		r.Post("/{name}/verify", s.handleVerifyBaseline)
	})
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, 200, map[string]string{"status": "ok", "algo": s.config.Algo})
}

func (s *Service) handleKey(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content string `json:"content"`
		Format  string `json:"format"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Content == "" {
		writeError(w, 400, fmt.Errorf("content is required"))
		return
	}
	res, err := s.KeyBytes([]byte(req.Content), req.Format)
	if err != nil {
		writeError(w, 400, err)
		return
	}
	writeJSON(w, 200, res)
}

func (s *Service) handleMatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Left   string `json:"left"`
		Right  string `json:"right"`
		Format string `json:"format"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Left == "" || req.Right == "" {
		writeError(w, 400, fmt.Errorf("left and right are required"))
		return
	}
	res, err := s.MatchBytes([]byte(req.Left), []byte(req.Right), req.Format)
	if err != nil {
		writeError(w, 400, err)
		return
	}
	writeJSON(w, 200, res)
}

func (s *Service) handleListBaselines(w http.ResponseWriter, r *http.Request) {
	list, err := s.ListBaselines(r.Context())
	if err != nil {
		writeError(w, 500, err)
		return
	}
	if list == nil {
		list = []*baseline.Baseline{}
	}
	writeJSON(w, 200, list)
}

func (s *Service) handleRecordBaseline(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string `json:"name"`
		Content string `json:"content"`
		Format  string `json:"format"`
		Source  string `json:"source"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" || req.Content == "" {
		writeError(w, 400, fmt.Errorf("name and content are required"))
		return
	}
	if err := safeio.ValidateName(req.Name); err != nil {
		writeError(w, 400, err)
		return
	}
	res, err := s.KeyBytes([]byte(req.Content), req.Format)
	if err != nil {
		writeError(w, 400, err)
		return
	}
	res.Source = req.Source
	b, err := s.record(r.Context(), req.Name, res)
	if err != nil {
		writeError(w, 500, err)
		return
	}
	writeJSON(w, 201, b)
}

func (s *Service) handleGetBaseline(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	b, err := s.GetBaseline(r.Context(), name)
	switch {
	case errors.Is(err, baseline.ErrNotFound):
		writeError(w, 404, err)
	case err != nil:
		writeError(w, 500, err)
	default:
		writeJSON(w, 200, b)
	}
}

func (s *Service) handleDeleteBaseline(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	err := s.DeleteBaseline(r.Context(), name)
	switch {
	case errors.Is(err, baseline.ErrNotFound):
		writeError(w, 404, err)
	case err != nil:
		writeError(w, 500, err)
	default:
		writeJSON(w, 200, map[string]string{"status": "deleted"})
	}
}

func (s *Service) handleVerifyBaseline(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var req struct {
		Content string `json:"content"`
		Format  string `json:"format"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Content == "" {
		writeError(w, 400, fmt.Errorf("content is required"))
		return
	}
	res, err := s.KeyBytes([]byte(req.Content), req.Format)
	if err != nil {
		writeError(w, 400, err)
		return
	}
	v, err := s.baselines.Verify(r.Context(), name, res.Algo, res.Key)
	switch {
	case errors.Is(err, baseline.ErrNotFound):
		writeError(w, 404, err)
	case errors.Is(err, baseline.ErrAlgoMismatch):
		writeError(w, 409, err)
	case err != nil:
		writeError(w, 500, err)
	default:
		writeJSON(w, 200, v)
	}
}

// decodeBody reads a size-capped JSON body into v, answering the request
// itself when something is wrong.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		writeError(w, 400, err)
		return false
	}
	if int64(len(data)) > maxBodyBytes {
		writeError(w, 413, fmt.Errorf("request body exceeds %d bytes", int64(maxBodyBytes)))
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		writeError(w, 400, err)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
