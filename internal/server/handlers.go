package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/techtree/pkg/buildinfo"
	techerrors "github.com/matzehuels/techtree/pkg/errors"
	"github.com/matzehuels/techtree/pkg/graph"
	"github.com/matzehuels/techtree/pkg/layout"
	"github.com/matzehuels/techtree/pkg/pipeline"
	"github.com/matzehuels/techtree/pkg/progress"
	"github.com/matzehuels/techtree/pkg/session"
	"github.com/matzehuels/techtree/pkg/techtree"
)

// =============================================================================
// Request / Response Types
// =============================================================================

// CreateRequest is the body of POST /sessions. All fields are optional when
// the server has a default tree.
type CreateRequest struct {
	Tree   *graph.Tree    `json:"tree,omitempty"`
	Done   []string       `json:"done,omitempty"`
	Layout *layout.Config `json:"layout,omitempty"`
}

// SessionResponse describes a session.
type SessionResponse struct {
	ID        string            `json:"id"`
	ExpiresAt time.Time         `json:"expires_at"`
	Nodes     int               `json:"nodes"`
	Progress  progress.Progress `json:"progress"`
}

// ToggleResponse is the body of POST /sessions/{id}/toggle/{node}.
type ToggleResponse struct {
	Node     string            `json:"node"`
	Change   string            `json:"change"`
	Revoked  []string          `json:"revoked,omitempty"`
	Progress progress.Progress `json:"progress"`
}

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"build":    buildinfo.Get(),
		"sessions": s.store.Len(),
	})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if r.ContentLength != 0 {
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			s.writeError(w, techerrors.Wrap(techerrors.ErrCodeInvalidFormat, err, "decode request"))
			return
		}
	}

	tree := req.Tree
	if tree == nil {
		tree = s.cfg.DefaultTree
	}
	if tree == nil {
		s.writeError(w, techerrors.New(techerrors.ErrCodeInvalidInput, "request has no tree and the server has no default"))
		return
	}

	opts := pipeline.Options{Tree: tree, Done: req.Done}
	if req.Layout != nil {
		opts.Config = *req.Layout
	}
	_, hash, err := pipeline.LoadTree(opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	e, err := pipeline.Load(tree, opts, s.logger)
	if err != nil {
		s.writeError(w, err)
		return
	}

	sess := s.store.Create(e, hash)
	s.logger.Info("session created", "id", sess.ID, "nodes", e.Graph().Len())
	writeJSON(w, http.StatusCreated, SessionResponse{
		ID:        sess.ID,
		ExpiresAt: sess.ExpiresAt(),
		Nodes:     e.Graph().Len(),
		Progress:  e.Progress(),
	})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.store.Delete(id) {
		s.writeError(w, techerrors.New(techerrors.ErrCodeSessionNotFound, "session %q not found", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	opts, err := snapshotOptions(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	format := opts.Formats[0]

	var body []byte
	err = sess.Do(func(e *techtree.Engine) error {
		if _, err := s.runner.EnsureLayout(r.Context(), e, sess.TreeHash, opts); err != nil {
			return err
		}
		var err error
		body, err = pipeline.Render(r.Context(), e.Snapshot(opts.Viewport()), format, opts)
		return err
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", contentTypes[format])
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	node := chi.URLParam(r, "node")

	var resp ToggleResponse
	err := sess.Do(func(e *techtree.Engine) error {
		res, err := e.Toggle(node)
		if err != nil {
			return err
		}
		resp = ToggleResponse{
			Node:     node,
			Change:   res.Kind.String(),
			Revoked:  res.Revoked,
			Progress: e.Progress(),
		}
		return nil
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var p progress.Progress
	_ = sess.Do(func(e *techtree.Engine) error {
		e.Reset()
		p = e.Progress()
		return nil
	})
	writeJSON(w, http.StatusOK, map[string]any{"progress": p})
}

func (s *Server) handleTooltip(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var tip techtree.Tooltip
	err := sess.Do(func(e *techtree.Engine) error {
		var err error
		tip, err = e.Tooltip(chi.URLParam(r, "node"))
		return err
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tip)
}

// =============================================================================
// Helpers
// =============================================================================

var contentTypes = map[string]string{
	pipeline.FormatJSON: "application/json",
	pipeline.FormatDOT:  "text/vnd.graphviz",
	pipeline.FormatSVG:  "image/svg+xml",
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.store.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return nil, false
	}
	return sess, true
}

// snapshotOptions reads width, height and format from the query string.
// Missing values take the pipeline defaults.
func snapshotOptions(r *http.Request) (pipeline.Options, error) {
	q := r.URL.Query()
	var opts pipeline.Options

	for name, dst := range map[string]*float64{"width": &opts.Width, "height": &opts.Height} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return opts, techerrors.Wrap(techerrors.ErrCodeInvalidInput, err, "query parameter %s", name)
		}
		*dst = v
	}
	if f := q.Get("format"); f != "" {
		opts.Formats = []string{f}
	}
	err := opts.SetRenderDefaults()
	return opts, err
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := techerrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	code := string(techerrors.GetCode(err))
	if code == "" {
		code = string(techerrors.ErrCodeInternal)
	}
	writeJSON(w, status, ErrorResponse{Code: code, Message: techerrors.UserMessage(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
