package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/openziti/pandapi/kernel/model"
	"github.com/sirupsen/logrus"
)

// Lifecycle is the part of the engine the HTTP surface drives.
type Lifecycle interface {
	Provision(spec model.Server) (model.Server, error)
	Decommission(id string) error
	Get(id string) (model.Server, error)
	List() []model.Server
}

type ServerOption func(*Server)

// WithMetricsHandler mounts h at GET /metrics.
func WithMetricsHandler(h http.Handler) ServerOption {
	return func(s *Server) { s.metrics = h }
}

func WithLogger(log *logrus.Entry) ServerOption {
	return func(s *Server) { s.log = log }
}

type Server struct {
	lifecycle Lifecycle
	metrics   http.Handler
	log       *logrus.Entry
	mux       *http.ServeMux
	server    *http.Server
}

func NewServer(lifecycle Lifecycle, opts ...ServerOption) *Server {
	s := &Server{
		lifecycle: lifecycle,
		log:       logrus.WithField("component", "api"),
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET "+BasePath, s.handleList)
	mux.HandleFunc("POST "+BasePath, s.handleCreate)
	mux.HandleFunc("GET "+BasePath+"/{id}", s.handleGet)
	mux.HandleFunc("DELETE "+BasePath+"/{id}", s.handleDelete)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}
	s.mux = mux
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{Addr: addr, Handler: s.mux}
	s.log.Infof("listening on [%s]", addr)
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleList(w http.ResponseWriter, _ *http.Request) {
	servers := s.lifecycle.List()
	list := ServerList{Servers: make([]ServerDoc, 0, len(servers))}
	for _, server := range servers {
		list.Servers = append(list.Servers, FromModel(server))
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req ServerEnvelope
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body: "+err.Error())
		return
	}
	if req.Server == nil {
		writeError(w, http.StatusBadRequest, "request body must contain a server")
		return
	}
	spec, err := req.Server.CreateSpec()
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	server, err := s.lifecycle.Provision(spec)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	switch server.State {
	case model.StateBuilding:
		w.Header().Set("Location", BasePath+"/"+server.Id)
		writeJSON(w, http.StatusAccepted, ServerEnvelope{Server: ptr(FromModel(server))})
	case model.StateRunning:
		writeJSON(w, http.StatusCreated, ServerEnvelope{Server: ptr(FromModel(server))})
	default:
		s.log.Errorf("provisioned server in unexpected state: %v", server)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathId(w, r)
	if !ok {
		return
	}
	server, err := s.lifecycle.Get(id)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ServerEnvelope{Server: ptr(FromModel(server))})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathId(w, r)
	if !ok {
		return
	}
	if err := s.lifecycle.Decommission(id); err != nil {
		s.writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// pathId rejects identifiers that could never have been generated.
func pathId(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.PathValue("id")
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, http.StatusBadRequest, "invalid server identifier: "+id)
		return "", false
	}
	return id, true
}

func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case model.IsBadRequest(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case model.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		s.log.WithError(err).Error("request failed")
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorDoc{Error: message})
}

func ptr[T any](v T) *T {
	return &v
}
