package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"path"
	"strings"
	"time"

	"prompter/internal/api"
	"prompter/internal/config"
	"prompter/internal/logging"
	"prompter/internal/services"
)

// uploadSlack covers multipart framing overhead on top of the configured
// payload ceiling. The manager enforces the real limit on the file bytes.
const uploadSlack = 1 << 20

type apiServer struct {
	bind   string
	cfg    *config.Config
	logger *slog.Logger
	daemon *Daemon

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, nil
	}

	srv := &apiServer{
		bind:   bind,
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "api-server"),
		daemon: d,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", srv.handleStatus)
	mux.HandleFunc("/api/jobs", srv.handleJobs)
	mux.HandleFunc("/api/jobs/", srv.handleJob)

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       120 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	status := s.daemon.Status(r.Context())
	deps := make([]api.DependencyStatus, len(status.Dependencies))
	for i, dep := range status.Dependencies {
		deps[i] = api.DependencyStatus{
			Name:        dep.Name,
			Command:     dep.Command,
			Description: dep.Description,
			Optional:    dep.Optional,
			Available:   dep.Available,
			Detail:      dep.Detail,
		}
	}
	s.writeJSON(w, http.StatusOK, api.DaemonStatus{
		Running:      status.Running,
		PID:          status.PID,
		JobDBPath:    status.JobDBPath,
		LockFilePath: status.LockFilePath,
		Dependencies: deps,
	})
}

func (s *apiServer) handleJobs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleList(w, r)
	case http.MethodPost:
		s.handleSubmit(w, r)
	default:
		s.writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := s.daemon.Manager().List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	jobsOut := make([]api.JobPayload, 0, len(list))
	for _, job := range list {
		jobsOut = append(jobsOut, api.FromJob(job))
	}
	s.writeJSON(w, http.StatusOK, api.JobListResponse{Jobs: jobsOut})
}

func (s *apiServer) handleSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes()+uploadSlack)

	name, payload, err := s.uploadFromRequest(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	job, err := s.daemon.Manager().Submit(r.Context(), name, payload)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, api.JobResponse{Job: api.FromJob(job)})
}

// uploadFromRequest accepts either a multipart form with a "file" field or a
// raw body with a "filename" query parameter.
func (s *apiServer) uploadFromRequest(r *http.Request) (string, io.Reader, error) {
	contentType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if strings.HasPrefix(contentType, "multipart/") {
		file, header, err := r.FormFile("file")
		if err != nil {
			return "", nil, services.Wrap(services.ErrInvalidInput, "api", "submit", "missing multipart field \"file\"", err)
		}
		return header.Filename, file, nil
	}

	name := strings.TrimSpace(r.URL.Query().Get("filename"))
	if name == "" {
		return "", nil, services.Wrap(services.ErrInvalidInput, "api", "submit", "filename query parameter is required for raw uploads", nil)
	}
	return name, r.Body, nil
}

func (s *apiServer) handleJob(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
	id, action, _ := strings.Cut(rest, "/")
	if id == "" {
		s.writeMessage(w, http.StatusNotFound, "job not found")
		return
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		s.handleDescribe(w, r, id)
	case action == "" && r.Method == http.MethodDelete:
		s.handleRemove(w, r, id)
	case action == "download" && r.Method == http.MethodGet:
		s.handleDownload(w, r, id)
	default:
		s.writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) handleDescribe(w http.ResponseWriter, r *http.Request, id string) {
	job, err := s.daemon.Manager().Status(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.JobResponse{Job: api.FromJob(job)})
}

func (s *apiServer) handleDownload(w http.ResponseWriter, r *http.Request, id string) {
	job, err := s.daemon.Manager().Download(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	name := path.Base(job.OutputPath)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.presentationml.presentation")
	http.ServeFile(w, r, job.OutputPath)
}

func (s *apiServer) handleRemove(w http.ResponseWriter, r *http.Request, id string) {
	if err := s.daemon.Manager().Cleanup(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrNotReady):
		return http.StatusConflict
	case errors.Is(err, services.ErrResourceLimit):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, services.ErrRendererUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, services.ErrTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, err error) {
	s.writeJSON(w, statusForError(err), api.ErrorResponse{
		Error: err.Error(),
		Kind:  services.Kind(err),
	})
}

func (s *apiServer) writeMessage(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, api.ErrorResponse{Error: message})
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}
