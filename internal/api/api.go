package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/zako-ac/issuetracker/internal/admin"
	"github.com/zako-ac/issuetracker/internal/models"
	"github.com/zako-ac/issuetracker/internal/store"
)

// UserHeader carries the chat identity of the caller on admin-only routes.
const UserHeader = "X-User-ID"

// RequestIDHeader is echoed on every response.
const RequestIDHeader = "X-Request-ID"

// Server provides the REST API handlers the chat bot calls.
type Server struct {
	store  store.Store
	admins *admin.Checker
	log    *slog.Logger
}

// NewServer creates a new API server. A nil logger falls back to slog.Default().
func NewServer(s store.Store, admins *admin.Checker, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		store:  s,
		admins: admins,
		log:    logger,
	}
}

// Router returns an http.Handler for the API routes.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/issues", s.listIssues)
	mux.HandleFunc("POST /api/v1/issues", s.createIssue)
	mux.HandleFunc("GET /api/v1/issues/count", s.countIssues)
	mux.HandleFunc("GET /api/v1/issues/{id}", s.getIssue)
	mux.HandleFunc("PUT /api/v1/issues/{id}/status", s.updateIssueStatus)

	mux.HandleFunc("GET /api/v1/admins/{id}", s.checkAdmin)

	mux.HandleFunc("GET /api/v1/tags", s.listTags)
	mux.HandleFunc("GET /api/v1/statuses", s.listStatuses)

	return s.requestLogger(mux)
}

// statusRecorder captures the response code for the access log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(RequestIDHeader)
		if reqID == "" {
			reqID = ulid.Make().String()
		}
		w.Header().Set(RequestIDHeader, reqID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		s.log.Info("request",
			"request_id", reqID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// internalError logs the persistence failure and hides it from the client.
func (s *Server) internalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	s.log.Error(op+" failed", "error", err, "request_id", w.Header().Get(RequestIDHeader), "path", r.URL.Path)
	writeError(w, http.StatusInternalServerError, op+" failed")
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// --- Issues ---

type listIssuesResponse struct {
	Issues map[int64]*models.Issue `json:"issues"`
}

func (s *Server) listIssues(w http.ResponseWriter, r *http.Request) {
	var tag models.IssueTag
	if raw := r.URL.Query().Get("tag"); raw != "" {
		t, ok := models.ParseIssueTag(raw)
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown tag: "+raw)
			return
		}
		tag = t
	}

	issues, err := s.store.ListIssues(r.Context(), tag)
	if err != nil {
		s.internalError(w, r, "list issues", err)
		return
	}
	writeJSON(w, http.StatusOK, listIssuesResponse{Issues: issues})
}

type createIssueRequest struct {
	Name      string `json:"name"`
	Detail    string `json:"detail"`
	Tag       string `json:"tag"`
	DiscordID string `json:"discord_id"`
}

func (s *Server) createIssue(w http.ResponseWriter, r *http.Request) {
	var req createIssueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	issue := &models.Issue{
		Name:      req.Name,
		Detail:    req.Detail,
		DiscordID: req.DiscordID,
	}
	if req.Tag != "" {
		tag, ok := models.ParseIssueTag(req.Tag)
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown tag: "+req.Tag)
			return
		}
		issue.Tag = tag
	}

	ok, err := s.store.CreateIssue(r.Context(), issue)
	if err != nil {
		s.internalError(w, r, "create issue", err)
		return
	}
	if !ok {
		writeError(w, http.StatusBadRequest, "name, detail and tag are required")
		return
	}
	writeJSON(w, http.StatusCreated, issue)
}

func (s *Server) getIssue(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid issue id")
		return
	}

	issue, err := s.store.GetIssue(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		s.internalError(w, r, "get issue", err)
		return
	}
	writeJSON(w, http.StatusOK, issue)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) updateIssueStatus(w http.ResponseWriter, r *http.Request) {
	if !s.admins.IsAdmin(r.Header.Get(UserHeader)) {
		writeError(w, http.StatusForbidden, "admin privileges required")
		return
	}

	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid issue id")
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	status, _ := models.ParseIssueStatus(req.Status)

	ok, err := s.store.UpdateIssueStatus(r.Context(), id, status)
	if err != nil {
		s.internalError(w, r, "update issue status", err)
		return
	}
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown or missing status: "+req.Status)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "status": status})
}

func (s *Server) countIssues(w http.ResponseWriter, r *http.Request) {
	n, err := s.store.CountIssues(r.Context())
	if err != nil {
		s.internalError(w, r, "count issues", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": n})
}

// --- Admins ---

func (s *Server) checkAdmin(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "admin": s.admins.IsAdmin(id)})
}

// --- Enumerations ---

func (s *Server) listTags(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.AllIssueTags())
}

func (s *Server) listStatuses(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.AllIssueStatuses())
}
