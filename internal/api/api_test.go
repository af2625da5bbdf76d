package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zako-ac/issuetracker/internal/admin"
	"github.com/zako-ac/issuetracker/internal/models"
	"github.com/zako-ac/issuetracker/internal/store"
)

func setupTestServer(t *testing.T) (*Server, store.Store) {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")

	s, err := store.NewSQLiteStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.EnsureSchema(context.Background()))
	t.Cleanup(func() { s.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := NewServer(s, admin.New([]string{"admin-1"}), logger)

	return srv, s
}

func do(t *testing.T, h http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, r)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestListIssues_Empty(t *testing.T) {
	srv, _ := setupTestServer(t)
	router := srv.Router()

	w := do(t, router, "GET", "/api/v1/issues", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	var resp listIssuesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Issues)
}

func TestRequestIDIsEchoed(t *testing.T) {
	srv, _ := setupTestServer(t)
	w := do(t, srv.Router(), "GET", "/api/v1/tags", "", map[string]string{RequestIDHeader: "req-123"})
	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))
}

func TestIssueLifecycle_API(t *testing.T) {
	srv, _ := setupTestServer(t)
	router := srv.Router()

	// Create
	w := do(t, router, "POST", "/api/v1/issues",
		`{"name":"Bug A","detail":"desc","tag":"bug","discord_id":"u1"}`, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created models.Issue
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Positive(t, created.ID)
	assert.Equal(t, models.IssueTagBug, created.Tag)
	assert.Equal(t, models.IssueStatusProposed, created.Status)

	w = do(t, router, "POST", "/api/v1/issues",
		`{"name":"Feat B","detail":"desc","tag":"Feature","discord_id":"u2"}`, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	// List by tag
	w = do(t, router, "GET", "/api/v1/issues?tag=Bug", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp listIssuesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Issues, 1)
	assert.Equal(t, "Bug A", resp.Issues[created.ID].Name)

	// List all
	w = do(t, router, "GET", "/api/v1/issues", "", nil)
	resp = listIssuesResponse{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Issues, 2)

	// Get
	w = do(t, router, "GET", "/api/v1/issues/"+itoa(created.ID), "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// Update status as admin
	w = do(t, router, "PUT", "/api/v1/issues/"+itoa(created.ID)+"/status",
		`{"status":"in_progress"}`, map[string]string{UserHeader: "admin-1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, router, "GET", "/api/v1/issues/"+itoa(created.ID), "", nil)
	var got models.Issue
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, models.IssueStatusInProgress, got.Status)

	// Count
	w = do(t, router, "GET", "/api/v1/issues/count", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"count":2}`, w.Body.String())
}

func TestCreateIssue_Validation(t *testing.T) {
	srv, s := setupTestServer(t)
	router := srv.Router()

	w := do(t, router, "POST", "/api/v1/issues", `{"name":"n","detail":"","tag":"Bug"}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, router, "POST", "/api/v1/issues", `{"name":"n","detail":"d"}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, router, "POST", "/api/v1/issues", `{"name":"n","detail":"d","tag":"nope"}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unknown tag")

	w = do(t, router, "POST", "/api/v1/issues", `not json`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	n, err := s.CountIssues(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestUpdateStatus_RequiresAdmin(t *testing.T) {
	srv, s := setupTestServer(t)
	router := srv.Router()

	issue := &models.Issue{Name: "n", Detail: "d", Tag: models.IssueTagBug, DiscordID: "u1"}
	ok, err := s.CreateIssue(context.Background(), issue)
	require.NoError(t, err)
	require.True(t, ok)

	w := do(t, router, "PUT", "/api/v1/issues/"+itoa(issue.ID)+"/status", `{"status":"Approved"}`, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, router, "PUT", "/api/v1/issues/"+itoa(issue.ID)+"/status", `{"status":"Approved"}`,
		map[string]string{UserHeader: "u1"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	got, err := s.GetIssue(context.Background(), issue.ID)
	require.NoError(t, err)
	assert.Equal(t, models.IssueStatusProposed, got.Status)
}

func TestUpdateStatus_BadInput(t *testing.T) {
	srv, _ := setupTestServer(t)
	router := srv.Router()
	hdr := map[string]string{UserHeader: "admin-1"}

	w := do(t, router, "PUT", "/api/v1/issues/abc/status", `{"status":"Approved"}`, hdr)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, router, "PUT", "/api/v1/issues/1/status", `{"status":""}`, hdr)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, router, "PUT", "/api/v1/issues/1/status", `{"status":"Shipped"}`, hdr)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateStatus_NonexistentIssueSucceeds(t *testing.T) {
	srv, _ := setupTestServer(t)
	w := do(t, srv.Router(), "PUT", "/api/v1/issues/999/status", `{"status":"Approved"}`,
		map[string]string{UserHeader: "admin-1"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetIssue_NotFound(t *testing.T) {
	srv, _ := setupTestServer(t)
	w := do(t, srv.Router(), "GET", "/api/v1/issues/42", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListIssues_UnknownTag(t *testing.T) {
	srv, _ := setupTestServer(t)
	w := do(t, srv.Router(), "GET", "/api/v1/issues?tag=*", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCheckAdmin(t *testing.T) {
	srv, _ := setupTestServer(t)
	router := srv.Router()

	w := do(t, router, "GET", "/api/v1/admins/admin-1", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"admin-1","admin":true}`, w.Body.String())

	w = do(t, router, "GET", "/api/v1/admins/someone", "", nil)
	assert.JSONEq(t, `{"id":"someone","admin":false}`, w.Body.String())
}

func TestEnumerations(t *testing.T) {
	srv, _ := setupTestServer(t)
	router := srv.Router()

	w := do(t, router, "GET", "/api/v1/tags", "", nil)
	var tags []models.IssueTag
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tags))
	assert.Equal(t, models.AllIssueTags(), tags)

	w = do(t, router, "GET", "/api/v1/statuses", "", nil)
	var statuses []models.IssueStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &statuses))
	assert.Equal(t, models.AllIssueStatuses(), statuses)
}

// failingStore returns an error from every persistence call.
type failingStore struct{ store.Store }

var errBoom = errors.New("disk on fire")

func (failingStore) ListIssues(context.Context, models.IssueTag) (map[int64]*models.Issue, error) {
	return nil, errBoom
}
func (failingStore) CountIssues(context.Context) (int, error) { return 0, errBoom }

func TestPersistenceFailure_Returns500WithoutLeaking(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := NewServer(failingStore{}, admin.New(nil), logger)
	router := srv.Router()

	w := do(t, router, "GET", "/api/v1/issues", "", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "disk on fire")

	w = do(t, router, "GET", "/api/v1/issues/count", "", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }
