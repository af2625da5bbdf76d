package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zako-ac/issuetracker/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")

	s, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)

	err = s.EnsureSchema(context.Background())
	require.NoError(t, err)

	t.Cleanup(func() { s.Close() })
	return s
}

func mustCreate(t *testing.T, s *SQLiteStore, name string, tag models.IssueTag, user string) *models.Issue {
	t.Helper()
	issue := &models.Issue{Name: name, Detail: "desc", Tag: tag, DiscordID: user}
	ok, err := s.CreateIssue(context.Background(), issue)
	require.NoError(t, err)
	require.True(t, ok)
	return issue
}

func TestNewSQLiteStore_CreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "subdir", "test.db")

	s, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(filepath.Join(dir, "subdir"))
	assert.NoError(t, err, "should create parent directory")
}

func TestEnsureSchema_Idempotent(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.EnsureSchema(context.Background()))
}

func TestCreateIssue_MissingFields(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	cases := map[string]*models.Issue{
		"nil issue":      nil,
		"missing name":   {Detail: "d", Tag: models.IssueTagBug, DiscordID: "u"},
		"missing detail": {Name: "n", Tag: models.IssueTagBug, DiscordID: "u"},
		"missing tag":    {Name: "n", Detail: "d", DiscordID: "u"},
		"unknown tag":    {Name: "n", Detail: "d", Tag: models.IssueTag("bogus"), DiscordID: "u"},
		"lowercase tag":  {Name: "n", Detail: "d", Tag: models.IssueTag("bug"), DiscordID: "u"},
		"all missing":    {},
	}
	for name, issue := range cases {
		t.Run(name, func(t *testing.T) {
			ok, err := s.CreateIssue(ctx, issue)
			require.NoError(t, err)
			assert.False(t, ok)
			if issue != nil {
				assert.Zero(t, issue.ID)
			}

			n, err := s.CountIssues(ctx)
			require.NoError(t, err)
			assert.Equal(t, 0, n, "no row should be added")
		})
	}
}

func TestCreateIssue_AssignsIDAndProposedStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	issue := &models.Issue{
		Name:      "Crash on start",
		Detail:    "bot exits immediately",
		Tag:       models.IssueTagBug,
		Status:    models.IssueStatusCompleted, // ignored on create
		DiscordID: "u1",
	}
	ok, err := s.CreateIssue(ctx, issue)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Positive(t, issue.ID)
	assert.Equal(t, models.IssueStatusProposed, issue.Status)

	issues, err := s.ListIssues(ctx, models.IssueTagBug)
	require.NoError(t, err)
	require.Contains(t, issues, issue.ID)

	got := issues[issue.ID]
	assert.Equal(t, "Crash on start", got.Name)
	assert.Equal(t, "bot exits immediately", got.Detail)
	assert.Equal(t, models.IssueTagBug, got.Tag)
	assert.Equal(t, models.IssueStatusProposed, got.Status)
	assert.Equal(t, "u1", got.DiscordID)
}

func TestCreateIssue_EmptySubmitterAllowed(t *testing.T) {
	s := newTestStore(t)
	issue := mustCreate(t, s, "anon", models.IssueTagQuestion, "")

	got, err := s.GetIssue(context.Background(), issue.ID)
	require.NoError(t, err)
	assert.Empty(t, got.DiscordID)
}

func TestListIssues_FiltersByTag(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := mustCreate(t, s, "Bug A", models.IssueTagBug, "u1")
	mustCreate(t, s, "Bug B", models.IssueTagFeature, "u2")

	issues, err := s.ListIssues(ctx, models.IssueTagBug)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "Bug A", issues[a.ID].Name)

	issues, err = s.ListIssues(ctx, models.IssueTagDocumentation)
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestListIssues_NoTagReturnsAll(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustCreate(t, s, "one", models.IssueTagBug, "u1")
	mustCreate(t, s, "two", models.IssueTagFeature, "u2")
	mustCreate(t, s, "three", models.IssueTagEnhancement, "u3")

	issues, err := s.ListIssues(ctx, "")
	require.NoError(t, err)
	assert.Len(t, issues, 3)
}

func TestListIssues_FreshMapPerCall(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustCreate(t, s, "Bug A", models.IssueTagBug, "u1")
	mustCreate(t, s, "Feat B", models.IssueTagFeature, "u2")

	bugs, err := s.ListIssues(ctx, models.IssueTagBug)
	require.NoError(t, err)
	feats, err := s.ListIssues(ctx, models.IssueTagFeature)
	require.NoError(t, err)

	assert.Len(t, bugs, 1, "earlier result must not accumulate later rows")
	assert.Len(t, feats, 1, "later result must not include earlier rows")

	for id := range bugs {
		delete(bugs, id)
	}
	again, err := s.ListIssues(ctx, models.IssueTagBug)
	require.NoError(t, err)
	assert.Len(t, again, 1)
}

func TestListIssues_EmptyStoreReturnsEmptyMap(t *testing.T) {
	s := newTestStore(t)
	issues, err := s.ListIssues(context.Background(), "")
	require.NoError(t, err)
	assert.NotNil(t, issues)
	assert.Empty(t, issues)
}

func TestUpdateIssueStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	issue := mustCreate(t, s, "Add dark mode", models.IssueTagFeature, "u1")

	ok, err := s.UpdateIssueStatus(ctx, issue.ID, models.IssueStatusApproved)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := s.GetIssue(ctx, issue.ID)
	require.NoError(t, err)
	assert.Equal(t, models.IssueStatusApproved, got.Status)
	assert.Equal(t, models.IssueTagFeature, got.Tag, "tag is untouched")
}

func TestUpdateIssueStatus_NonexistentSucceedsWithoutChanges(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	issue := mustCreate(t, s, "Bug A", models.IssueTagBug, "u1")
	before, err := s.ListIssues(ctx, "")
	require.NoError(t, err)
	countBefore, err := s.CountIssues(ctx)
	require.NoError(t, err)

	ok, err := s.UpdateIssueStatus(ctx, issue.ID+1000, models.IssueStatusRejected)
	require.NoError(t, err)
	assert.True(t, ok)

	after, err := s.ListIssues(ctx, "")
	require.NoError(t, err)
	countAfter, err := s.CountIssues(ctx)
	require.NoError(t, err)

	assert.Equal(t, countBefore, countAfter)
	assert.Equal(t, before, after)
}

func TestUpdateIssueStatus_MissingArguments(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	issue := mustCreate(t, s, "Bug A", models.IssueTagBug, "u1")

	ok, err := s.UpdateIssueStatus(ctx, 0, models.IssueStatusApproved)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.UpdateIssueStatus(ctx, issue.ID, "")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.UpdateIssueStatus(ctx, issue.ID, "Shipped")
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := s.GetIssue(ctx, issue.ID)
	require.NoError(t, err)
	assert.Equal(t, models.IssueStatusProposed, got.Status)
}

func TestGetIssue_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetIssue(context.Background(), 42)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCountIssues(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	n, err := s.CountIssues(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	mustCreate(t, s, "one", models.IssueTagBug, "u1")
	mustCreate(t, s, "two", models.IssueTagBug, "u1")

	n, err = s.CountIssues(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestPersistenceErrorPropagates(t *testing.T) {
	dir := t.TempDir()
	s, err := NewSQLiteStore(filepath.Join(dir, "noschema.db"))
	require.NoError(t, err)
	defer s.Close()

	// Without the table every statement fails at the driver.
	_, err = s.CreateIssue(context.Background(), &models.Issue{Name: "n", Detail: "d", Tag: models.IssueTagBug})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create issue")

	_, err = s.ListIssues(context.Background(), "")
	assert.Error(t, err)

	_, err = s.UpdateIssueStatus(context.Background(), 1, models.IssueStatusApproved)
	assert.Error(t, err)
}

func TestClosedStoreReturnsError(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Close())

	_, err := s.CountIssues(context.Background())
	assert.Error(t, err)
}
