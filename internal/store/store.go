package store

import (
	"context"
	"errors"

	"github.com/zako-ac/issuetracker/internal/models"
)

// ErrNotFound is returned when a lookup by row identifier matches nothing.
var ErrNotFound = errors.New("issue not found")

// Store defines the persistence interface for the issue tracker.
//
// Create and UpdateStatus report validation failures as (false, nil);
// a non-nil error always means the persistence layer failed.
type Store interface {
	CreateIssue(ctx context.Context, issue *models.Issue) (bool, error)
	UpdateIssueStatus(ctx context.Context, id int64, status models.IssueStatus) (bool, error)
	ListIssues(ctx context.Context, tag models.IssueTag) (map[int64]*models.Issue, error)
	GetIssue(ctx context.Context, id int64) (*models.Issue, error)
	CountIssues(ctx context.Context) (int, error)

	// Lifecycle
	EnsureSchema(ctx context.Context) error
	Close() error
}
