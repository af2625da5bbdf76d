package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zako-ac/issuetracker/internal/models"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

const issueColumns = `rowid, name, detail, tag, status, discord`

// SQLiteStore implements Store using modernc.org/sqlite (pure Go, no CGO).
// A single pooled handle is shared by every operation.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Ensure parent directory exists
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite only supports one concurrent writer. Limiting to a single connection
	// serializes all DB access through Go's connection pool, preventing
	// "database is locked" errors from concurrent HTTP requests.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	// Set busy timeout so concurrent writes wait instead of failing immediately
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// EnsureSchema creates the issue table if it does not exist yet.
func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateIssue inserts issue with status Proposed and records the assigned
// row identifier on it. Name and detail are required and tag must be a known
// tag.
func (s *SQLiteStore) CreateIssue(ctx context.Context, issue *models.Issue) (bool, error) {
	if issue == nil || issue.Name == "" || issue.Detail == "" || !issue.Tag.Valid() {
		return false, nil
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO zako (name, detail, tag, status, discord) VALUES (?, ?, ?, ?, ?)`,
		issue.Name, issue.Detail, string(issue.Tag), string(models.IssueStatusProposed), issue.DiscordID,
	)
	if err != nil {
		return false, fmt.Errorf("create issue: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return false, fmt.Errorf("create issue: read row id: %w", err)
	}
	issue.ID = id
	issue.Status = models.IssueStatusProposed
	return true, nil
}

// UpdateIssueStatus sets the status of the issue with the given id. A missing
// row is not an error: the statement simply affects nothing.
func (s *SQLiteStore) UpdateIssueStatus(ctx context.Context, id int64, status models.IssueStatus) (bool, error) {
	if id <= 0 || !status.Valid() {
		return false, nil
	}

	if _, err := s.db.ExecContext(ctx,
		`UPDATE zako SET status = ? WHERE rowid = ?`, string(status), id,
	); err != nil {
		return false, fmt.Errorf("update issue status: %w", err)
	}
	return true, nil
}

// ListIssues returns issues keyed by row identifier. An empty tag lists every
// issue. Each call builds a new map.
func (s *SQLiteStore) ListIssues(ctx context.Context, tag models.IssueTag) (map[int64]*models.Issue, error) {
	query := `SELECT ` + issueColumns + ` FROM zako`
	var args []any
	if tag != "" {
		query += ` WHERE tag = ?`
		args = append(args, string(tag))
	}
	query += ` ORDER BY rowid`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	defer func() { _ = rows.Close() }()

	issues := make(map[int64]*models.Issue)
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, err
		}
		issues[issue.ID] = issue
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	return issues, nil
}

func (s *SQLiteStore) GetIssue(ctx context.Context, id int64) (*models.Issue, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+issueColumns+` FROM zako WHERE rowid = ?`, id)
	issue, err := scanIssue(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return issue, nil
}

func (s *SQLiteStore) CountIssues(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM zako`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count issues: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanIssue(sc scanner) (*models.Issue, error) {
	issue := &models.Issue{}
	var tag, status string
	var discord sql.NullString

	if err := sc.Scan(&issue.ID, &issue.Name, &issue.Detail, &tag, &status, &discord); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan issue: %w", err)
	}

	issue.Tag = models.IssueTag(tag)
	issue.Status = models.IssueStatus(status)
	issue.DiscordID = discord.String
	return issue, nil
}
