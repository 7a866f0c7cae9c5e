package repository

import (
	"context"
	"time"

	"papertrail_cli/internal/models"
)

// Sources resolves human-readable system and group names to IDs.
// A name that matches nothing returns ok=false and a nil error.
type Sources interface {
	FindSystemID(ctx context.Context, name string) (id int64, ok bool, err error)
	FindGroupID(ctx context.Context, name string) (id int64, ok bool, err error)
}

// Events executes exactly one bounded search per call. Errors are not retried.
type Events interface {
	Search(ctx context.Context, req SearchRequest) (models.Page, error)
}

// Connection is the full remote capability used by the CLI.
type Connection interface {
	Sources
	Events
}

// SearchRequest describes one page request.
type SearchRequest struct {
	Query    string
	SystemID int64     // 0 means all systems
	GroupID  int64     // 0 means all groups
	MinTime  time.Time // zero means no lower bound
	MaxTime  time.Time // zero means no upper bound
	Cursor   models.Cursor
}

type Repository struct {
	Sources Sources
	Events  Events
}

func NewRepository(conn Connection) *Repository {
	return &Repository{
		Sources: conn,
		Events:  conn,
	}
}
