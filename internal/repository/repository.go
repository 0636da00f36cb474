// Package repository defines the storage capability the production service depends on. Each
// backing technology lives in its own sub-package and satisfies Repository.
package repository

import (
	"context"
	"errors"

	"github.com/mamadbah2/prodtracker/internal/domain/models"
)

// ErrNotFound is returned when an entry or summary does not exist.
var ErrNotFound = errors.New("record not found")

// Repository persists entries and the append-only summary history.
type Repository interface {
	// CreateEntry stores a new entry and assigns its ID.
	CreateEntry(ctx context.Context, entry *models.Entry) error
	GetEntry(ctx context.Context, id int64) (*models.Entry, error)
	// UpdateEntry replaces the stored entry with the same ID.
	UpdateEntry(ctx context.Context, entry *models.Entry) error
	DeleteEntry(ctx context.Context, id int64) error
	ListEntries(ctx context.Context) ([]models.Entry, error)

	// AppendSummary stores a new summary and assigns its ID.
	AppendSummary(ctx context.Context, summary *models.Summary) error
	// LatestSummary returns the most recently calculated summary or ErrNotFound.
	LatestSummary(ctx context.Context) (*models.Summary, error)

	Close(ctx context.Context) error
}
