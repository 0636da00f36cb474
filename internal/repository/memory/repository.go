// Package memory keeps entries and summaries in process memory. It backs tests and single-node
// deployments that do not need durability.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/mamadbah2/prodtracker/internal/domain/models"
	"github.com/mamadbah2/prodtracker/internal/repository"
)

// Repository is a mutex guarded map store.
type Repository struct {
	mu        sync.RWMutex
	entries   map[int64]models.Entry
	summaries []models.Summary
	nextEntry int64
	nextSum   int64
}

// NewRepository returns an empty store.
func NewRepository() *Repository {
	return &Repository{
		entries:   make(map[int64]models.Entry),
		nextEntry: 1,
		nextSum:   1,
	}
}

var _ repository.Repository = (*Repository)(nil)

func (r *Repository) CreateEntry(_ context.Context, entry *models.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry.ID = r.nextEntry
	r.nextEntry++
	r.entries[entry.ID] = *entry
	return nil
}

func (r *Repository) GetEntry(_ context.Context, id int64) (*models.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[id]
	if !ok {
		return nil, fmt.Errorf("entry %d: %w", id, repository.ErrNotFound)
	}
	return &entry, nil
}

func (r *Repository) UpdateEntry(_ context.Context, entry *models.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[entry.ID]; !ok {
		return fmt.Errorf("entry %d: %w", entry.ID, repository.ErrNotFound)
	}
	r.entries[entry.ID] = *entry
	return nil
}

func (r *Repository) DeleteEntry(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[id]; !ok {
		return fmt.Errorf("entry %d: %w", id, repository.ErrNotFound)
	}
	delete(r.entries, id)
	return nil
}

// ListEntries returns a copy of every entry ordered by ID.
func (r *Repository) ListEntries(_ context.Context) ([]models.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *Repository) AppendSummary(_ context.Context, summary *models.Summary) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	summary.ID = r.nextSum
	r.nextSum++
	r.summaries = append(r.summaries, *summary)
	return nil
}

func (r *Repository) LatestSummary(_ context.Context) (*models.Summary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.summaries) == 0 {
		return nil, fmt.Errorf("summary: %w", repository.ErrNotFound)
	}
	latest := r.summaries[0]
	for _, s := range r.summaries[1:] {
		if !s.CalculatedAt.Before(latest.CalculatedAt) {
			latest = s
		}
	}
	return &latest, nil
}

// Summaries returns the full summary history in append order.
func (r *Repository) Summaries() []models.Summary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]models.Summary(nil), r.summaries...)
}

func (r *Repository) Close(context.Context) error {
	return nil
}
