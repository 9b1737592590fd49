package memory

import (
	"context"

	"github.com/and161185/library-keeper/internal/errs"
	"github.com/and161185/library-keeper/internal/model"
	"github.com/gofrs/uuid/v5"
)

// ItemRepo implements ItemRepository in memory.
type ItemRepo struct{ db *DB }

// NewItemRepo constructs an item repository.
func NewItemRepo(db *DB) *ItemRepo { return &ItemRepo{db: db} }

// Create inserts a new item.
func (r *ItemRepo) Create(_ context.Context, it *model.Item) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if !r.db.items.insert(it.ID, it.Clone()) {
		return errDuplicateID
	}
	return nil
}

// GetByID returns a single item by ID.
func (r *ItemRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Item, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	it, ok := r.db.items.get(id)
	if !ok {
		return nil, errs.ErrNotFound
	}
	return it.Clone(), nil
}

// Update replaces a stored item.
func (r *ItemRepo) Update(_ context.Context, it *model.Item) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if !r.db.items.replace(it.ID, it.Clone()) {
		return errs.ErrNotFound
	}
	return nil
}

// Delete removes an item.
func (r *ItemRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if !r.db.items.remove(id) {
		return errs.ErrNotFound
	}
	return nil
}

// List returns all items in insertion order.
func (r *ItemRepo) List(_ context.Context) ([]*model.Item, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]*model.Item, 0, len(r.db.items.order))
	r.db.items.each(func(it *model.Item) { out = append(out, it.Clone()) })
	return out, nil
}
