package repository

import (
	"context"

	"github.com/and161185/library-keeper/internal/model"
	"github.com/gofrs/uuid/v5"
)

// ItemRepository provides access to catalog items.
type ItemRepository interface {
	// Create inserts a new item.
	Create(ctx context.Context, it *model.Item) error
	// GetByID returns a single item by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Item, error)
	// Update replaces a stored item.
	Update(ctx context.Context, it *model.Item) error
	// Delete removes an item.
	Delete(ctx context.Context, id uuid.UUID) error
	// List returns all items in insertion order.
	List(ctx context.Context) ([]*model.Item, error)
}
