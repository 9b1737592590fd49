package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/library-keeper/internal/errs"
	"github.com/and161185/library-keeper/internal/model"
)

// AddItem validates the item and inserts it, unless an entry with the same
// (title, author, kind) exists; then the new stock is added to it and merged is true.
func (s *LibraryServiceImpl) AddItem(ctx context.Context, it model.Item) (*model.Item, bool, error) {
	if err := it.Validate(); err != nil {
		return nil, false, invalid("%v", err)
	}
	it.Title = strings.TrimSpace(it.Title)
	it.Author = strings.TrimSpace(it.Author)

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.items.List(ctx)
	if err != nil {
		return nil, false, err
	}
	for _, cur := range all {
		if !cur.SameTitle(&it) {
			continue
		}
		cur.Stock += it.Stock
		if err := s.items.Update(ctx, cur); err != nil {
			return nil, false, err
		}
		s.log.Info("item stock merged",
			zap.String("item_id", cur.ID.String()),
			zap.Int("added", it.Stock),
			zap.Int("stock", cur.Stock),
		)
		return cur, true, nil
	}

	if it.ID == uuid.Nil {
		if it.ID, err = uuid.NewV4(); err != nil {
			return nil, false, err
		}
	}
	if err := s.items.Create(ctx, &it); err != nil {
		return nil, false, err
	}
	s.log.Info("item added",
		zap.String("item_id", it.ID.String()),
		zap.String("kind", it.Kind.String()),
		zap.Int("stock", it.Stock),
	)
	return it.Clone(), false, nil
}

// RemoveItem deletes an item. Loans keep their lines; returning them skips the missing item.
func (s *LibraryServiceImpl) RemoveItem(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.items.Delete(ctx, id); err != nil {
		return fmt.Errorf("item %s: %w", id, err)
	}
	s.log.Info("item removed", zap.String("item_id", id.String()))
	return nil
}

// AdjustStock applies delta; a removal larger than the stock fails and leaves it unchanged.
func (s *LibraryServiceImpl) AdjustStock(ctx context.Context, id uuid.UUID, delta int) (*model.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, err := s.items.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("item %s: %w", id, err)
	}
	if delta < 0 && -delta > it.Stock {
		return nil, fmt.Errorf("item %s has %d, cannot remove %d: %w", id, it.Stock, -delta, errs.ErrInsufficientStock)
	}
	it.Stock += delta
	if err := s.items.Update(ctx, it); err != nil {
		return nil, err
	}
	s.metrics.StockAdjusted(delta)
	s.log.Info("stock adjusted",
		zap.String("item_id", id.String()),
		zap.Int("delta", delta),
		zap.Int("stock", it.Stock),
	)
	return it, nil
}

// FindItem loads an item by id.
func (s *LibraryServiceImpl) FindItem(ctx context.Context, id uuid.UUID) (*model.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items.GetByID(ctx, id)
}

// FindByTitle returns items whose title contains substr, ignoring case, in insertion order.
func (s *LibraryServiceImpl) FindByTitle(ctx context.Context, substr string) ([]*model.Item, error) {
	s.mu.Lock()
	all, err := s.items.List(ctx)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(substr)
	var out []*model.Item
	for _, it := range all {
		if strings.Contains(strings.ToLower(it.Title), needle) {
			out = append(out, it)
		}
	}
	return out, nil
}

// ListItems returns books, then videos, audio and ebooks; insertion order within a kind.
func (s *LibraryServiceImpl) ListItems(ctx context.Context) ([]*model.Item, error) {
	s.mu.Lock()
	all, err := s.items.List(ctx)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	out := make([]*model.Item, 0, len(all))
	for _, k := range model.Kinds {
		for _, it := range all {
			if it.Kind == k {
				out = append(out, it)
			}
		}
	}
	return out, nil
}
