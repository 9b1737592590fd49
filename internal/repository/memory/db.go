// Package memory contains process-lifetime implementations of repository interfaces.
package memory

import (
	"fmt"
	"slices"
	"sync"

	"github.com/and161185/library-keeper/internal/errs"
	"github.com/and161185/library-keeper/internal/model"
	"github.com/gofrs/uuid/v5"
)

var errDuplicateID = fmt.Errorf("%w: duplicate id", errs.ErrValidation)

// collection keeps values by id and remembers insertion order.
type collection[T any] struct {
	order []uuid.UUID
	byID  map[uuid.UUID]T
}

func newCollection[T any]() collection[T] {
	return collection[T]{byID: map[uuid.UUID]T{}}
}

func (c *collection[T]) insert(id uuid.UUID, v T) bool {
	if _, ok := c.byID[id]; ok {
		return false
	}
	c.byID[id] = v
	c.order = append(c.order, id)
	return true
}

func (c *collection[T]) get(id uuid.UUID) (T, bool) {
	v, ok := c.byID[id]
	return v, ok
}

func (c *collection[T]) replace(id uuid.UUID, v T) bool {
	if _, ok := c.byID[id]; !ok {
		return false
	}
	c.byID[id] = v
	return true
}

func (c *collection[T]) remove(id uuid.UUID) bool {
	if _, ok := c.byID[id]; !ok {
		return false
	}
	delete(c.byID, id)
	if i := slices.Index(c.order, id); i >= 0 {
		c.order = slices.Delete(c.order, i, i+1)
	}
	return true
}

func (c *collection[T]) each(fn func(T)) {
	for _, id := range c.order {
		fn(c.byID[id])
	}
}

// DB owns the three collections. Values are cloned on the way in and out.
type DB struct {
	mu      sync.RWMutex
	persons collection[*model.Person]
	emails  map[string]uuid.UUID
	items   collection[*model.Item]
	loans   collection[*model.Loan]
}

// New creates empty collections.
func New() *DB {
	return &DB{
		persons: newCollection[*model.Person](),
		emails:  map[string]uuid.UUID{},
		items:   newCollection[*model.Item](),
		loans:   newCollection[*model.Loan](),
	}
}
