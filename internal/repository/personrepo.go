// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/and161185/library-keeper/internal/model"
	"github.com/gofrs/uuid/v5"
)

// PersonRepository provides CRUD access for members and staff.
type PersonRepository interface {
	// Create inserts a new person; fails with errs.ErrDuplicateEmail on a taken email.
	Create(ctx context.Context, p *model.Person) error
	// GetByID loads a person by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Person, error)
	// GetByEmail loads a person by email (case-insensitive).
	GetByEmail(ctx context.Context, email string) (*model.Person, error)
	// Update replaces a stored person.
	Update(ctx context.Context, p *model.Person) error
	// Delete removes a person.
	Delete(ctx context.Context, id uuid.UUID) error
	// List returns all persons in registration order.
	List(ctx context.Context) ([]*model.Person, error)
}
