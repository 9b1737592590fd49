package memory

import (
	"context"
	"strings"

	"github.com/and161185/library-keeper/internal/errs"
	"github.com/and161185/library-keeper/internal/model"
	"github.com/gofrs/uuid/v5"
)

// PersonRepo implements PersonRepository in memory.
type PersonRepo struct{ db *DB }

// NewPersonRepo constructs a person repository.
func NewPersonRepo(db *DB) *PersonRepo { return &PersonRepo{db: db} }

func emailKey(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

// Create inserts a new person and claims its email.
func (r *PersonRepo) Create(_ context.Context, p *model.Person) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	key := emailKey(p.Email)
	if _, taken := r.db.emails[key]; taken {
		return errs.ErrDuplicateEmail
	}
	if !r.db.persons.insert(p.ID, p.Clone()) {
		return errDuplicateID
	}
	r.db.emails[key] = p.ID
	return nil
}

// GetByID loads a person by ID.
func (r *PersonRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Person, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	p, ok := r.db.persons.get(id)
	if !ok {
		return nil, errs.ErrNotFound
	}
	return p.Clone(), nil
}

// GetByEmail loads a person by email.
func (r *PersonRepo) GetByEmail(_ context.Context, email string) (*model.Person, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	id, ok := r.db.emails[emailKey(email)]
	if !ok {
		return nil, errs.ErrNotFound
	}
	p, ok := r.db.persons.get(id)
	if !ok {
		return nil, errs.ErrNotFound
	}
	return p.Clone(), nil
}

// Update replaces a stored person. The email is immutable.
func (r *PersonRepo) Update(_ context.Context, p *model.Person) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	cur, ok := r.db.persons.get(p.ID)
	if !ok {
		return errs.ErrNotFound
	}
	if emailKey(cur.Email) != emailKey(p.Email) {
		return errs.ErrValidation
	}
	r.db.persons.replace(p.ID, p.Clone())
	return nil
}

// Delete removes a person and releases its email.
func (r *PersonRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	p, ok := r.db.persons.get(id)
	if !ok {
		return errs.ErrNotFound
	}
	r.db.persons.remove(id)
	delete(r.db.emails, emailKey(p.Email))
	return nil
}

// List returns all persons in registration order.
func (r *PersonRepo) List(_ context.Context) ([]*model.Person, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]*model.Person, 0, len(r.db.persons.order))
	r.db.persons.each(func(p *model.Person) { out = append(out, p.Clone()) })
	return out, nil
}
