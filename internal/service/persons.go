package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/library-keeper/internal/errs"
	"github.com/and161185/library-keeper/internal/model"
)

// RegisterPerson creates a member or staff record. Only the hashed secret is stored.
func (s *LibraryServiceImpl) RegisterPerson(ctx context.Context, in NewPerson) (*model.Person, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	switch {
	case name == "" || email == "" || in.Secret == "":
		return nil, invalid("name, email and secret are required")
	case in.Age < 0:
		return nil, invalid("negative age")
	case in.Role != model.RoleMember && in.Role != model.RoleStaff:
		return nil, invalid("unknown role %d", in.Role)
	case in.Role == model.RoleStaff && (strings.TrimSpace(in.EmployeeID) == "" || strings.TrimSpace(in.Shift) == ""):
		return nil, invalid("staff requires employee id and shift")
	}

	hash, err := s.hasher.Hash(in.Secret)
	if err != nil {
		return nil, fmt.Errorf("hash secret: %w", err)
	}
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.persons.GetByEmail(ctx, email); err == nil {
		return nil, errs.ErrDuplicateEmail
	} else if !errors.Is(err, errs.ErrNotFound) {
		return nil, err
	}

	now := s.now()
	p := &model.Person{
		ID:         id,
		Name:       name,
		Email:      email,
		Age:        in.Age,
		SecretHash: hash,
		Role:       in.Role,
		JoinedAt:   now,
	}
	if in.Role == model.RoleStaff {
		p.Staff = &model.StaffDetails{
			EmployeeID: strings.TrimSpace(in.EmployeeID),
			Shift:      strings.TrimSpace(in.Shift),
			Active:     true,
		}
	} else {
		p.Member = &model.MemberDetails{ExpiresAt: now.Add(s.term)}
	}
	if err := s.persons.Create(ctx, p); err != nil {
		return nil, err
	}

	s.metrics.PersonRegistered(p.Role.String())
	s.log.Info("person registered",
		zap.String("person_id", p.ID.String()),
		zap.String("role", p.Role.String()),
	)
	return p.Clone(), nil
}

// Authenticate looks the person up by email and verifies the secret against that person only.
func (s *LibraryServiceImpl) Authenticate(ctx context.Context, email, secret string) (*model.Person, error) {
	s.mu.Lock()
	p, err := s.persons.GetByEmail(ctx, email)
	s.mu.Unlock()

	if err != nil {
		// unknown emails cost one verification too
		s.hasher.Verify(secret, s.decoyHash())
		return nil, errs.ErrUnauthorized
	}
	if !s.hasher.Verify(secret, p.SecretHash) {
		return nil, errs.ErrUnauthorized
	}
	return p, nil
}

func (s *LibraryServiceImpl) decoyHash() []byte {
	s.decoyOnce.Do(func() {
		h, err := s.hasher.Hash("decoy")
		if err != nil {
			s.log.Warn("decoy hash", zap.Error(err))
			return
		}
		s.decoy = h
	})
	return s.decoy
}

// DeregisterPerson removes the person immediately. Loans referencing it are kept as history.
func (s *LibraryServiceImpl) DeregisterPerson(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.persons.Delete(ctx, id); err != nil {
		return fmt.Errorf("person %s: %w", id, err)
	}
	s.log.Info("person deregistered", zap.String("person_id", id.String()))
	return nil
}

// RenewSubscription adds one subscription term to the member's current expiry.
func (s *LibraryServiceImpl) RenewSubscription(ctx context.Context, id uuid.UUID) (*model.Person, error) {
	return s.extendMember(ctx, id, func(t time.Time) time.Time { return t.Add(s.term) })
}

// ExtendSubscription adds days to the member's current expiry.
func (s *LibraryServiceImpl) ExtendSubscription(ctx context.Context, id uuid.UUID, days int) (*model.Person, error) {
	if err := checkDays(days); err != nil {
		return nil, err
	}
	return s.extendMember(ctx, id, func(t time.Time) time.Time { return t.AddDate(0, 0, days) })
}

func (s *LibraryServiceImpl) extendMember(ctx context.Context, id uuid.UUID, extend func(time.Time) time.Time) (*model.Person, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.persons.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("person %s: %w", id, err)
	}
	if p.Role != model.RoleMember || p.Member == nil {
		return nil, fmt.Errorf("person %s is not a member: %w", id, errs.ErrNotFound)
	}
	p.Member.ExpiresAt = extend(p.Member.ExpiresAt)
	if err := s.persons.Update(ctx, p); err != nil {
		return nil, err
	}
	s.log.Info("subscription extended",
		zap.String("person_id", id.String()),
		zap.Time("expires_at", p.Member.ExpiresAt),
	)
	return p, nil
}

// GetPerson loads a person by id.
func (s *LibraryServiceImpl) GetPerson(ctx context.Context, id uuid.UUID) (*model.Person, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persons.GetByID(ctx, id)
}

// GetPersonByEmail loads a person by email.
func (s *LibraryServiceImpl) GetPersonByEmail(ctx context.Context, email string) (*model.Person, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persons.GetByEmail(ctx, email)
}

// ListPersons returns persons in registration order.
func (s *LibraryServiceImpl) ListPersons(ctx context.Context) ([]*model.Person, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persons.List(ctx)
}
