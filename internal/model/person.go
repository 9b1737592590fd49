// Package model defines domain entities used by services and repositories.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// SubscriptionTerm is the validity period granted on registration and on each renewal.
const SubscriptionTerm = 2 * 365 * 24 * time.Hour

// MaxPeriodDays bounds any loan or subscription period given in days.
const MaxPeriodDays = 100 * 365

// Role distinguishes ordinary members from privileged staff.
type Role int

const (
	RoleMember Role = iota
	RoleStaff
)

func (r Role) String() string {
	switch r {
	case RoleMember:
		return "member"
	case RoleStaff:
		return "staff"
	default:
		return "unknown"
	}
}

// ParseRole maps a textual role onto Role.
func ParseRole(s string) (Role, bool) {
	switch s {
	case "member", "socio":
		return RoleMember, true
	case "staff", "bibliotecario":
		return RoleStaff, true
	default:
		return 0, false
	}
}

// StaffDetails is carried by privileged persons only.
type StaffDetails struct {
	EmployeeID string
	Shift      string
	Active     bool
}

// MemberDetails is carried by ordinary persons only.
type MemberDetails struct {
	ExpiresAt time.Time // subscription validity
}

// Person is a registered member or staff. Exactly one of Staff/Member is set, matching Role.
type Person struct {
	ID         uuid.UUID
	Name       string
	Email      string // unique, stored lower-cased
	Age        int
	SecretHash []byte // opaque credential hash, never the plaintext
	Role       Role
	Staff      *StaffDetails
	Member     *MemberDetails
	JoinedAt   time.Time
}

// IsStaff reports whether the person holds the privileged capability.
func (p *Person) IsStaff() bool { return p.Role == RoleStaff }

// SubscriptionExpired reports whether a member's subscription ended before now.
// Staff never expire.
func (p *Person) SubscriptionExpired(now time.Time) bool {
	if p.Role != RoleMember || p.Member == nil {
		return false
	}
	return p.Member.ExpiresAt.Before(now)
}

// Clone returns a deep copy so callers cannot mutate stored state.
func (p *Person) Clone() *Person {
	c := *p
	c.SecretHash = append([]byte(nil), p.SecretHash...)
	if p.Staff != nil {
		s := *p.Staff
		c.Staff = &s
	}
	if p.Member != nil {
		m := *p.Member
		c.Member = &m
	}
	return &c
}
