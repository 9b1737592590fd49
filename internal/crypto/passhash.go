// Package crypto implements one-way hashing and verification of person credentials.
package crypto

import (
	"crypto/rand"
	"crypto/subtle"

	"golang.org/x/crypto/argon2"
)

// Params are the Argon2id cost parameters.
type Params struct {
	Time    uint32 // iterations
	Memory  uint32 // KiB
	Threads uint8
	KeyLen  uint32
}

// DefaultParams are tuned for server-side hashing.
var DefaultParams = Params{
	Time:    3,
	Memory:  64 * 1024, // 64 MB
	Threads: 1,
	KeyLen:  32,
}

const saltLen = 16

// RandBytes returns n cryptographically secure random bytes.
func RandBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	return b, err
}

// HashPassword returns Argon2id hash of password using the provided salt.
func HashPassword(password, salt []byte, p Params) []byte {
	return argon2.IDKey(password, salt, p.Time, p.Memory, p.Threads, p.KeyLen)
}

// VerifyPassword verifies password against expected Argon2id hash and salt.
func VerifyPassword(password, salt, expected []byte, p Params) bool {
	got := HashPassword(password, salt, p)
	return subtle.ConstantTimeCompare(got, expected) == 1
}

// Argon2id hashes secrets into an opaque salt||key value.
type Argon2id struct {
	p Params
}

// NewArgon2id constructs a hasher; zero fields fall back to DefaultParams.
func NewArgon2id(p Params) *Argon2id {
	if p.Time == 0 {
		p.Time = DefaultParams.Time
	}
	if p.Memory == 0 {
		p.Memory = DefaultParams.Memory
	}
	if p.Threads == 0 {
		p.Threads = DefaultParams.Threads
	}
	if p.KeyLen == 0 {
		p.KeyLen = DefaultParams.KeyLen
	}
	return &Argon2id{p: p}
}

// Hash returns a freshly salted opaque hash of secret.
func (a *Argon2id) Hash(secret string) ([]byte, error) {
	salt, err := RandBytes(saltLen)
	if err != nil {
		return nil, err
	}
	key := HashPassword([]byte(secret), salt, a.p)
	return append(salt, key...), nil
}

// Verify reports whether secret matches an opaque value produced by Hash.
func (a *Argon2id) Verify(secret string, opaque []byte) bool {
	if len(opaque) <= saltLen {
		return false
	}
	return VerifyPassword([]byte(secret), opaque[:saltLen], opaque[saltLen:], a.p)
}
