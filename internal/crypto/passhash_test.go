package crypto

import (
	"bytes"
	"testing"
)

// cheap parameters keep the suite fast; the algorithm is the same.
var testParams = Params{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32}

func TestRandBytes_LengthAndUniqueness(t *testing.T) {
	t.Parallel()

	const n = 64
	a, err := RandBytes(n)
	if err != nil {
		t.Fatalf("RandBytes: %v", err)
	}
	if len(a) != n {
		t.Fatalf("len=%d, want=%d", len(a), n)
	}
	b, err := RandBytes(n)
	if err != nil {
		t.Fatalf("RandBytes(2): %v", err)
	}
	if bytes.Equal(a, b) {
		t.Fatalf("two subsequent RandBytes(%d) are equal, looks non-random", n)
	}
}

func TestHashPassword_DeterministicOnSameInput(t *testing.T) {
	t.Parallel()

	pw := []byte("p@ssw0rd")
	salt := []byte("NaCl-16-bytes?")

	h1 := HashPassword(pw, salt, testParams)
	h2 := HashPassword(pw, salt, testParams)
	if len(h1) == 0 || !bytes.Equal(h1, h2) {
		t.Fatalf("hash not deterministic for same input")
	}
	if bytes.Equal(h1, HashPassword(pw, []byte("another-salt----"), testParams)) {
		t.Fatalf("hash should differ when salt differs")
	}
	if bytes.Equal(h1, HashPassword([]byte("p@ssw0rd!"), salt, testParams)) {
		t.Fatalf("hash should differ when password differs")
	}
}

func TestArgon2id_HashAndVerify(t *testing.T) {
	t.Parallel()

	h := NewArgon2id(testParams)
	opaque, err := h.Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if bytes.Contains(opaque, []byte("correct horse")) {
		t.Fatalf("opaque value leaks the plaintext")
	}
	if !h.Verify("correct horse battery staple", opaque) {
		t.Fatalf("Verify: expected true for correct secret")
	}
	if h.Verify("wrong", opaque) {
		t.Fatalf("Verify: expected false for wrong secret")
	}
	if h.Verify("", opaque) {
		t.Fatalf("Verify: expected false for empty secret")
	}
	if h.Verify("correct horse battery staple", opaque[:saltLen]) {
		t.Fatalf("Verify: expected false for truncated hash")
	}

	again, err := h.Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("Hash(2): %v", err)
	}
	if bytes.Equal(opaque, again) {
		t.Fatalf("each hash must use a fresh salt")
	}
}

func TestNewArgon2id_Defaults(t *testing.T) {
	t.Parallel()

	h := NewArgon2id(Params{Time: 1, Memory: 8 * 1024})
	if h.p.Threads != DefaultParams.Threads || h.p.KeyLen != DefaultParams.KeyLen {
		t.Fatalf("zero fields must fall back to defaults: %+v", h.p)
	}
}
