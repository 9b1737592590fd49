package model

import (
	"testing"
	"time"
)

func TestItem_Validate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		it   Item
		ok   bool
	}{
		{"book ok", Item{Title: "1984", Author: "Orwell", Stock: 1, Kind: KindBook, Book: &BookDetails{Pages: 328}}, true},
		{"empty title", Item{Author: "Orwell", Kind: KindBook, Book: &BookDetails{}}, false},
		{"blank author", Item{Title: "1984", Author: "  ", Kind: KindBook, Book: &BookDetails{}}, false},
		{"negative stock", Item{Title: "a", Author: "b", Stock: -1, Kind: KindEbook, Ebook: &EbookDetails{}}, false},
		{"kind mismatch", Item{Title: "a", Author: "b", Kind: KindVideo, Book: &BookDetails{}}, false},
		{"two payloads", Item{Title: "a", Author: "b", Kind: KindAudio, Audio: &AudioDetails{}, Ebook: &EbookDetails{}}, false},
		{"unknown kind", Item{Title: "a", Author: "b", Kind: Kind(42)}, false},
	}
	for _, tc := range cases {
		err := tc.it.Validate()
		if tc.ok && err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%s: want error", tc.name)
		}
	}
}

func TestItem_MinimumAge(t *testing.T) {
	t.Parallel()

	v := &Item{Kind: KindVideo, Video: &VideoDetails{Rating: "+16"}}
	if age, ok := v.MinimumAge(); !ok || age != 16 {
		t.Fatalf("got %d,%v want 16,true", age, ok)
	}
	v.Video.Rating = "12"
	if age, ok := v.MinimumAge(); !ok || age != 12 {
		t.Fatalf("got %d,%v want 12,true", age, ok)
	}
	v.Video.Rating = "+TP"
	if _, ok := v.MinimumAge(); ok {
		t.Fatalf("non-numeric rating must be unrestricted")
	}
	b := &Item{Kind: KindBook, Book: &BookDetails{}}
	if _, ok := b.MinimumAge(); ok {
		t.Fatalf("books are unrestricted")
	}
}

func TestItem_SameTitle(t *testing.T) {
	t.Parallel()

	a := &Item{Title: "1984", Author: "Orwell", Kind: KindBook}
	b := &Item{Title: "1984", Author: "orwell", Kind: KindBook}
	c := &Item{Title: "1984", Author: "Orwell", Kind: KindEbook}
	if !a.SameTitle(b) {
		t.Fatalf("case-different author must match")
	}
	if a.SameTitle(c) {
		t.Fatalf("different kind must not match")
	}
}

func TestPerson_SubscriptionExpired(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := &Person{Role: RoleMember, Member: &MemberDetails{ExpiresAt: now.Add(-time.Second)}}
	if !m.SubscriptionExpired(now) {
		t.Fatalf("want expired")
	}
	m.Member.ExpiresAt = now.Add(time.Hour)
	if m.SubscriptionExpired(now) {
		t.Fatalf("want valid")
	}
	s := &Person{Role: RoleStaff, Staff: &StaffDetails{EmployeeID: "E1", Shift: "morning"}}
	if s.SubscriptionExpired(now) {
		t.Fatalf("staff never expire")
	}
}

func TestPerson_CloneIsDeep(t *testing.T) {
	t.Parallel()

	p := &Person{Role: RoleMember, SecretHash: []byte{1}, Member: &MemberDetails{}}
	c := p.Clone()
	c.SecretHash[0] = 9
	c.Member.ExpiresAt = time.Now()
	if p.SecretHash[0] != 1 || !p.Member.ExpiresAt.IsZero() {
		t.Fatalf("clone shares state with original")
	}
}

func TestLoan_ActiveAndOverdue(t *testing.T) {
	t.Parallel()

	now := time.Now()
	l := &Loan{StartedAt: now, DueAt: now.Add(time.Hour)}
	if !l.IsActive(now) || l.Overdue(now) {
		t.Fatalf("fresh loan must be active")
	}
	late := now.Add(2 * time.Hour)
	if l.IsActive(late) || !l.Overdue(late) {
		t.Fatalf("past due loan must be overdue")
	}
	l.Returned = true
	if l.IsActive(now) || l.Overdue(late) {
		t.Fatalf("returned loan is neither active nor overdue")
	}
}

func TestParseKindAndRole(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]Kind{"book": KindBook, "DVD": KindVideo, "cd": KindAudio, " ebook ": KindEbook} {
		got, ok := ParseKind(in)
		if !ok || got != want {
			t.Fatalf("ParseKind(%q)=%v,%v", in, got, ok)
		}
	}
	if _, ok := ParseKind("vinyl"); ok {
		t.Fatalf("unknown kind accepted")
	}
	if r, ok := ParseRole("staff"); !ok || r != RoleStaff {
		t.Fatalf("ParseRole staff")
	}
	if _, ok := ParseRole("admin"); ok {
		t.Fatalf("unknown role accepted")
	}
}
