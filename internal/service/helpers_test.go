package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/and161185/library-keeper/internal/model"
	"github.com/and161185/library-keeper/internal/repository/memory"
)

type fakeHasher struct{}

var _ Hasher = fakeHasher{}

func (fakeHasher) Hash(secret string) ([]byte, error)       { return []byte("h$" + secret), nil }
func (fakeHasher) Verify(secret string, opaque []byte) bool { return string(opaque) == "h$"+secret }

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestService(t *testing.T, opts ...Option) (*LibraryServiceImpl, *testClock) {
	t.Helper()
	clk := &testClock{t: time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)}
	db := memory.New()
	opts = append([]Option{WithLogger(zaptest.NewLogger(t)), WithClock(clk.now)}, opts...)
	s := NewLibraryService(memory.NewPersonRepo(db), memory.NewItemRepo(db), memory.NewLoanRepo(db), fakeHasher{}, opts...)
	return s, clk
}

func mustMember(t *testing.T, s *LibraryServiceImpl, email string, age int) *model.Person {
	t.Helper()
	p, err := s.RegisterPerson(context.Background(), NewPerson{
		Role: model.RoleMember, Name: "Member " + email, Email: email, Age: age, Secret: "pw-" + email,
	})
	if err != nil {
		t.Fatalf("register member %s: %v", email, err)
	}
	return p
}

func mustStaff(t *testing.T, s *LibraryServiceImpl, email string) *model.Person {
	t.Helper()
	p, err := s.RegisterPerson(context.Background(), NewPerson{
		Role: model.RoleStaff, Name: "Staff " + email, Email: email, Age: 40, Secret: "pw-" + email,
		EmployeeID: "E-1", Shift: "morning",
	})
	if err != nil {
		t.Fatalf("register staff %s: %v", email, err)
	}
	return p
}

func mustBook(t *testing.T, s *LibraryServiceImpl, title string, stock int) *model.Item {
	t.Helper()
	it, _, err := s.AddItem(context.Background(), model.Item{
		Title: title, Author: "Author of " + title, Stock: stock,
		Kind: model.KindBook, Book: &model.BookDetails{Pages: 100, Genre: "novel", ISBN: "978"},
	})
	if err != nil {
		t.Fatalf("add book %s: %v", title, err)
	}
	return it
}

func mustVideo(t *testing.T, s *LibraryServiceImpl, title, rating string, stock int) *model.Item {
	t.Helper()
	it, _, err := s.AddItem(context.Background(), model.Item{
		Title: title, Author: "Studio", Stock: stock,
		Kind: model.KindVideo, Video: &model.VideoDetails{RuntimeMinutes: 120, Rating: rating},
	})
	if err != nil {
		t.Fatalf("add video %s: %v", title, err)
	}
	return it
}

func stockOf(t *testing.T, s *LibraryServiceImpl, it *model.Item) int {
	t.Helper()
	got, err := s.FindItem(context.Background(), it.ID)
	if err != nil {
		t.Fatalf("find item: %v", err)
	}
	return got.Stock
}
