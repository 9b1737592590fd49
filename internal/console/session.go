package console

import (
	"context"

	"github.com/and161185/library-keeper/internal/model"
)

type ctxKey string

const personKey ctxKey = "library.person"

// WithPerson stores the logged-in person in context.
func WithPerson(ctx context.Context, p *model.Person) context.Context {
	return context.WithValue(ctx, personKey, p)
}

// PersonFromCtx fetches the logged-in person from context.
func PersonFromCtx(ctx context.Context) (*model.Person, bool) {
	p, ok := ctx.Value(personKey).(*model.Person)
	return p, ok && p != nil
}
