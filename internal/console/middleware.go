package console

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"go.uber.org/zap"

	"github.com/and161185/library-keeper/internal/errs"
)

// Request is one parsed console line.
type Request struct {
	Command string
	Args    []string
}

// Handler executes a console command.
type Handler func(ctx context.Context, req Request) error

// Middleware wraps a Handler.
type Middleware func(Handler) Handler

var (
	errLoginRequired = fmt.Errorf("%w: please log in first", errs.ErrUnauthorized)
	errStaffOnly     = fmt.Errorf("%w: staff only", errs.ErrForbidden)
	errInternal      = errors.New("internal error")
)

// Chain wraps h so that mw[0] is the outermost middleware.
func Chain(h Handler, mw ...Middleware) Handler {
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	return h
}

// Logging logs every command with its outcome and duration.
func Logging(log *zap.Logger) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, req Request) error {
			start := time.Now()
			err := next(ctx, req)
			outcome := Outcome(err)

			var who string
			if p, ok := PersonFromCtx(ctx); ok {
				who = p.ID.String()
			}

			// metadata only, arguments may carry other persons' emails
			fields := []zap.Field{
				zap.String("command", req.Command),
				zap.Int("args", len(req.Args)),
				zap.String("outcome", outcome),
				zap.Duration("dur", time.Since(start)),
				zap.String("person_id", who),
			}
			if outcome == OutcomeInternal {
				log.Error("command", append(fields, zap.Error(err))...)
			} else {
				log.Info("command", fields...)
			}
			return err
		}
	}
}

// Recover turns a panicking command into errInternal.
func Recover(log *zap.Logger) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, req Request) (err error) {
			defer func() {
				if r := recover(); r != nil {
					log.Error("panic",
						zap.Any("reason", r),
						zap.ByteString("stack", debug.Stack()),
						zap.String("command", req.Command),
					)
					err = errInternal
				}
			}()
			return next(ctx, req)
		}
	}
}

// RequireLogin rejects requests without a session.
func RequireLogin() Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, req Request) error {
			if _, ok := PersonFromCtx(ctx); !ok {
				return errLoginRequired
			}
			return next(ctx, req)
		}
	}
}

// RequireStaff rejects requests unless the session belongs to staff.
func RequireStaff() Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, req Request) error {
			p, ok := PersonFromCtx(ctx)
			if !ok {
				return errLoginRequired
			}
			if !p.IsStaff() {
				return errStaffOnly
			}
			return next(ctx, req)
		}
	}
}
