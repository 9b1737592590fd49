package console

import (
	"errors"
	"io"

	"github.com/and161185/library-keeper/internal/errs"
)

// Outcome classes reported in command logs.
const (
	OutcomeOK              = "ok"
	OutcomeInvalid         = "invalid"
	OutcomeNotFound        = "not_found"
	OutcomeConflict        = "conflict"
	OutcomeUnauthenticated = "unauthenticated"
	OutcomeForbidden       = "forbidden"
	OutcomeRateLimited     = "rate_limited"
	OutcomeInternal        = "internal"
)

var errUnknownCommand = errors.New("unknown command")

// Outcome classifies err for logging.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, errs.ErrRateLimited):
		return OutcomeRateLimited
	case errors.Is(err, errs.ErrUnauthorized):
		return OutcomeUnauthenticated
	case errors.Is(err, errs.ErrForbidden):
		return OutcomeForbidden
	case errors.Is(err, errs.ErrNotFound):
		return OutcomeNotFound
	case errors.Is(err, errs.ErrDuplicateEmail), errors.Is(err, errs.ErrAlreadyReturned):
		return OutcomeConflict
	case errors.Is(err, errs.ErrValidation),
		errors.Is(err, errs.ErrNoValidItems),
		errors.Is(err, errs.ErrAgeRestricted),
		errors.Is(err, errs.ErrExpiredSubscription),
		errors.Is(err, errUnknownCommand),
		errors.Is(err, io.ErrUnexpectedEOF):
		return OutcomeInvalid
	default:
		return OutcomeInternal
	}
}

// Message translates err into the text shown to the user.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, errs.ErrRateLimited):
		return "too many failed attempts, try again later"
	case errors.Is(err, errLoginRequired):
		return "please log in first"
	case errors.Is(err, errs.ErrUnauthorized):
		return "wrong email or secret"
	case errors.Is(err, errStaffOnly):
		return "this command is for staff only"
	case errors.Is(err, errs.ErrExpiredSubscription):
		return "subscription expired, ask the desk to renew it"
	case errors.Is(err, errs.ErrDuplicateEmail):
		return "that email is already registered"
	case errors.Is(err, errs.ErrAlreadyReturned):
		return "the loan was already returned"
	case errors.Is(err, errUnknownCommand):
		return err.Error() + ", type 'help'"
	case errors.Is(err, io.ErrUnexpectedEOF):
		return "input ended"
	case Outcome(err) == OutcomeInternal:
		return errInternal.Error()
	default:
		return err.Error()
	}
}
