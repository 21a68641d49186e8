// Package apperr defines the error taxonomy shared across the pipeline (spec §7).
//
// Errors are classified by Kind, not by Go type name, so callers can branch
// on behavior (retry vs. terminal vs. record-and-continue) without string
// matching. Recoverable kinds are captured into stage/batch result records
// and never propagate out of the orchestrator; only InvalidAuth and
// ValidationError are terminal, the latter only at startup.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for propagation-policy purposes.
type Kind int

const (
	// KindUnknown is the zero value; treated as a transient FetchError by callers.
	KindUnknown Kind = iota
	// KindInvalidAuth is terminal: surface immediately, never retry.
	KindInvalidAuth
	// KindRateLimit is transient: back off and retry within budget.
	KindRateLimit
	// KindFetchError is a transient transport/remote failure, retried then recorded.
	KindFetchError
	// KindDataNotFound means a requested id is unknown upstream; treated as a null product.
	KindDataNotFound
	// KindTransformError marks a malformed field in a single row; the row is skipped.
	KindTransformError
	// KindStoreError is a transactional failure; the batch rolls back and is recorded failed.
	KindStoreError
	// KindValidationError is terminal at startup only (e.g. scoring config invariant violated).
	KindValidationError
	// KindTimeBudgetExceeded marks a stage soft-timeout; the stage finalizes as failed.
	KindTimeBudgetExceeded
)

func (k Kind) String() string {
	switch k {
	case KindInvalidAuth:
		return "invalid_auth"
	case KindRateLimit:
		return "rate_limit"
	case KindFetchError:
		return "fetch_error"
	case KindDataNotFound:
		return "data_not_found"
	case KindTransformError:
		return "transform_error"
	case KindStoreError:
		return "store_error"
	case KindValidationError:
		return "validation_error"
	case KindTimeBudgetExceeded:
		return "time_budget_exceeded"
	default:
		return "unknown"
	}
}

// Error is a classified, wrapped error.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds a classified error.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap classifies an existing error under kind.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Is reports whether err (or anything it wraps) carries kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf extracts the Kind of err, or KindUnknown if err isn't an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Terminal reports whether err should abort the process rather than be
// recorded and the cycle continued (spec §7 propagation policy).
func Terminal(err error) bool {
	k := KindOf(err)
	return k == KindInvalidAuth || k == KindValidationError
}
