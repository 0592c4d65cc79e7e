package errs

import (
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/errors/withstack"
)

// PublicError carries a message that is safe to return to API callers. The wrapped error
// keeps the full detail, and its kind (NotFound, Conflict) decides the response status.
type PublicError struct {
	err     error
	message string
}

func (p PublicError) Error() string { return p.err.Error() }

func (p PublicError) Message() string { return p.message }

func (p PublicError) Unwrap() error { return p.err }

func newPublic(err error, message string) error {
	return withstack.WithStackDepth(&PublicError{err: err, message: message}, 2)
}

// NewPublicError creates an error whose whole text is public.
func NewPublicError(message string) error {
	return newPublic(errors.New(message), message)
}

// NewPublicErrorFrom exposes only message while keeping err as the cause.
func NewPublicErrorFrom(err error, message string) error {
	if err == nil {
		return nil
	}
	return newPublic(err, message)
}

// WithPublicMessage exposes "prefix: err". Use it only when err's text is meant for callers,
// such as validation failures.
func WithPublicMessage(err error, prefix string) error {
	if err == nil {
		return nil
	}
	message := err.Error()
	if prefix != "" {
		message = prefix + ": " + message
	}
	return newPublic(err, message)
}
