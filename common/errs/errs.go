package errs

// ErrorKind identifies a kind of internal error.
// fully support for errors.Is and errors.As.
type ErrorKind string

const (
	// NotFound is returned when a requested item is not found.
	NotFound = ErrorKind("Not Found")

	// InvalidArgument is returned when an input value is malformed or out of range.
	InvalidArgument = ErrorKind("Invalid Argument")

	// Unsupported is returned when a requested feature or value is not supported.
	Unsupported = ErrorKind("Unsupported")

	// Conflict is returned when a write would violate a uniqueness constraint.
	Conflict = ErrorKind("Conflict")

	InternalError      = ErrorKind("Internal Error")
	SomethingWentWrong = ErrorKind("Something Went Wrong")
	Timeout            = ErrorKind("Timeout")
	Closed             = ErrorKind("Closed")
)

// Error satisfies the error interface and prints human-readable errors.
func (e ErrorKind) Error() string {
	return string(e)
}
