package domain

import "errors"

// Domain errors.
var (
	// ErrInvalidInput is returned when a required request field is missing or malformed.
	ErrInvalidInput = errors.New("invalid input")

	// ErrLookupFailed is returned when the extractor or remote API cannot resolve a URL.
	ErrLookupFailed = errors.New("media lookup failed")

	// ErrExecutionFailed is returned when the extractor fails during a download.
	ErrExecutionFailed = errors.New("extraction failed")

	// ErrArtifactMissing is returned when the extractor reported success but left no output file.
	ErrArtifactMissing = errors.New("output artifact missing")

	// ErrTimeout is joined with lookup or execution failures caused by a deadline.
	ErrTimeout = errors.New("extraction timed out")

	// ErrRateLimited is returned when a caller exceeds the request budget.
	ErrRateLimited = errors.New("rate limited")

	// ErrInvalidAPIKey is returned when the API key is invalid.
	ErrInvalidAPIKey = errors.New("invalid API key")
)

// RequestError wraps an error with the operation and source URL that produced it.
type RequestError struct {
	Op  string
	URL string
	Err error
}

func (e *RequestError) Error() string {
	if e.URL != "" {
		return e.Op + " [" + e.URL + "]: " + e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// NewRequestError creates a new RequestError.
func NewRequestError(op, url string, err error) *RequestError {
	return &RequestError{
		Op:  op,
		URL: url,
		Err: err,
	}
}

// MissingField returns an ErrInvalidInput naming the absent field.
func MissingField(name string) error {
	return &FieldError{Field: name, Reason: "is required"}
}

// FieldError describes a client input problem with a single field.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return e.Field + " " + e.Reason
}

// Is reports FieldError as an ErrInvalidInput.
func (e *FieldError) Is(target error) bool {
	return target == ErrInvalidInput
}
