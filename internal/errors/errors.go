package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// This package defines the error taxonomy shared by the widget pipeline and the
// HTTP surface. Callers use errors.Is/errors.As against these values; the API
// layer maps them to HTTP status codes.

var (
	// ErrConfiguration means a required identifier or credential is missing.
	ErrConfiguration = errors.New("configuration error")

	// ErrValidation means caller-supplied input is malformed.
	ErrValidation = errors.New("validation failed")

	// ErrTransport means the network or the stream itself failed.
	ErrTransport = errors.New("transport error")

	// ErrUpstream means the conversational backend answered with a failure status.
	ErrUpstream = errors.New("upstream error")

	// ErrStorage means the persistent store could not be read or written.
	ErrStorage = errors.New("storage error")

	// ErrQuotaExceeded means a persistent write was refused for lack of space.
	ErrQuotaExceeded = fmt.Errorf("%w: quota exceeded", ErrStorage)

	// ErrLimitReached means the session is at its conversation ceiling.
	ErrLimitReached = errors.New("conversation limit reached")

	// ErrNotFound signifies that a requested resource could not be located.
	ErrNotFound = errors.New("resource not found")

	// ErrUnauthorized means the upstream rejected the credential.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrStreamInProgress means the instance already has a stream running.
	ErrStreamInProgress = errors.New("a response is already streaming")

	// ErrUpload means an attachment could not be uploaded before sending.
	ErrUpload = errors.New("file upload failed")

	// ErrInternal is a generic error used to avoid leaking implementation details.
	ErrInternal = errors.New("internal server error")
)

// UpstreamError carries the HTTP-like status returned by the upstream API.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("upstream returned status %d", e.Status)
	}
	return fmt.Sprintf("upstream returned status %d: %s", e.Status, e.Message)
}

// Is lets 401/404 responses match ErrUnauthorized/ErrNotFound as well as ErrUpstream.
func (e *UpstreamError) Is(target error) bool {
	switch target {
	case ErrUpstream:
		return true
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}

// StatusOf extracts the upstream status from err, or 0 if err carries none.
func StatusOf(err error) int {
	var upErr *UpstreamError
	if errors.As(err, &upErr) {
		return upErr.Status
	}
	return 0
}

// LimitError is returned when a session cannot hold another conversation.
type LimitError struct {
	SessionID string
	Max       int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("session %s already holds %d conversations", e.SessionID, e.Max)
}

func (e *LimitError) Unwrap() error {
	return ErrLimitReached
}
