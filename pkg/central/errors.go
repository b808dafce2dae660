package central

import (
	"errors"
	"fmt"
)

var (
	// ErrRemoteUnavailable matches every failure to obtain a usable answer
	// from the central server: transport errors, timeouts, non-2xx statuses
	// and undecodable bodies.
	ErrRemoteUnavailable = errors.New("central server unavailable")

	// ErrNotConfigured is returned when an operation needs the central
	// server but no URL was configured.
	ErrNotConfigured = errors.New("central server URL is not configured")
)

// RemoteError describes a failed central server request.
type RemoteError struct {
	// Op is the client operation ("file-share-paths", "create-proxied-path", ...)
	Op string

	// URL is the request URL
	URL string

	// StatusCode is the HTTP status, or 0 if no response was received
	StatusCode int

	// Err is the underlying transport or decode error, or the response body
	// excerpt for non-2xx replies
	Err error
}

func (e *RemoteError) Error() string {
	msg := fmt.Sprintf("central %s %s", e.Op, e.URL)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": status %d", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// Is makes every RemoteError match ErrRemoteUnavailable.
func (e *RemoteError) Is(target error) bool {
	return target == ErrRemoteUnavailable
}
