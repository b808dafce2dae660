package filestore

import (
	"errors"
	"io/fs"
)

// ErrorCode represents the category of a filestore error.
//
// Codes are the contract between the filestore and whatever transport sits in
// front of it: an HTTP layer maps ErrNotFound to 404, ErrEscape to 403 and so
// on. The filestore itself never retries or recovers from any of them.
type ErrorCode int

const (
	// ErrEscape indicates the requested path resolves outside the root.
	// Always fatal to the single call; callers should log it as a security event.
	ErrEscape ErrorCode = iota + 1

	// ErrNotFound indicates the target (or rename source) does not exist
	ErrNotFound

	// ErrAlreadyExists indicates a create target is already occupied
	ErrAlreadyExists

	// ErrPermissionDenied indicates the platform refused the operation for
	// the current process identity
	ErrPermissionDenied

	// ErrNotEmpty indicates removal of a directory that still has entries
	ErrNotEmpty

	// ErrNotDirectory indicates a listing was requested on a non-directory
	ErrNotDirectory

	// ErrInvalidArgument indicates malformed input: bad permission string,
	// NUL bytes in a path, a mutation aimed at the root itself
	ErrInvalidArgument

	// ErrIO covers every other platform failure
	ErrIO
)

func (c ErrorCode) String() string {
	switch c {
	case ErrEscape:
		return "escape"
	case ErrNotFound:
		return "not found"
	case ErrAlreadyExists:
		return "already exists"
	case ErrPermissionDenied:
		return "permission denied"
	case ErrNotEmpty:
		return "directory not empty"
	case ErrNotDirectory:
		return "not a directory"
	case ErrInvalidArgument:
		return "invalid argument"
	case ErrIO:
		return "i/o error"
	default:
		return "unknown"
	}
}

// StoreError is the error type returned by every Filestore operation.
type StoreError struct {
	// Code is the error category
	Code ErrorCode

	// Op is the filestore operation that failed (e.g. "describe", "rename")
	Op string

	// Path is the caller-supplied relative path
	Path string

	// Err is the underlying platform error, if any
	Err error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	msg := e.Op + " " + e.Path + ": " + e.Code.String()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes the platform error so errors.Is(err, fs.ErrNotExist) works.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is matches another *StoreError carrying the same code, so sentinel-style
// comparisons like errors.Is(err, &StoreError{Code: ErrNotFound}) work.
func (e *StoreError) Is(target error) bool {
	t, ok := target.(*StoreError)
	if !ok {
		return false
	}
	return t.Code == e.Code && (t.Op == "" || t.Op == e.Op)
}

// IsCode reports whether err is (or wraps) a *StoreError with the given code.
func IsCode(err error, code ErrorCode) bool {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}

// CodeOf returns the code of the first *StoreError in err's chain, or 0.
func CodeOf(err error) ErrorCode {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}

func newError(code ErrorCode, op, path string, err error) *StoreError {
	return &StoreError{Code: code, Op: op, Path: path, Err: err}
}

// mapOSError classifies a platform error. Errors are surfaced verbatim inside
// the StoreError, only the category is added.
func mapOSError(op, path string, err error) error {
	if err == nil {
		return nil
	}

	var se *StoreError
	if errors.As(err, &se) {
		return err
	}

	switch {
	case errors.Is(err, fs.ErrNotExist), isNotDir(err):
		return newError(ErrNotFound, op, path, err)
	case isNotEmpty(err):
		return newError(ErrNotEmpty, op, path, err)
	case errors.Is(err, fs.ErrExist):
		return newError(ErrAlreadyExists, op, path, err)
	case errors.Is(err, fs.ErrPermission):
		return newError(ErrPermissionDenied, op, path, err)
	default:
		return newError(ErrIO, op, path, err)
	}
}
