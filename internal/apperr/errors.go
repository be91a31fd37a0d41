// Package apperr defines the error taxonomy shared by all storage backends
// and the components built on top of them. Callers branch with errors.Is.
package apperr

import "errors"

var (
	// ErrNotFound means the identified file or folder does not exist.
	ErrNotFound = errors.New("not found")

	// ErrIO covers local disk and network transport failures.
	ErrIO = errors.New("i/o error")

	// ErrAuth means the credential attached to a request was missing,
	// expired, or rejected.
	ErrAuth = errors.New("authentication failed")

	// ErrCapability means the active backend does not support the
	// requested operation. The wrapping message is user-facing.
	ErrCapability = errors.New("operation not supported")

	// ErrCancelled means the user dismissed a dialog, or a result was
	// discarded because it was superseded. Never reported to the user.
	ErrCancelled = errors.New("cancelled")
)
