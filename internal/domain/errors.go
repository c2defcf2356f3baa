package domain

import "errors"

// ErrNotFound is returned when the requested route does not exist.
// Handlers map this to HTTP 404; the remote client maps a 404 response to it.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned when a route payload fails business rule
// validation (blank name, too few points). It never involves network or storage.
// Handlers map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrUnavailable is returned by the remote route client for transport
// failures, non-2xx responses and malformed bodies. The reconciliation core
// treats it as the signal to take the local fallback branch.
var ErrUnavailable = errors.New("service unavailable")

// ErrStorage is returned when the persistent cache cannot be read or written.
// Callers treat it as an empty cache.
var ErrStorage = errors.New("storage error")

// ErrPermissionDenied is returned by device collaborators (GPS, photo library)
// when the user declines access.
var ErrPermissionDenied = errors.New("permission denied")
