package request

import "errors"

// ErrDuplicate is returned by Create when an active request with the same
// content id already exists. Callers fall back to the merge path.
var ErrDuplicate = errors.New("request already exists")

// ErrNotFound is returned when a request, user, or profile cannot be found.
var ErrNotFound = errors.New("not found")
