package history

import "errors"

// ErrNotFound is returned when a history entry is not found.
var ErrNotFound = errors.New("history entry not found")
