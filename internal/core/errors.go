package core

import "errors"

// ErrNotFound is returned by Storage lookups for missing records.
var ErrNotFound = errors.New("not found")
