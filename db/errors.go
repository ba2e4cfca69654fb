package db

import "errors"

// ErrNotFound is returned when a requested entry does not exist
var ErrNotFound = errors.New("entry not found")

// ErrConflict is returned when a write collides with an existing entry
var ErrConflict = errors.New("entry conflict")
