package interfaces

import "errors"

// ErrNotFound is returned by stores when the requested record does not exist.
var ErrNotFound = errors.New("not found")
