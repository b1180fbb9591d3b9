package repository

import "errors"

// ErrDuplicated is returned when an insert hits a unique constraint that the
// caller uses for de-duplication.
var ErrDuplicated = errors.New("duplicated record")
