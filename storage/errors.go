package storage

import "errors"

var (
	ErrNotFound = errors.New("storage: not found")
	ErrClosed   = errors.New("storage: store closed")
)

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
