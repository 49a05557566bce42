package registry

import "errors"

var (
	ErrEmptyName           = errors.New("show name is empty")
	ErrDuplicateShow       = errors.New("this show is already in your list")
	ErrShowNotFound        = errors.New("show not found")
	ErrInvalidBlockingMode = errors.New("blocking mode must be \"warning\" or \"redirect\"")
	ErrInvalidSensitivity  = errors.New("sensitivity must be 1, 2 or 3")
	ErrInvalidImport       = errors.New("invalid settings file")
)
