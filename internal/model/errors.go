package model

import "errors"

var (
	ErrInvalidStatus     = errors.New("invalid status")
	ErrInvalidCategory   = errors.New("invalid category")
	ErrInvalidIdentifier = errors.New("identifier must be 12 digits")
)
