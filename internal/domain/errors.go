package domain

import "errors"

var (
	ErrInvalidID          = errors.New("invalid id")
	ErrInvalidTitle       = errors.New("invalid title")
	ErrInvalidPriority    = errors.New("invalid priority")
	ErrInvalidColumnID    = errors.New("invalid column id")
	ErrInvalidLimit       = errors.New("invalid task limit")
	ErrInvalidColumnCount = errors.New("invalid column count")
)
