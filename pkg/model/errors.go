package model

import "errors"

var (
	ErrInvalidPattern      = errors.New("invalid section pattern")
	ErrDuplicateSection    = errors.New("duplicate section")
	ErrUnknownSection      = errors.New("unknown section")
	ErrUnknownCourse       = errors.New("unknown course")
	ErrConflictingSchedule = errors.New("conflicting schedule")
)
