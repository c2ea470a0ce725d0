package utils

import "errors"

var (
	// ErrConfigIncomplete: a required table path is blank. Reported before any
	// scan starts; never wrapped around an IO failure.
	ErrConfigIncomplete = errors.New("configuration incomplete")

	// ErrTableNotFound: the configured legacy table file does not exist.
	ErrTableNotFound = errors.New("legacy table not found")

	ErrRunNotFound = errors.New("run not found")
)
