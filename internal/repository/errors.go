package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a conditional update matched no rows
	// because another writer got there first
	ErrConflict = errors.New("conflict: entity was modified by another client")
)
