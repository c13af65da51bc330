package model

import "errors"

var (
	// ErrNotFound marks an absent record. Callers treat it as an empty result.
	ErrNotFound = errors.New("task not found")
	// ErrNotSignedIn is returned before any store is touched when no identity is available.
	ErrNotSignedIn = errors.New("please sign in")
	// ErrNotCompleted is returned when deleting a task that is not completed.
	ErrNotCompleted = errors.New("only completed tasks can be deleted")
	ErrInvalidTask  = errors.New("invalid task")
)
