package services

import "errors"

var (
	// ErrUnauthenticated is returned when an operation needs a signed-in user.
	ErrUnauthenticated = errors.New("sign in required")
	// ErrNotAuthorized is returned when the ownership guard denies a mutation.
	ErrNotAuthorized = errors.New("not authorized")

	ErrPostNotFound    = errors.New("post not found")
	ErrCommentNotFound = errors.New("comment not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrSubjectNotFound = errors.New("vote subject not found")

	// ErrConcurrencyConflict is returned when a first vote collides with a
	// concurrent one twice in a row.
	ErrConcurrencyConflict = errors.New("concurrent vote conflict")

	ErrInvalidCredentials = errors.New("invalid email or password")
)
