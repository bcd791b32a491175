package storage

import "errors"

// Common storage errors
var (
	// ErrUserNotFound indicates that user was not found in storage
	ErrUserNotFound = errors.New("user not found")

	// ErrUserAlreadyExists indicates that user with this email or username already exists
	ErrUserAlreadyExists = errors.New("user already exists")

	// ErrPostNotFound indicates that post was not found
	ErrPostNotFound = errors.New("post not found")

	// ErrCommentNotFound indicates that comment was not found
	ErrCommentNotFound = errors.New("comment not found")
)
