// Package services defines the business logic for users, posts, comments and
// votes. This file centralizes the service-level error values.
//
// Three category sentinels (ErrConflict, ErrNotFound, ErrForbidden) are wrapped
// by the specific errors below, so handlers can branch on either level with
// errors.Is and map them to HTTP status codes.
package services

import (
	"errors"
	"fmt"
)

// Categories.
var (
	// ErrConflict indicates a uniqueness violation the caller can correct.
	ErrConflict = errors.New("conflict")

	// ErrNotFound indicates that a referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden indicates that the acting identity may not perform the
	// operation on the entity.
	ErrForbidden = errors.New("forbidden")
)

// Specific errors.
var (
	// ErrUsernameTaken is returned by Register when the username exists.
	ErrUsernameTaken = fmt.Errorf("%w: username already registered", ErrConflict)

	// ErrPostNotFound indicates that the requested post does not exist.
	ErrPostNotFound = fmt.Errorf("%w: post not found", ErrNotFound)

	// ErrCommentNotFound indicates that the requested comment does not exist.
	ErrCommentNotFound = fmt.Errorf("%w: comment not found", ErrNotFound)

	// ErrParentNotFound is returned when parent_comment_id does not name a
	// comment on the same post.
	ErrParentNotFound = fmt.Errorf("%w: parent comment not found", ErrNotFound)

	// ErrNotAuthor is returned when someone other than the author tries to
	// change or delete a post.
	ErrNotAuthor = fmt.Errorf("%w: not the author", ErrForbidden)
)

// Identity errors.
var (
	// ErrInvalidCredentials covers unknown usernames and wrong passwords alike.
	ErrInvalidCredentials = errors.New("incorrect username or password")

	// ErrInactiveUser is returned when a deactivated account authenticates.
	ErrInactiveUser = errors.New("inactive user")
)
