// Package repository defines the persistence layer. Sentinel errors
// declared here let handlers distinguish failure scenarios without
// inspecting driver-specific error text.
package repository

import "errors"

// ErrEmailExists is returned when creating a user with an email that is
// already registered. Handlers translate this into an HTTP 409 response.
var ErrEmailExists = errors.New("email already exists")

// ErrSelfDelete is returned when a user attempts to delete their own
// account. Handlers translate this into an HTTP 403 response.
var ErrSelfDelete = errors.New("cannot delete own account")
