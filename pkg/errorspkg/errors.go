// Package errorspkg provides common app errors.
package errorspkg

import "errors"

var (
	// ErrInternal indicates internal server error.
	ErrInternal = errors.New("internal")
	// ErrForbidden indicates that the caller lacks the required role.
	ErrForbidden = errors.New("forbidden")
)
