package apperrors

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrCaseLocked        = errors.New("case is locked for editing")
	ErrInvalidTransition = errors.New("invalid case status transition")
	ErrNotApproved       = errors.New("case has not been approved")
	ErrStorage           = errors.New("storage failure")
)
