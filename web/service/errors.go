package service

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrForbidden      = errors.New("not allowed")
	ErrUsernameTaken  = errors.New("username already registered")
	ErrEmailTaken     = errors.New("email already registered")
	ErrAnswerMismatch = errors.New("answer does not belong to this question")
	ErrNotConfirmed   = errors.New("account is not confirmed")
)
