package service

import "errors"

var (
	ErrValidation         = errors.New("validation failed")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrWrongPassword      = errors.New("incorrect current password")
	ErrConflict           = errors.New("user already exists")
	ErrNotFound           = errors.New("not found")
	ErrInternal           = errors.New("internal error")
)
