package server

import "errors"

var (
	ErrServerClosed         = errors.New("server is closed")
	ErrServerNotRunning     = errors.New("server is not running")
	ErrServerAlreadyRunning = errors.New("server is already running")
	ErrRegistrationClosed   = errors.New("units can only be registered before start")
	ErrInvalidUnit          = errors.New("invalid unit")
	ErrInvalidConfig        = errors.New("invalid server configuration")
)
