package domain

import "errors"

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrDataUnavailable   = errors.New("data store unavailable")
	ErrOracleUnavailable = errors.New("relevance oracle unavailable")
	ErrOracleMalformed   = errors.New("relevance oracle returned malformed output")
)
