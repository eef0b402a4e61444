package common

import "errors"

var (
	// Persisted credential errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
