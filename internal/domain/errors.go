package domain

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrInvalidInput  = errors.New("invalid input")
	ErrCycle         = errors.New("edge would create a cycle")
	ErrKillSwitch    = errors.New("kill switch engaged")
	ErrRiskLimit     = errors.New("risk limit exceeded")
	ErrSigningFailed = errors.New("signing failed")
	ErrRateLimited   = errors.New("rate limited")
	ErrLockHeld      = errors.New("lock already held")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrWSDisconnect  = errors.New("websocket disconnected")
)
