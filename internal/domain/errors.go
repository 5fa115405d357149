package domain

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrRateLimited   = errors.New("rate limited")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrLockHeld      = errors.New("lock already held")
	ErrCacheMiss     = errors.New("cache miss")
	ErrFetchFailed   = errors.New("market listing fetch failed")
	ErrAlreadyPriced = errors.New("prices already applied")
)
