package model

import "errors"

var (
	// ErrEmptyWatchlist means no protocols are configured for tracking.
	ErrEmptyWatchlist = errors.New("watchlist is empty")

	// ErrUnknownProtocol means a slug is not on the watchlist.
	ErrUnknownProtocol = errors.New("protocol is not tracked")

	// ErrNotFound means the provider has no record for the requested identity.
	ErrNotFound = errors.New("not found")
)
