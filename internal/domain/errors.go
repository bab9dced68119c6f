package domain

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidOrder = errors.New("invalid order parameters")
	ErrWSDisconnect = errors.New("websocket disconnected")
	ErrUnauthorized = errors.New("unauthorized")
	ErrRateLimited  = errors.New("rate limited")

	// Normalization and pairing.
	ErrUnknownPriceFeed = errors.New("unknown price feed")
	ErrZeroStrikeWidth  = errors.New("zero strike width")

	// Payload building. Each validation failure is distinct so callers can
	// surface a specific message instead of a generic rejection.
	ErrNoOrderForSide            = errors.New("no order for requested side")
	ErrOrderTypeMismatch         = errors.New("order type does not match side")
	ErrBetTooSmall               = errors.New("bet below minimum")
	ErrInsufficientOrderCapacity = errors.New("bet exceeds order capacity")

	// Batch execution.
	ErrEmptyBatch          = errors.New("batch has no items")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrExpiredOrder        = errors.New("order expired")
	ErrUserRejected        = errors.New("user rejected request")
	ErrBatchInFlight       = errors.New("another batch is in flight")
	ErrLockHeld            = errors.New("lock already held")
)
