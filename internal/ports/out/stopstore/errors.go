package stopstore

import "errors"

var (
	ErrNotFound       = errors.New("stop not found")
	ErrLengthMismatch = errors.New("dayPlaceIDs and sortOrders must have equal length")
)
