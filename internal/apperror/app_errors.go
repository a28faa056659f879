package apperror

import "errors"

var (
	ErrNoAvailableMoves = errors.New("no available moves")
	ErrUnknownAction    = errors.New("unknown action")
	ErrInvalidPayload   = errors.New("invalid payload")
	ErrInvalidBoard     = errors.New("invalid board")
	ErrUnknownStorage   = errors.New("unknown storage backend")
)
