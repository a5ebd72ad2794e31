package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrAlreadyExists     = errors.New("already exists")
	ErrInvalidPrice      = errors.New("invalid price or contract count")
	ErrDuplicatePosition = errors.New("position already open for instrument and strategy")
	ErrUnknownPosition   = errors.New("unknown or already closed position")
	ErrSeriesOrder       = errors.New("candle series out of order")
	ErrEmptySeries       = errors.New("candle series is empty")
	ErrWSDisconnect      = errors.New("websocket disconnected")
)
