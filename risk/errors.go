package risk

import "errors"

var (
	ErrUnknownUrgency = errors.New("unknown exit urgency")
	ErrBadReduceRatio = errors.New("reduce ratio out of range")
)
