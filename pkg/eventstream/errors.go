package eventstream

import "errors"

// ErrInvalidEvent is returned when an event payload is missing required
// fields.
var ErrInvalidEvent = errors.New("invalid story event")
