package shared

import "errors"

// ErrMissingActor occurs when no caller identity reached the handler.
var ErrMissingActor = errors.New("missing actor")
