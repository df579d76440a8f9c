package model

import "errors"

// ErrValidation marks malformed caller input, e.g. an unknown event type.
var ErrValidation = errors.New("validation failed")
