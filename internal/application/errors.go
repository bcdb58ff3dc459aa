package application

import "errors"

// ErrInvalidRequest indicates a service request is missing required fields.
var ErrInvalidRequest = errors.New("invalid request")
