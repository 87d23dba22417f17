package availability

import "errors"

var (
	ErrNoAvailability = errors.New("no availability windows")
	ErrValidation     = errors.New("validation error")
)
