package inventory

import "errors"

var (
	ErrOutOfStock = errors.New("not enough tickets remaining")
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("ticket package not found")
)
