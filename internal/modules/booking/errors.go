package booking

import (
	"errors"
	"fmt"
)

var (
	ErrValidation        = errors.New("validation error")
	ErrNotFound          = errors.New("booking not found")
	ErrWindowClosed      = errors.New("outside availability windows")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrGateway           = errors.New("payment gateway error")
	ErrNotPaid           = errors.New("booking is not paid")
	ErrAlreadyRedeemed   = errors.New("ticket already redeemed")
	ErrForbidden         = errors.New("forbidden")

	// ErrGatewayTimeout matches ErrGateway under errors.Is, so callers that
	// only care about "gateway failed" keep working.
	ErrGatewayTimeout = fmt.Errorf("%w: timeout", ErrGateway)
)
