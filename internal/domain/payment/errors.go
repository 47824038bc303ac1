package payment

import "errors"

var (
	// ErrNotFound indicates no payment exists with the given ID.
	ErrNotFound = errors.New("payment not found")
	// ErrVerificationFailed indicates the gateway rejected the verification.
	ErrVerificationFailed = errors.New("payment verification failed")
)

// IsNotFound reports whether err indicates a missing payment.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
