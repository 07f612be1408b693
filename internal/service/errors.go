package service

import "errors"

// Typed conditions surfaced to the API layer. Everything else is wrapped
// with context and propagated verbatim.
var (
	ErrUnauthenticated    = errors.New("user not authenticated")
	ErrInvalidCredentials = errors.New("invalid login credentials")
	ErrIncorrectPassword  = errors.New("Current password is incorrect")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrSubmitInProgress   = errors.New("checkout submission already in progress")
	ErrPaymentDeclined    = errors.New("payment declined")
)
