package domain

import "errors"

var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrConfirmTimeout       = errors.New("payment confirmation timed out")
	ErrTokenExpired         = errors.New("id token expired")
	ErrTokenInvalid         = errors.New("id token invalid")
	ErrChannelTokenNotFound = errors.New("channel access token not found")
	ErrOrderIDRequired      = errors.New("orderId is required")
	ErrIDTokenRequired      = errors.New("idToken is required")
)
