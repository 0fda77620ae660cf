package domain

import "errors"

var (
	ErrDuplicateEmail    = errors.New("email already registered")
	ErrDuplicateUsername = errors.New("username already taken")
	ErrUserNotFound      = errors.New("user not found")
	ErrIncorrectPassword = errors.New("incorrect password")

	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenExpired   = errors.New("token expired")
	ErrClaimsMissing  = errors.New("token claims missing")

	ErrUnknownInfoKey = errors.New("unknown user info key")

	ErrMissingIdentityAssertion = errors.New("identity assertion missing")
	ErrInvalidAssertion         = errors.New("identity assertion invalid")
	ErrProviderExchangeFailed   = errors.New("provider code exchange failed")
)
