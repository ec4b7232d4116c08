package ports

import "errors"

// Error kinds surfaced by IdentitySource implementations. The HTTP layer
// maps ErrInvalidCredentials and ErrInvalidEmail onto one uniform message so
// responses never reveal whether the email or the password was wrong, nor
// whether the account exists.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrTooManyRequests    = errors.New("too many requests")
	ErrNetwork            = errors.New("network request failed")
)
