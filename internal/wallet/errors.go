package wallet

import "errors"

// The closed error set surfaced by wallet operations. The RPC adapter maps
// each of these to a stable wire code; internal detail never crosses the
// boundary.
var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrAlreadyLinked    = errors.New("origins are already linked")
	ErrUnauthorizedLink = errors.New("link is not authorized")
)
