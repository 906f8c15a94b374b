package rpc

import (
	"errors"

	"mask-wallet/go-backend/internal/gate"
	"mask-wallet/go-backend/internal/vault"
	"mask-wallet/go-backend/internal/wallet"
)

// Stable wire codes for the wallet's closed error set. Clients match on
// codes, never on message text.
const (
	codeInvalidInput            = -32602
	codeUnknownMethod           = -32601
	codeProtectedMethodViolated = -32040
	codeUnauthorized            = -32041
	codeAlreadyLinked           = -32042
	codeUnauthorizedLink        = -32043
	codeSecurityViolation       = -32044
	codeVaultState              = -32050
	codeVaultPassword           = -32051
	codeVaultAttemptsLocked     = -32052
	codeInternal                = -32099
)

func rpcInvalidParams() *rpcError {
	return &rpcError{Code: codeInvalidInput, Message: "invalid params"}
}

func mapServiceError(err error) *rpcError {
	switch {
	case errors.Is(err, wallet.ErrInvalidInput):
		return &rpcError{Code: codeInvalidInput, Message: err.Error()}
	case errors.Is(err, gate.ErrUnknownMethod):
		return &rpcError{Code: codeUnknownMethod, Message: "method not found"}
	case errors.Is(err, gate.ErrProtectedMethodViolation):
		return &rpcError{Code: codeProtectedMethodViolated, Message: err.Error()}
	case errors.Is(err, wallet.ErrUnauthorized):
		return &rpcError{Code: codeUnauthorized, Message: err.Error()}
	case errors.Is(err, wallet.ErrAlreadyLinked):
		return &rpcError{Code: codeAlreadyLinked, Message: err.Error()}
	case errors.Is(err, wallet.ErrUnauthorizedLink):
		return &rpcError{Code: codeUnauthorizedLink, Message: err.Error()}
	case errors.Is(err, gate.ErrSecurityViolation):
		return &rpcError{Code: codeSecurityViolation, Message: err.Error()}
	case errors.Is(err, vault.ErrInvalidPassword),
		errors.Is(err, vault.ErrPasswordRequired),
		errors.Is(err, vault.ErrMnemonicRequired),
		errors.Is(err, vault.ErrInvalidMnemonic):
		return &rpcError{Code: codeVaultPassword, Message: err.Error()}
	case errors.Is(err, vault.ErrAttemptsLocked):
		return &rpcError{Code: codeVaultAttemptsLocked, Message: err.Error()}
	case errors.Is(err, vault.ErrNotInitialized),
		errors.Is(err, vault.ErrAlreadyInitialized),
		errors.Is(err, vault.ErrLocked):
		return &rpcError{Code: codeVaultState, Message: err.Error()}
	default:
		// Internal detail stays inside the daemon.
		return &rpcError{Code: codeInternal, Message: "internal error"}
	}
}
