package assets

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"mask-wallet/go-backend/internal/wallet"
)

const maxDecimals = 18

// Add registers a tracked asset in the wallet state. Symbols are unique and
// case-insensitive; re-adding an existing symbol replaces its entry.
func Add(state *wallet.State, symbol, ledger string, decimals int) (wallet.Asset, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	ledger = strings.TrimSpace(ledger)
	if symbol == "" || ledger == "" {
		return wallet.Asset{}, fmt.Errorf("%w: asset symbol and ledger are required", wallet.ErrInvalidInput)
	}
	if decimals < 0 || decimals > maxDecimals {
		return wallet.Asset{}, fmt.Errorf("%w: decimals must be 0..%d", wallet.ErrInvalidInput, maxDecimals)
	}
	asset := wallet.Asset{Symbol: symbol, Ledger: ledger, Decimals: decimals}
	state.Assets[symbol] = asset
	return asset, nil
}

// Remove drops a tracked asset and reports whether it existed.
func Remove(state *wallet.State, symbol string) bool {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if _, ok := state.Assets[symbol]; !ok {
		return false
	}
	delete(state.Assets, symbol)
	return true
}

// Lookup finds a tracked asset by symbol.
func Lookup(state *wallet.State, symbol string) (wallet.Asset, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	asset, ok := state.Assets[symbol]
	if !ok {
		return wallet.Asset{}, fmt.Errorf("%w: unknown asset %q", wallet.ErrInvalidInput, symbol)
	}
	return asset, nil
}

// List returns tracked assets sorted by symbol.
func List(state *wallet.State) []wallet.Asset {
	out := make([]wallet.Asset, 0, len(state.Assets))
	for _, asset := range state.Assets {
		out = append(out, asset)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Transfer is the canonical transfer payload that gets signed and handed to
// the agent.
type Transfer struct {
	Asset       wallet.Asset
	To          string
	Amount      uint64
	Memo        string
	TimestampMs int64
}

func NewTransfer(asset wallet.Asset, to string, amount uint64, memo string, nowMs int64) (Transfer, error) {
	to = strings.TrimSpace(to)
	if to == "" {
		return Transfer{}, fmt.Errorf("%w: transfer recipient is required", wallet.ErrInvalidInput)
	}
	if amount == 0 {
		return Transfer{}, fmt.Errorf("%w: transfer amount must be positive", wallet.ErrInvalidInput)
	}
	return Transfer{
		Asset:       asset,
		To:          to,
		Amount:      amount,
		Memo:        strings.TrimSpace(memo),
		TimestampMs: nowMs,
	}, nil
}

// Request renders the transfer as the decoded-JSON value form the signing
// engine canonicalizes. Field order is irrelevant; canonicalization sorts
// keys. The amount travels as a decimal string: base-unit amounts routinely
// exceed 2^53 and would not round-trip through a float64.
func (t Transfer) Request() map[string]any {
	request := map[string]any{
		"kind":         "asset_transfer",
		"symbol":       t.Asset.Symbol,
		"ledger":       t.Asset.Ledger,
		"decimals":     float64(t.Asset.Decimals),
		"to":           t.To,
		"amount":       strconv.FormatUint(t.Amount, 10),
		"timestamp_ms": float64(t.TimestampMs),
	}
	if t.Memo != "" {
		request["memo"] = t.Memo
	}
	return request
}

// Salt scopes the transfer signing key to the asset's ledger: distinct
// ledgers get distinct, equally deterministic sub-identities.
func (t Transfer) Salt() []byte {
	return []byte(t.Asset.Ledger)
}
