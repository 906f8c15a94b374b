// Package models holds the wire-facing shapes shared between the RPC
// adapter and its clients.
package models

// Mask is one pseudonymous identity as rendered to clients. IdentityID is
// the mask's stable index within its origin's list.
type Mask struct {
	IdentityID int    `json:"identity_id"`
	Pseudonym  string `json:"pseudonym"`
	Principal  string `json:"principal"`
}

// LoginOption groups the masks available under one derivation origin.
type LoginOption struct {
	Origin string `json:"origin"`
	Linked bool   `json:"linked"`
	Masks  []Mask `json:"masks"`
}

// LoginOptions is everything an origin's visitor may log in as: its own
// masks plus those of every origin linked into it.
type LoginOptions struct {
	Origin  string        `json:"origin"`
	Options []LoginOption `json:"options"`
}

type Links struct {
	LinksFrom []string `json:"links_from"`
	LinksTo   []string `json:"links_to"`
}

type VaultStatus struct {
	Initialized bool   `json:"initialized"`
	Unlocked    bool   `json:"unlocked"`
	Curve       string `json:"curve"`
}

type WalletStatus struct {
	Vault                VaultStatus `json:"vault"`
	Origins              int         `json:"origins"`
	ActiveSessions       int         `json:"active_sessions"`
	Links                int         `json:"links"`
	TrackedAssets        int         `json:"tracked_assets"`
	PendingConfirmations int         `json:"pending_confirmations"`
}
