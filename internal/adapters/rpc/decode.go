package rpc

import (
	"bytes"
	"encoding/json"
	"errors"
)

var errInvalidParams = errors.New("invalid params")

// decodeBody strictly decodes a method's body payload: unknown fields and
// trailing data are rejected so malformed calls fail at the boundary, before
// the core runs. A missing body decodes as the zero value, for methods whose
// parameters are all optional.
func decodeBody(body json.RawMessage, dst any) error {
	if len(body) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errInvalidParams
	}
	if dec.More() {
		return errInvalidParams
	}
	return nil
}

type originParams struct {
	Origin string `json:"origin"`
}

type loginParams struct {
	Origin           string `json:"origin"`
	IdentityID       int    `json:"identity_id"`
	WithLinkedOrigin string `json:"with_linked_origin,omitempty"`
}

type editPseudonymParams struct {
	Origin     string `json:"origin"`
	IdentityID int    `json:"identity_id"`
	Pseudonym  string `json:"pseudonym"`
}

type unlinkOneParams struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type passwordParams struct {
	Password string `json:"password"`
}

type vaultImportParams struct {
	Mnemonic string `json:"mnemonic"`
	Password string `json:"password"`
}

type changePasswordParams struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

type assetAddParams struct {
	Symbol   string `json:"symbol"`
	Ledger   string `json:"ledger"`
	Decimals int    `json:"decimals"`
}

type assetSymbolParams struct {
	Symbol string `json:"symbol"`
}

type assetTransferParams struct {
	Origin     string `json:"origin"`
	IdentityID int    `json:"identity_id"`
	Symbol     string `json:"symbol"`
	To         string `json:"to"`
	Amount     uint64 `json:"amount"`
	Memo       string `json:"memo,omitempty"`
}

type confirmResolveParams struct {
	ConfirmationID string `json:"confirmation_id"`
	Approved       bool   `json:"approved"`
}

type signParams struct {
	Request json.RawMessage `json:"request"`
	Salt    []byte          `json:"salt,omitempty"`
}

type saltParams struct {
	Salt []byte `json:"salt,omitempty"`
}

type targetParams struct {
	Target string `json:"target"`
}
