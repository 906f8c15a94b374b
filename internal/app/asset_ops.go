package app

import (
	"context"

	"mask-wallet/go-backend/internal/agent"
	"mask-wallet/go-backend/internal/assets"
	"mask-wallet/go-backend/internal/wallet"
)

func (s *Service) AddAsset(symbol, ledger string, decimals int) (wallet.Asset, error) {
	var out wallet.Asset
	err := s.mutate(func(st *wallet.State) error {
		asset, err := assets.Add(st, symbol, ledger, decimals)
		if err != nil {
			return err
		}
		out = asset
		return nil
	})
	return out, err
}

func (s *Service) RemoveAsset(symbol string) (bool, error) {
	removed := false
	err := s.mutate(func(st *wallet.State) error {
		removed = assets.Remove(st, symbol)
		return nil
	})
	return removed, err
}

func (s *Service) ListAssets() []wallet.Asset {
	var out []wallet.Asset
	_ = s.read(func(st *wallet.State) error {
		out = assets.List(st)
		return nil
	})
	return out
}

// Transfer builds a transfer for the user to confirm, signs it with the
// asset-salted key for (origin, identityID) and hands the envelope to the
// agent. A declined confirmation resolves to an unaccepted receipt, not an
// error. This core never touches the ledger; the agent owns delivery.
func (s *Service) Transfer(ctx context.Context, origin string, identityID int, symbol, to string, amount uint64, memo string) (agent.Receipt, error) {
	origin, err := wallet.NormalizeOrigin(origin)
	if err != nil {
		return agent.Receipt{}, err
	}
	kr, err := s.keyring()
	if err != nil {
		return agent.Receipt{}, err
	}

	var transfer assets.Transfer
	err = s.read(func(st *wallet.State) error {
		asset, err := assets.Lookup(st, symbol)
		if err != nil {
			return err
		}
		transfer, err = assets.NewTransfer(asset, to, amount, memo, s.now().UnixMilli())
		return err
	})
	if err != nil {
		return agent.Receipt{}, err
	}

	approved := s.confirm.Ask(ctx, "transfer", origin, transfer.Request())
	if !approved {
		return agent.Receipt{Accepted: false}, nil
	}

	// Commit: the asset could have been removed while the prompt was open,
	// so look it up again inside the locked transform.
	var envelope agent.Envelope
	err = s.mutate(func(st *wallet.State) error {
		if _, err := assets.Lookup(st, transfer.Asset.Symbol); err != nil {
			return err
		}
		mask, err := st.MaskAt(kr, origin, identityID)
		if err != nil {
			return err
		}
		request := transfer.Request()
		digest, err := wallet.CanonicalRequestDigest(request)
		if err != nil {
			return err
		}
		key, err := kr.Derive(origin, uint32(identityID), transfer.Salt())
		if err != nil {
			return err
		}
		defer key.Zero()
		signature, err := key.Sign(digest)
		if err != nil {
			return err
		}
		envelope = agent.Envelope{
			Kind:      "asset_transfer",
			Origin:    origin,
			Principal: mask.Principal,
			PublicKey: key.PublicKey(),
			Payload:   request,
			Signature: signature,
		}
		st.Statistics.Transfers++
		return nil
	})
	if err != nil {
		return agent.Receipt{}, err
	}

	receipt, err := s.submitter.Submit(ctx, envelope)
	if err != nil {
		return agent.Receipt{}, err
	}
	if s.metrics != nil {
		s.metrics.Transfers.Inc()
	}
	return receipt, nil
}
