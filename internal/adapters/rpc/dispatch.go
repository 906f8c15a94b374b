package rpc

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"mask-wallet/go-backend/internal/app"
	"mask-wallet/go-backend/internal/gate"
)

type notificationEvent = app.NotificationEvent

// call routes an authorized call to the service. caller is the normalized
// caller origin returned by the gate; public identity methods are scoped to
// it and take no origin parameter at all.
func (s *Server) call(ctx context.Context, method gate.Method, caller string, body json.RawMessage) (any, *rpcError) {
	switch method {
	case gate.IdentityAdd:
		var p originParams
		if err := decodeBody(body, &p); err != nil {
			return nil, rpcInvalidParams()
		}
		mask, err := s.service.AddIdentity(p.Origin)
		if err != nil {
			return nil, mapServiceError(err)
		}
		return mask, nil

	case gate.IdentityLogin:
		var p loginParams
		if err := decodeBody(body, &p); err != nil {
			return nil, rpcInvalidParams()
		}
		mask, err := s.service.Login(p.Origin, p.IdentityID, p.WithLinkedOrigin)
		if err != nil {
			return nil, mapServiceError(err)
		}
		return mask, nil

	case gate.IdentityGetLoginOptions:
		var p originParams
		if err := decodeBody(body, &p); err != nil {
			return nil, rpcInvalidParams()
		}
		options, err := s.service.GetLoginOptions(p.Origin)
		if err != nil {
			return nil, mapServiceError(err)
		}
		return options, nil

	case gate.IdentityEditPseudonym:
		var p editPseudonymParams
		if err := decodeBody(body, &p); err != nil {
			return nil, rpcInvalidParams()
		}
		mask, err := s.service.EditPseudonym(p.Origin, p.IdentityID, p.Pseudonym)
		if err != nil {
			return nil, mapServiceError(err)
		}
		return mask, nil

	case gate.IdentityStopSession:
		var p originParams
		if err := decodeBody(body, &p); err != nil {
			return nil, rpcInvalidParams()
		}
		stopped, err := s.service.StopSession(p.Origin)
		if err != nil {
			return nil, mapServiceError(err)
		}
		return boolResult(stopped), nil

	case gate.IdentityUnlinkOne:
		var p unlinkOneParams
		if err := decodeBody(body, &p); err != nil {
			return nil, rpcInvalidParams()
		}
		removed, err := s.service.UnlinkOne(p.From, p.To)
		if err != nil {
			return nil, mapServiceError(err)
		}
		return boolResult(removed), nil

	case gate.IdentityUnlinkAll:
		var p originParams
		if err := decodeBody(body, &p); err != nil {
			return nil, rpcInvalidParams()
		}
		changed, err := s.service.UnlinkAll(p.Origin)
		if err != nil {
			return nil, mapServiceError(err)
		}
		return boolResult(changed), nil

	case gate.VaultCreate:
		var p passwordParams
		if err := decodeBody(body, &p); err != nil {
			return nil, rpcInvalidParams()
		}
		mnemonic, err := s.service.CreateVault(p.Password)
		if err != nil {
			return nil, mapServiceError(err)
		}
		return map[string]string{"mnemonic": mnemonic}, nil

	case gate.VaultImport:
		var p vaultImportParams
		if err := decodeBody(body, &p); err != nil {
			return nil, rpcInvalidParams()
		}
		if err := s.service.ImportVault(p.Mnemonic, p.Password); err != nil {
			return nil, mapServiceError(err)
		}
		return boolResult(true), nil

	case gate.VaultUnlock:
		var p passwordParams
		if err := decodeBody(body, &p); err != nil {
			return nil, rpcInvalidParams()
		}
		if err := s.service.UnlockVault(p.Password); err != nil {
			return nil, mapServiceError(err)
		}
		return boolResult(true), nil

	case gate.VaultLock:
		s.service.LockVault()
		return boolResult(true), nil

	case gate.VaultExport:
		var p passwordParams
		if err := decodeBody(body, &p); err != nil {
			return nil, rpcInvalidParams()
		}
		mnemonic, err := s.service.ExportVault(p.Password)
		if err != nil {
			return nil, mapServiceError(err)
		}
		return map[string]string{"mnemonic": mnemonic}, nil

	case gate.VaultChangePassword:
		var p changePasswordParams
		if err := decodeBody(body, &p); err != nil {
			return nil, rpcInvalidParams()
		}
		if err := s.service.ChangeVaultPassword(p.OldPassword, p.NewPassword); err != nil {
			return nil, mapServiceError(err)
		}
		return boolResult(true), nil

	case gate.VaultStatus:
		return s.service.VaultStatus(), nil

	case gate.AssetAdd:
		var p assetAddParams
		if err := decodeBody(body, &p); err != nil {
			return nil, rpcInvalidParams()
		}
		asset, err := s.service.AddAsset(p.Symbol, p.Ledger, p.Decimals)
		if err != nil {
			return nil, mapServiceError(err)
		}
		return asset, nil

	case gate.AssetRemove:
		var p assetSymbolParams
		if err := decodeBody(body, &p); err != nil {
			return nil, rpcInvalidParams()
		}
		removed, err := s.service.RemoveAsset(p.Symbol)
		if err != nil {
			return nil, mapServiceError(err)
		}
		return boolResult(removed), nil

	case gate.AssetList:
		return map[string]any{"assets": s.service.ListAssets()}, nil

	case gate.AssetTransfer:
		var p assetTransferParams
		if err := decodeBody(body, &p); err != nil {
			return nil, rpcInvalidParams()
		}
		receipt, err := s.service.Transfer(ctx, p.Origin, p.IdentityID, p.Symbol, p.To, p.Amount, p.Memo)
		if err != nil {
			return nil, mapServiceError(err)
		}
		return receipt, nil

	case gate.StatisticsGet:
		return s.service.GetStatistics(), nil

	case gate.StatisticsReset:
		if err := s.service.ResetStatistics(); err != nil {
			return nil, mapServiceError(err)
		}
		return boolResult(true), nil

	case gate.ConfirmPending:
		return map[string]any{"pending": s.service.PendingConfirmations()}, nil

	case gate.ConfirmResolve:
		var p confirmResolveParams
		if err := decodeBody(body, &p); err != nil {
			return nil, rpcInvalidParams()
		}
		return boolResult(s.service.ResolveConfirmation(p.ConfirmationID, p.Approved)), nil

	case gate.WalletStatus:
		return s.service.WalletStatus(), nil

	case gate.IdentitySign:
		var p signParams
		if err := decodeBody(body, &p); err != nil {
			return nil, rpcInvalidParams()
		}
		var request any
		if err := json.Unmarshal(p.Request, &request); err != nil {
			return nil, rpcInvalidParams()
		}
		signature, err := s.service.Sign(caller, request, p.Salt)
		if err != nil {
			return nil, mapServiceError(err)
		}
		return map[string][]byte{"signature": signature}, nil

	case gate.IdentityGetPublicKey:
		var p saltParams
		if err := decodeBody(body, &p); err != nil {
			return nil, rpcInvalidParams()
		}
		publicKey, err := s.service.GetPublicKey(caller, p.Salt)
		if err != nil {
			return nil, mapServiceError(err)
		}
		return map[string][]byte{"public_key": publicKey}, nil

	case gate.IdentityRequestLogout:
		loggedOut, err := s.service.RequestLogout(caller)
		if err != nil {
			return nil, mapServiceError(err)
		}
		return boolResult(loggedOut), nil

	case gate.IdentityRequestLink:
		var p targetParams
		if err := decodeBody(body, &p); err != nil {
			return nil, rpcInvalidParams()
		}
		linked, err := s.service.RequestLink(ctx, caller, p.Target)
		if err != nil {
			return nil, mapServiceError(err)
		}
		return boolResult(linked), nil

	case gate.IdentityRequestUnlink:
		var p targetParams
		if err := decodeBody(body, &p); err != nil {
			return nil, rpcInvalidParams()
		}
		unlinked, err := s.service.RequestUnlink(ctx, caller, p.Target)
		if err != nil {
			return nil, mapServiceError(err)
		}
		return boolResult(unlinked), nil

	case gate.IdentityGetLinks:
		links, err := s.service.GetLinks(caller)
		if err != nil {
			return nil, mapServiceError(err)
		}
		return links, nil

	case gate.IdentitySessionExists:
		exists, err := s.service.SessionExists(caller)
		if err != nil {
			return nil, mapServiceError(err)
		}
		return boolResult(exists), nil

	case gate.HealthCheck:
		return map[string]string{"status": "ok"}, nil

	default:
		return nil, mapServiceError(gate.ErrUnknownMethod)
	}
}

func boolResult(v bool) map[string]bool {
	return map[string]bool{"result": v}
}

func rateLimitFallbackKey(r *http.Request, token string) string {
	if strings.TrimSpace(token) != "" {
		return "token:" + token
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err != nil || strings.TrimSpace(host) == "" {
		return "ip:unknown"
	}
	return "ip:" + host
}
