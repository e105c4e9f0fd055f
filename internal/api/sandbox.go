package api

import (
	"context"
	"net/http"

	"cosmossdk.io/math"
	"github.com/google/uuid"

	interfaces "github.com/sheikh-saqib/escrow-swap-ledger/internal/interfaces"
	"github.com/sheikh-saqib/escrow-swap-ledger/internal/ledger"
	"github.com/sheikh-saqib/escrow-swap-ledger/internal/models"
)

// MintableAsset is an asset whose supply the sandbox can grow.
type MintableAsset interface {
	interfaces.Asset
	Mint(ctx context.Context, account uuid.UUID, amount math.Int) error
}

// Sandbox gives test clients external wallets on the in-memory assets.
type Sandbox struct {
	AssetA MintableAsset
	AssetB MintableAsset
}

type mintRequest struct {
	Account uuid.UUID        `json:"account"`
	Asset   models.AssetSide `json:"asset"`
	Amount  math.Int         `json:"amount"`
}

type approveRequest struct {
	Amount math.Int `json:"amount"`
}

type walletResponse struct {
	AccountID uuid.UUID `json:"account_id"`
	AssetA    math.Int  `json:"asset_a"`
	AssetB    math.Int  `json:"asset_b"`
	Allowance math.Int  `json:"allowance_a"`
}

func (s *Server) mint(w http.ResponseWriter, r *http.Request) {
	var req mintRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	var asset MintableAsset
	switch req.Asset {
	case models.AssetA:
		asset = s.sandbox.AssetA
	case models.AssetB:
		asset = s.sandbox.AssetB
	default:
		s.writeError(w, ledger.ErrInvalidAmount.Wrapf("unknown asset %q", req.Asset))
		return
	}
	if err := asset.Mint(r.Context(), req.Account, orZero(req.Amount)); err != nil {
		s.writeError(w, ledger.ErrInvalidAmount.Wrap(err.Error()))
		return
	}
	s.writeWallet(w, r, req.Account)
}

// approve lets the caller grant the ledger an asset A allowance, the step a wallet
// performs before depositing.
func (s *Server) approve(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req approveRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.sandbox.AssetA.Approve(r.Context(), caller, s.ledger.Self(), orZero(req.Amount)); err != nil {
		s.writeError(w, ledger.ErrInvalidAmount.Wrap(err.Error()))
		return
	}
	s.writeWallet(w, r, caller)
}

func (s *Server) wallet(w http.ResponseWriter, r *http.Request) {
	account, err := pathAccount(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeWallet(w, r, account)
}

func (s *Server) writeWallet(w http.ResponseWriter, r *http.Request, account uuid.UUID) {
	ctx := r.Context()
	resp := walletResponse{AccountID: account}
	var err error
	if resp.AssetA, err = s.sandbox.AssetA.BalanceOf(ctx, account); err != nil {
		s.writeError(w, err)
		return
	}
	if resp.AssetB, err = s.sandbox.AssetB.BalanceOf(ctx, account); err != nil {
		s.writeError(w, err)
		return
	}
	if resp.Allowance, err = s.sandbox.AssetA.Allowance(ctx, account, s.ledger.Self()); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
