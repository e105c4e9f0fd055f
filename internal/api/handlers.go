package api

import (
	"errors"
	"net/http"

	"cosmossdk.io/math"
	"github.com/google/uuid"

	"github.com/sheikh-saqib/escrow-swap-ledger/internal/ledger"
	"github.com/sheikh-saqib/escrow-swap-ledger/internal/models"
)

// Amounts travel as decimal strings, e.g. {"amount": "100"}.

type depositRequest struct {
	Amount math.Int `json:"amount"`
}

type withdrawRequest struct {
	AmountA math.Int `json:"amount_a"`
	AmountB math.Int `json:"amount_b"`
}

type swapRequest struct {
	Account        uuid.UUID `json:"account"`
	MinimumReceive math.Int  `json:"minimum_receive"`
}

type operationResponse struct {
	Status   string                `json:"status"`
	Balance  models.AccountBalance `json:"balance"`
	Received *math.Int             `json:"received,omitempty"`
	Paid     *models.Balance       `json:"paid,omitempty"`
}

func orZero(i math.Int) math.Int {
	if i.IsNil() {
		return math.ZeroInt()
	}
	return i
}

func (s *Server) accountBalance(account uuid.UUID) models.AccountBalance {
	return models.AccountBalance{AccountID: account, Balance: s.ledger.BalanceOf(account)}
}

func (s *Server) deposit(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req depositRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	s.mu.Lock()
	err = s.ledger.Deposit(r.Context(), caller, orZero(req.Amount))
	s.mu.Unlock()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, operationResponse{Status: "deposited", Balance: s.accountBalance(caller)})
}

func (s *Server) withdraw(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req withdrawRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	s.mu.Lock()
	err = s.ledger.Withdraw(r.Context(), caller, orZero(req.AmountA), orZero(req.AmountB))
	s.mu.Unlock()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, operationResponse{Status: "withdrawn", Balance: s.accountBalance(caller)})
}

func (s *Server) withdrawAll(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.mu.Lock()
	paid, err := s.ledger.WithdrawAll(r.Context(), caller)
	s.mu.Unlock()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, operationResponse{Status: "withdrawn", Balance: s.accountBalance(caller), Paid: &paid})
}

func (s *Server) swap(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req swapRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	s.mu.Lock()
	received, err := s.ledger.Swap(r.Context(), caller, req.Account, orZero(req.MinimumReceive))
	s.mu.Unlock()
	if errors.Is(err, ledger.ErrSlippageExceeded) {
		// A venue that traded below the floor still had its actual output credited.
		balance := s.accountBalance(caller)
		s.writeErrorWith(w, err, func(resp *errorResponse) {
			resp.Received = &received
			resp.Balance = &balance
		})
		return
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, operationResponse{Status: "swapped", Balance: s.accountBalance(caller), Received: &received})
}

func (s *Server) balance(w http.ResponseWriter, r *http.Request) {
	account, err := pathAccount(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.accountBalance(account))
}

func (s *Server) ledgerEntries(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, ledger.ErrInvalidConfiguration.Wrap("no journal configured"))
		return
	}
	entries, err := s.store.GetLedgerEntries(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if entries == nil {
		entries = []models.LedgerEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) accountEntries(w http.ResponseWriter, r *http.Request) {
	account, err := pathAccount(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if s.store == nil {
		s.writeError(w, ledger.ErrInvalidConfiguration.Wrap("no journal configured"))
		return
	}
	entries, err := s.store.GetEntriesByAccount(r.Context(), account)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if entries == nil {
		entries = []models.LedgerEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

type reconciliationResponse struct {
	ledger.Report
	SurplusA math.Int `json:"surplus_a"`
	SurplusB math.Int `json:"surplus_b"`
	Balanced bool     `json:"balanced"`
	Error    string   `json:"error,omitempty"`
}

func (s *Server) reconciliation(w http.ResponseWriter, r *http.Request) {
	report, err := s.ledger.Reconcile(r.Context())
	if err != nil && !errors.Is(err, ledger.ErrInvariantViolation) {
		s.writeError(w, err)
		return
	}

	resp := reconciliationResponse{
		Report:   report,
		SurplusA: report.SurplusA(),
		SurplusB: report.SurplusB(),
		Balanced: report.Balanced(),
	}
	status := http.StatusOK
	if err != nil {
		s.logger.Error("reconciliation failed", "error", err)
		resp.Error = err.Error()
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, resp)
}
