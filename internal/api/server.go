package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/log"
	"cosmossdk.io/math"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	interfaces "github.com/sheikh-saqib/escrow-swap-ledger/internal/interfaces"
	"github.com/sheikh-saqib/escrow-swap-ledger/internal/ledger"
	"github.com/sheikh-saqib/escrow-swap-ledger/internal/models"
)

// CallerHeader carries the identity of the account a request acts for. It is set by
// the authenticating relayer in front of this service.
const CallerHeader = "X-Account-ID"

// Server exposes the ledger over HTTP.
type Server struct {
	ledger   *ledger.Ledger
	store    interfaces.LedgerStore
	gatherer prometheus.Gatherer
	sandbox  *Sandbox
	logger   log.Logger

	// mu serializes mutating requests so concurrent clients queue here instead of
	// tripping the ledger's reentrancy guard.
	mu sync.Mutex
}

type Option func(*Server)

// WithSandbox enables the /sandbox routes backed by the given in-memory assets.
func WithSandbox(sb *Sandbox) Option {
	return func(s *Server) { s.sandbox = sb }
}

func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

func NewServer(l *ledger.Ledger, store interfaces.LedgerStore, logger log.Logger, opts ...Option) *Server {
	s := &Server{
		ledger: l,
		store:  store,
		logger: logger.With(log.ModuleKey, "api"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the HTTP routes.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.logRequests)

	r.HandleFunc("/health", s.health).Methods(http.MethodGet)
	r.HandleFunc("/deposits", s.deposit).Methods(http.MethodPost)
	r.HandleFunc("/withdrawals", s.withdraw).Methods(http.MethodPost)
	r.HandleFunc("/withdrawals/all", s.withdrawAll).Methods(http.MethodPost)
	r.HandleFunc("/swaps", s.swap).Methods(http.MethodPost)
	r.HandleFunc("/accounts/{id}/balance", s.balance).Methods(http.MethodGet)
	r.HandleFunc("/accounts/{id}/ledgerEntries", s.accountEntries).Methods(http.MethodGet)
	r.HandleFunc("/ledgerEntries", s.ledgerEntries).Methods(http.MethodGet)
	r.HandleFunc("/reconciliation", s.reconciliation).Methods(http.MethodGet)

	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}
	if s.sandbox != nil {
		sb := r.PathPrefix("/sandbox").Subrouter()
		sb.HandleFunc("/mint", s.mint).Methods(http.MethodPost)
		sb.HandleFunc("/approve", s.approve).Methods(http.MethodPost)
		sb.HandleFunc("/wallets/{id}", s.wallet).Methods(http.MethodGet)
	}
	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "status", rec.status,
			"duration", time.Since(start))
	})
}

func callerOf(r *http.Request) (uuid.UUID, error) {
	raw := r.Header.Get(CallerHeader)
	if raw == "" {
		return uuid.Nil, ledger.ErrInvalidAccount.Wrapf("%s header is required", CallerHeader)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, ledger.ErrInvalidAccount.Wrapf("%s: %v", CallerHeader, err)
	}
	return id, nil
}

func pathAccount(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		return uuid.Nil, ledger.ErrInvalidAccount.Wrapf("account id: %v", err)
	}
	return id, nil
}

func decode(r *http.Request, into any) error {
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		return ledger.ErrInvalidAmount.Wrapf("invalid request body: %v", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

type errorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind"`
	Codespace string `json:"codespace"`
	Code      uint32 `json:"code"`

	// Set when the failed call still changed the caller's balance.
	Received *math.Int              `json:"received,omitempty"`
	Balance  *models.AccountBalance `json:"balance,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	s.writeErrorWith(w, err, nil)
}

func (s *Server) writeErrorWith(w http.ResponseWriter, err error, extend func(*errorResponse)) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	codespace, code, msg := errorsmod.ABCIInfo(err, false)
	resp := errorResponse{Error: msg, Kind: ledger.Kind(err), Codespace: codespace, Code: code}
	if extend != nil {
		extend(&resp)
	}
	writeJSON(w, status, resp)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ledger.ErrInvalidAmount), errors.Is(err, ledger.ErrInvalidAccount):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, ledger.ErrInsufficientBalance), errors.Is(err, ledger.ErrInsufficientAllowance):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ledger.ErrSlippageExceeded), errors.Is(err, ledger.ErrReentrantCall):
		return http.StatusConflict
	case errors.Is(err, ledger.ErrTransferFailed), errors.Is(err, ledger.ErrExchangeFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
