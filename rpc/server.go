package rpc

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math/big"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"uponly/core"
	"uponly/core/state"
	"uponly/crypto"
	"uponly/native/founders"
	"uponly/native/market"
	"uponly/native/pass"
	"uponly/native/vault"
)

// Server exposes the sale operations and read queries over HTTP. Transaction
// endpoints take bech32 "up" addresses and decimal string amounts; the host
// deployment is expected to terminate authentication in front of it.
type Server struct {
	processor *core.Processor
	log       *slog.Logger
}

// NewServer builds an HTTP surface over the processor.
func NewServer(processor *core.Processor, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{processor: processor, log: log}
}

// Router assembles the chi routing tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/tx", func(r chi.Router) {
			r.Post("/initialize", s.handleInitialize)
			r.Post("/pass/buy", s.handleBuyPass)
			r.Post("/pass/give", s.handleGivePass)
			r.Post("/market/buy", s.handleBuyToken)
			r.Post("/market/sell", s.handleSellToken)
			r.Post("/vault/init", s.handleInitVault)
			r.Post("/vault/lock", s.handleLock)
			r.Post("/vault/claim", s.handleClaim)
			r.Post("/vault/early-unlock", s.handleEarlyUnlock)
			r.Post("/founders/init", s.handleInitFounders)
			r.Post("/founders/add", s.handleAddFounder)
			r.Post("/founders/claim", s.handleClaimFounder)
		})
		r.Get("/sale", s.handleSale)
		r.Get("/curve", s.handleCurve)
		r.Get("/pass/{address}", s.handlePassQuery)
		r.Get("/lock/{address}", s.handleLockQuery)
		r.Get("/founders", s.handleFoundersQuery)
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Warn("write response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	s.writeJSON(w, errStatus(err), map[string]string{"error": err.Error()})
}

// errStatus maps engine sentinels onto HTTP status codes.
func errStatus(err error) int {
	switch {
	case errors.Is(err, core.ErrAlreadyInitialized),
		errors.Is(err, pass.ErrAlreadyHasPass),
		errors.Is(err, founders.ErrPoolExists),
		errors.Is(err, founders.ErrAlreadyFounder),
		errors.Is(err, founders.ErrRosterFull),
		errors.Is(err, vault.ErrVaultExists),
		errors.Is(err, vault.ErrPositionActive):
		return http.StatusConflict
	case errors.Is(err, pass.ErrUnauthorized),
		errors.Is(err, founders.ErrUnauthorized),
		errors.Is(err, core.ErrNotMintAuthority),
		errors.Is(err, state.ErrUnauthorized),
		errors.Is(err, market.ErrNoPass):
		return http.StatusForbidden
	case errors.Is(err, market.ErrPassRecordMissing),
		errors.Is(err, vault.ErrNoActivePosition),
		errors.Is(err, vault.ErrVaultNotInitialized),
		errors.Is(err, founders.ErrPoolNotInitialized),
		errors.Is(err, founders.ErrNotFounder),
		errors.Is(err, state.ErrAccountNotFound),
		errors.Is(err, core.ErrMintNotRegistered):
		return http.StatusNotFound
	case errors.Is(err, state.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	case errors.Is(err, market.ErrInvalidAmount),
		errors.Is(err, vault.ErrInvalidAmount),
		errors.Is(err, vault.ErrInvalidLockPeriod),
		errors.Is(err, vault.ErrLockNotExpired),
		errors.Is(err, founders.ErrNothingToClaim),
		errors.Is(err, pass.ErrSelfReferral),
		errors.Is(err, market.ErrCurveNotSeeded),
		errors.Is(err, pass.ErrMissingReferralAccount),
		errors.Is(err, pass.ErrInvalidReferralAccount),
		errors.Is(err, pass.ErrMissingDeployerAccount),
		errors.Is(err, pass.ErrInvalidDeployerAccount),
		errors.Is(err, market.ErrMissingReferralAccount),
		errors.Is(err, market.ErrInvalidReferralAccount),
		errors.Is(err, market.ErrMissingDeployerAccount),
		errors.Is(err, market.ErrInvalidDeployerAccount),
		errors.Is(err, vault.ErrMissingReferralAccount),
		errors.Is(err, vault.ErrInvalidReferralAccount),
		errors.Is(err, vault.ErrMissingDeployerAccount),
		errors.Is(err, vault.ErrInvalidDeployerAccount):
		return http.StatusBadRequest
	case errors.Is(err, pass.ErrSaleNotInitialized),
		errors.Is(err, market.ErrSaleNotInitialized),
		errors.Is(err, vault.ErrSaleNotInitialized),
		errors.Is(err, founders.ErrSaleNotInitialized),
		// Missing mint state before initialize surfaces from queries too.
		errors.Is(err, state.ErrMintNotFound):
		return http.StatusPreconditionFailed
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(r *http.Request, out interface{}) error {
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(out)
}

func parseAddress(value string) ([20]byte, error) {
	var out [20]byte
	addr, err := crypto.DecodeAddress(value)
	if err != nil {
		return out, err
	}
	copy(out[:], addr.Bytes())
	return out, nil
}

func parseOptionalAddress(value string) (*[20]byte, error) {
	if value == "" {
		return nil, nil
	}
	addr, err := parseAddress(value)
	if err != nil {
		return nil, err
	}
	return &addr, nil
}

func parseAmount(value string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, errors.New("rpc: amount must be a base-10 integer")
	}
	return amount, nil
}

func encodeAddress(addr [20]byte) string {
	return crypto.NewAddress(crypto.UPPrefix, append([]byte(nil), addr[:]...)).String()
}
