package rpc

import (
	"math/big"
	"net/http"

	"github.com/go-chi/chi/v5"

	"uponly/native/founders"
	"uponly/native/pass"
	"uponly/native/vault"
)

type initializeRequest struct {
	Deployer    string `json:"deployer"`
	SaleMint    string `json:"sale_mint"`
	PaymentMint string `json:"payment_mint"`
}

func (s *Server) handleInitialize(w http.ResponseWriter, r *http.Request) {
	var req initializeRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	deployer, err := parseAddress(req.Deployer)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	saleMint, err := parseAddress(req.SaleMint)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	paymentMint, err := parseAddress(req.PaymentMint)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := s.processor.Initialize(deployer, saleMint, paymentMint); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "initialized"})
}

type passRequest struct {
	Buyer    string `json:"buyer"`
	Referral string `json:"referral,omitempty"`
}

type passResponse struct {
	Owner       string `json:"owner"`
	HasPass     bool   `json:"has_pass"`
	Referral    string `json:"referral,omitempty"`
	ReferralSet bool   `json:"referral_set"`
}

func passRecordResponse(record *pass.Record) passResponse {
	resp := passResponse{
		Owner:       encodeAddress(record.Owner),
		HasPass:     record.HasPass,
		ReferralSet: record.ReferralSet,
	}
	if record.ReferralSet {
		resp.Referral = encodeAddress(record.Referral)
	}
	return resp
}

func (s *Server) handleBuyPass(w http.ResponseWriter, r *http.Request) {
	var req passRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	buyer, err := parseAddress(req.Buyer)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	referral, err := parseOptionalAddress(req.Referral)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	record, err := s.processor.BuyPass(buyer, referral)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, passRecordResponse(record))
}

type givePassRequest struct {
	Caller      string `json:"caller"`
	Beneficiary string `json:"beneficiary"`
}

func (s *Server) handleGivePass(w http.ResponseWriter, r *http.Request) {
	var req givePassRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	caller, err := parseAddress(req.Caller)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	beneficiary, err := parseAddress(req.Beneficiary)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	record, err := s.processor.GivePass(caller, beneficiary)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, passRecordResponse(record))
}

type tradeRequest struct {
	Account  string `json:"account"`
	Amount   string `json:"amount"`
	Referral string `json:"referral,omitempty"`
}

type buyResponse struct {
	Gross     *big.Int `json:"gross"`
	Team      *big.Int `json:"team"`
	Founder   *big.Int `json:"founder"`
	Liquidity *big.Int `json:"liquidity"`
	Net       *big.Int `json:"net"`
	Minted    *big.Int `json:"minted"`
}

func (s *Server) handleBuyToken(w http.ResponseWriter, r *http.Request) {
	var req tradeRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	buyer, err := parseAddress(req.Account)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	referral, err := parseOptionalAddress(req.Referral)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	receipt, err := s.processor.BuyToken(buyer, amount, referral)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, buyResponse{
		Gross:     receipt.Gross,
		Team:      receipt.Team,
		Founder:   receipt.Founder,
		Liquidity: receipt.Liquidity,
		Net:       receipt.Net,
		Minted:    receipt.Minted,
	})
}

type sellResponse struct {
	Burned    *big.Int `json:"burned"`
	Value     *big.Int `json:"value"`
	Team      *big.Int `json:"team"`
	Founder   *big.Int `json:"founder"`
	Liquidity *big.Int `json:"liquidity"`
	Payout    *big.Int `json:"payout"`
}

func (s *Server) handleSellToken(w http.ResponseWriter, r *http.Request) {
	var req tradeRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	seller, err := parseAddress(req.Account)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	receipt, err := s.processor.SellToken(seller, amount)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sellResponse{
		Burned:    receipt.Burned,
		Value:     receipt.Value,
		Team:      receipt.Team,
		Founder:   receipt.Founder,
		Liquidity: receipt.Liquidity,
		Payout:    receipt.Payout,
	})
}

type ownerRequest struct {
	Owner string `json:"owner"`
}

func (s *Server) handleInitVault(w http.ResponseWriter, r *http.Request) {
	var req ownerRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	owner, err := parseAddress(req.Owner)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := s.processor.InitializeUserVault(owner); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "initialized"})
}

type lockRequest struct {
	Owner    string `json:"owner"`
	Amount   string `json:"amount"`
	LockDays uint64 `json:"lock_days"`
	Referral string `json:"referral,omitempty"`
}

type lockResponse struct {
	Gross      *big.Int `json:"gross"`
	Team       *big.Int `json:"team"`
	Founder    *big.Int `json:"founder"`
	Liquidity  *big.Int `json:"liquidity"`
	Net        *big.Int `json:"net"`
	Minted     *big.Int `json:"minted"`
	UnlockTime uint64   `json:"unlock_time"`
}

func (s *Server) handleLock(w http.ResponseWriter, r *http.Request) {
	var req lockRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	owner, err := parseAddress(req.Owner)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	referral, err := parseOptionalAddress(req.Referral)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	receipt, err := s.processor.BuyAndLockToken(owner, amount, req.LockDays, referral)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, lockResponse{
		Gross:      receipt.Gross,
		Team:       receipt.Team,
		Founder:    receipt.Founder,
		Liquidity:  receipt.Liquidity,
		Net:        receipt.Net,
		Minted:     receipt.Minted,
		UnlockTime: receipt.UnlockTime,
	})
}

type settleResponse struct {
	Burned    *big.Int `json:"burned"`
	Value     *big.Int `json:"value"`
	Team      *big.Int `json:"team"`
	Founder   *big.Int `json:"founder"`
	Liquidity *big.Int `json:"liquidity"`
	Payout    *big.Int `json:"payout"`
	Early     bool     `json:"early"`
}

func settleReceiptResponse(receipt *vault.SettleReceipt) settleResponse {
	return settleResponse{
		Burned:    receipt.Burned,
		Value:     receipt.Value,
		Team:      receipt.Team,
		Founder:   receipt.Founder,
		Liquidity: receipt.Liquidity,
		Payout:    receipt.Payout,
		Early:     receipt.Early,
	}
}

func (s *Server) handleClaim(w http.ResponseWriter, r *http.Request) {
	var req ownerRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	owner, err := parseAddress(req.Owner)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	receipt, err := s.processor.ClaimLockedTokens(owner)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, settleReceiptResponse(receipt))
}

func (s *Server) handleEarlyUnlock(w http.ResponseWriter, r *http.Request) {
	var req ownerRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	owner, err := parseAddress(req.Owner)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	receipt, err := s.processor.EarlyUnlockTokens(owner)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, settleReceiptResponse(receipt))
}

type callerRequest struct {
	Caller string `json:"caller"`
}

func (s *Server) handleInitFounders(w http.ResponseWriter, r *http.Request) {
	var req callerRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	caller, err := parseAddress(req.Caller)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := s.processor.InitializeFoundersPool(caller); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "initialized"})
}

type addFounderRequest struct {
	Caller  string `json:"caller"`
	Founder string `json:"founder"`
}

func (s *Server) handleAddFounder(w http.ResponseWriter, r *http.Request) {
	var req addFounderRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	caller, err := parseAddress(req.Caller)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	founder, err := parseAddress(req.Founder)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	slot, err := s.processor.AddFounder(caller, founder)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int{"slot": slot})
}

type claimFounderRequest struct {
	Founder string `json:"founder"`
}

func (s *Server) handleClaimFounder(w http.ResponseWriter, r *http.Request) {
	var req claimFounderRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	founder, err := parseAddress(req.Founder)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	paid, err := s.processor.ClaimFounderShare(founder)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]*big.Int{"paid": paid})
}

func (s *Server) handleSale(w http.ResponseWriter, r *http.Request) {
	meta, ok, err := s.processor.Metadata()
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !ok {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "sale not initialized"})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":          meta.Name,
		"symbol":        meta.Symbol,
		"mint":          encodeAddress(meta.Mint),
		"authority":     encodeAddress(meta.Authority),
		"payment_token": encodeAddress(meta.PaymentToken),
		"deployer":      encodeAddress(meta.Deployer),
		"initialized":   meta.Initialized,
	})
}

func (s *Server) handleCurve(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.processor.Curve()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]*big.Int{
		"liquidity": snapshot.Liquidity,
		"supply":    snapshot.Supply,
	})
}

func (s *Server) handlePassQuery(w http.ResponseWriter, r *http.Request) {
	owner, err := parseAddress(chi.URLParam(r, "address"))
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	record, ok, err := s.processor.PassRecord(owner)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !ok {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "pass record not found"})
		return
	}
	s.writeJSON(w, http.StatusOK, passRecordResponse(record))
}

type lockQueryResponse struct {
	Owner      string   `json:"owner"`
	Amount     *big.Int `json:"amount"`
	UnlockTime uint64   `json:"unlock_time"`
	LockDays   uint64   `json:"lock_days"`
	Referral   string   `json:"referral,omitempty"`
	Active     bool     `json:"active"`
}

func (s *Server) handleLockQuery(w http.ResponseWriter, r *http.Request) {
	owner, err := parseAddress(chi.URLParam(r, "address"))
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	position, ok, err := s.processor.LockPosition(owner)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !ok {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "lock position not found"})
		return
	}
	resp := lockQueryResponse{
		Owner:      encodeAddress(position.Owner),
		Amount:     position.Amount,
		UnlockTime: position.UnlockTime,
		LockDays:   position.LockDays,
		Active:     position.Active,
	}
	if position.ReferralSet {
		resp.Referral = encodeAddress(position.Referral)
	}
	s.writeJSON(w, http.StatusOK, resp)
}

type founderSlotResponse struct {
	Slot    int      `json:"slot"`
	Address string   `json:"address"`
	Claimed *big.Int `json:"claimed"`
}

type foundersResponse struct {
	TotalCollected *big.Int              `json:"total_collected"`
	Entitlement    *big.Int              `json:"entitlement"`
	Capacity       int                   `json:"capacity"`
	Founders       []founderSlotResponse `json:"founders"`
}

func (s *Server) handleFoundersQuery(w http.ResponseWriter, r *http.Request) {
	pool, ok, err := s.processor.FounderPool()
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !ok {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "founders pool not initialized"})
		return
	}
	resp := foundersResponse{
		TotalCollected: pool.TotalCollected,
		Entitlement:    pool.Entitlement(),
		Capacity:       founders.Capacity,
		Founders:       make([]founderSlotResponse, 0, len(pool.Founders)),
	}
	for i, founder := range pool.Founders {
		resp.Founders = append(resp.Founders, founderSlotResponse{
			Slot:    i,
			Address: encodeAddress(founder),
			Claimed: pool.Claimed[i],
		})
	}
	s.writeJSON(w, http.StatusOK, resp)
}
