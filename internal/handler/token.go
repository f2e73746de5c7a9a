package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/efreitasn/nftmarket/internal/domain"
	"github.com/efreitasn/nftmarket/internal/service"
)

// TokenHandler handles HTTP requests for token ownership endpoints.
type TokenHandler struct {
	tokenSvc *service.TokenService
	decimals int32
}

// NewTokenHandler creates a new TokenHandler.
func NewTokenHandler(tokenSvc *service.TokenService, decimals int32) *TokenHandler {
	return &TokenHandler{tokenSvc: tokenSvc, decimals: decimals}
}

type mintRequest struct {
	TokenID string `json:"token_id"`
	To      string `json:"to"`
}

type transferRequest struct {
	To string `json:"to"`
}

type approveRequest struct {
	Operator string `json:"operator"`
	Approved bool   `json:"approved"`
}

// tokenResponse is the JSON shape of a token. Price is null when the token
// is not listed.
type tokenResponse struct {
	TokenID string  `json:"token_id"`
	Owner   string  `json:"owner"`
	Price   *string `json:"price"`
}

// supplyResponse is the JSON response for GET /tokens. Index and TokenID
// are only set when an index is requested.
type supplyResponse struct {
	TotalSupply int     `json:"total_supply"`
	Index       *int    `json:"index,omitempty"`
	TokenID     *string `json:"token_id,omitempty"`
}

type allowanceResponse struct {
	TokenID  string `json:"token_id"`
	Owner    string `json:"owner"`
	Operator string `json:"operator"`
	Allowed  bool   `json:"allowed"`
}

// queryIndex reads the optional index query parameter. present is false
// when the parameter is absent.
func queryIndex(r *http.Request) (index int, present bool, err error) {
	raw := r.URL.Query().Get("index")
	if raw == "" {
		return 0, false, nil
	}
	index, err = strconv.Atoi(raw)
	if err != nil || index < 0 {
		return 0, true, &domain.ValidationError{Message: "index must be a non-negative integer"}
	}
	return index, true, nil
}

func (h *TokenHandler) buildTokenResponse(t *service.TokenResponse) tokenResponse {
	resp := tokenResponse{TokenID: t.TokenID.String(), Owner: t.Owner.Hex()}
	if t.Price != nil {
		price := domain.FormatAmount(t.Price, h.decimals)
		resp.Price = &price
	}
	return resp
}

// Mint handles POST /tokens.
func (h *TokenHandler) Mint(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	var req mintRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	token, err := h.tokenSvc.Mint(r.Context(), caller, service.MintRequest{TokenID: req.TokenID, To: req.To})
	if err != nil {
		mapError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, h.buildTokenResponse(token))
}

// Get handles GET /tokens/{token_id}.
func (h *TokenHandler) Get(w http.ResponseWriter, r *http.Request) {
	token, err := h.tokenSvc.Get(chi.URLParam(r, "token_id"))
	if err != nil {
		mapError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, h.buildTokenResponse(token))
}

// Supply handles GET /tokens. With ?index=N it also returns the N-th
// existing token in id order.
func (h *TokenHandler) Supply(w http.ResponseWriter, r *http.Request) {
	index, present, err := queryIndex(r)
	if err != nil {
		mapError(w, err)
		return
	}
	if !present {
		WriteJSON(w, http.StatusOK, supplyResponse{TotalSupply: h.tokenSvc.TotalSupply()})
		return
	}

	id, supply, err := h.tokenSvc.TokenByIndex(index)
	if err != nil {
		mapError(w, err)
		return
	}
	tokenID := id.String()
	WriteJSON(w, http.StatusOK, supplyResponse{TotalSupply: supply, Index: &index, TokenID: &tokenID})
}

// Allowance handles GET /tokens/{token_id}/allowance?owner=&operator=.
func (h *TokenHandler) Allowance(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	id, owner, operator, allowed, err := h.tokenSvc.Allowance(chi.URLParam(r, "token_id"), q.Get("owner"), q.Get("operator"))
	if err != nil {
		mapError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, allowanceResponse{
		TokenID:  id.String(),
		Owner:    owner.Hex(),
		Operator: operator.Hex(),
		Allowed:  allowed,
	})
}

// Transfer handles POST /tokens/{token_id}/transfer.
func (h *TokenHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	var req transferRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	tokenID := chi.URLParam(r, "token_id")
	if err := h.tokenSvc.Transfer(r.Context(), caller, tokenID, req.To); err != nil {
		mapError(w, err)
		return
	}

	token, err := h.tokenSvc.Get(tokenID)
	if err != nil {
		mapError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, h.buildTokenResponse(token))
}

// Approve handles POST /tokens/{token_id}/approve.
func (h *TokenHandler) Approve(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	var req approveRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	if err := h.tokenSvc.Approve(r.Context(), caller, chi.URLParam(r, "token_id"), req.Operator, req.Approved); err != nil {
		mapError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetOperator handles POST /operators, granting or revoking approval over
// all of the caller's tokens.
func (h *TokenHandler) SetOperator(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	var req approveRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	if err := h.tokenSvc.SetOperator(r.Context(), caller, req.Operator, req.Approved); err != nil {
		mapError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Burn handles DELETE /tokens/{token_id}.
func (h *TokenHandler) Burn(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	if err := h.tokenSvc.Burn(r.Context(), caller, chi.URLParam(r, "token_id")); err != nil {
		mapError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
