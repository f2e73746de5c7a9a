package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/efreitasn/nftmarket/internal/domain"
	"github.com/efreitasn/nftmarket/internal/service"
)

// AccountHandler handles HTTP requests for account endpoints.
type AccountHandler struct {
	accountSvc *service.AccountService
	decimals   int32
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountSvc *service.AccountService, decimals int32) *AccountHandler {
	return &AccountHandler{accountSvc: accountSvc, decimals: decimals}
}

// registerAccountRequest is the JSON request body for POST /accounts.
type registerAccountRequest struct {
	Address        string `json:"address"`
	InitialBalance string `json:"initial_balance"`
}

// accountResponse is the JSON response for POST /accounts (201 Created).
type accountResponse struct {
	Address   string `json:"address"`
	Balance   string `json:"balance"`
	CreatedAt string `json:"created_at"`
}

// balanceResponse is the JSON response for GET /accounts/{address}/balance.
type balanceResponse struct {
	Address    string `json:"address"`
	Balance    string `json:"balance"`
	TokenCount int    `json:"token_count"`
	CreatedAt  string `json:"created_at"`
}

// tokensResponse is the JSON response for GET /accounts/{address}/tokens.
type tokensResponse struct {
	Address string   `json:"address"`
	Tokens  []string `json:"tokens"`
}

// tokenAtResponse is the JSON response for GET
// /accounts/{address}/tokens?index=N.
type tokenAtResponse struct {
	Address string `json:"address"`
	Index   int    `json:"index"`
	TokenID string `json:"token_id"`
	Balance int    `json:"balance"`
}

// Register handles POST /accounts.
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerAccountRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	account, err := h.accountSvc.Register(service.RegisterAccountRequest{
		Address:        req.Address,
		InitialBalance: req.InitialBalance,
	})
	if err != nil {
		mapError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, accountResponse{
		Address:   account.ID.Hex(),
		Balance:   domain.FormatAmount(account.Balance, h.decimals),
		CreatedAt: account.CreatedAt.UTC().Format(timeLayout),
	})
}

// GetBalance handles GET /accounts/{address}/balance.
func (h *AccountHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := h.accountSvc.GetBalance(chi.URLParam(r, "address"))
	if err != nil {
		mapError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, balanceResponse{
		Address:    balance.Account.Hex(),
		Balance:    domain.FormatAmount(balance.Balance, h.decimals),
		TokenCount: balance.TokenCount,
		CreatedAt:  balance.CreatedAt.UTC().Format(timeLayout),
	})
}

// Tokens handles GET /accounts/{address}/tokens. With ?index=N it returns
// only the N-th held token in id order, plus the holder's token count.
func (h *AccountHandler) Tokens(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")

	index, present, err := queryIndex(r)
	if err != nil {
		mapError(w, err)
		return
	}
	if present {
		owner, id, balance, err := h.accountSvc.TokenByIndex(address, index)
		if err != nil {
			mapError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, tokenAtResponse{
			Address: owner.Hex(),
			Index:   index,
			TokenID: id.String(),
			Balance: balance,
		})
		return
	}

	holder, tokens, err := h.accountSvc.Tokens(address)
	if err != nil {
		mapError(w, err)
		return
	}

	ids := make([]string, len(tokens))
	for i, id := range tokens {
		ids[i] = id.String()
	}
	WriteJSON(w, http.StatusOK, tokensResponse{Address: holder.Hex(), Tokens: ids})
}
