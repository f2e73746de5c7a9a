package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/efreitasn/nftmarket/internal/domain"
	"github.com/efreitasn/nftmarket/internal/service"
)

// MarketHandler handles HTTP requests for listing and settlement endpoints.
type MarketHandler struct {
	marketSvc *service.MarketService
	decimals  int32
}

// NewMarketHandler creates a new MarketHandler.
func NewMarketHandler(marketSvc *service.MarketService, decimals int32) *MarketHandler {
	return &MarketHandler{marketSvc: marketSvc, decimals: decimals}
}

type askRequest struct {
	Price string `json:"price"`
}

type buyRequest struct {
	Payment string `json:"payment"`
}

type priceResponse struct {
	TokenID string  `json:"token_id"`
	Price   *string `json:"price"`
}

type listingResponse struct {
	TokenID string `json:"token_id"`
	Price   string `json:"price"`
}

type listingsResponse struct {
	Listings []listingResponse `json:"listings"`
}

type tradeResponse struct {
	TradeID    string `json:"trade_id"`
	TokenID    string `json:"token_id"`
	Seller     string `json:"seller"`
	Buyer      string `json:"buyer"`
	Price      string `json:"price"`
	ExecutedAt string `json:"executed_at"`
}

// tradeListResponse is the JSON response for GET /trades. Pagination fields
// are only set for account queries.
type tradeListResponse struct {
	Trades []tradeResponse `json:"trades"`
	Total  *int            `json:"total,omitempty"`
	Page   *int            `json:"page,omitempty"`
	Limit  *int            `json:"limit,omitempty"`
}

// Ask handles PUT /tokens/{token_id}/ask.
func (h *MarketHandler) Ask(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	var req askRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	listing, err := h.marketSvc.Ask(r.Context(), caller, chi.URLParam(r, "token_id"), req.Price)
	if err != nil {
		mapError(w, err)
		return
	}

	formatted := domain.FormatAmount(listing.Price, h.decimals)
	WriteJSON(w, http.StatusOK, priceResponse{TokenID: listing.TokenID.String(), Price: &formatted})
}

// Cancel handles DELETE /tokens/{token_id}/ask.
func (h *MarketHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	if err := h.marketSvc.Cancel(r.Context(), caller, chi.URLParam(r, "token_id")); err != nil {
		mapError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Price handles GET /tokens/{token_id}/price. An unlisted token reports a
// null price rather than an error.
func (h *MarketHandler) Price(w http.ResponseWriter, r *http.Request) {
	id, price, err := h.marketSvc.Price(chi.URLParam(r, "token_id"))
	if err != nil {
		mapError(w, err)
		return
	}

	resp := priceResponse{TokenID: id.String()}
	if price != nil {
		formatted := domain.FormatAmount(price, h.decimals)
		resp.Price = &formatted
	}
	WriteJSON(w, http.StatusOK, resp)
}

// Buy handles POST /tokens/{token_id}/buy.
func (h *MarketHandler) Buy(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	var req buyRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	trade, err := h.marketSvc.Buy(r.Context(), caller, chi.URLParam(r, "token_id"), req.Payment)
	if err != nil {
		mapError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, h.buildTradeResponse(trade))
}

// Listings handles GET /listings.
func (h *MarketHandler) Listings(w http.ResponseWriter, r *http.Request) {
	listings := h.marketSvc.Listings()
	resp := listingsResponse{Listings: make([]listingResponse, len(listings))}
	for i, l := range listings {
		resp.Listings[i] = listingResponse{
			TokenID: l.TokenID.String(),
			Price:   domain.FormatAmount(l.Price, h.decimals),
		}
	}
	WriteJSON(w, http.StatusOK, resp)
}

// Trades handles GET /trades. Exactly one of token_id or account must be
// given; account queries are paginated.
func (h *MarketHandler) Trades(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tokenID, account := q.Get("token_id"), q.Get("account")

	switch {
	case tokenID != "" && account != "":
		WriteError(w, http.StatusBadRequest, "validation_error", "token_id and account are mutually exclusive")
	case tokenID != "":
		trades, err := h.marketSvc.TradesByToken(tokenID)
		if err != nil {
			mapError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, tradeListResponse{Trades: h.buildTradeResponses(trades)})
	case account != "":
		page := 1
		if p := q.Get("page"); p != "" {
			v, err := strconv.Atoi(p)
			if err != nil {
				WriteError(w, http.StatusBadRequest, "validation_error", "page must be a positive integer")
				return
			}
			page = v
		}

		limit := 20
		if l := q.Get("limit"); l != "" {
			v, err := strconv.Atoi(l)
			if err != nil {
				WriteError(w, http.StatusBadRequest, "validation_error", "limit must be an integer between 1 and 100")
				return
			}
			limit = v
		}

		trades, total, err := h.marketSvc.TradesByAccount(account, page, limit)
		if err != nil {
			mapError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, tradeListResponse{
			Trades: h.buildTradeResponses(trades),
			Total:  &total,
			Page:   &page,
			Limit:  &limit,
		})
	default:
		WriteError(w, http.StatusBadRequest, "validation_error", "token_id or account query parameter is required")
	}
}

func (h *MarketHandler) buildTradeResponse(t *domain.Trade) tradeResponse {
	return tradeResponse{
		TradeID:    t.TradeID,
		TokenID:    t.TokenID.String(),
		Seller:     t.Seller.Hex(),
		Buyer:      t.Buyer.Hex(),
		Price:      domain.FormatAmount(t.Price, h.decimals),
		ExecutedAt: t.ExecutedAt.UTC().Format(timeLayout),
	}
}

func (h *MarketHandler) buildTradeResponses(trades []*domain.Trade) []tradeResponse {
	result := make([]tradeResponse, len(trades))
	for i, t := range trades {
		result[i] = h.buildTradeResponse(t)
	}
	return result
}
