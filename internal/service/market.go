package service

import (
	"context"

	"github.com/holiman/uint256"

	"github.com/efreitasn/nftmarket/internal/domain"
	"github.com/efreitasn/nftmarket/internal/engine"
	"github.com/efreitasn/nftmarket/internal/store"
)

// MarketService handles listing, purchase and trade history requests.
type MarketService struct {
	contract *engine.Contract
	trades   *store.TradeStore
	decimals int32
}

// NewMarketService creates a new MarketService.
func NewMarketService(contract *engine.Contract, trades *store.TradeStore, decimals int32) *MarketService {
	return &MarketService{
		contract: contract,
		trades:   trades,
		decimals: decimals,
	}
}

// Ask lists the caller's token at price, a human decimal amount, and
// returns the listing under the token's canonical id.
func (s *MarketService) Ask(ctx context.Context, caller domain.AccountID, tokenID, price string) (*domain.Listing, error) {
	id, err := parseTokenID(tokenID)
	if err != nil {
		return nil, err
	}
	amount, err := parseAmount("price", price, s.decimals)
	if err != nil {
		return nil, err
	}
	if err := s.contract.Ask(ctx, caller, id, amount); err != nil {
		return nil, err
	}
	return &domain.Listing{TokenID: id, Price: amount}, nil
}

// Cancel removes the caller's listing.
func (s *MarketService) Cancel(ctx context.Context, caller domain.AccountID, tokenID string) error {
	id, err := parseTokenID(tokenID)
	if err != nil {
		return err
	}
	return s.contract.Cancel(ctx, caller, id)
}

// Buy purchases a listed token. payment is the attached amount and must
// equal the ask price exactly.
func (s *MarketService) Buy(ctx context.Context, caller domain.AccountID, tokenID, payment string) (*domain.Trade, error) {
	id, err := parseTokenID(tokenID)
	if err != nil {
		return nil, err
	}
	paid, err := parseAmount("payment", payment, s.decimals)
	if err != nil {
		return nil, err
	}
	return s.contract.Buy(ctx, caller, id, paid)
}

// Price returns the canonical token id and its ask price, or a nil price
// when the token is not listed.
func (s *MarketService) Price(tokenID string) (domain.TokenID, *uint256.Int, error) {
	id, err := parseTokenID(tokenID)
	if err != nil {
		return domain.TokenID{}, nil, err
	}
	return id, s.contract.Price(id), nil
}

// Listings returns every current listing ordered by token id.
func (s *MarketService) Listings() []domain.Listing {
	return s.contract.Listings()
}

// TradesByToken returns a token's trades in chronological order.
func (s *MarketService) TradesByToken(tokenID string) ([]*domain.Trade, error) {
	id, err := parseTokenID(tokenID)
	if err != nil {
		return nil, err
	}
	return s.trades.GetByToken(id), nil
}

// TradesByAccount returns the trades an account took part in, newest
// first, with the total count before pagination.
func (s *MarketService) TradesByAccount(account string, page, limit int) ([]*domain.Trade, int, error) {
	id, err := parseAccount("account", account)
	if err != nil {
		return nil, 0, err
	}
	if page < 1 {
		return nil, 0, &domain.ValidationError{Message: "page must be >= 1"}
	}
	if limit < 1 || limit > 100 {
		return nil, 0, &domain.ValidationError{Message: "limit must be between 1 and 100"}
	}
	trades, total := s.trades.ListByAccount(id, page, limit)
	return trades, total, nil
}
