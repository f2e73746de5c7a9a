package store

import (
	"sync"

	"github.com/efreitasn/nftmarket/internal/domain"
)

// TradeStore is a thread-safe in-memory store for settled trades, with a
// chronological index by token and a secondary index by account (seller
// and buyer). Trades are append-only.
type TradeStore struct {
	mu        sync.RWMutex
	byToken   map[domain.TokenID][]*domain.Trade   // token → trades (chronological)
	byAccount map[domain.AccountID][]*domain.Trade // account → trades (chronological)
}

// NewTradeStore creates an empty TradeStore.
func NewTradeStore() *TradeStore {
	return &TradeStore{
		byToken:   make(map[domain.TokenID][]*domain.Trade),
		byAccount: make(map[domain.AccountID][]*domain.Trade),
	}
}

// Append records a trade under its token, its seller, and its buyer.
func (s *TradeStore) Append(t *domain.Trade) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byToken[t.TokenID] = append(s.byToken[t.TokenID], t)
	s.byAccount[t.Seller] = append(s.byAccount[t.Seller], t)
	if t.Buyer != t.Seller {
		s.byAccount[t.Buyer] = append(s.byAccount[t.Buyer], t)
	}
}

// GetByToken returns all trades for a token in chronological order.
// Returns an empty slice if the token never traded.
func (s *TradeStore) GetByToken(id domain.TokenID) []*domain.Trade {
	s.mu.RLock()
	defer s.mu.RUnlock()

	trades := s.byToken[id]
	if trades == nil {
		return []*domain.Trade{}
	}

	// Return a copy to avoid callers mutating the internal slice.
	result := make([]*domain.Trade, len(trades))
	copy(result, trades)
	return result
}

// ListByAccount returns trades the account took part in, newest first.
// Pagination is 1-based. Returns the trades for the requested page and the
// total count before pagination.
func (s *TradeStore) ListByAccount(account domain.AccountID, page, limit int) ([]*domain.Trade, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.byAccount[account]
	total := len(all)

	start := (page - 1) * limit
	if start >= total {
		return []*domain.Trade{}, total
	}
	end := start + limit
	if end > total {
		end = total
	}

	result := make([]*domain.Trade, 0, end-start)
	for i := total - 1 - start; i > total-1-end; i-- {
		result = append(result, all[i])
	}
	return result, total
}
