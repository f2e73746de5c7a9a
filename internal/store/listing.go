package store

import (
	"sort"
	"sync"

	"github.com/holiman/uint256"

	"github.com/efreitasn/nftmarket/internal/domain"
)

// ListingStore is a thread-safe in-memory map of token id to ask price.
// A token is listed exactly when it has an entry. Prices are copied on
// the way in and out.
type ListingStore struct {
	mu   sync.RWMutex
	asks map[domain.TokenID]*uint256.Int
}

// NewListingStore creates an empty ListingStore.
func NewListingStore() *ListingStore {
	return &ListingStore{
		asks: make(map[domain.TokenID]*uint256.Int),
	}
}

// Put sets or overwrites the ask price for a token.
func (s *ListingStore) Put(id domain.TokenID, price *uint256.Int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.asks[id] = price.Clone()
}

// Get returns the ask price for a token and whether it is listed.
func (s *ListingStore) Get(id domain.TokenID) (*uint256.Int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	price, ok := s.asks[id]
	if !ok {
		return nil, false
	}
	return price.Clone(), true
}

// Has reports whether the token is listed.
func (s *ListingStore) Has(id domain.TokenID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.asks[id]
	return ok
}

// Delete removes a token's listing. It returns false if there was none.
func (s *ListingStore) Delete(id domain.TokenID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.asks[id]; !ok {
		return false
	}
	delete(s.asks, id)
	return true
}

// All returns every listing ordered by token id.
func (s *ListingStore) All() []domain.Listing {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Listing, 0, len(s.asks))
	for id, price := range s.asks {
		result = append(result, domain.Listing{TokenID: id, Price: price.Clone()})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].TokenID.Less(result[j].TokenID)
	})
	return result
}
