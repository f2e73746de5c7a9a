package store

import (
	"sort"
	"sync"

	"github.com/efreitasn/nftmarket/internal/domain"
)

// WebhookStore is a thread-safe in-memory store for webhook subscriptions.
// Subscriptions are indexed by id and by event type then account, so a
// committed event resolves its subscribers with one lookup per party.
// Reads hand out copies; a subscription whose URL changes is never
// mutated under a delivery that already holds it.
type WebhookStore struct {
	mu      sync.RWMutex
	byID    map[string]*domain.Webhook
	byEvent map[domain.EventType]map[domain.AccountID]*domain.Webhook
}

// NewWebhookStore creates an empty WebhookStore.
func NewWebhookStore() *WebhookStore {
	return &WebhookStore{
		byID:    make(map[string]*domain.Webhook),
		byEvent: make(map[domain.EventType]map[domain.AccountID]*domain.Webhook),
	}
}

// Upsert stores the subscription for (w.Account, w.Event). An existing
// subscription keeps its id and is replaced with a refreshed copy when the
// URL changed. It returns the stored subscription and whether it is new.
func (s *WebhookStore) Upsert(w *domain.Webhook) (*domain.Webhook, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts := s.byEvent[w.Event]
	if existing, ok := accounts[w.Account]; ok {
		if existing.URL != w.URL {
			updated := *existing
			updated.URL = w.URL
			updated.UpdatedAt = w.UpdatedAt
			accounts[w.Account] = &updated
			s.byID[updated.WebhookID] = &updated
			existing = &updated
		}
		cp := *existing
		return &cp, false
	}

	stored := *w
	if accounts == nil {
		accounts = make(map[domain.AccountID]*domain.Webhook)
		s.byEvent[w.Event] = accounts
	}
	accounts[w.Account] = &stored
	s.byID[stored.WebhookID] = &stored

	cp := stored
	return &cp, true
}

// Get retrieves a subscription by id. It returns domain.ErrWebhookNotFound
// if the subscription does not exist.
func (s *WebhookStore) Get(id string) (*domain.Webhook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrWebhookNotFound
	}
	cp := *w
	return &cp, nil
}

// ListByAccount returns the account's subscriptions ordered by event type.
// Returns an empty slice if the account has none.
func (s *WebhookStore) ListByAccount(account domain.AccountID) []*domain.Webhook {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []*domain.Webhook{}
	for _, accounts := range s.byEvent {
		if w, ok := accounts[account]; ok {
			cp := *w
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Event < result[j].Event })
	return result
}

// Subscribers returns the subscriptions to event held by any of accounts,
// in the order the accounts are given.
func (s *WebhookStore) Subscribers(event domain.EventType, accounts []domain.AccountID) []*domain.Webhook {
	s.mu.RLock()
	defer s.mu.RUnlock()

	subscribed := s.byEvent[event]
	if len(subscribed) == 0 {
		return nil
	}

	var result []*domain.Webhook
	for _, account := range accounts {
		if w, ok := subscribed[account]; ok {
			cp := *w
			result = append(result, &cp)
		}
	}
	return result
}

// Delete removes a subscription by id from both indexes. It returns
// domain.ErrWebhookNotFound if the subscription does not exist.
func (s *WebhookStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.byID[id]
	if !ok {
		return domain.ErrWebhookNotFound
	}
	delete(s.byID, id)

	accounts := s.byEvent[w.Event]
	delete(accounts, w.Account)
	if len(accounts) == 0 {
		delete(s.byEvent, w.Event)
	}
	return nil
}
