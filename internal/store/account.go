package store

import (
	"sync"
	"time"

	"github.com/holiman/uint256"

	"github.com/efreitasn/nftmarket/internal/domain"
)

// AccountStore is a thread-safe in-memory native currency bank, keyed by
// account id. Accounts that were never registered hold a zero balance and
// are created implicitly when they receive funds.
type AccountStore struct {
	mu       sync.RWMutex
	accounts map[domain.AccountID]*domain.Account
}

// NewAccountStore creates an empty AccountStore.
func NewAccountStore() *AccountStore {
	return &AccountStore{
		accounts: make(map[domain.AccountID]*domain.Account),
	}
}

// Create adds an account to the store. It returns
// domain.ErrAccountAlreadyExists if the account already exists, including
// accounts created implicitly by an incoming transfer.
func (s *AccountStore) Create(a *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[a.ID]; exists {
		return domain.ErrAccountAlreadyExists
	}
	stored := *a
	if stored.Balance == nil {
		stored.Balance = new(uint256.Int)
	} else {
		stored.Balance = stored.Balance.Clone()
	}
	s.accounts[a.ID] = &stored
	return nil
}

// Get retrieves a copy of an account. It returns
// domain.ErrAccountNotFound if the account does not exist.
func (s *AccountStore) Get(id domain.AccountID) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	cp := *a
	cp.Balance = a.Balance.Clone()
	return &cp, nil
}

// Transfer moves amount from one account to another atomically. It
// returns domain.ErrInsufficientBalance when from cannot cover amount and
// domain.ErrBalanceOverflow when crediting to would overflow; in both
// cases no balance changes.
func (s *AccountStore) Transfer(from, to domain.AccountID, amount *uint256.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	src := s.accounts[from]
	srcBalance := new(uint256.Int)
	if src != nil {
		srcBalance = src.Balance
	}
	if srcBalance.Lt(amount) {
		return domain.ErrInsufficientBalance
	}
	if from == to || amount.IsZero() {
		return nil
	}

	dst := s.accounts[to]
	dstBalance := new(uint256.Int)
	if dst != nil {
		dstBalance = dst.Balance
	}
	credited, overflow := new(uint256.Int).AddOverflow(dstBalance, amount)
	if overflow {
		return domain.ErrBalanceOverflow
	}

	src.Balance = new(uint256.Int).Sub(srcBalance, amount)
	if dst == nil {
		dst = &domain.Account{ID: to, CreatedAt: time.Now()}
		s.accounts[to] = dst
	}
	dst.Balance = credited
	return nil
}
