package store

import (
	"sync"
	"testing"
	"time"

	"github.com/holiman/uint256"

	"github.com/efreitasn/nftmarket/internal/domain"
)

func newTestAccount(id domain.AccountID, balance uint64) *domain.Account {
	return &domain.Account{
		ID:        id,
		Balance:   uint256.NewInt(balance),
		CreatedAt: time.Now(),
	}
}

func TestAccountStore_Create(t *testing.T) {
	s := NewAccountStore()
	a := newTestAccount(testAccount(1), 1000)

	if err := s.Create(a); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := s.Create(a); err != domain.ErrAccountAlreadyExists {
		t.Fatalf("expected ErrAccountAlreadyExists, got %v", err)
	}
}

// balanceOf returns id's balance, zero for unknown accounts.
func balanceOf(s *AccountStore, id domain.AccountID) *uint256.Int {
	a, err := s.Get(id)
	if err != nil {
		return new(uint256.Int)
	}
	return a.Balance
}

func TestAccountStore_Get(t *testing.T) {
	s := NewAccountStore()
	_ = s.Create(newTestAccount(testAccount(1), 1000))

	got, err := s.Get(testAccount(1))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got.Balance.Uint64() != 1000 {
		t.Fatalf("expected balance 1000, got %s", got.Balance.Dec())
	}

	// Mutating the copy must not leak into the store.
	got.Balance.SetUint64(1)
	if balanceOf(s, testAccount(1)).Uint64() != 1000 {
		t.Fatal("Get should return a copy of the balance")
	}

	if _, err := s.Get(testAccount(2)); err != domain.ErrAccountNotFound {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}


func TestAccountStore_Transfer(t *testing.T) {
	s := NewAccountStore()
	_ = s.Create(newTestAccount(testAccount(1), 1000))

	if err := s.Transfer(testAccount(1), testAccount(2), uint256.NewInt(400)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := balanceOf(s, testAccount(1)).Uint64(); got != 600 {
		t.Errorf("sender balance = %d, want 600", got)
	}
	if got := balanceOf(s, testAccount(2)).Uint64(); got != 400 {
		t.Errorf("recipient balance = %d, want 400", got)
	}
	if _, err := s.Get(testAccount(2)); err != nil {
		t.Error("recipient should be created implicitly")
	}
}

func TestAccountStore_Transfer_InsufficientBalance(t *testing.T) {
	s := NewAccountStore()
	_ = s.Create(newTestAccount(testAccount(1), 100))

	err := s.Transfer(testAccount(1), testAccount(2), uint256.NewInt(101))
	if err != domain.ErrInsufficientBalance {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if got := balanceOf(s, testAccount(1)).Uint64(); got != 100 {
		t.Errorf("sender balance changed to %d", got)
	}
	if _, err := s.Get(testAccount(2)); err != domain.ErrAccountNotFound {
		t.Error("failed transfer must not create the recipient")
	}

	// Unknown senders hold nothing.
	if err := s.Transfer(testAccount(3), testAccount(1), uint256.NewInt(1)); err != domain.ErrInsufficientBalance {
		t.Fatalf("expected ErrInsufficientBalance from unknown sender, got %v", err)
	}
}

func TestAccountStore_Transfer_Overflow(t *testing.T) {
	s := NewAccountStore()
	max := new(uint256.Int).SetAllOne()
	_ = s.Create(&domain.Account{ID: testAccount(1), Balance: uint256.NewInt(10)})
	_ = s.Create(&domain.Account{ID: testAccount(2), Balance: max})

	err := s.Transfer(testAccount(1), testAccount(2), uint256.NewInt(1))
	if err != domain.ErrBalanceOverflow {
		t.Fatalf("expected ErrBalanceOverflow, got %v", err)
	}
	if got := balanceOf(s, testAccount(1)).Uint64(); got != 10 {
		t.Errorf("sender balance changed to %d", got)
	}
	if !balanceOf(s, testAccount(2)).Eq(max) {
		t.Error("recipient balance changed")
	}
}

func TestAccountStore_Transfer_ZeroAndSelf(t *testing.T) {
	s := NewAccountStore()
	_ = s.Create(newTestAccount(testAccount(1), 50))

	if err := s.Transfer(testAccount(7), testAccount(8), uint256.NewInt(0)); err != nil {
		t.Fatalf("zero transfer from unknown account should succeed, got %v", err)
	}
	if err := s.Transfer(testAccount(1), testAccount(1), uint256.NewInt(50)); err != nil {
		t.Fatalf("self transfer should succeed, got %v", err)
	}
	if got := balanceOf(s, testAccount(1)).Uint64(); got != 50 {
		t.Errorf("self transfer changed balance to %d", got)
	}
}

func TestAccountStore_ConcurrentTransfers(t *testing.T) {
	s := NewAccountStore()
	_ = s.Create(newTestAccount(testAccount(1), 1000))
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = s.Transfer(testAccount(1), testAccount(2+n%5), uint256.NewInt(10))
		}(i)
	}
	wg.Wait()

	total := balanceOf(s, testAccount(1)).Uint64()
	for i := 0; i < 5; i++ {
		total += balanceOf(s, testAccount(2 + i)).Uint64()
	}
	if total != 1000 {
		t.Fatalf("total supply changed: %d", total)
	}
	if !balanceOf(s, testAccount(1)).IsZero() {
		t.Fatalf("expected sender drained, got %s", balanceOf(s, testAccount(1)).Dec())
	}
}
