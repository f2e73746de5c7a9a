package service

import (
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/holiman/uint256"

	"github.com/efreitasn/nftmarket/internal/domain"
	"github.com/efreitasn/nftmarket/internal/engine"
	"github.com/efreitasn/nftmarket/internal/events"
	"github.com/efreitasn/nftmarket/internal/store"
)

const testDecimals = 12

var contractAddress = testAccount(1000)

func testAccount(n int) domain.AccountID {
	id, err := domain.ParseAccountID(fmt.Sprintf("0x%040x", n+1))
	if err != nil {
		panic(err)
	}
	return id
}

// balanceOf returns id's balance, zero for unknown accounts.
func balanceOf(s *store.AccountStore, id domain.AccountID) *uint256.Int {
	a, err := s.Get(id)
	if err != nil {
		return new(uint256.Int)
	}
	return a.Balance
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testEnv struct {
	contract *engine.Contract
	accounts *store.AccountStore
	trades   *store.TradeStore
}

// newTestEnv wires a contract with trade recording and no genesis token.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	accounts := store.NewAccountStore()
	trades := store.NewTradeStore()
	c, err := engine.NewContract(
		engine.ContractConfig{Address: contractAddress},
		accounts,
		store.NewListingStore(),
		events.NewTradeRecorder(trades),
		discardLogger(),
	)
	if err != nil {
		t.Fatalf("new contract: %v", err)
	}
	return &testEnv{contract: c, accounts: accounts, trades: trades}
}
