package service

import (
	"time"

	"github.com/holiman/uint256"

	"github.com/efreitasn/nftmarket/internal/domain"
	"github.com/efreitasn/nftmarket/internal/engine"
	"github.com/efreitasn/nftmarket/internal/store"
)

// RegisterAccountRequest represents the input for account registration.
type RegisterAccountRequest struct {
	Address        string
	InitialBalance string // human decimal, optional
}

// BalanceResponse represents the response for the account balance endpoint.
type BalanceResponse struct {
	Account    domain.AccountID
	Balance    *uint256.Int
	TokenCount int
	CreatedAt  time.Time
}

// AccountService handles account registration and balance queries.
type AccountService struct {
	store    *store.AccountStore
	contract *engine.Contract
	decimals int32
}

// NewAccountService creates a new AccountService.
func NewAccountService(store *store.AccountStore, contract *engine.Contract, decimals int32) *AccountService {
	return &AccountService{
		store:    store,
		contract: contract,
		decimals: decimals,
	}
}

// Register validates the request and creates a funded account.
func (s *AccountService) Register(req RegisterAccountRequest) (*domain.Account, error) {
	id, err := parseAccount("address", req.Address)
	if err != nil {
		return nil, err
	}
	if id == s.contract.Address() {
		return nil, &domain.ValidationError{Message: "address must not be the contract address"}
	}

	balance := new(uint256.Int)
	if req.InitialBalance != "" {
		balance, err = parseAmount("initial_balance", req.InitialBalance, s.decimals)
		if err != nil {
			return nil, err
		}
	}

	account := &domain.Account{
		ID:        id,
		Balance:   balance,
		CreatedAt: time.Now(),
	}
	if err := s.store.Create(account); err != nil {
		return nil, err
	}
	return account, nil
}

// GetBalance returns the account's native balance and how many tokens it
// holds, read under the contract lock so a settling purchase is never
// observed half applied.
func (s *AccountService) GetBalance(address string) (*BalanceResponse, error) {
	id, err := parseAccount("address", address)
	if err != nil {
		return nil, err
	}
	account, count, err := s.contract.Account(id)
	if err != nil {
		return nil, err
	}
	return &BalanceResponse{
		Account:    account.ID,
		Balance:    account.Balance,
		TokenCount: count,
		CreatedAt:  account.CreatedAt,
	}, nil
}

// Tokens returns the parsed holder and the tokens it holds, ordered by
// token id.
func (s *AccountService) Tokens(address string) (domain.AccountID, []domain.TokenID, error) {
	id, err := parseAccount("address", address)
	if err != nil {
		return domain.AccountID{}, nil, err
	}
	return id, s.contract.TokensOf(id), nil
}

// TokenByIndex returns the index-th token held by address in id order and
// how many tokens address holds.
func (s *AccountService) TokenByIndex(address string, index int) (domain.AccountID, domain.TokenID, int, error) {
	id, err := parseAccount("address", address)
	if err != nil {
		return domain.AccountID{}, domain.TokenID{}, 0, err
	}
	if index < 0 {
		return domain.AccountID{}, domain.TokenID{}, 0, &domain.ValidationError{Message: "index must be >= 0"}
	}
	token, balance, err := s.contract.OwnersTokenByIndex(id, index)
	if err != nil {
		return domain.AccountID{}, domain.TokenID{}, 0, err
	}
	return id, token, balance, nil
}
