package service

import (
	"context"

	"github.com/holiman/uint256"

	"github.com/efreitasn/nftmarket/internal/domain"
	"github.com/efreitasn/nftmarket/internal/engine"
)

// MintRequest represents the input for minting a token.
type MintRequest struct {
	TokenID string
	To      string // defaults to the caller
}

// TokenResponse describes a token and its listing.
type TokenResponse struct {
	TokenID domain.TokenID
	Owner   domain.AccountID
	Price   *uint256.Int // nil when not listed
}

// TokenService handles token ledger messages: mint, transfer, approvals
// and burn.
type TokenService struct {
	contract *engine.Contract
}

// NewTokenService creates a new TokenService.
func NewTokenService(contract *engine.Contract) *TokenService {
	return &TokenService{contract: contract}
}

// Mint validates the request and mints the token.
func (s *TokenService) Mint(ctx context.Context, caller domain.AccountID, req MintRequest) (*TokenResponse, error) {
	id, err := parseTokenID(req.TokenID)
	if err != nil {
		return nil, err
	}
	to := caller
	if req.To != "" {
		if to, err = parseAccount("to", req.To); err != nil {
			return nil, err
		}
	}

	if err := s.contract.Mint(ctx, caller, to, id); err != nil {
		return nil, err
	}
	return &TokenResponse{TokenID: id, Owner: to}, nil
}

// Get returns a token's owner and ask price.
func (s *TokenService) Get(tokenID string) (*TokenResponse, error) {
	id, err := parseTokenID(tokenID)
	if err != nil {
		return nil, err
	}
	owner, price, err := s.contract.Token(id)
	if err != nil {
		return nil, err
	}
	return &TokenResponse{TokenID: id, Owner: owner, Price: price}, nil
}

// TokenByIndex returns the index-th existing token in id order along with
// the total supply.
func (s *TokenService) TokenByIndex(index int) (domain.TokenID, int, error) {
	if index < 0 {
		return domain.TokenID{}, 0, &domain.ValidationError{Message: "index must be >= 0"}
	}
	return s.contract.TokenByIndex(index)
}

// TotalSupply returns the number of existing tokens.
func (s *TokenService) TotalSupply() int {
	return s.contract.TotalSupply()
}

// Allowance reports whether operator may move owner's token.
func (s *TokenService) Allowance(tokenID, owner, operator string) (domain.TokenID, domain.AccountID, domain.AccountID, bool, error) {
	id, err := parseTokenID(tokenID)
	if err != nil {
		return domain.TokenID{}, domain.AccountID{}, domain.AccountID{}, false, err
	}
	o, err := parseAccount("owner", owner)
	if err != nil {
		return domain.TokenID{}, domain.AccountID{}, domain.AccountID{}, false, err
	}
	op, err := parseAccount("operator", operator)
	if err != nil {
		return domain.TokenID{}, domain.AccountID{}, domain.AccountID{}, false, err
	}
	if _, ok := s.contract.OwnerOf(id); !ok {
		return domain.TokenID{}, domain.AccountID{}, domain.AccountID{}, false, domain.ErrTokenNotFound
	}
	return id, o, op, s.contract.Allowance(o, op, &id), nil
}

// Transfer moves a token to another account outside the market. Listed
// tokens cannot be transferred.
func (s *TokenService) Transfer(ctx context.Context, caller domain.AccountID, tokenID, to string) error {
	id, err := parseTokenID(tokenID)
	if err != nil {
		return err
	}
	dest, err := parseAccount("to", to)
	if err != nil {
		return err
	}
	return s.contract.Transfer(ctx, caller, dest, id)
}

// Approve grants or revokes operator's right to move a single token.
func (s *TokenService) Approve(ctx context.Context, caller domain.AccountID, tokenID, operator string, approved bool) error {
	id, err := parseTokenID(tokenID)
	if err != nil {
		return err
	}
	op, err := parseAccount("operator", operator)
	if err != nil {
		return err
	}
	return s.contract.Approve(ctx, caller, op, &id, approved)
}

// SetOperator grants or revokes operator's right to move all of the
// caller's tokens.
func (s *TokenService) SetOperator(ctx context.Context, caller domain.AccountID, operator string, approved bool) error {
	op, err := parseAccount("operator", operator)
	if err != nil {
		return err
	}
	return s.contract.Approve(ctx, caller, op, nil, approved)
}

// Burn destroys a token. Listed tokens cannot be burned.
func (s *TokenService) Burn(ctx context.Context, caller domain.AccountID, tokenID string) error {
	id, err := parseTokenID(tokenID)
	if err != nil {
		return err
	}
	return s.contract.Burn(ctx, caller, id)
}
