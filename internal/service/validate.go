package service

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/efreitasn/nftmarket/internal/domain"
)

func parseAccount(field, s string) (domain.AccountID, error) {
	if s == "" {
		return domain.AccountID{}, &domain.ValidationError{Message: field + " is required"}
	}
	id, err := domain.ParseAccountID(s)
	if err != nil {
		return domain.AccountID{}, &domain.ValidationError{Message: fmt.Sprintf("%s: %v", field, err)}
	}
	return id, nil
}

func parseTokenID(s string) (domain.TokenID, error) {
	if s == "" {
		return domain.TokenID{}, &domain.ValidationError{Message: "token_id is required"}
	}
	id, err := domain.ParseTokenID(s)
	if err != nil {
		return domain.TokenID{}, &domain.ValidationError{Message: err.Error()}
	}
	return id, nil
}

func parseAmount(field, s string, decimals int32) (*uint256.Int, error) {
	if s == "" {
		return nil, &domain.ValidationError{Message: field + " is required"}
	}
	v, err := domain.ParseAmount(s, decimals)
	if err != nil {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("%s: %v", field, err)}
	}
	return v, nil
}
