package domain

import "errors"

// Sentinel errors for domain-level error handling.
// The handler layer maps these to HTTP status codes.
var (
	// Listing market.
	ErrTokenNotFound         = errors.New("token_not_found")
	ErrNotTokenOwner         = errors.New("not_token_owner")
	ErrOwnToken              = errors.New("own_token")
	ErrTokenNotInSale        = errors.New("token_not_in_sale")
	ErrNotInSale             = errors.New("not_in_sale")
	ErrPriceMismatch         = errors.New("price_mismatch")
	ErrPaymentTransferFailed = errors.New("payment_transfer_failed")
	ErrTokenInSale           = errors.New("token_in_sale")

	// Token ledger.
	ErrTokenExists = errors.New("token_exists")
	ErrNotApproved = errors.New("not_approved")
	ErrSelfApprove = errors.New("self_approve")

	// Native bank.
	ErrAccountAlreadyExists = errors.New("account_already_exists")
	ErrAccountNotFound      = errors.New("account_not_found")
	ErrInsufficientBalance  = errors.New("insufficient_balance")
	ErrBalanceOverflow      = errors.New("balance_overflow")

	ErrWebhookNotFound = errors.New("webhook_not_found")
)

// ValidationError represents a request validation failure.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
