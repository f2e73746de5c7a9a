package handler

import (
	"errors"
	"net/http"

	"github.com/efreitasn/nftmarket/internal/domain"
)

const timeLayout = "2006-01-02T15:04:05Z"

// callerHeader carries the hex address of the account invoking a message.
const callerHeader = "X-Caller"

// callerFrom returns the invoking account. When the header is missing or
// malformed it writes a 401 response and returns false.
func callerFrom(w http.ResponseWriter, r *http.Request) (domain.AccountID, bool) {
	raw := r.Header.Get(callerHeader)
	if raw == "" {
		WriteError(w, http.StatusUnauthorized, "invalid_caller", callerHeader+" header is required")
		return domain.AccountID{}, false
	}
	id, err := domain.ParseAccountID(raw)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "invalid_caller", err.Error())
		return domain.AccountID{}, false
	}
	return id, true
}

// mapError maps domain errors to HTTP responses. The error code is the
// sentinel's text.
func mapError(w http.ResponseWriter, err error) {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		WriteError(w, http.StatusBadRequest, "validation_error", validationErr.Message)
		return
	}

	switch {
	case errors.Is(err, domain.ErrTokenNotFound):
		WriteError(w, http.StatusNotFound, domain.ErrTokenNotFound.Error(), "Token does not exist")
	case errors.Is(err, domain.ErrAccountNotFound):
		WriteError(w, http.StatusNotFound, domain.ErrAccountNotFound.Error(), "Account does not exist")
	case errors.Is(err, domain.ErrWebhookNotFound):
		WriteError(w, http.StatusNotFound, domain.ErrWebhookNotFound.Error(), "Webhook does not exist")

	case errors.Is(err, domain.ErrNotTokenOwner):
		WriteError(w, http.StatusForbidden, domain.ErrNotTokenOwner.Error(), "Caller does not own the token")
	case errors.Is(err, domain.ErrNotApproved):
		WriteError(w, http.StatusForbidden, domain.ErrNotApproved.Error(), "Caller is neither the owner nor approved")

	case errors.Is(err, domain.ErrOwnToken):
		WriteError(w, http.StatusConflict, domain.ErrOwnToken.Error(), "Caller already owns the token")
	case errors.Is(err, domain.ErrTokenNotInSale):
		WriteError(w, http.StatusConflict, domain.ErrTokenNotInSale.Error(), "Token is not listed for sale")
	case errors.Is(err, domain.ErrNotInSale):
		WriteError(w, http.StatusConflict, domain.ErrNotInSale.Error(), "Token is not listed for sale")
	case errors.Is(err, domain.ErrTokenInSale):
		WriteError(w, http.StatusConflict, domain.ErrTokenInSale.Error(), "Token is listed for sale and cannot be moved")
	case errors.Is(err, domain.ErrTokenExists):
		WriteError(w, http.StatusConflict, domain.ErrTokenExists.Error(), "Token already exists")
	case errors.Is(err, domain.ErrAccountAlreadyExists):
		WriteError(w, http.StatusConflict, domain.ErrAccountAlreadyExists.Error(), "Account already exists")

	case errors.Is(err, domain.ErrPaymentTransferFailed):
		WriteError(w, http.StatusUnprocessableEntity, domain.ErrPaymentTransferFailed.Error(), "Payment to the seller could not be completed")
	case errors.Is(err, domain.ErrPriceMismatch):
		WriteError(w, http.StatusUnprocessableEntity, domain.ErrPriceMismatch.Error(), "Payment must equal the ask price")
	case errors.Is(err, domain.ErrInsufficientBalance):
		WriteError(w, http.StatusUnprocessableEntity, domain.ErrInsufficientBalance.Error(), "Insufficient balance for the payment")

	case errors.Is(err, domain.ErrSelfApprove):
		WriteError(w, http.StatusBadRequest, domain.ErrSelfApprove.Error(), "An account cannot approve itself")

	default:
		WriteError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}
