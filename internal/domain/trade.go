package domain

import (
	"time"

	"github.com/holiman/uint256"
)

// Trade records a settled sale of a listed token.
type Trade struct {
	TradeID    string
	Seller     AccountID
	Buyer      AccountID
	TokenID    TokenID
	Price      *uint256.Int // base units
	ExecutedAt time.Time
}
