package domain

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// AccountID identifies a participant on both the native bank and the
// token ledger.
type AccountID = common.Address

// ParseAccountID parses a hex encoded account address. The zero address
// is reserved for "no account" and is rejected.
func ParseAccountID(s string) (AccountID, error) {
	if !common.IsHexAddress(s) {
		return AccountID{}, fmt.Errorf("account must be a 20-byte hex address, got %q", s)
	}
	id := common.HexToAddress(s)
	if id == (AccountID{}) {
		return AccountID{}, fmt.Errorf("account must not be the zero address")
	}
	return id, nil
}

// Account holds an account's native currency balance in base units.
type Account struct {
	ID        AccountID
	Balance   *uint256.Int
	CreatedAt time.Time
}
