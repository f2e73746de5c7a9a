package domain

import "github.com/holiman/uint256"

// Listing is an owner's published ask for a single token.
type Listing struct {
	TokenID TokenID
	Price   *uint256.Int // base units
}
