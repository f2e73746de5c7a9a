package store

import (
	"fmt"

	"github.com/efreitasn/nftmarket/internal/domain"
)

// testAccount returns a deterministic non-zero account id for n.
func testAccount(n int) domain.AccountID {
	id, err := domain.ParseAccountID(fmt.Sprintf("0x%040x", n+1))
	if err != nil {
		panic(err)
	}
	return id
}
