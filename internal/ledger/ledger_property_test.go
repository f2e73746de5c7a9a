package ledger

import (
	"errors"
	"testing"

	"pgregory.net/rapid"

	"github.com/efreitasn/nftmarket/internal/domain"
)

// Random mint/move/burn sequences keep the owner map, the per-owner
// indexes and the global index consistent, and a guarded token never
// changes hands.
func TestProperty_IndexesStayConsistent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		l := New(nil)
		guard := &blockGuard{blocked: make(map[domain.TokenID]bool)}
		l.SetTransferGuard(guard)

		accounts := []domain.AccountID{testAccount(1), testAccount(2), testAccount(3)}
		genAccount := rapid.SampledFrom(accounts)
		genToken := rapid.Custom(func(t *rapid.T) domain.TokenID {
			return domain.U8(uint8(rapid.IntRange(0, 15).Draw(t, "id")))
		})

		expected := make(map[domain.TokenID]domain.AccountID)

		t.Repeat(map[string]func(*rapid.T){
			"mint": func(t *rapid.T) {
				to := genAccount.Draw(t, "to")
				id := genToken.Draw(t, "token")
				err := l.Mint(to, id)
				if _, exists := expected[id]; exists {
					if !errors.Is(err, domain.ErrTokenExists) {
						t.Fatalf("expected ErrTokenExists, got %v", err)
					}
					return
				}
				if guard.blocked[id] {
					if !errors.Is(err, domain.ErrTokenInSale) {
						t.Fatalf("guarded mint: expected ErrTokenInSale, got %v", err)
					}
					return
				}
				if err != nil {
					t.Fatalf("mint: %v", err)
				}
				expected[id] = to
			},
			"move": func(t *rapid.T) {
				id := genToken.Draw(t, "token")
				to := genAccount.Draw(t, "to")
				owner, exists := expected[id]
				if !exists {
					return
				}
				err := l.Move(owner, to, id)
				if guard.blocked[id] {
					if !errors.Is(err, domain.ErrTokenInSale) {
						t.Fatalf("guarded move: expected ErrTokenInSale, got %v", err)
					}
					return
				}
				if err != nil {
					t.Fatalf("move: %v", err)
				}
				expected[id] = to
			},
			"burn": func(t *rapid.T) {
				id := genToken.Draw(t, "token")
				owner, exists := expected[id]
				if !exists {
					return
				}
				err := l.Burn(owner, id)
				if guard.blocked[id] {
					if !errors.Is(err, domain.ErrTokenInSale) {
						t.Fatalf("guarded burn: expected ErrTokenInSale, got %v", err)
					}
					return
				}
				if err != nil {
					t.Fatalf("burn: %v", err)
				}
				delete(expected, id)
			},
			"toggleGuard": func(t *rapid.T) {
				id := genToken.Draw(t, "token")
				guard.blocked[id] = !guard.blocked[id]
			},
			"": func(t *rapid.T) {
				if l.TotalSupply() != len(expected) {
					t.Fatalf("supply %d, expected %d", l.TotalSupply(), len(expected))
				}
				total := 0
				for _, acc := range accounts {
					tokens := l.TokensOf(acc)
					if len(tokens) != l.BalanceOf(acc) {
						t.Fatalf("TokensOf and BalanceOf disagree for %s", acc.Hex())
					}
					for i, id := range tokens {
						if expected[id] != acc {
							t.Fatalf("token %s indexed under %s but owned by %s", id, acc.Hex(), expected[id].Hex())
						}
						if i > 0 && !tokens[i-1].Less(id) {
							t.Fatalf("tokens of %s not ordered: %s before %s", acc.Hex(), tokens[i-1], id)
						}
					}
					total += len(tokens)
				}
				if total != len(expected) {
					t.Fatalf("per-owner indexes hold %d tokens, expected %d", total, len(expected))
				}
				for id, want := range expected {
					got, ok := l.OwnerOf(id)
					if !ok || got != want {
						t.Fatalf("OwnerOf(%s) = %s, %v; expected %s", id, got.Hex(), ok, want.Hex())
					}
				}
			},
		})
	})
}
