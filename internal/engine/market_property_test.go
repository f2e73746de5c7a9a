package engine

import (
	"errors"
	"testing"

	"github.com/holiman/uint256"
	"pgregory.net/rapid"

	"github.com/efreitasn/nftmarket/internal/domain"
	"github.com/efreitasn/nftmarket/internal/ledger"
	"github.com/efreitasn/nftmarket/internal/store"
)

// marketModel is the reference state the market is checked against.
type marketModel struct {
	owners   map[domain.TokenID]domain.AccountID
	listings map[domain.TokenID]uint64
	balances map[domain.AccountID]uint64
}

// Random sequences of ask, buy, cancel and plain transfers agree with a
// simple model: listed tokens only move through buy, sellers receive
// exactly the ask price, failed messages change nothing, and the total
// amount of native currency is conserved.
func TestProperty_MarketMatchesModel(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		rec := &recorder{}
		l := ledger.New(rec)
		bank := store.NewAccountStore()
		listings := store.NewListingStore()
		m := NewMarket(listings, l, bank, custody, rec)
		l.SetTransferGuard(m)

		accounts := []domain.AccountID{testAccount(1), testAccount(2), testAccount(3)}
		model := marketModel{
			owners:   make(map[domain.TokenID]domain.AccountID),
			listings: make(map[domain.TokenID]uint64),
			balances: make(map[domain.AccountID]uint64),
		}
		const startBalance = 500
		var supply uint64
		for _, acc := range accounts {
			_ = bank.Create(&domain.Account{ID: acc, Balance: uint256.NewInt(startBalance)})
			model.balances[acc] = startBalance
			supply += startBalance
		}
		for i := 0; i < 4; i++ {
			id := domain.U8(uint8(i))
			owner := rapid.SampledFrom(accounts).Draw(t, "owner")
			if err := l.Mint(owner, id); err != nil {
				t.Fatalf("mint: %v", err)
			}
			model.owners[id] = owner
		}

		genAccount := rapid.SampledFrom(accounts)
		genToken := rapid.Custom(func(t *rapid.T) domain.TokenID {
			return domain.U8(uint8(rapid.IntRange(0, 4).Draw(t, "id")))
		})

		t.Repeat(map[string]func(*rapid.T){
			"ask": func(t *rapid.T) {
				caller := genAccount.Draw(t, "caller")
				id := genToken.Draw(t, "token")
				price := rapid.Uint64Range(0, 300).Draw(t, "price")

				err := m.Ask(caller, id, uint256.NewInt(price))
				owner, exists := model.owners[id]
				switch {
				case !exists:
					expectErr(t, err, domain.ErrTokenNotFound)
				case owner != caller:
					expectErr(t, err, domain.ErrNotTokenOwner)
				default:
					if err != nil {
						t.Fatalf("ask: %v", err)
					}
					model.listings[id] = price
				}
			},
			"buy": func(t *rapid.T) {
				caller := genAccount.Draw(t, "caller")
				id := genToken.Draw(t, "token")
				price, listed := model.listings[id]
				paid := rapid.Uint64Range(0, 300).Draw(t, "paid")
				if listed && rapid.Bool().Draw(t, "exact") {
					paid = price
				}

				_, err := m.Buy(caller, id, uint256.NewInt(paid))
				owner, exists := model.owners[id]
				switch {
				case !exists:
					expectErr(t, err, domain.ErrTokenNotFound)
				case owner == caller:
					expectErr(t, err, domain.ErrOwnToken)
				case !listed:
					expectErr(t, err, domain.ErrTokenNotInSale)
				case paid != price:
					expectErr(t, err, domain.ErrPriceMismatch)
				case model.balances[caller] < paid:
					expectErr(t, err, domain.ErrInsufficientBalance)
				default:
					if err != nil {
						t.Fatalf("buy: %v", err)
					}
					model.balances[caller] -= paid
					model.balances[owner] += paid
					model.owners[id] = caller
					delete(model.listings, id)
				}
			},
			"cancel": func(t *rapid.T) {
				caller := genAccount.Draw(t, "caller")
				id := genToken.Draw(t, "token")

				err := m.Cancel(caller, id)
				owner, exists := model.owners[id]
				_, listed := model.listings[id]
				switch {
				case !exists:
					expectErr(t, err, domain.ErrTokenNotFound)
				case owner != caller:
					expectErr(t, err, domain.ErrNotTokenOwner)
				case !listed:
					expectErr(t, err, domain.ErrNotInSale)
				default:
					if err != nil {
						t.Fatalf("cancel: %v", err)
					}
					delete(model.listings, id)
				}
			},
			"transfer": func(t *rapid.T) {
				id := genToken.Draw(t, "token")
				to := genAccount.Draw(t, "to")
				owner, exists := model.owners[id]
				if !exists {
					return
				}

				err := l.Transfer(owner, to, id)
				if _, listed := model.listings[id]; listed {
					expectErr(t, err, domain.ErrTokenInSale)
					return
				}
				if err != nil {
					t.Fatalf("transfer: %v", err)
				}
				model.owners[id] = to
			},
			"": func(t *rapid.T) {
				var total uint64
				for _, acc := range append(accounts, custody) {
					got := balanceOf(bank, acc).Uint64()
					if got != model.balances[acc] {
						t.Fatalf("balance of %s is %d, expected %d", acc.Hex(), got, model.balances[acc])
					}
					total += got
				}
				if total != supply {
					t.Fatalf("native currency not conserved: %d != %d", total, supply)
				}
				for id, want := range model.owners {
					if got, _ := l.OwnerOf(id); got != want {
						t.Fatalf("owner of %s is %s, expected %s", id, got.Hex(), want.Hex())
					}
					p := m.Price(id)
					price, listed := model.listings[id]
					if listed != (p != nil) || (listed && p.Uint64() != price) {
						t.Fatalf("price of %s is %v, expected %d (listed=%v)", id, p, price, listed)
					}
				}
				if n := len(listings.All()); n != len(model.listings) {
					t.Fatalf("%d listings, expected %d", n, len(model.listings))
				}
			},
		})
	})
}

func expectErr(t *rapid.T, got, want error) {
	t.Helper()
	if !errors.Is(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}
