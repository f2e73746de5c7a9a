package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/holiman/uint256"

	"github.com/efreitasn/nftmarket/internal/domain"
	"github.com/efreitasn/nftmarket/internal/store"
)

// TokenLedger is the part of the token ledger the market settles through.
type TokenLedger interface {
	OwnerOf(id domain.TokenID) (domain.AccountID, bool)
	Move(from, to domain.AccountID, id domain.TokenID) error
}

// NativeBank moves native currency between accounts.
type NativeBank interface {
	Transfer(from, to domain.AccountID, amount *uint256.Int) error
}

// Emitter receives the events raised while a message executes.
type Emitter interface {
	Emit(ev domain.Event)
}

// Market keeps the fixed-price listings and settles purchases against
// them. It also guards the ledger: a listed token cannot change hands by
// any path other than Buy.
//
// Market is not safe for concurrent mutation on its own; Contract
// serializes every message that reaches it.
type Market struct {
	listings *store.ListingStore
	ledger   TokenLedger
	bank     NativeBank
	custody  domain.AccountID
	emitter  Emitter
}

// NewMarket creates a Market. custody is the account attached payments
// are held in while a purchase settles.
func NewMarket(
	listings *store.ListingStore,
	ledger TokenLedger,
	bank NativeBank,
	custody domain.AccountID,
	emitter Emitter,
) *Market {
	return &Market{
		listings: listings,
		ledger:   ledger,
		bank:     bank,
		custody:  custody,
		emitter:  emitter,
	}
}

// Ask lists the caller's token at price, replacing any previous price.
func (m *Market) Ask(caller domain.AccountID, id domain.TokenID, price *uint256.Int) error {
	owner, ok := m.ledger.OwnerOf(id)
	if !ok {
		return domain.ErrTokenNotFound
	}
	if owner != caller {
		return domain.ErrNotTokenOwner
	}
	m.listings.Put(id, price)
	return nil
}

// Buy settles the purchase of a listed token by caller, who attached paid.
// Every precondition is checked before anything changes. Settlement then
// collects the payment into custody, pays the seller, removes the listing
// and moves the token; a failure at any step undoes the earlier ones.
func (m *Market) Buy(caller domain.AccountID, id domain.TokenID, paid *uint256.Int) (*domain.Trade, error) {
	seller, ok := m.ledger.OwnerOf(id)
	if !ok {
		return nil, domain.ErrTokenNotFound
	}
	if seller == caller {
		return nil, domain.ErrOwnToken
	}
	price, ok := m.listings.Get(id)
	if !ok {
		return nil, domain.ErrTokenNotInSale
	}
	if !paid.Eq(price) {
		return nil, domain.ErrPriceMismatch
	}

	var undo journal

	if err := m.bank.Transfer(caller, m.custody, paid); err != nil {
		return nil, err
	}
	undo.push(func() { _ = m.bank.Transfer(m.custody, caller, paid) })

	if err := m.bank.Transfer(m.custody, seller, paid); err != nil {
		undo.revert()
		return nil, fmt.Errorf("%w: %w", domain.ErrPaymentTransferFailed, err)
	}
	undo.push(func() { _ = m.bank.Transfer(seller, m.custody, paid) })

	m.listings.Delete(id)
	undo.push(func() { m.listings.Put(id, price) })

	if err := m.ledger.Move(seller, caller, id); err != nil {
		undo.revert()
		return nil, err
	}

	trade := &domain.Trade{
		TradeID:    uuid.New().String(),
		Seller:     seller,
		Buyer:      caller,
		TokenID:    id,
		Price:      price,
		ExecutedAt: time.Now(),
	}
	m.emitter.Emit(domain.Event{
		Type:      domain.EventTradeExecuted,
		Trade:     trade,
		EmittedAt: trade.ExecutedAt,
	})
	return trade, nil
}

// Cancel removes the caller's listing.
func (m *Market) Cancel(caller domain.AccountID, id domain.TokenID) error {
	owner, ok := m.ledger.OwnerOf(id)
	if !ok {
		return domain.ErrTokenNotFound
	}
	if owner != caller {
		return domain.ErrNotTokenOwner
	}
	if !m.listings.Delete(id) {
		return domain.ErrNotInSale
	}
	return nil
}

// Price returns the ask price of a token, or nil when it is not listed.
func (m *Market) Price(id domain.TokenID) *uint256.Int {
	price, ok := m.listings.Get(id)
	if !ok {
		return nil
	}
	return price
}

// Listings returns every current listing ordered by token id.
func (m *Market) Listings() []domain.Listing {
	return m.listings.All()
}

// BeforeTokenTransfer blocks every ownership change of a listed token.
// Buy removes the listing before it moves the token, so its own transfer
// passes.
func (m *Market) BeforeTokenTransfer(_, _ *domain.AccountID, id domain.TokenID) error {
	if m.listings.Has(id) {
		return domain.ErrTokenInSale
	}
	return nil
}

// journal records compensating actions for the mutations made so far.
type journal []func()

func (j *journal) push(fn func()) {
	*j = append(*j, fn)
}

// revert runs the compensations newest first.
func (j *journal) revert() {
	for i := len(*j) - 1; i >= 0; i-- {
		(*j)[i]()
	}
	*j = nil
}
