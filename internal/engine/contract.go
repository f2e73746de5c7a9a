package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/holiman/uint256"

	"github.com/efreitasn/nftmarket/internal/domain"
	"github.com/efreitasn/nftmarket/internal/ledger"
	"github.com/efreitasn/nftmarket/internal/store"
)

// Publisher receives the events of committed messages.
type Publisher interface {
	Publish(ctx context.Context, ev domain.Event)
}

// AccountBook is the native bank as the contract sees it: transfers for
// settlement and account reads serialized with them.
type AccountBook interface {
	NativeBank
	Get(id domain.AccountID) (*domain.Account, error)
}

// ContractConfig holds the deploy-time parameters of a Contract.
type ContractConfig struct {
	// Address is the contract's own account; attached payments are held
	// there while a purchase settles.
	Address domain.AccountID
	// GenesisOwner receives token u8:1 at construction. Nil skips the mint.
	GenesisOwner *domain.AccountID
}

// GenesisTokenID is the token minted to the genesis owner.
var GenesisTokenID = domain.U8(1)

// Contract executes messages against the token ledger and the market one
// at a time. Events raised by a message are buffered and handed to the
// publisher only when the message succeeds; a failed message leaves no
// trace beyond its error. Reads share the same lock, so they never observe
// a message half applied.
type Contract struct {
	mu        sync.RWMutex
	address   domain.AccountID
	bank      AccountBook
	ledger    *ledger.Ledger
	market    *Market
	publisher Publisher
	logger    *slog.Logger
	pending   []domain.Event
}

// NewContract wires a ledger and a market over the given bank and listing
// store, installs the market as the ledger's transfer guard, and mints the
// genesis token. publisher may be nil.
func NewContract(
	cfg ContractConfig,
	bank AccountBook,
	listings *store.ListingStore,
	publisher Publisher,
	logger *slog.Logger,
) (*Contract, error) {
	c := &Contract{
		address:   cfg.Address,
		bank:      bank,
		publisher: publisher,
		logger:    logger,
	}
	c.ledger = ledger.New(c)
	c.market = NewMarket(listings, c.ledger, bank, cfg.Address, c)
	c.ledger.SetTransferGuard(c.market)

	if cfg.GenesisOwner != nil {
		if err := c.Mint(context.Background(), *cfg.GenesisOwner, *cfg.GenesisOwner, GenesisTokenID); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Address returns the contract's own account.
func (c *Contract) Address() domain.AccountID {
	return c.address
}

// Emit buffers an event for the message being executed. It is only
// called from inside a message, with c.mu held.
func (c *Contract) Emit(ev domain.Event) {
	if ev.EmittedAt.IsZero() {
		ev.EmittedAt = time.Now()
	}
	c.pending = append(c.pending, ev)
}

// execute runs fn as one message: serialized with every other message,
// its events published only if fn succeeds.
func (c *Contract) execute(ctx context.Context, message string, caller domain.AccountID, fn func() error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pending = nil
	if err := fn(); err != nil {
		c.pending = nil
		c.logger.Warn("message reverted",
			slog.String("message", message),
			slog.String("caller", caller.Hex()),
			slog.String("error", err.Error()),
		)
		return err
	}

	events := c.pending
	c.pending = nil
	if c.publisher != nil {
		for _, ev := range events {
			c.publisher.Publish(ctx, ev)
		}
	}
	c.logger.Debug("message executed",
		slog.String("message", message),
		slog.String("caller", caller.Hex()),
		slog.Int("events", len(events)),
	)
	return nil
}

// Ask lists caller's token at price.
func (c *Contract) Ask(ctx context.Context, caller domain.AccountID, id domain.TokenID, price *uint256.Int) error {
	return c.execute(ctx, "ask", caller, func() error {
		return c.market.Ask(caller, id, price)
	})
}

// Buy purchases a listed token for exactly its ask price.
func (c *Contract) Buy(ctx context.Context, caller domain.AccountID, id domain.TokenID, paid *uint256.Int) (*domain.Trade, error) {
	var trade *domain.Trade
	err := c.execute(ctx, "buy", caller, func() error {
		var err error
		trade, err = c.market.Buy(caller, id, paid)
		return err
	})
	if err != nil {
		return nil, err
	}
	return trade, nil
}

// Cancel removes caller's listing.
func (c *Contract) Cancel(ctx context.Context, caller domain.AccountID, id domain.TokenID) error {
	return c.execute(ctx, "cancel", caller, func() error {
		return c.market.Cancel(caller, id)
	})
}

// Mint creates token id owned by to.
func (c *Contract) Mint(ctx context.Context, caller, to domain.AccountID, id domain.TokenID) error {
	return c.execute(ctx, "mint", caller, func() error {
		return c.ledger.Mint(to, id)
	})
}

// Burn destroys token id.
func (c *Contract) Burn(ctx context.Context, caller domain.AccountID, id domain.TokenID) error {
	return c.execute(ctx, "burn", caller, func() error {
		return c.ledger.Burn(caller, id)
	})
}

// Transfer moves token id to another account outside the market.
func (c *Contract) Transfer(ctx context.Context, caller, to domain.AccountID, id domain.TokenID) error {
	return c.execute(ctx, "transfer", caller, func() error {
		return c.ledger.Transfer(caller, to, id)
	})
}

// Approve grants or revokes operator for one token, or for all of the
// caller's tokens when id is nil.
func (c *Contract) Approve(ctx context.Context, caller, operator domain.AccountID, id *domain.TokenID, approved bool) error {
	return c.execute(ctx, "approve", caller, func() error {
		return c.ledger.Approve(caller, operator, id, approved)
	})
}

// Price returns the ask price of a token, or nil when it is not listed.
func (c *Contract) Price(id domain.TokenID) *uint256.Int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.market.Price(id)
}

// Listings returns every current listing ordered by token id.
func (c *Contract) Listings() []domain.Listing {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.market.Listings()
}

// Token returns a token's owner and its ask price (nil when unlisted),
// read together.
func (c *Contract) Token(id domain.TokenID) (domain.AccountID, *uint256.Int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	owner, ok := c.ledger.OwnerOf(id)
	if !ok {
		return domain.AccountID{}, nil, domain.ErrTokenNotFound
	}
	return owner, c.market.Price(id), nil
}

// OwnerOf returns a token's owner and whether it exists.
func (c *Contract) OwnerOf(id domain.TokenID) (domain.AccountID, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ledger.OwnerOf(id)
}

// Account returns a registered account together with the number of
// tokens it holds.
func (c *Contract) Account(id domain.AccountID) (*domain.Account, int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	account, err := c.bank.Get(id)
	if err != nil {
		return nil, 0, err
	}
	return account, c.ledger.BalanceOf(id), nil
}

// TokensOf returns the tokens owner holds, ordered by token id.
func (c *Contract) TokensOf(owner domain.AccountID) []domain.TokenID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ledger.TokensOf(owner)
}

// TokenByIndex returns the index-th existing token in id order and the
// total supply.
func (c *Contract) TokenByIndex(index int) (domain.TokenID, int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	id, ok := c.ledger.TokenByIndex(index)
	if !ok {
		return domain.TokenID{}, 0, domain.ErrTokenNotFound
	}
	return id, c.ledger.TotalSupply(), nil
}

// OwnersTokenByIndex returns the index-th token owner holds in id order
// and how many tokens owner holds.
func (c *Contract) OwnersTokenByIndex(owner domain.AccountID, index int) (domain.TokenID, int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	id, ok := c.ledger.OwnersTokenByIndex(owner, index)
	if !ok {
		return domain.TokenID{}, 0, domain.ErrTokenNotFound
	}
	return id, c.ledger.BalanceOf(owner), nil
}

// TotalSupply returns the number of existing tokens.
func (c *Contract) TotalSupply() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ledger.TotalSupply()
}

// Allowance reports whether operator may move owner's token id, or all of
// owner's tokens when id is nil.
func (c *Contract) Allowance(owner, operator domain.AccountID, id *domain.TokenID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ledger.Allowance(owner, operator, id)
}
