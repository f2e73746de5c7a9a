// Package ledger implements the token ownership ledger the listing market
// builds on: who owns which token, who may move it, and the pre-transfer
// hook every ownership change passes through.
package ledger

import (
	"sync"

	"github.com/google/btree"

	"github.com/efreitasn/nftmarket/internal/domain"
)

// TransferGuard is consulted before every ownership change, including
// mints (from is nil) and burns (to is nil). A non-nil error blocks the
// change and is returned to the caller unchanged.
type TransferGuard interface {
	BeforeTokenTransfer(from, to *domain.AccountID, id domain.TokenID) error
}

// Emitter receives the ledger's transfer and approval events.
type Emitter interface {
	Emit(ev domain.Event)
}

func tokenLess(a, b domain.TokenID) bool {
	return a.Less(b)
}

// Ledger is a thread-safe in-memory token ledger. Tokens are indexed
// globally and per owner in B-trees so enumeration is ordered by token id.
type Ledger struct {
	mu        sync.RWMutex
	owners    map[domain.TokenID]domain.AccountID
	all       *btree.BTreeG[domain.TokenID]
	owned     map[domain.AccountID]*btree.BTreeG[domain.TokenID]
	approvals map[domain.TokenID]domain.AccountID                // token → approved account
	operators map[domain.AccountID]map[domain.AccountID]struct{} // owner → operators
	guard     TransferGuard
	emitter   Emitter
}

const degree = 32

// New creates an empty Ledger that reports events to emitter. A nil
// emitter discards events.
func New(emitter Emitter) *Ledger {
	return &Ledger{
		owners:    make(map[domain.TokenID]domain.AccountID),
		all:       btree.NewG[domain.TokenID](degree, tokenLess),
		owned:     make(map[domain.AccountID]*btree.BTreeG[domain.TokenID]),
		approvals: make(map[domain.TokenID]domain.AccountID),
		operators: make(map[domain.AccountID]map[domain.AccountID]struct{}),
		emitter:   emitter,
	}
}

// SetTransferGuard installs the hook run before every ownership change.
func (l *Ledger) SetTransferGuard(g TransferGuard) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.guard = g
}

// OwnerOf returns the token's owner and whether the token exists.
func (l *Ledger) OwnerOf(id domain.TokenID) (domain.AccountID, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	owner, ok := l.owners[id]
	return owner, ok
}

// BalanceOf returns how many tokens owner holds.
func (l *Ledger) BalanceOf(owner domain.AccountID) int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if tree, ok := l.owned[owner]; ok {
		return tree.Len()
	}
	return 0
}

// TotalSupply returns the number of existing tokens.
func (l *Ledger) TotalSupply() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.all.Len()
}

// TokensOf returns the tokens owner holds, ordered by token id.
func (l *Ledger) TokensOf(owner domain.AccountID) []domain.TokenID {
	l.mu.RLock()
	defer l.mu.RUnlock()

	tree, ok := l.owned[owner]
	if !ok {
		return []domain.TokenID{}
	}
	result := make([]domain.TokenID, 0, tree.Len())
	tree.Ascend(func(id domain.TokenID) bool {
		result = append(result, id)
		return true
	})
	return result
}

// TokenByIndex returns the index-th token in id order.
func (l *Ledger) TokenByIndex(index int) (domain.TokenID, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return nth(l.all, index)
}

// OwnersTokenByIndex returns the index-th token owner holds, in id order.
func (l *Ledger) OwnersTokenByIndex(owner domain.AccountID, index int) (domain.TokenID, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	tree, ok := l.owned[owner]
	if !ok {
		return domain.TokenID{}, false
	}
	return nth(tree, index)
}

func nth(tree *btree.BTreeG[domain.TokenID], index int) (domain.TokenID, bool) {
	if index < 0 || index >= tree.Len() {
		return domain.TokenID{}, false
	}
	var found domain.TokenID
	i := 0
	tree.Ascend(func(id domain.TokenID) bool {
		if i == index {
			found = id
			return false
		}
		i++
		return true
	})
	return found, true
}

// Allowance reports whether operator may move owner's tokens. With a nil
// id it only considers all-token approvals; with an id, a per-token
// approval for that token also counts.
func (l *Ledger) Allowance(owner, operator domain.AccountID, id *domain.TokenID) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.allowance(owner, operator, id)
}

func (l *Ledger) allowance(owner, operator domain.AccountID, id *domain.TokenID) bool {
	if _, ok := l.operators[owner][operator]; ok {
		return true
	}
	if id == nil {
		return false
	}
	approved, ok := l.approvals[*id]
	return ok && approved == operator && l.owners[*id] == owner
}

// Approve grants or revokes operator's right to move caller's tokens:
// every token when id is nil, or a single token. For a single token the
// caller must be its owner or an all-token operator of the owner, and
// the approval is recorded on the owner's behalf.
func (l *Ledger) Approve(caller, operator domain.AccountID, id *domain.TokenID, approved bool) error {
	l.mu.Lock()
	owner := caller
	if id != nil {
		var ok bool
		owner, ok = l.owners[*id]
		if !ok {
			l.mu.Unlock()
			return domain.ErrTokenNotFound
		}
		if approved && owner == operator {
			l.mu.Unlock()
			return domain.ErrSelfApprove
		}
		if owner != caller && !l.allowance(owner, caller, nil) {
			l.mu.Unlock()
			return domain.ErrNotApproved
		}
	}
	if owner == operator {
		l.mu.Unlock()
		return domain.ErrSelfApprove
	}

	switch {
	case id != nil && approved:
		l.approvals[*id] = operator
	case id != nil:
		if l.approvals[*id] == operator {
			delete(l.approvals, *id)
		}
	case approved:
		if l.operators[owner] == nil {
			l.operators[owner] = make(map[domain.AccountID]struct{})
		}
		l.operators[owner][operator] = struct{}{}
	default:
		delete(l.operators[owner], operator)
		if len(l.operators[owner]) == 0 {
			delete(l.operators, owner)
		}
	}
	l.mu.Unlock()

	var tokenID *domain.TokenID
	if id != nil {
		cp := *id
		tokenID = &cp
	}
	l.emit(domain.Event{
		Type: domain.EventTokenApproved,
		Approval: &domain.ApprovalEvent{
			Owner:    owner,
			Operator: operator,
			TokenID:  tokenID,
			Approved: approved,
		},
	})
	return nil
}

// Mint creates token id owned by to. It returns domain.ErrTokenExists if
// the id is taken.
func (l *Ledger) Mint(to domain.AccountID, id domain.TokenID) error {
	l.mu.Lock()
	if _, exists := l.owners[id]; exists {
		l.mu.Unlock()
		return domain.ErrTokenExists
	}
	if err := l.checkGuard(nil, &to, id); err != nil {
		l.mu.Unlock()
		return err
	}
	l.add(to, id)
	l.mu.Unlock()

	l.emitTransfer(nil, &to, id)
	return nil
}

// Burn destroys token id. The caller must own it or be approved for it.
func (l *Ledger) Burn(caller domain.AccountID, id domain.TokenID) error {
	l.mu.Lock()
	owner, ok := l.owners[id]
	if !ok {
		l.mu.Unlock()
		return domain.ErrTokenNotFound
	}
	if owner != caller && !l.allowance(owner, caller, &id) {
		l.mu.Unlock()
		return domain.ErrNotApproved
	}
	if err := l.checkGuard(&owner, nil, id); err != nil {
		l.mu.Unlock()
		return err
	}
	l.remove(owner, id)
	l.mu.Unlock()

	l.emitTransfer(&owner, nil, id)
	return nil
}

// Transfer moves token id to another account on behalf of caller, who
// must own it or be approved for it.
func (l *Ledger) Transfer(caller, to domain.AccountID, id domain.TokenID) error {
	l.mu.RLock()
	owner, ok := l.owners[id]
	permitted := ok && (owner == caller || l.allowance(owner, caller, &id))
	l.mu.RUnlock()

	if !ok {
		return domain.ErrTokenNotFound
	}
	if !permitted {
		return domain.ErrNotApproved
	}
	return l.Move(owner, to, id)
}

// Move is the authoritative ownership change: from must own id, the
// transfer guard must allow it, and the per-token approval is cleared.
// It performs no caller authorization; callers are trusted components.
func (l *Ledger) Move(from, to domain.AccountID, id domain.TokenID) error {
	l.mu.Lock()
	owner, ok := l.owners[id]
	if !ok {
		l.mu.Unlock()
		return domain.ErrTokenNotFound
	}
	if owner != from {
		l.mu.Unlock()
		return domain.ErrNotTokenOwner
	}
	if err := l.checkGuard(&from, &to, id); err != nil {
		l.mu.Unlock()
		return err
	}
	l.remove(from, id)
	l.add(to, id)
	l.mu.Unlock()

	l.emitTransfer(&from, &to, id)
	return nil
}

func (l *Ledger) checkGuard(from, to *domain.AccountID, id domain.TokenID) error {
	if l.guard == nil {
		return nil
	}
	return l.guard.BeforeTokenTransfer(from, to, id)
}

func (l *Ledger) add(owner domain.AccountID, id domain.TokenID) {
	l.owners[id] = owner
	l.all.ReplaceOrInsert(id)
	tree, ok := l.owned[owner]
	if !ok {
		tree = btree.NewG[domain.TokenID](degree, tokenLess)
		l.owned[owner] = tree
	}
	tree.ReplaceOrInsert(id)
}

func (l *Ledger) remove(owner domain.AccountID, id domain.TokenID) {
	delete(l.owners, id)
	delete(l.approvals, id)
	l.all.Delete(id)
	if tree, ok := l.owned[owner]; ok {
		tree.Delete(id)
		if tree.Len() == 0 {
			delete(l.owned, owner)
		}
	}
}

func (l *Ledger) emitTransfer(from, to *domain.AccountID, id domain.TokenID) {
	l.emit(domain.Event{
		Type:     domain.EventTokenTransferred,
		Transfer: &domain.TransferEvent{From: from, To: to, TokenID: id},
	})
}

func (l *Ledger) emit(ev domain.Event) {
	if l.emitter != nil {
		l.emitter.Emit(ev)
	}
}
