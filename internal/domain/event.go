package domain

import "time"

// EventType names an observable contract event.
type EventType string

const (
	EventTokenTransferred EventType = "token.transferred"
	EventTokenApproved    EventType = "token.approved"
	EventTradeExecuted    EventType = "trade.executed"
)

// TransferEvent is emitted by the ledger after every ownership change.
// From is nil for mints and To is nil for burns.
type TransferEvent struct {
	From    *AccountID
	To      *AccountID
	TokenID TokenID
}

// ApprovalEvent is emitted when an owner grants or revokes an operator.
// TokenID is nil for approvals covering all of the owner's tokens.
type ApprovalEvent struct {
	Owner    AccountID
	Operator AccountID
	TokenID  *TokenID
	Approved bool
}

// Event is the envelope for everything a committed invocation emits.
// Exactly one of Transfer, Approval and Trade is set, matching Type.
type Event struct {
	Type      EventType
	Transfer  *TransferEvent
	Approval  *ApprovalEvent
	Trade     *Trade
	EmittedAt time.Time
}

// Parties returns the accounts an event concerns, without duplicates.
func (e Event) Parties() []AccountID {
	var ids []AccountID
	switch {
	case e.Transfer != nil:
		if e.Transfer.From != nil {
			ids = append(ids, *e.Transfer.From)
		}
		if e.Transfer.To != nil {
			ids = append(ids, *e.Transfer.To)
		}
	case e.Approval != nil:
		ids = append(ids, e.Approval.Owner, e.Approval.Operator)
	case e.Trade != nil:
		ids = append(ids, e.Trade.Seller, e.Trade.Buyer)
	}
	if len(ids) == 2 && ids[0] == ids[1] {
		ids = ids[:1]
	}
	return ids
}
