package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/efreitasn/nftmarket/internal/domain"
)

// Payload is the wire form of an event, shared by webhooks, the websocket
// stream and redis.
type Payload struct {
	Event     domain.EventType `json:"event"`
	Timestamp string           `json:"timestamp"`
	Data      any              `json:"data"`
}

type transferData struct {
	TokenID string  `json:"token_id"`
	From    *string `json:"from"`
	To      *string `json:"to"`
}

type approvalData struct {
	Owner    string  `json:"owner"`
	Operator string  `json:"operator"`
	TokenID  *string `json:"token_id"`
	Approved bool    `json:"approved"`
}

type tradeData struct {
	TradeID string `json:"trade_id"`
	Seller  string `json:"seller"`
	Buyer   string `json:"buyer"`
	TokenID string `json:"token_id"`
	Price   string `json:"price"`
}

// NewPayload builds the wire form of ev, rendering amounts with decimals
// fractional digits.
func NewPayload(ev domain.Event, decimals int32) (Payload, error) {
	p := Payload{
		Event:     ev.Type,
		Timestamp: ev.EmittedAt.UTC().Format(time.RFC3339Nano),
	}

	switch ev.Type {
	case domain.EventTokenTransferred:
		if ev.Transfer == nil {
			return Payload{}, fmt.Errorf("event %s has no transfer", ev.Type)
		}
		p.Data = transferData{
			TokenID: ev.Transfer.TokenID.String(),
			From:    hexOrNil(ev.Transfer.From),
			To:      hexOrNil(ev.Transfer.To),
		}
	case domain.EventTokenApproved:
		if ev.Approval == nil {
			return Payload{}, fmt.Errorf("event %s has no approval", ev.Type)
		}
		d := approvalData{
			Owner:    ev.Approval.Owner.Hex(),
			Operator: ev.Approval.Operator.Hex(),
			Approved: ev.Approval.Approved,
		}
		if ev.Approval.TokenID != nil {
			s := ev.Approval.TokenID.String()
			d.TokenID = &s
		}
		p.Data = d
	case domain.EventTradeExecuted:
		if ev.Trade == nil {
			return Payload{}, fmt.Errorf("event %s has no trade", ev.Type)
		}
		p.Data = tradeData{
			TradeID: ev.Trade.TradeID,
			Seller:  ev.Trade.Seller.Hex(),
			Buyer:   ev.Trade.Buyer.Hex(),
			TokenID: ev.Trade.TokenID.String(),
			Price:   domain.FormatAmount(ev.Trade.Price, decimals),
		}
	default:
		return Payload{}, fmt.Errorf("unknown event type %q", ev.Type)
	}
	return p, nil
}

// Encode returns the JSON wire form of ev.
func Encode(ev domain.Event, decimals int32) ([]byte, error) {
	p, err := NewPayload(ev, decimals)
	if err != nil {
		return nil, err
	}
	return json.Marshal(p)
}

func hexOrNil(id *domain.AccountID) *string {
	if id == nil {
		return nil
	}
	s := id.Hex()
	return &s
}
