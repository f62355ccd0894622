package escrow

import (
	addr "github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/abi"
)

// Event tags emitted by the escrow actor for external indexers.
const (
	EventTradeCreated  = "trade-created"
	EventTradeFunded   = "trade-funded"
	EventTradeCanceled = "trade-canceled"
	EventTradeExecuted = "trade-executed"
)

type TradeCreatedEvent struct {
	ID     TradeID
	Buyer  addr.Address
	Seller addr.Address
}

type TradeFundedEvent struct {
	ID    TradeID
	Party addr.Address
}

type TradeCanceledEvent struct {
	ID TradeID
	By addr.Address
}

type TradeExecutedEvent struct {
	ID  TradeID
	Fee abi.TokenAmount
}
