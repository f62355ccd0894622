package escrow

import (
	addr "github.com/filecoin-project/go-address"

	"github.com/vestlock/vesting-actors/actors/builtin"
	"github.com/vestlock/vesting-actors/actors/util/adt"
)

type StateSummary struct {
	TradeCount    int
	OpenTrades    int
	SettledTrades int
}

// Checks internal invariants of the escrow state.
func CheckStateInvariants(st *State, store adt.Store) (*StateSummary, *builtin.MessageAccumulator) {
	acc := &builtin.MessageAccumulator{}
	summary := &StateSummary{}

	acc.Require(st.Owner.Protocol() == addr.ID, "owner %v is not an ID address", st.Owner)
	acc.Require(st.FeeRatePpm >= 0 && st.FeeRatePpm <= builtin.PpmDenominator,
		"fee rate %d outside [0, %d] ppm", st.FeeRatePpm, builtin.PpmDenominator)

	trades := adt.AsArray(store, st.Trades)
	var trade Trade
	err := trades.ForEach(&trade, func(i int64) error {
		summary.TradeCount++
		acc := acc.WithPrefix("trade %d: ", i)

		acc.Require(trade.Buyer != addr.Undef, "no buyer")
		acc.Require(trade.Seller != addr.Undef, "no seller")
		acc.Require(trade.Buyer != trade.Seller, "buyer and seller are the same address %v", trade.Buyer)
		acc.Require(trade.BuyToken != addr.Undef, "no payment token")
		acc.Require(trade.BuyAmount.Sign() > 0, "non-positive payment amount %v", trade.BuyAmount)
		acc.Require(trade.Pool >= 0, "negative pool id %d", trade.Pool)
		acc.Require(trade.SellAmount.Sign() > 0, "non-positive rights amount %v", trade.SellAmount)
		acc.Require(!(trade.Canceled && trade.Executed), "trade both canceled and executed")
		if trade.Executed {
			acc.Require(trade.BuyerFunded && trade.SellerFunded, "executed without both legs funded")
		}

		if trade.Terminal() {
			summary.SettledTrades++
		} else {
			summary.OpenTrades++
		}
		return nil
	})
	acc.RequireNoError(err, "error iterating trades")

	return summary, acc
}
