package escrow

import (
	addr "github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/abi"
	"github.com/filecoin-project/go-state-types/big"
	"github.com/filecoin-project/go-state-types/cbor"
	"github.com/filecoin-project/go-state-types/exitcode"
	rtt "github.com/filecoin-project/go-state-types/rt"
	cid "github.com/ipfs/go-cid"

	"github.com/vestlock/vesting-actors/actors/builtin"
	"github.com/vestlock/vesting-actors/actors/builtin/token"
	"github.com/vestlock/vesting-actors/actors/builtin/vesting"
	vmr "github.com/vestlock/vesting-actors/actors/runtime"
	"github.com/vestlock/vesting-actors/actors/util/adt"
)

// The escrow actor settles two-party trades of vesting rights against token
// payments. Each party deposits its leg into escrow custody independently;
// execution releases both legs atomically, less a protocol fee on the payment.
//
// The rights leg makes the escrow actor itself a claimant in the vesting
// pool for the lifetime of the trade.
type Actor struct{}

type Runtime = vmr.Runtime

func (a Actor) Exports() []interface{} {
	return []interface{}{
		builtin.MethodConstructor: a.Constructor,
		2:                         a.NewTrade,
		3:                         a.Fund,
		4:                         a.Cancel,
		5:                         a.Execute,
		6:                         a.SetOwner,
		7:                         a.SetFeeRate,
	}
}

func (a Actor) Code() cid.Cid {
	return builtin.EscrowActorCodeID
}

func (a Actor) State() cbor.Er {
	return new(State)
}

var _ vmr.VMActor = Actor{}

type ConstructorParams struct {
	Owner      addr.Address
	FeeRatePpm int64
}

func (a Actor) Constructor(rt Runtime, params *ConstructorParams) *abi.EmptyValue {
	rt.ValidateImmediateCallerIs(builtin.SystemActorAddr)
	builtin.RequireParam(rt, params.Owner != addr.Undef, "owner address required")
	requireValidFeeRate(rt, params.FeeRatePpm)

	st, err := ConstructState(adt.AsStore(rt), params.Owner, params.FeeRatePpm)
	builtin.RequireNoErr(rt, err, exitcode.ErrIllegalState, "failed to construct state")
	rt.State().Create(st)
	return nil
}

type NewTradeParams struct {
	Buyer  addr.Address
	Seller addr.Address

	BuyToken  addr.Address
	BuyAmount abi.TokenAmount

	Pool       vesting.PoolID
	SellAmount abi.TokenAmount
}

type NewTradeReturn struct {
	ID TradeID
}

// NewTrade registers a trade between a buyer and a seller. Registration is
// open to anyone, including third-party matchmakers; it records intent only,
// and both legs start unfunded, so a spurious trade binds nobody.
func (a Actor) NewTrade(rt Runtime, params *NewTradeParams) *NewTradeReturn {
	rt.ValidateImmediateCallerAcceptAny()
	builtin.RequireParam(rt, params.Buyer != addr.Undef, "buyer address required")
	builtin.RequireParam(rt, params.Seller != addr.Undef, "seller address required")
	builtin.RequireParam(rt, params.Buyer != params.Seller, "buyer and seller must differ")
	builtin.RequireParam(rt, params.BuyToken != addr.Undef, "payment token address required")
	builtin.RequireParam(rt, params.BuyAmount.Sign() > 0, "payment amount must be positive, got %v", params.BuyAmount)
	builtin.RequireParam(rt, params.Pool >= 0, "invalid pool %d", params.Pool)
	builtin.RequireParam(rt, params.SellAmount.Sign() > 0, "rights amount must be positive, got %v", params.SellAmount)

	var st State
	var id TradeID
	rt.State().Transaction(&st, func() {
		var err error
		id, err = st.AppendTrade(adt.AsStore(rt), &Trade{
			Buyer:      params.Buyer,
			Seller:     params.Seller,
			BuyToken:   params.BuyToken,
			BuyAmount:  params.BuyAmount,
			Pool:       params.Pool,
			SellAmount: params.SellAmount,
		})
		builtin.RequireNoErr(rt, err, exitcode.ErrIllegalState, "failed to store trade")
	})

	rt.Log(rtt.INFO, "created trade %d between %v and %v", id, params.Buyer, params.Seller)
	rt.EmitEvent(EventTradeCreated, &TradeCreatedEvent{ID: id, Buyer: params.Buyer, Seller: params.Seller})
	return &NewTradeReturn{ID: id}
}

type TradeParams struct {
	Trade TradeID
}

// Fund deposits the caller's leg of a trade into escrow custody. The buyer's
// call pulls the payment through a token allowance; the seller's call pulls
// the vesting rights through a vesting approval. Each leg funds at most once.
func (a Actor) Fund(rt Runtime, params *TradeParams) *abi.EmptyValue {
	rt.ValidateImmediateCallerAcceptAny()
	caller := rt.Message().Caller()

	var st State
	var trade *Trade
	rt.State().Transaction(&st, func() {
		trade = loadTradeOrAbort(rt, &st, params.Trade)
		if !trade.Participant(caller) {
			rt.Abortf(exitcode.ErrForbidden, "%v is not a party to trade %d", caller, params.Trade)
		}
		if trade.Terminal() {
			rt.Abortf(exitcode.ErrIllegalState, "trade %d is already settled", params.Trade)
		}
		switch caller {
		case trade.Buyer:
			if trade.BuyerFunded {
				rt.Abortf(exitcode.ErrIllegalState, "buyer leg of trade %d already funded", params.Trade)
			}
			trade.BuyerFunded = true
		case trade.Seller:
			if trade.SellerFunded {
				rt.Abortf(exitcode.ErrIllegalState, "seller leg of trade %d already funded", params.Trade)
			}
			trade.SellerFunded = true
		}
		err := st.SaveTrade(adt.AsStore(rt), params.Trade, trade)
		builtin.RequireNoErr(rt, err, exitcode.ErrIllegalState, "failed to save trade %d", params.Trade)
	})

	if caller == trade.Buyer {
		_, code := rt.Send(trade.BuyToken, builtin.MethodsToken.TransferFrom, &token.TransferFromParams{
			From:   trade.Buyer,
			To:     rt.Message().Receiver(),
			Amount: trade.BuyAmount,
		}, big.Zero())
		builtin.RequireSuccess(rt, code, "failed to pull payment of %v from buyer %v", trade.BuyAmount, trade.Buyer)
	} else {
		_, code := rt.Send(builtin.VestingActorAddr, builtin.MethodsVesting.TransferFrom, &vesting.TransferFromParams{
			Pool:   trade.Pool,
			From:   trade.Seller,
			To:     rt.Message().Receiver(),
			Amount: trade.SellAmount,
		}, big.Zero())
		builtin.RequireSuccess(rt, code, "failed to pull %v of rights in pool %d from seller %v",
			trade.SellAmount, trade.Pool, trade.Seller)
	}

	rt.EmitEvent(EventTradeFunded, &TradeFundedEvent{ID: params.Trade, Party: caller})
	return nil
}

// Cancel voids a trade and returns any deposited legs to their owners.
// Either party may cancel at any point before execution.
func (a Actor) Cancel(rt Runtime, params *TradeParams) *abi.EmptyValue {
	rt.ValidateImmediateCallerAcceptAny()
	caller := rt.Message().Caller()

	var st State
	var trade *Trade
	rt.State().Transaction(&st, func() {
		trade = loadTradeOrAbort(rt, &st, params.Trade)
		if !trade.Participant(caller) {
			rt.Abortf(exitcode.ErrForbidden, "%v is not a party to trade %d", caller, params.Trade)
		}
		if trade.Terminal() {
			rt.Abortf(exitcode.ErrIllegalState, "trade %d is already settled", params.Trade)
		}
		trade.Canceled = true
		err := st.SaveTrade(adt.AsStore(rt), params.Trade, trade)
		builtin.RequireNoErr(rt, err, exitcode.ErrIllegalState, "failed to save trade %d", params.Trade)
	})

	if trade.BuyerFunded {
		_, code := rt.Send(trade.BuyToken, builtin.MethodsToken.Transfer, &token.TransferParams{
			To:     trade.Buyer,
			Amount: trade.BuyAmount,
		}, big.Zero())
		builtin.RequireSuccess(rt, code, "failed to refund payment of %v to buyer %v", trade.BuyAmount, trade.Buyer)
	}
	if trade.SellerFunded {
		_, code := rt.Send(builtin.VestingActorAddr, builtin.MethodsVesting.Transfer, &vesting.TransferParams{
			Pool:   trade.Pool,
			To:     trade.Seller,
			Amount: trade.SellAmount,
		}, big.Zero())
		builtin.RequireSuccess(rt, code, "failed to return %v of rights in pool %d to seller %v",
			trade.SellAmount, trade.Pool, trade.Seller)
	}

	rt.EmitEvent(EventTradeCanceled, &TradeCanceledEvent{ID: params.Trade, By: caller})
	return nil
}

// Execute settles a fully funded trade: the seller receives the payment less
// the protocol fee, the buyer receives the vesting rights, and the fee goes
// to the actor owner. Either party may trigger execution.
func (a Actor) Execute(rt Runtime, params *TradeParams) *abi.EmptyValue {
	rt.ValidateImmediateCallerAcceptAny()
	caller := rt.Message().Caller()

	var st State
	var trade *Trade
	rt.State().Transaction(&st, func() {
		trade = loadTradeOrAbort(rt, &st, params.Trade)
		if !trade.Participant(caller) {
			rt.Abortf(exitcode.ErrForbidden, "%v is not a party to trade %d", caller, params.Trade)
		}
		if trade.Terminal() {
			rt.Abortf(exitcode.ErrIllegalState, "trade %d is already settled", params.Trade)
		}
		if !trade.BuyerFunded || !trade.SellerFunded {
			rt.Abortf(exitcode.ErrIllegalState, "trade %d is not fully funded", params.Trade)
		}
		trade.Executed = true
		err := st.SaveTrade(adt.AsStore(rt), params.Trade, trade)
		builtin.RequireNoErr(rt, err, exitcode.ErrIllegalState, "failed to save trade %d", params.Trade)
	})

	// Fee is truncated, so dust rounds in the seller's favor.
	fee := big.Div(big.Mul(trade.BuyAmount, big.NewInt(st.FeeRatePpm)), big.NewInt(builtin.PpmDenominator))
	proceeds := big.Sub(trade.BuyAmount, fee)

	_, code := rt.Send(trade.BuyToken, builtin.MethodsToken.Transfer, &token.TransferParams{
		To:     trade.Seller,
		Amount: proceeds,
	}, big.Zero())
	builtin.RequireSuccess(rt, code, "failed to pay %v to seller %v", proceeds, trade.Seller)

	if fee.Sign() > 0 {
		_, code := rt.Send(trade.BuyToken, builtin.MethodsToken.Transfer, &token.TransferParams{
			To:     st.Owner,
			Amount: fee,
		}, big.Zero())
		builtin.RequireSuccess(rt, code, "failed to pay fee %v to owner %v", fee, st.Owner)
	}

	_, code = rt.Send(builtin.VestingActorAddr, builtin.MethodsVesting.Transfer, &vesting.TransferParams{
		Pool:   trade.Pool,
		To:     trade.Buyer,
		Amount: trade.SellAmount,
	}, big.Zero())
	builtin.RequireSuccess(rt, code, "failed to deliver %v of rights in pool %d to buyer %v",
		trade.SellAmount, trade.Pool, trade.Buyer)

	rt.Log(rtt.INFO, "executed trade %d, fee %v", params.Trade, fee)
	rt.EmitEvent(EventTradeExecuted, &TradeExecutedEvent{ID: params.Trade, Fee: fee})
	return nil
}

type AddressParams struct {
	Address addr.Address
}

func (a Actor) SetOwner(rt Runtime, params *AddressParams) *abi.EmptyValue {
	var st State
	rt.State().Readonly(&st)
	rt.ValidateImmediateCallerIs(st.Owner)
	builtin.RequireParam(rt, params.Address != addr.Undef, "owner address required")

	rt.State().Transaction(&st, func() {
		st.Owner = params.Address
	})
	return nil
}

type SetFeeRateParams struct {
	FeeRatePpm int64
}

func (a Actor) SetFeeRate(rt Runtime, params *SetFeeRateParams) *abi.EmptyValue {
	var st State
	rt.State().Readonly(&st)
	rt.ValidateImmediateCallerIs(st.Owner)
	requireValidFeeRate(rt, params.FeeRatePpm)

	rt.State().Transaction(&st, func() {
		st.FeeRatePpm = params.FeeRatePpm
	})
	return nil
}

func requireValidFeeRate(rt Runtime, ppm int64) {
	builtin.RequireParam(rt, ppm >= 0 && ppm <= builtin.PpmDenominator,
		"fee rate %d outside [0, %d] ppm", ppm, builtin.PpmDenominator)
}

func loadTradeOrAbort(rt Runtime, st *State, id TradeID) *Trade {
	trade, found, err := st.LoadTrade(adt.AsStore(rt), id)
	builtin.RequireNoErr(rt, err, exitcode.ErrIllegalState, "failed to load trade %d", id)
	if !found {
		rt.Abortf(exitcode.ErrNotFound, "no such trade %d", id)
	}
	return trade
}
