package escrow_test

import (
	"strings"
	"testing"

	addr "github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/abi"
	"github.com/filecoin-project/go-state-types/big"
	"github.com/filecoin-project/go-state-types/exitcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vestlock/vesting-actors/actors/builtin"
	"github.com/vestlock/vesting-actors/actors/builtin/escrow"
	"github.com/vestlock/vesting-actors/actors/builtin/token"
	"github.com/vestlock/vesting-actors/actors/builtin/vesting"
	"github.com/vestlock/vesting-actors/support/mock"
	tutil "github.com/vestlock/vesting-actors/support/testing"
)

func TestExports(t *testing.T) {
	mock.CheckActorExports(t, escrow.Actor{})
}

type harness struct {
	escrow.Actor
	t *testing.T

	owner   addr.Address
	buyer   addr.Address
	seller  addr.Address
	tok     addr.Address
	feePpm  int64
	pool    vesting.PoolID
	payment abi.TokenAmount
	rights  abi.TokenAmount
}

func newHarness(t *testing.T) *harness {
	return &harness{
		t:       t,
		owner:   tutil.NewIDAddr(t, 100),
		buyer:   tutil.NewIDAddr(t, 101),
		seller:  tutil.NewIDAddr(t, 102),
		tok:     tutil.NewIDAddr(t, 200),
		feePpm:  25_000, // 2.5%
		pool:    3,
		payment: abi.NewTokenAmount(10_000),
		rights:  abi.NewTokenAmount(500),
	}
}

func (h *harness) builder() *mock.RuntimeBuilder {
	return mock.NewBuilder(builtin.EscrowActorAddr).
		WithCaller(builtin.SystemActorAddr, builtin.SystemActorCodeID)
}

func (h *harness) constructAndVerify(rt *mock.Runtime) {
	rt.SetCaller(builtin.SystemActorAddr, builtin.SystemActorCodeID)
	rt.ExpectValidateCallerAddr(builtin.SystemActorAddr)
	ret := rt.Call(h.Constructor, &escrow.ConstructorParams{Owner: h.owner, FeeRatePpm: h.feePpm})
	assert.Nil(h.t, ret)
	rt.Verify()
}

func (h *harness) tradeParams() *escrow.NewTradeParams {
	return &escrow.NewTradeParams{
		Buyer:      h.buyer,
		Seller:     h.seller,
		BuyToken:   h.tok,
		BuyAmount:  h.payment,
		Pool:       h.pool,
		SellAmount: h.rights,
	}
}

func (h *harness) newTrade(rt *mock.Runtime, expectID escrow.TradeID) escrow.TradeID {
	rt.SetCaller(h.buyer, builtin.AccountActorCodeID)
	rt.ExpectValidateCallerAny()
	rt.ExpectEmittedEvent(escrow.EventTradeCreated, &escrow.TradeCreatedEvent{ID: expectID, Buyer: h.buyer, Seller: h.seller})
	ret := rt.Call(h.NewTrade, h.tradeParams()).(*escrow.NewTradeReturn)
	rt.Verify()
	require.Equal(h.t, expectID, ret.ID)
	return ret.ID
}

func (h *harness) fundBuyer(rt *mock.Runtime, id escrow.TradeID) {
	rt.SetCaller(h.buyer, builtin.AccountActorCodeID)
	rt.ExpectValidateCallerAny()
	rt.ExpectSend(h.tok, builtin.MethodsToken.TransferFrom, &token.TransferFromParams{
		From:   h.buyer,
		To:     builtin.EscrowActorAddr,
		Amount: h.payment,
	}, big.Zero(), nil, exitcode.Ok)
	rt.ExpectEmittedEvent(escrow.EventTradeFunded, &escrow.TradeFundedEvent{ID: id, Party: h.buyer})
	rt.Call(h.Fund, &escrow.TradeParams{Trade: id})
	rt.Verify()
}

func (h *harness) fundSeller(rt *mock.Runtime, id escrow.TradeID) {
	rt.SetCaller(h.seller, builtin.AccountActorCodeID)
	rt.ExpectValidateCallerAny()
	rt.ExpectSend(builtin.VestingActorAddr, builtin.MethodsVesting.TransferFrom, &vesting.TransferFromParams{
		Pool:   h.pool,
		From:   h.seller,
		To:     builtin.EscrowActorAddr,
		Amount: h.rights,
	}, big.Zero(), nil, exitcode.Ok)
	rt.ExpectEmittedEvent(escrow.EventTradeFunded, &escrow.TradeFundedEvent{ID: id, Party: h.seller})
	rt.Call(h.Fund, &escrow.TradeParams{Trade: id})
	rt.Verify()
}

func (h *harness) getState(rt *mock.Runtime) *escrow.State {
	var st escrow.State
	rt.GetState(&st)
	return &st
}

func (h *harness) getTrade(rt *mock.Runtime, id escrow.TradeID) *escrow.Trade {
	trade, found, err := h.getState(rt).LoadTrade(rt.AdtStore(), id)
	require.NoError(h.t, err)
	require.True(h.t, found)
	return trade
}

func (h *harness) checkState(rt *mock.Runtime) {
	_, msgs := escrow.CheckStateInvariants(h.getState(rt), rt.AdtStore())
	assert.True(h.t, msgs.IsEmpty(), strings.Join(msgs.Messages(), "\n"))
}

func TestEscrowConstruction(t *testing.T) {
	h := newHarness(t)

	t.Run("stores owner and fee rate", func(t *testing.T) {
		rt := h.builder().Build(t)
		h.constructAndVerify(rt)

		st := h.getState(rt)
		assert.Equal(t, h.owner, st.Owner)
		assert.Equal(t, h.feePpm, st.FeeRatePpm)
		h.checkState(rt)
	})

	t.Run("rejects fee rate above unity", func(t *testing.T) {
		rt := h.builder().Build(t)
		rt.ExpectValidateCallerAddr(builtin.SystemActorAddr)
		rt.ExpectAbort(exitcode.ErrIllegalArgument, func() {
			rt.Call(h.Constructor, &escrow.ConstructorParams{Owner: h.owner, FeeRatePpm: 1_000_001})
		})
	})
}

func TestNewTrade(t *testing.T) {
	h := newHarness(t)

	t.Run("either party may register", func(t *testing.T) {
		rt := h.builder().Build(t)
		h.constructAndVerify(rt)

		id := h.newTrade(rt, 0)

		trade := h.getTrade(rt, id)
		assert.Equal(t, h.buyer, trade.Buyer)
		assert.Equal(t, h.seller, trade.Seller)
		assert.True(t, trade.BuyAmount.Equals(h.payment))
		assert.True(t, trade.SellAmount.Equals(h.rights))
		assert.False(t, trade.BuyerFunded)
		assert.False(t, trade.SellerFunded)
		assert.False(t, trade.Terminal())

		// The seller may register the next one.
		rt.SetCaller(h.seller, builtin.AccountActorCodeID)
		rt.ExpectValidateCallerAny()
		rt.ExpectEmittedEvent(escrow.EventTradeCreated, &escrow.TradeCreatedEvent{ID: 1, Buyer: h.buyer, Seller: h.seller})
		ret := rt.Call(h.NewTrade, h.tradeParams()).(*escrow.NewTradeReturn)
		rt.Verify()
		assert.Equal(t, escrow.TradeID(1), ret.ID)
		h.checkState(rt)
	})

	t.Run("third-party matchmaker may register", func(t *testing.T) {
		rt := h.builder().Build(t)
		h.constructAndVerify(rt)

		matchmaker := tutil.NewIDAddr(t, 999)
		rt.SetCaller(matchmaker, builtin.AccountActorCodeID)
		rt.ExpectValidateCallerAny()
		rt.ExpectEmittedEvent(escrow.EventTradeCreated, &escrow.TradeCreatedEvent{ID: 0, Buyer: h.buyer, Seller: h.seller})
		ret := rt.Call(h.NewTrade, h.tradeParams()).(*escrow.NewTradeReturn)
		rt.Verify()

		// The matchmaker itself still cannot fund or settle the trade.
		rt.SetCaller(matchmaker, builtin.AccountActorCodeID)
		rt.ExpectValidateCallerAny()
		rt.ExpectAbort(exitcode.ErrForbidden, func() {
			rt.Call(h.Fund, &escrow.TradeParams{Trade: ret.ID})
		})
	})

	t.Run("buyer and seller must differ", func(t *testing.T) {
		rt := h.builder().Build(t)
		h.constructAndVerify(rt)

		params := h.tradeParams()
		params.Seller = h.buyer
		rt.SetCaller(h.buyer, builtin.AccountActorCodeID)
		rt.ExpectValidateCallerAny()
		rt.ExpectAbort(exitcode.ErrIllegalArgument, func() {
			rt.Call(h.NewTrade, params)
		})
	})

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		rt := h.builder().Build(t)
		h.constructAndVerify(rt)

		params := h.tradeParams()
		params.BuyAmount = big.Zero()
		rt.SetCaller(h.buyer, builtin.AccountActorCodeID)
		rt.ExpectValidateCallerAny()
		rt.ExpectAbort(exitcode.ErrIllegalArgument, func() {
			rt.Call(h.NewTrade, params)
		})

		params = h.tradeParams()
		params.SellAmount = abi.NewTokenAmount(-1)
		rt.SetCaller(h.seller, builtin.AccountActorCodeID)
		rt.ExpectValidateCallerAny()
		rt.ExpectAbort(exitcode.ErrIllegalArgument, func() {
			rt.Call(h.NewTrade, params)
		})
	})
}

func TestFund(t *testing.T) {
	h := newHarness(t)

	setup := func(t *testing.T) (*mock.Runtime, escrow.TradeID) {
		rt := h.builder().Build(t)
		h.constructAndVerify(rt)
		return rt, h.newTrade(rt, 0)
	}

	t.Run("buyer leg pulls the payment", func(t *testing.T) {
		rt, id := setup(t)
		h.fundBuyer(rt, id)

		trade := h.getTrade(rt, id)
		assert.True(t, trade.BuyerFunded)
		assert.False(t, trade.SellerFunded)
		h.checkState(rt)
	})

	t.Run("seller leg pulls the vesting rights", func(t *testing.T) {
		rt, id := setup(t)
		h.fundSeller(rt, id)

		trade := h.getTrade(rt, id)
		assert.False(t, trade.BuyerFunded)
		assert.True(t, trade.SellerFunded)
		h.checkState(rt)
	})

	t.Run("each leg funds at most once", func(t *testing.T) {
		rt, id := setup(t)
		h.fundBuyer(rt, id)

		rt.SetCaller(h.buyer, builtin.AccountActorCodeID)
		rt.ExpectValidateCallerAny()
		rt.ExpectAbort(exitcode.ErrIllegalState, func() {
			rt.Call(h.Fund, &escrow.TradeParams{Trade: id})
		})
	})

	t.Run("non-participant is forbidden", func(t *testing.T) {
		rt, id := setup(t)

		rt.SetCaller(tutil.NewIDAddr(t, 999), builtin.AccountActorCodeID)
		rt.ExpectValidateCallerAny()
		rt.ExpectAbort(exitcode.ErrForbidden, func() {
			rt.Call(h.Fund, &escrow.TradeParams{Trade: id})
		})
	})

	t.Run("settled trade cannot be funded", func(t *testing.T) {
		rt, id := setup(t)
		h.cancel(rt, id, h.buyer)

		rt.SetCaller(h.seller, builtin.AccountActorCodeID)
		rt.ExpectValidateCallerAny()
		rt.ExpectAbort(exitcode.ErrIllegalState, func() {
			rt.Call(h.Fund, &escrow.TradeParams{Trade: id})
		})
	})

	t.Run("missing trade is not found", func(t *testing.T) {
		rt, _ := setup(t)

		rt.SetCaller(h.buyer, builtin.AccountActorCodeID)
		rt.ExpectValidateCallerAny()
		rt.ExpectAbort(exitcode.ErrNotFound, func() {
			rt.Call(h.Fund, &escrow.TradeParams{Trade: 42})
		})
	})
}

// cancel voids the trade as the given party, expecting refunds for whichever
// legs were funded at that point.
func (h *harness) cancel(rt *mock.Runtime, id escrow.TradeID, by addr.Address) {
	trade := h.getTrade(rt, id)
	rt.SetCaller(by, builtin.AccountActorCodeID)
	rt.ExpectValidateCallerAny()
	if trade.BuyerFunded {
		rt.ExpectSend(h.tok, builtin.MethodsToken.Transfer, &token.TransferParams{
			To:     h.buyer,
			Amount: h.payment,
		}, big.Zero(), nil, exitcode.Ok)
	}
	if trade.SellerFunded {
		rt.ExpectSend(builtin.VestingActorAddr, builtin.MethodsVesting.Transfer, &vesting.TransferParams{
			Pool:   h.pool,
			To:     h.seller,
			Amount: h.rights,
		}, big.Zero(), nil, exitcode.Ok)
	}
	rt.ExpectEmittedEvent(escrow.EventTradeCanceled, &escrow.TradeCanceledEvent{ID: id, By: by})
	rt.Call(h.Cancel, &escrow.TradeParams{Trade: id})
	rt.Verify()
}

func TestCancel(t *testing.T) {
	h := newHarness(t)

	setup := func(t *testing.T) (*mock.Runtime, escrow.TradeID) {
		rt := h.builder().Build(t)
		h.constructAndVerify(rt)
		return rt, h.newTrade(rt, 0)
	}

	t.Run("unfunded trade cancels without refunds", func(t *testing.T) {
		rt, id := setup(t)
		h.cancel(rt, id, h.seller)

		assert.True(t, h.getTrade(rt, id).Canceled)
		h.checkState(rt)
	})

	t.Run("refunds the funded legs", func(t *testing.T) {
		rt, id := setup(t)
		h.fundBuyer(rt, id)
		h.fundSeller(rt, id)
		h.cancel(rt, id, h.buyer)

		trade := h.getTrade(rt, id)
		assert.True(t, trade.Canceled)
		assert.True(t, trade.Terminal())
		h.checkState(rt)
	})

	t.Run("refunds only the buyer leg when the seller never funded", func(t *testing.T) {
		rt, id := setup(t)
		h.fundBuyer(rt, id)
		h.cancel(rt, id, h.buyer)
	})

	t.Run("cannot cancel twice", func(t *testing.T) {
		rt, id := setup(t)
		h.cancel(rt, id, h.buyer)

		rt.SetCaller(h.seller, builtin.AccountActorCodeID)
		rt.ExpectValidateCallerAny()
		rt.ExpectAbort(exitcode.ErrIllegalState, func() {
			rt.Call(h.Cancel, &escrow.TradeParams{Trade: id})
		})
	})

	t.Run("non-participant is forbidden", func(t *testing.T) {
		rt, id := setup(t)

		rt.SetCaller(tutil.NewIDAddr(t, 999), builtin.AccountActorCodeID)
		rt.ExpectValidateCallerAny()
		rt.ExpectAbort(exitcode.ErrForbidden, func() {
			rt.Call(h.Cancel, &escrow.TradeParams{Trade: id})
		})
	})
}

func TestExecute(t *testing.T) {
	h := newHarness(t)

	setup := func(t *testing.T) (*mock.Runtime, escrow.TradeID) {
		rt := h.builder().Build(t)
		h.constructAndVerify(rt)
		return rt, h.newTrade(rt, 0)
	}

	execute := func(rt *mock.Runtime, id escrow.TradeID, by addr.Address, fee abi.TokenAmount) {
		rt.SetCaller(by, builtin.AccountActorCodeID)
		rt.ExpectValidateCallerAny()
		rt.ExpectSend(h.tok, builtin.MethodsToken.Transfer, &token.TransferParams{
			To:     h.seller,
			Amount: big.Sub(h.payment, fee),
		}, big.Zero(), nil, exitcode.Ok)
		if fee.Sign() > 0 {
			rt.ExpectSend(h.tok, builtin.MethodsToken.Transfer, &token.TransferParams{
				To:     h.owner,
				Amount: fee,
			}, big.Zero(), nil, exitcode.Ok)
		}
		rt.ExpectSend(builtin.VestingActorAddr, builtin.MethodsVesting.Transfer, &vesting.TransferParams{
			Pool:   h.pool,
			To:     h.buyer,
			Amount: h.rights,
		}, big.Zero(), nil, exitcode.Ok)
		rt.ExpectEmittedEvent(escrow.EventTradeExecuted, &escrow.TradeExecutedEvent{ID: id, Fee: fee})
		rt.Call(h.Execute, &escrow.TradeParams{Trade: id})
		rt.Verify()
	}

	t.Run("settles both legs and takes the fee", func(t *testing.T) {
		rt, id := setup(t)
		h.fundBuyer(rt, id)
		h.fundSeller(rt, id)

		// 2.5% of 10000
		execute(rt, id, h.buyer, abi.NewTokenAmount(250))

		trade := h.getTrade(rt, id)
		assert.True(t, trade.Executed)
		assert.True(t, trade.Terminal())
		h.checkState(rt)
	})

	t.Run("either party may trigger execution", func(t *testing.T) {
		rt, id := setup(t)
		h.fundBuyer(rt, id)
		h.fundSeller(rt, id)
		execute(rt, id, h.seller, abi.NewTokenAmount(250))
	})

	t.Run("zero fee rate skips the fee payment", func(t *testing.T) {
		rt := h.builder().Build(t)
		rt.SetCaller(builtin.SystemActorAddr, builtin.SystemActorCodeID)
		rt.ExpectValidateCallerAddr(builtin.SystemActorAddr)
		rt.Call(h.Constructor, &escrow.ConstructorParams{Owner: h.owner, FeeRatePpm: 0})
		rt.Verify()

		id := h.newTrade(rt, 0)
		h.fundBuyer(rt, id)
		h.fundSeller(rt, id)
		execute(rt, id, h.buyer, big.Zero())
	})

	t.Run("requires both legs funded", func(t *testing.T) {
		rt, id := setup(t)
		h.fundBuyer(rt, id)

		rt.SetCaller(h.buyer, builtin.AccountActorCodeID)
		rt.ExpectValidateCallerAny()
		rt.ExpectAbort(exitcode.ErrIllegalState, func() {
			rt.Call(h.Execute, &escrow.TradeParams{Trade: id})
		})
	})

	t.Run("cannot execute a canceled trade", func(t *testing.T) {
		rt, id := setup(t)
		h.fundBuyer(rt, id)
		h.fundSeller(rt, id)
		h.cancel(rt, id, h.buyer)

		rt.SetCaller(h.seller, builtin.AccountActorCodeID)
		rt.ExpectValidateCallerAny()
		rt.ExpectAbort(exitcode.ErrIllegalState, func() {
			rt.Call(h.Execute, &escrow.TradeParams{Trade: id})
		})
	})

	t.Run("cannot execute twice", func(t *testing.T) {
		rt, id := setup(t)
		h.fundBuyer(rt, id)
		h.fundSeller(rt, id)
		execute(rt, id, h.buyer, abi.NewTokenAmount(250))

		rt.SetCaller(h.buyer, builtin.AccountActorCodeID)
		rt.ExpectValidateCallerAny()
		rt.ExpectAbort(exitcode.ErrIllegalState, func() {
			rt.Call(h.Execute, &escrow.TradeParams{Trade: id})
		})
	})

	t.Run("non-participant is forbidden", func(t *testing.T) {
		rt, id := setup(t)

		rt.SetCaller(tutil.NewIDAddr(t, 999), builtin.AccountActorCodeID)
		rt.ExpectValidateCallerAny()
		rt.ExpectAbort(exitcode.ErrForbidden, func() {
			rt.Call(h.Execute, &escrow.TradeParams{Trade: id})
		})
	})
}

func TestEscrowAdmin(t *testing.T) {
	h := newHarness(t)

	t.Run("owner rotates", func(t *testing.T) {
		rt := h.builder().Build(t)
		h.constructAndVerify(rt)

		newOwner := tutil.NewIDAddr(t, 110)
		rt.SetCaller(h.owner, builtin.AccountActorCodeID)
		rt.ExpectValidateCallerAddr(h.owner)
		rt.Call(h.SetOwner, &escrow.AddressParams{Address: newOwner})
		rt.Verify()

		assert.Equal(t, newOwner, h.getState(rt).Owner)
	})

	t.Run("fee rate updates within bounds", func(t *testing.T) {
		rt := h.builder().Build(t)
		h.constructAndVerify(rt)

		rt.SetCaller(h.owner, builtin.AccountActorCodeID)
		rt.ExpectValidateCallerAddr(h.owner)
		rt.Call(h.SetFeeRate, &escrow.SetFeeRateParams{FeeRatePpm: 50_000})
		rt.Verify()
		assert.Equal(t, int64(50_000), h.getState(rt).FeeRatePpm)

		rt.SetCaller(h.owner, builtin.AccountActorCodeID)
		rt.ExpectValidateCallerAddr(h.owner)
		rt.ExpectAbort(exitcode.ErrIllegalArgument, func() {
			rt.Call(h.SetFeeRate, &escrow.SetFeeRateParams{FeeRatePpm: -1})
		})
	})

	t.Run("non-owner is forbidden", func(t *testing.T) {
		rt := h.builder().Build(t)
		h.constructAndVerify(rt)

		rt.SetCaller(h.buyer, builtin.AccountActorCodeID)
		rt.ExpectValidateCallerAddr(h.owner)
		rt.ExpectAbort(exitcode.ErrForbidden, func() {
			rt.Call(h.SetFeeRate, &escrow.SetFeeRateParams{FeeRatePpm: 1})
		})
	})
}
