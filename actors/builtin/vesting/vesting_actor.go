package vesting

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
	vmr "github.com/vestlock/vesting-actors/actors/runtime"
	"github.com/vestlock/vesting-actors/actors/util/adt"
)

// The vesting actor locks fungible tokens in pools and releases claims on
// them over per-pool schedules. Unvested rights are transferable between
// claimants, directly or through a delegated approval.
type Actor struct{}

type Runtime = vmr.Runtime

func (a Actor) Exports() []interface{} {
	return []interface{}{
		builtin.MethodConstructor: a.Constructor,
		2:                         a.CreatePool,
		3:                         a.AddClaimants,
		4:                         a.Fund,
		5:                         a.TopUp,
		6:                         a.Claim,
		7:                         a.ClaimableValue,
		8:                         a.Approve,
		9:                         a.Transfer,
		10:                        a.TransferFrom,
		11:                        a.SetOwner,
		12:                        a.SetCreationFee,
		13:                        a.CollectFees,
	}
}

func (a Actor) Code() cid.Cid {
	return builtin.VestingActorCodeID
}

func (a Actor) State() cbor.Er {
	return new(State)
}

var _ vmr.VMActor = Actor{}

type ConstructorParams struct {
	Owner       addr.Address
	CreationFee abi.TokenAmount
}

func (a Actor) Constructor(rt Runtime, params *ConstructorParams) *abi.EmptyValue {
	rt.ValidateImmediateCallerIs(builtin.SystemActorAddr)
	builtin.RequireParam(rt, params.Owner != addr.Undef, "owner address required")
	builtin.RequireParam(rt, params.CreationFee.Sign() >= 0, "negative creation fee %v", params.CreationFee)

	st, err := ConstructState(adt.AsStore(rt), params.Owner, params.CreationFee)
	builtin.RequireNoErr(rt, err, exitcode.ErrIllegalState, "failed to construct state")
	rt.State().Create(st)
	return nil
}

type CreatePoolParams struct {
	Claimants   []addr.Address
	Allocations []abi.TokenAmount

	// Exactly one schedule variant: Linear, or the parallel
	// VestingPeriods/VestingPercents arrays describing tranches.
	Linear          *LinearSchedule
	VestingPeriods  []abi.ChainEpoch
	VestingPercents []int64
}

type CreatePoolReturn struct {
	ID PoolID
}

// CreatePool registers a new, unfunded pool with its schedule and initial
// claimant allocations. The caller becomes the pool owner and must attach
// exactly the configured creation fee.
func (a Actor) CreatePool(rt Runtime, params *CreatePoolParams) *CreatePoolReturn {
	rt.ValidateImmediateCallerAcceptAny()
	caller := rt.Message().Caller()

	schedule := scheduleFromParams(rt, params.Linear, params.VestingPeriods, params.VestingPercents)
	builtin.RequireParam(rt, len(params.Claimants) == len(params.Allocations),
		"claimants length %d does not match allocations length %d", len(params.Claimants), len(params.Allocations))
	for i, alloc := range params.Allocations {
		builtin.RequireParam(rt, alloc.Sign() > 0, "allocation for %v must be positive, got %v", params.Claimants[i], alloc)
	}

	var st State
	rt.State().Readonly(&st)
	requireExactFee(rt, st.CreationFee)

	var id PoolID
	rt.State().Transaction(&st, func() {
		store := adt.AsStore(rt)
		claims, err := adt.MakeEmptyMap(store)
		builtin.RequireNoErr(rt, err, exitcode.ErrIllegalState, "failed to create claims map")
		for i, claimant := range params.Claimants {
			err = claims.Put(adt.AddrKey(claimant), &Claim{Allocation: params.Allocations[i], Claimed: big.Zero()})
			builtin.RequireNoErr(rt, err, exitcode.ErrIllegalState, "failed to record claim for %v", claimant)
		}
		approvals, err := adt.MakeEmptyBalanceTable(store)
		builtin.RequireNoErr(rt, err, exitcode.ErrIllegalState, "failed to create approvals table")

		id, err = st.AppendPool(store, &Pool{
			Owner:        caller,
			Token:        addr.Undef,
			TotalAmount:  big.Zero(),
			VestingStart: 0,
			Schedule:     schedule,
			Claims:       claims.Root(),
			Approvals:    approvals.Root(),
		})
		builtin.RequireNoErr(rt, err, exitcode.ErrIllegalState, "failed to store pool")

		st.FeesCollected = big.Add(st.FeesCollected, rt.Message().ValueReceived())
	})

	rt.Log(rtt.INFO, "created vesting pool %d for %v", id, caller)
	rt.EmitEvent(EventPoolCreated, &PoolCreatedEvent{ID: id, Owner: caller, Schedule: schedule})
	return &CreatePoolReturn{ID: id}
}

type AddClaimantsParams struct {
	Pool        PoolID
	Claimants   []addr.Address
	Allocations []abi.TokenAmount
}

// AddClaimants registers further claimants in an existing pool, for the pool
// owner only, against another payment of the creation fee.
// An entry for an existing claimant overwrites that claimant's allocation
// outright; claimed progress is kept and measured against the new allocation.
func (a Actor) AddClaimants(rt Runtime, params *AddClaimantsParams) *abi.EmptyValue {
	builtin.RequireParam(rt, len(params.Claimants) == len(params.Allocations),
		"claimants length %d does not match allocations length %d", len(params.Claimants), len(params.Allocations))
	for i, alloc := range params.Allocations {
		builtin.RequireParam(rt, alloc.Sign() > 0, "allocation for %v must be positive, got %v", params.Claimants[i], alloc)
	}

	var st State
	rt.State().Readonly(&st)
	pool := loadPoolOrAbort(rt, &st, params.Pool)
	rt.ValidateImmediateCallerIs(pool.Owner)
	requireExactFee(rt, st.CreationFee)

	rt.State().Transaction(&st, func() {
		store := adt.AsStore(rt)
		pool := loadPoolOrAbort(rt, &st, params.Pool)
		for i, claimant := range params.Claimants {
			claimed := big.Zero()
			prev, found, err := pool.LoadClaim(store, claimant)
			builtin.RequireNoErr(rt, err, exitcode.ErrIllegalState, "failed to load claim for %v", claimant)
			if found {
				claimed = prev.Claimed
			}
			err = pool.PutClaim(store, claimant, &Claim{Allocation: params.Allocations[i], Claimed: claimed})
			builtin.RequireNoErr(rt, err, exitcode.ErrIllegalState, "failed to record claim for %v", claimant)
		}
		err := st.SavePool(store, params.Pool, pool)
		builtin.RequireNoErr(rt, err, exitcode.ErrIllegalState, "failed to save pool %d", params.Pool)

		st.FeesCollected = big.Add(st.FeesCollected, rt.Message().ValueReceived())
	})

	rt.EmitEvent(EventClaimantsAdded, &ClaimantsAddedEvent{ID: params.Pool, Claimants: params.Claimants})
	return nil
}

type FundParams struct {
	Pool   PoolID
	Token  addr.Address
	Amount abi.TokenAmount
}

// Fund performs the one-shot funding of a pool: it fixes the pool's token,
// pulls the tokens into custody, and starts the vesting clock at the current
// epoch. The pool owner must have granted this actor a token allowance of at
// least the amount beforehand.
func (a Actor) Fund(rt Runtime, params *FundParams) *abi.EmptyValue {
	builtin.RequireParam(rt, params.Token != addr.Undef, "token address required")
	builtin.RequireParam(rt, params.Amount.Sign() > 0, "funding amount must be positive, got %v", params.Amount)

	var st State
	rt.State().Readonly(&st)
	pool := loadPoolOrAbort(rt, &st, params.Pool)
	rt.ValidateImmediateCallerIs(pool.Owner)
	if pool.Funded() {
		rt.Abortf(exitcode.ErrIllegalState, "pool %d already funded with token %v", params.Pool, pool.Token)
	}

	var start abi.ChainEpoch
	rt.State().Transaction(&st, func() {
		store := adt.AsStore(rt)
		pool := loadPoolOrAbort(rt, &st, params.Pool)
		pool.Token = params.Token
		pool.TotalAmount = params.Amount
		pool.VestingStart = rt.CurrEpoch()
		start = pool.VestingStart
		err := st.SavePool(store, params.Pool, pool)
		builtin.RequireNoErr(rt, err, exitcode.ErrIllegalState, "failed to save pool %d", params.Pool)
	})

	pullTokens(rt, params.Token, rt.Message().Caller(), params.Amount)

	rt.Log(rtt.INFO, "funded pool %d with %v of token %v", params.Pool, params.Amount, params.Token)
	rt.EmitEvent(EventPoolFunded, &PoolFundedEvent{ID: params.Pool, Token: params.Token, Amount: params.Amount, Start: start})
	return nil
}

type TopUpParams struct {
	Pool   PoolID
	Amount abi.TokenAmount
}

// TopUp adds tokens to an already-funded pool. The token and the vesting
// clock are unchanged.
func (a Actor) TopUp(rt Runtime, params *TopUpParams) *abi.EmptyValue {
	builtin.RequireParam(rt, params.Amount.Sign() > 0, "top-up amount must be positive, got %v", params.Amount)

	var st State
	rt.State().Readonly(&st)
	pool := loadPoolOrAbort(rt, &st, params.Pool)
	rt.ValidateImmediateCallerIs(pool.Owner)
	if !pool.Funded() {
		rt.Abortf(exitcode.ErrIllegalState, "pool %d is not funded yet", params.Pool)
	}

	var poolToken addr.Address
	rt.State().Transaction(&st, func() {
		store := adt.AsStore(rt)
		pool := loadPoolOrAbort(rt, &st, params.Pool)
		pool.TotalAmount = big.Add(pool.TotalAmount, params.Amount)
		poolToken = pool.Token
		err := st.SavePool(store, params.Pool, pool)
		builtin.RequireNoErr(rt, err, exitcode.ErrIllegalState, "failed to save pool %d", params.Pool)
	})

	pullTokens(rt, poolToken, rt.Message().Caller(), params.Amount)

	rt.EmitEvent(EventPoolIncreased, &PoolIncreasedEvent{ID: params.Pool, Amount: params.Amount})
	return nil
}

type PoolParams struct {
	Pool PoolID
}

// Claim pays the caller everything newly vested on their claim and returns
// the amount paid. A claim that realizes zero (all vested value already
// collected) succeeds without a payment.
func (a Actor) Claim(rt Runtime, params *PoolParams) *abi.TokenAmount {
	rt.ValidateImmediateCallerAcceptAny()
	caller := rt.Message().Caller()

	var st State
	var amount abi.TokenAmount
	var payToken addr.Address
	rt.State().Transaction(&st, func() {
		store := adt.AsStore(rt)
		pool := loadPoolOrAbort(rt, &st, params.Pool)
		claim := loadClaimOrAbort(rt, store, pool, params.Pool, caller)

		var err error
		amount, err = pool.ClaimableValue(claim, rt.CurrEpoch())
		abortOnClaimError(rt, err)

		if amount.Sign() > 0 {
			claim.Claimed = big.Add(claim.Claimed, amount)
			err = pool.PutClaim(store, caller, claim)
			builtin.RequireNoErr(rt, err, exitcode.ErrIllegalState, "failed to record claim for %v", caller)
			err = st.SavePool(store, params.Pool, pool)
			builtin.RequireNoErr(rt, err, exitcode.ErrIllegalState, "failed to save pool %d", params.Pool)
		}
		payToken = pool.Token
	})

	if amount.Sign() > 0 {
		_, code := rt.Send(payToken, builtin.MethodsToken.Transfer, &token.TransferParams{
			To:     caller,
			Amount: amount,
		}, big.Zero())
		builtin.RequireSuccess(rt, code, "failed to pay out %v to %v", amount, caller)
	}

	rt.EmitEvent(EventClaimed, &ClaimedEvent{ID: params.Pool, Claimant: caller, Amount: amount})
	return &amount
}

type ClaimableValueParams struct {
	Pool     PoolID
	Claimant addr.Address
}

// ClaimableValue reports the amount a claimant could realize by claiming at
// the current epoch, without changing any state.
func (a Actor) ClaimableValue(rt Runtime, params *ClaimableValueParams) *abi.TokenAmount {
	rt.ValidateImmediateCallerAcceptAny()

	var st State
	rt.State().Readonly(&st)
	store := adt.AsStore(rt)
	pool := loadPoolOrAbort(rt, &st, params.Pool)
	claim := loadClaimOrAbort(rt, store, pool, params.Pool, params.Claimant)

	amount, err := pool.ClaimableValue(claim, rt.CurrEpoch())
	abortOnClaimError(rt, err)
	return &amount
}

type ApproveParams struct {
	Pool    PoolID
	Spender addr.Address
	Amount  abi.TokenAmount
}

// Approve grants a spender a standing ceiling on TransferFrom against the
// caller's claim, overwriting any previous grant. A zero amount revokes.
func (a Actor) Approve(rt Runtime, params *ApproveParams) *abi.EmptyValue {
	rt.ValidateImmediateCallerAcceptAny()
	builtin.RequireParam(rt, params.Spender != addr.Undef, "spender address required")
	builtin.RequireParam(rt, params.Amount.Sign() >= 0, "negative approval %v", params.Amount)
	caller := rt.Message().Caller()

	var st State
	rt.State().Transaction(&st, func() {
		store := adt.AsStore(rt)
		pool := loadPoolOrAbort(rt, &st, params.Pool)
		loadClaimOrAbort(rt, store, pool, params.Pool, caller)

		err := pool.SetApproval(store, caller, params.Spender, params.Amount)
		builtin.RequireNoErr(rt, err, exitcode.ErrIllegalState, "failed to set approval")
		err = st.SavePool(store, params.Pool, pool)
		builtin.RequireNoErr(rt, err, exitcode.ErrIllegalState, "failed to save pool %d", params.Pool)
	})

	rt.EmitEvent(EventApprovalSet, &ApprovalSetEvent{ID: params.Pool, Granter: caller, Spender: params.Spender, Amount: params.Amount})
	return nil
}

type TransferParams struct {
	Pool   PoolID
	To     addr.Address
	Amount abi.TokenAmount
}

// Transfer moves part of the caller's unclaimed allocation to another
// claimant, creating the recipient's claim if absent.
func (a Actor) Transfer(rt Runtime, params *TransferParams) *abi.EmptyValue {
	rt.ValidateImmediateCallerAcceptAny()
	builtin.RequireParam(rt, params.To != addr.Undef, "recipient address required")
	builtin.RequireParam(rt, params.Amount.Sign() > 0, "transfer amount must be positive, got %v", params.Amount)
	caller := rt.Message().Caller()

	var st State
	rt.State().Transaction(&st, func() {
		store := adt.AsStore(rt)
		pool := loadPoolOrAbort(rt, &st, params.Pool)
		err := pool.TransferClaim(store, caller, params.To, params.Amount)
		abortOnTransferError(rt, err)
		err = st.SavePool(store, params.Pool, pool)
		builtin.RequireNoErr(rt, err, exitcode.ErrIllegalState, "failed to save pool %d", params.Pool)
	})

	rt.EmitEvent(EventClaimTransferred, &ClaimTransferredEvent{
		ID:      params.Pool,
		From:    caller,
		To:      params.To,
		Amount:  params.Amount,
		Spender: addr.Undef,
	})
	return nil
}

type TransferFromParams struct {
	Pool   PoolID
	From   addr.Address
	To     addr.Address
	Amount abi.TokenAmount
}

// TransferFrom moves part of a claimant's unclaimed allocation on their
// behalf, within the ceiling the claimant approved for the caller.
// The ceiling is a standing limit per transfer and is not reduced by use; it
// remains until the granter overwrites it.
func (a Actor) TransferFrom(rt Runtime, params *TransferFromParams) *abi.EmptyValue {
	rt.ValidateImmediateCallerAcceptAny()
	builtin.RequireParam(rt, params.From != addr.Undef, "source address required")
	builtin.RequireParam(rt, params.To != addr.Undef, "recipient address required")
	builtin.RequireParam(rt, params.Amount.Sign() > 0, "transfer amount must be positive, got %v", params.Amount)
	spender := rt.Message().Caller()

	var st State
	rt.State().Transaction(&st, func() {
		store := adt.AsStore(rt)
		pool := loadPoolOrAbort(rt, &st, params.Pool)

		approval, err := pool.GetApproval(store, params.From, spender)
		builtin.RequireNoErr(rt, err, exitcode.ErrIllegalState, "failed to load approval")
		if params.Amount.GreaterThan(approval) {
			rt.Abortf(exitcode.ErrInsufficientFunds, "transfer of %v exceeds approval %v granted to %v by %v",
				params.Amount, approval, spender, params.From)
		}

		err = pool.TransferClaim(store, params.From, params.To, params.Amount)
		abortOnTransferError(rt, err)
		err = st.SavePool(store, params.Pool, pool)
		builtin.RequireNoErr(rt, err, exitcode.ErrIllegalState, "failed to save pool %d", params.Pool)
	})

	rt.EmitEvent(EventClaimTransferred, &ClaimTransferredEvent{
		ID:      params.Pool,
		From:    params.From,
		To:      params.To,
		Amount:  params.Amount,
		Spender: spender,
	})
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

type SetCreationFeeParams struct {
	Fee abi.TokenAmount
}

func (a Actor) SetCreationFee(rt Runtime, params *SetCreationFeeParams) *abi.EmptyValue {
	var st State
	rt.State().Readonly(&st)
	rt.ValidateImmediateCallerIs(st.Owner)
	builtin.RequireParam(rt, params.Fee.Sign() >= 0, "negative creation fee %v", params.Fee)

	rt.State().Transaction(&st, func() {
		st.CreationFee = params.Fee
	})
	return nil
}

// CollectFees sweeps all accrued creation fees to the given address.
func (a Actor) CollectFees(rt Runtime, params *AddressParams) *abi.EmptyValue {
	var st State
	rt.State().Readonly(&st)
	rt.ValidateImmediateCallerIs(st.Owner)
	builtin.RequireParam(rt, params.Address != addr.Undef, "destination address required")

	var amount abi.TokenAmount
	rt.State().Transaction(&st, func() {
		amount = st.FeesCollected
		st.FeesCollected = big.Zero()
	})

	if amount.Sign() > 0 {
		_, code := rt.Send(params.Address, builtin.MethodSend, nil, amount)
		builtin.RequireSuccess(rt, code, "failed to send collected fees to %v", params.Address)
	}
	return nil
}

////////////////////////////////////////////////////////////////////////////////
// Helpers
////////////////////////////////////////////////////////////////////////////////

func scheduleFromParams(rt Runtime, linear *LinearSchedule, periods []abi.ChainEpoch, percents []int64) Schedule {
	var schedule Schedule
	if linear != nil {
		builtin.RequireParam(rt, len(periods) == 0 && len(percents) == 0, "cannot mix linear and tranche schedules")
		schedule.Linear = linear
	} else {
		builtin.RequireParam(rt, len(periods) == len(percents),
			"vesting periods length %d does not match percents length %d", len(periods), len(percents))
		tranches := make([]Tranche, len(periods))
		for i := range periods {
			tranches[i] = Tranche{Duration: periods[i], Ppm: percents[i]}
		}
		schedule.Tranches = &TrancheSchedule{Tranches: tranches}
	}
	if err := schedule.Validate(); err != nil {
		rt.Abortf(exitcode.ErrIllegalArgument, "invalid schedule: %v", err)
	}
	return schedule
}

func requireExactFee(rt Runtime, fee abi.TokenAmount) {
	if !rt.Message().ValueReceived().Equals(fee) {
		rt.Abortf(exitcode.ErrInsufficientFunds, "message value %v does not match creation fee %v",
			rt.Message().ValueReceived(), fee)
	}
}

func loadPoolOrAbort(rt Runtime, st *State, id PoolID) *Pool {
	pool, found, err := st.LoadPool(adt.AsStore(rt), id)
	builtin.RequireNoErr(rt, err, exitcode.ErrIllegalState, "failed to load pool %d", id)
	if !found {
		rt.Abortf(exitcode.ErrNotFound, "no such vesting pool %d", id)
	}
	return pool
}

func loadClaimOrAbort(rt Runtime, store adt.Store, pool *Pool, id PoolID, claimant addr.Address) *Claim {
	claim, found, err := pool.LoadClaim(store, claimant)
	builtin.RequireNoErr(rt, err, exitcode.ErrIllegalState, "failed to load claim for %v", claimant)
	// A record drained to zero by transfers out no longer backs a claim.
	if !found || claim.Allocation.Sign() == 0 {
		rt.Abortf(exitcode.ErrNotFound, "no claim for %v in pool %d", claimant, id)
	}
	return claim
}

// pullTokens draws tokens from an owner's balance into this actor's custody,
// relying on a token allowance granted beforehand.
func pullTokens(rt Runtime, tokenAddr addr.Address, from addr.Address, amount abi.TokenAmount) {
	_, code := rt.Send(tokenAddr, builtin.MethodsToken.TransferFrom, &token.TransferFromParams{
		From:   from,
		To:     rt.Message().Receiver(),
		Amount: amount,
	}, big.Zero())
	builtin.RequireSuccess(rt, code, "failed to pull %v of token %v from %v", amount, tokenAddr, from)
}

func abortOnClaimError(rt Runtime, err error) {
	switch err {
	case nil:
	case ErrNotStarted, ErrBeforeCliff:
		rt.Abortf(exitcode.ErrForbidden, "%v", err)
	default:
		rt.Abortf(exitcode.ErrIllegalState, "claim accounting failed: %v", err)
	}
}

func abortOnTransferError(rt Runtime, err error) {
	switch err {
	case nil:
	case ErrNoClaim:
		rt.Abortf(exitcode.ErrNotFound, "%v", err)
	case ErrInsufficientAllocation:
		rt.Abortf(exitcode.ErrInsufficientFunds, "%v", err)
	default:
		rt.Abortf(exitcode.ErrIllegalState, "transfer failed: %v", err)
	}
}
