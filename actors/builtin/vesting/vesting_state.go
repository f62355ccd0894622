package vesting

import (
	addr "github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/abi"
	"github.com/filecoin-project/go-state-types/big"
	cid "github.com/ipfs/go-cid"
	"golang.org/x/xerrors"

	"github.com/vestlock/vesting-actors/actors/builtin"
	"github.com/vestlock/vesting-actors/actors/util/adt"
)

// PoolID is a dense, monotonically assigned identifier for a vesting pool.
type PoolID int64

type State struct {
	// Address entitled to admin operations and the accrued creation fees.
	Owner addr.Address

	// Exact native-value payment required alongside CreatePool and AddClaimants.
	CreationFee abi.TokenAmount

	// Creation fees accrued and not yet swept by the owner.
	FeesCollected abi.TokenAmount

	// Pools indexed by PoolID (AMT[PoolID]Pool).
	Pools cid.Cid
}

type Pool struct {
	// Address that created the pool and administers it.
	Owner addr.Address

	// Token actor whose units the pool holds. Undef until the pool is funded.
	Token addr.Address

	// Cumulative amount ever paid into the pool, across Fund and TopUp.
	TotalAmount abi.TokenAmount

	// Epoch of the funding event, from which the schedule is measured.
	// Meaningless until the pool is funded.
	VestingStart abi.ChainEpoch

	Schedule Schedule

	// Claims by claimant address (HAMT[address]Claim).
	Claims cid.Cid

	// Delegated-spend ceilings, keyed by (claimant, spender) pair.
	Approvals cid.Cid
}

// Claim is one claimant's stake in a pool.
type Claim struct {
	// Rights currently held, in token units. Reduced by transfers out,
	// increased by transfers in.
	Allocation abi.TokenAmount

	// Cumulative amount already paid out. Never decreases.
	Claimed abi.TokenAmount
}

// Sentinel errors distinguishing the reasons a claim cannot pay out yet.
var (
	ErrNotStarted  = xerrors.New("pool is not funded, vesting has not started")
	ErrBeforeCliff = xerrors.New("vesting cliff has not passed")
)

// Errors signalled by TransferClaim, mapped to exit codes by the actor.
var (
	ErrNoClaim                = xerrors.New("sender holds no claim in pool")
	ErrInsufficientAllocation = xerrors.New("transfer amount exceeds unclaimed allocation")
)

func ConstructState(store adt.Store, owner addr.Address, creationFee abi.TokenAmount) (*State, error) {
	pools, err := adt.MakeEmptyArray(store)
	if err != nil {
		return nil, xerrors.Errorf("failed to create empty pools array: %w", err)
	}
	return &State{
		Owner:         owner,
		CreationFee:   creationFee,
		FeesCollected: big.Zero(),
		Pools:         pools.Root(),
	}, nil
}

func (st *State) LoadPool(store adt.Store, id PoolID) (*Pool, bool, error) {
	if id < 0 {
		return nil, false, nil
	}
	pools := adt.AsArray(store, st.Pools)
	var pool Pool
	found, err := pools.Get(uint64(id), &pool)
	if err != nil {
		return nil, false, xerrors.Errorf("failed to get pool %d: %w", id, err)
	}
	return &pool, found, nil
}

func (st *State) SavePool(store adt.Store, id PoolID, pool *Pool) error {
	pools := adt.AsArray(store, st.Pools)
	if err := pools.Set(uint64(id), pool); err != nil {
		return xerrors.Errorf("failed to set pool %d: %w", id, err)
	}
	st.Pools = pools.Root()
	return nil
}

// AppendPool stores a new pool at the next dense identifier.
func (st *State) AppendPool(store adt.Store, pool *Pool) (PoolID, error) {
	pools := adt.AsArray(store, st.Pools)
	idx, err := pools.Append(pool)
	if err != nil {
		return 0, xerrors.Errorf("failed to append pool: %w", err)
	}
	st.Pools = pools.Root()
	return PoolID(idx), nil
}

// Funded reports whether the pool has received its one-shot funding.
func (p *Pool) Funded() bool {
	return p.Token != addr.Undef
}

func (p *Pool) LoadClaim(store adt.Store, claimant addr.Address) (*Claim, bool, error) {
	claims := adt.AsMap(store, p.Claims)
	var claim Claim
	found, err := claims.Get(adt.AddrKey(claimant), &claim)
	if err != nil {
		return nil, false, xerrors.Errorf("failed to get claim for %v: %w", claimant, err)
	}
	return &claim, found, nil
}

func (p *Pool) PutClaim(store adt.Store, claimant addr.Address, claim *Claim) error {
	claims := adt.AsMap(store, p.Claims)
	if err := claims.Put(adt.AddrKey(claimant), claim); err != nil {
		return xerrors.Errorf("failed to put claim for %v: %w", claimant, err)
	}
	p.Claims = claims.Root()
	return nil
}

// ClaimableValue computes the amount newly payable from a claim at epoch t:
// the vested fraction of the allocation minus what was already claimed.
// Returns ErrNotStarted or ErrBeforeCliff when no payout is permitted yet.
func (p *Pool) ClaimableValue(claim *Claim, t abi.ChainEpoch) (abi.TokenAmount, error) {
	if !p.Funded() {
		return big.Zero(), ErrNotStarted
	}
	ppm, ok := p.Schedule.VestedPpm(t - p.VestingStart)
	if !ok {
		return big.Zero(), ErrBeforeCliff
	}
	vested := big.Div(big.Mul(claim.Allocation, big.NewInt(ppm)), big.NewInt(builtin.PpmDenominator))
	claimable := big.Sub(vested, claim.Claimed)
	if claimable.Sign() < 0 {
		// Possible only after AddClaimants shrank an allocation below what was
		// already paid out. The accounting is inconsistent, so refuse loudly
		// rather than report a wrapped or clamped value.
		return big.Zero(), xerrors.Errorf("claimed %v exceeds vested %v of allocation %v", claim.Claimed, vested, claim.Allocation)
	}
	return claimable, nil
}

// TransferClaim moves `amount` of unclaimed rights from one claimant to
// another, creating the recipient's claim if absent.
// The sender's claimed progress stays with the sender.
func (p *Pool) TransferClaim(store adt.Store, from, to addr.Address, amount abi.TokenAmount) error {
	fromClaim, found, err := p.LoadClaim(store, from)
	if err != nil {
		return err
	}
	if !found {
		return ErrNoClaim
	}
	unclaimed := big.Sub(fromClaim.Allocation, fromClaim.Claimed)
	if amount.GreaterThan(unclaimed) {
		return ErrInsufficientAllocation
	}
	fromClaim.Allocation = big.Sub(fromClaim.Allocation, amount)
	if err := p.PutClaim(store, from, fromClaim); err != nil {
		return err
	}

	// Reloaded after the debit so a self-transfer conserves the claim.
	toClaim, found, err := p.LoadClaim(store, to)
	if err != nil {
		return err
	}
	if !found {
		toClaim = &Claim{Allocation: big.Zero(), Claimed: big.Zero()}
	}
	toClaim.Allocation = big.Add(toClaim.Allocation, amount)
	return p.PutClaim(store, to, toClaim)
}

// approvalKey identifies a delegated-spend ceiling granted by a claimant to a
// spender. ID address bytes are self-delimiting varints, so plain
// concatenation is unambiguous.
type approvalKey struct {
	granter addr.Address
	spender addr.Address
}

func (k approvalKey) Key() string {
	return string(k.granter.Bytes()) + string(k.spender.Bytes())
}

// GetApproval returns the standing ceiling granted by `granter` to `spender`,
// zero if none was ever set.
func (p *Pool) GetApproval(store adt.Store, granter, spender addr.Address) (abi.TokenAmount, error) {
	approvals := adt.AsBalanceTable(store, p.Approvals)
	return approvals.Get(approvalKey{granter, spender})
}

// SetApproval overwrites the ceiling granted by `granter` to `spender`.
func (p *Pool) SetApproval(store adt.Store, granter, spender addr.Address, amount abi.TokenAmount) error {
	approvals := adt.AsBalanceTable(store, p.Approvals)
	if err := approvals.Set(approvalKey{granter, spender}, amount); err != nil {
		return xerrors.Errorf("failed to set approval: %w", err)
	}
	p.Approvals = approvals.Root()
	return nil
}
