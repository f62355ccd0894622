package vesting

import (
	addr "github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/abi"
	"github.com/filecoin-project/go-state-types/big"

	"github.com/vestlock/vesting-actors/actors/builtin"
	"github.com/vestlock/vesting-actors/actors/util/adt"
)

type StateSummary struct {
	PoolCount      int
	ClaimCount     int
	TotalAllocated abi.TokenAmount
	TotalClaimed   abi.TokenAmount
}

// Checks internal invariants of the vesting state.
func CheckStateInvariants(st *State, store adt.Store) (*StateSummary, *builtin.MessageAccumulator) {
	acc := &builtin.MessageAccumulator{}
	summary := &StateSummary{
		TotalAllocated: big.Zero(),
		TotalClaimed:   big.Zero(),
	}

	acc.Require(st.Owner.Protocol() == addr.ID, "owner %v is not an ID address", st.Owner)
	acc.Require(st.CreationFee.Sign() >= 0, "negative creation fee %v", st.CreationFee)
	acc.Require(st.FeesCollected.Sign() >= 0, "negative collected fees %v", st.FeesCollected)

	pools := adt.AsArray(store, st.Pools)
	var pool Pool
	err := pools.ForEach(&pool, func(i int64) error {
		summary.PoolCount++
		acc := acc.WithPrefix("pool %d: ", i)

		acc.RequireNoError(pool.Schedule.Validate(), "invalid schedule")
		if pool.Schedule.Tranches != nil {
			acc.Require(pool.Schedule.Tranches.TotalPpm() == builtin.PpmDenominator,
				"tranche fractions sum to %d ppm", pool.Schedule.Tranches.TotalPpm())
		}
		acc.Require(pool.TotalAmount.Sign() >= 0, "negative total amount %v", pool.TotalAmount)
		if pool.Funded() {
			acc.Require(pool.TotalAmount.Sign() > 0, "funded pool with zero total amount")
		} else {
			acc.Require(pool.TotalAmount.IsZero(), "unfunded pool with total amount %v", pool.TotalAmount)
		}

		allocated := big.Zero()
		claims := adt.AsMap(store, pool.Claims)
		var claim Claim
		cerr := claims.ForEach(&claim, func(key string) error {
			summary.ClaimCount++
			acc.Require(claim.Allocation.Sign() >= 0, "negative allocation %v for %x", claim.Allocation, key)
			acc.Require(claim.Claimed.Sign() >= 0, "negative claimed %v for %x", claim.Claimed, key)
			allocated = big.Add(allocated, claim.Allocation)
			summary.TotalClaimed = big.Add(summary.TotalClaimed, claim.Claimed)
			return nil
		})
		acc.RequireNoError(cerr, "error iterating claims")

		if pool.Funded() {
			acc.Require(allocated.LessThanEqual(pool.TotalAmount),
				"allocations %v exceed pool funding %v", allocated, pool.TotalAmount)
		}
		summary.TotalAllocated = big.Add(summary.TotalAllocated, allocated)
		return nil
	})
	acc.RequireNoError(err, "error iterating pools")

	return summary, acc
}
