package orm_test

import (
	"context"
	"testing"

	"github.com/filecoin-project/go-state-types/abi"
	"github.com/filecoin-project/go-state-types/big"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	cid "github.com/ipfs/go-cid"
	mh "github.com/multiformats/go-multihash"

	"github.com/vestlock/vesting-actors/actors/builtin/escrow"
	"github.com/vestlock/vesting-actors/actors/builtin/vesting"
	"github.com/vestlock/vesting-actors/support/orm"
	tutil "github.com/vestlock/vesting-actors/support/testing"
)

func TestPoolModel(t *testing.T) {
	owner := tutil.NewIDAddr(t, 100)
	tok := tutil.NewIDAddr(t, 200)

	t.Run("funded pool", func(t *testing.T) {
		row := orm.PoolModel(7, &vesting.Pool{
			Owner:        owner,
			Token:        tok,
			TotalAmount:  abi.NewTokenAmount(123456789),
			VestingStart: 42,
			Schedule:     vesting.Schedule{Linear: &vesting.LinearSchedule{VestingPeriod: 100}},
		})
		assert.Equal(t, int64(7), row.ID)
		assert.Equal(t, owner.String(), row.Owner)
		assert.Equal(t, tok.String(), row.Token)
		assert.Equal(t, "123456789", row.TotalAmount)
		assert.Equal(t, int64(42), row.VestingStart)
		assert.True(t, row.Linear)
	})

	t.Run("unfunded pool has no token", func(t *testing.T) {
		row := orm.PoolModel(0, &vesting.Pool{
			Owner:       owner,
			TotalAmount: big.Zero(),
			Schedule: vesting.Schedule{Tranches: &vesting.TrancheSchedule{
				Tranches: []vesting.Tranche{{Duration: 1, Ppm: 1_000_000}},
			}},
		})
		assert.Equal(t, "", row.Token)
		assert.False(t, row.Linear)
	})
}

func TestClaimModel(t *testing.T) {
	claimant := tutil.NewIDAddr(t, 101)
	row := orm.ClaimModel(7, claimant, &vesting.Claim{
		Allocation: abi.NewTokenAmount(1000),
		Claimed:    abi.NewTokenAmount(250),
	})
	assert.Equal(t, int64(7), row.PoolID)
	assert.Equal(t, claimant.String(), row.Claimant)
	assert.Equal(t, "1000", row.Allocation)
	assert.Equal(t, "250", row.Claimed)
}

func TestTradeModel(t *testing.T) {
	buyer := tutil.NewIDAddr(t, 101)
	seller := tutil.NewIDAddr(t, 102)
	tok := tutil.NewIDAddr(t, 200)

	row := orm.TradeModel(3, &escrow.Trade{
		Buyer:       buyer,
		Seller:      seller,
		BuyToken:    tok,
		BuyAmount:   abi.NewTokenAmount(10_000),
		Pool:        7,
		SellAmount:  abi.NewTokenAmount(500),
		BuyerFunded: true,
		Executed:    true,
	})
	assert.Equal(t, int64(3), row.ID)
	assert.Equal(t, buyer.String(), row.Buyer)
	assert.Equal(t, seller.String(), row.Seller)
	assert.Equal(t, "10000", row.BuyAmount)
	assert.Equal(t, int64(7), row.PoolID)
	assert.Equal(t, "500", row.SellAmount)
	assert.True(t, row.BuyerFunded)
	assert.False(t, row.SellerFunded)
	assert.True(t, row.Executed)
	assert.False(t, row.Canceled)
}

func TestEventModel(t *testing.T) {
	actor := tutil.NewIDAddr(t, 10)
	row := orm.EventModel(99, actor, "pool-created", []byte{0x82, 0x00, 0x01})
	assert.Equal(t, int64(99), row.Epoch)
	assert.Equal(t, actor.String(), row.Actor)
	assert.Equal(t, "pool-created", row.Tag)
	assert.Equal(t, "820001", row.Payload)
}

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()

	assert.Nil(t, orm.TxFromContext(ctx))
	assert.Equal(t, cid.Undef, orm.CIDFromContext(ctx))

	builder := cid.V1Builder{Codec: cid.DagCBOR, MhType: mh.SHA2_256}
	c, err := builder.Sum([]byte("payload"))
	require.NoError(t, err)
	ctx = orm.NewCIDContext(ctx, c)
	assert.Equal(t, c, orm.CIDFromContext(ctx))
}
