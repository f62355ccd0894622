// Package orm mirrors on-chain vesting and escrow state into a relational
// database for indexers and dashboards. It is consumed by off-chain tooling
// and never by actor code.
package orm

import (
	"context"
	"encoding/hex"

	addr "github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/abi"
	"github.com/go-pg/pg/v10"
	"github.com/go-pg/pg/v10/orm"
	cid "github.com/ipfs/go-cid"

	"github.com/vestlock/vesting-actors/actors/builtin/escrow"
	"github.com/vestlock/vesting-actors/actors/builtin/vesting"
	models "github.com/vestlock/vesting-actors/support/orm/models"
)

func CreateSchema(db *pg.DB) error {
	tables := []interface{}{
		(*models.Pool)(nil),
		(*models.Claim)(nil),
		(*models.Trade)(nil),
		(*models.Event)(nil),
	}

	for _, model := range tables {
		if err := db.Model(model).CreateTable(&orm.CreateTableOptions{
			IfNotExists: true,
		}); err != nil {
			return err
		}
	}
	return nil
}

// PoolModel flattens an on-chain pool into its relational row.
func PoolModel(id vesting.PoolID, pool *vesting.Pool) *models.Pool {
	token := ""
	if pool.Funded() {
		token = pool.Token.String()
	}
	return &models.Pool{
		ID:           int64(id),
		Owner:        pool.Owner.String(),
		Token:        token,
		TotalAmount:  pool.TotalAmount.String(),
		VestingStart: int64(pool.VestingStart),
		Linear:       pool.Schedule.Linear != nil,
	}
}

// ClaimModel flattens one claimant's stake into its relational row.
func ClaimModel(id vesting.PoolID, claimant addr.Address, claim *vesting.Claim) *models.Claim {
	return &models.Claim{
		PoolID:     int64(id),
		Claimant:   claimant.String(),
		Allocation: claim.Allocation.String(),
		Claimed:    claim.Claimed.String(),
	}
}

// TradeModel flattens an escrow trade into its relational row.
func TradeModel(id escrow.TradeID, trade *escrow.Trade) *models.Trade {
	return &models.Trade{
		ID:           int64(id),
		Buyer:        trade.Buyer.String(),
		Seller:       trade.Seller.String(),
		BuyToken:     trade.BuyToken.String(),
		BuyAmount:    trade.BuyAmount.String(),
		PoolID:       int64(trade.Pool),
		SellAmount:   trade.SellAmount.String(),
		BuyerFunded:  trade.BuyerFunded,
		SellerFunded: trade.SellerFunded,
		Canceled:     trade.Canceled,
		Executed:     trade.Executed,
	}
}

// EventModel records an emitted actor event with its hex-encoded CBOR payload.
func EventModel(epoch abi.ChainEpoch, actor addr.Address, tag string, payload []byte) *models.Event {
	return &models.Event{
		Epoch:   int64(epoch),
		Actor:   actor.String(),
		Tag:     tag,
		Payload: hex.EncodeToString(payload),
	}
}

type txCtxKey struct{}

// TxFromContext returns the Tx stored in a context, or nil if there isn't one.
func TxFromContext(ctx context.Context) *pg.Tx {
	tx, ok := ctx.Value(txCtxKey{}).(*pg.Tx)
	if !ok {
		return nil
	}
	return tx
}

// NewTxContext returns a new context with the given Tx attached.
func NewTxContext(parent context.Context, tx *pg.Tx) context.Context {
	return context.WithValue(parent, txCtxKey{}, tx)
}

type cidKey struct{}

func CIDFromContext(ctx context.Context) cid.Cid {
	c, ok := ctx.Value(cidKey{}).(cid.Cid)
	if !ok {
		return cid.Undef
	}
	return c
}

func NewCIDContext(parent context.Context, c cid.Cid) context.Context {
	return context.WithValue(parent, cidKey{}, c)
}
