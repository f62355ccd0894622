// Package models defines the relational rows mirrored from on-chain state by
// off-chain indexers. Token amounts are stored as decimal strings to avoid
// overflowing SQL integer columns.
package models

// Pool is one row per vesting pool, updated on every pool event.
type Pool struct {
	ID           int64 `pg:",pk,use_zero"`
	Owner        string
	Token        string
	TotalAmount  string
	VestingStart int64 `pg:",use_zero"`
	Linear       bool  `pg:",use_zero"`
}

// Claim is one row per (pool, claimant) pair.
type Claim struct {
	PoolID     int64  `pg:",pk,use_zero"`
	Claimant   string `pg:",pk"`
	Allocation string
	Claimed    string
}

// Trade is one row per escrow trade.
type Trade struct {
	ID           int64 `pg:",pk,use_zero"`
	Buyer        string
	Seller       string
	BuyToken     string
	BuyAmount    string
	PoolID       int64 `pg:",use_zero"`
	SellAmount   string
	BuyerFunded  bool `pg:",use_zero"`
	SellerFunded bool `pg:",use_zero"`
	Canceled     bool `pg:",use_zero"`
	Executed     bool `pg:",use_zero"`
}

// Event is the append-only log of actor events, one row per emitted event.
type Event struct {
	ID      int64 `pg:",pk"`
	Epoch   int64 `pg:",use_zero"`
	Actor   string
	Tag     string
	Payload string
}
