package vesting

import (
	addr "github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/abi"
)

// Event tags emitted by the vesting actor for external indexers.
const (
	EventPoolCreated      = "pool-created"
	EventPoolFunded       = "pool-funded"
	EventPoolIncreased    = "pool-increased"
	EventClaimantsAdded   = "claimants-added"
	EventClaimed          = "claimed"
	EventApprovalSet      = "approval-set"
	EventClaimTransferred = "claim-transferred"
)

// Event payloads are write-only: they are serialized into the receipt stream
// and never read back by actor code.

type PoolCreatedEvent struct {
	ID       PoolID
	Owner    addr.Address
	Schedule Schedule
}

type PoolFundedEvent struct {
	ID     PoolID
	Token  addr.Address
	Amount abi.TokenAmount
	Start  abi.ChainEpoch
}

type PoolIncreasedEvent struct {
	ID     PoolID
	Amount abi.TokenAmount
}

type ClaimantsAddedEvent struct {
	ID        PoolID
	Claimants []addr.Address
}

type ClaimedEvent struct {
	ID       PoolID
	Claimant addr.Address
	Amount   abi.TokenAmount
}

type ApprovalSetEvent struct {
	ID      PoolID
	Granter addr.Address
	Spender addr.Address
	Amount  abi.TokenAmount
}

// ClaimTransferredEvent covers both direct and delegated transfers; delegated
// ones carry the spender, direct ones leave it Undef.
type ClaimTransferredEvent struct {
	ID      PoolID
	From    addr.Address
	To      addr.Address
	Amount  abi.TokenAmount
	Spender addr.Address
}
