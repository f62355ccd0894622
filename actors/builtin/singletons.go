package builtin

import (
	addr "github.com/filecoin-project/go-address"

	autil "github.com/vestlock/vesting-actors/actors/util"
)

// Addresses of singleton actors, defined at genesis.
var (
	SystemActorAddr  = mustMakeAddress(0)
	VestingActorAddr = mustMakeAddress(10)
	EscrowActorAddr  = mustMakeAddress(11)
)

func mustMakeAddress(id uint64) addr.Address {
	address, err := addr.NewIDAddress(id)
	autil.AssertNoError(err)
	return address
}
