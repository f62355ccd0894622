package exported

import (
	"github.com/vestlock/vesting-actors/actors/builtin/escrow"
	"github.com/vestlock/vesting-actors/actors/builtin/vesting"
	"github.com/vestlock/vesting-actors/actors/runtime"
)

// BuiltinActors returns all the actors defined by this module, for
// registration with a VM's method dispatch table.
func BuiltinActors() []runtime.VMActor {
	return []runtime.VMActor{
		vesting.Actor{},
		escrow.Actor{},
	}
}
