package builtin

import (
	"github.com/filecoin-project/go-state-types/abi"
)

const (
	MethodSend        = abi.MethodNum(0)
	MethodConstructor = abi.MethodNum(1)
)

type tokenMethods struct {
	Constructor  abi.MethodNum
	Transfer     abi.MethodNum
	TransferFrom abi.MethodNum
}

// MethodsToken is the method schedule of the external fungible token actor.
// The token is a collaborator: these ledgers invoke it and never implement it.
var MethodsToken = tokenMethods{MethodConstructor, 2, 3}

type vestingMethods struct {
	Constructor    abi.MethodNum
	CreatePool     abi.MethodNum
	AddClaimants   abi.MethodNum
	Fund           abi.MethodNum
	TopUp          abi.MethodNum
	Claim          abi.MethodNum
	ClaimableValue abi.MethodNum
	Approve        abi.MethodNum
	Transfer       abi.MethodNum
	TransferFrom   abi.MethodNum
	SetOwner       abi.MethodNum
	SetCreationFee abi.MethodNum
	CollectFees    abi.MethodNum
}

var MethodsVesting = vestingMethods{MethodConstructor, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13}

type escrowMethods struct {
	Constructor abi.MethodNum
	NewTrade    abi.MethodNum
	Fund        abi.MethodNum
	Cancel      abi.MethodNum
	Execute     abi.MethodNum
	SetOwner    abi.MethodNum
	SetFeeRate  abi.MethodNum
}

var MethodsEscrow = escrowMethods{MethodConstructor, 2, 3, 4, 5, 6, 7}
