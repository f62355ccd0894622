// Package token declares the calling interface of the external fungible-token
// actor that the vesting and escrow ledgers move value through.
// The token is assumed correct and is only ever invoked, never implemented here.
package token

import (
	addr "github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/abi"
)

// TransferParams moves tokens from the calling actor's balance.
type TransferParams struct {
	To     addr.Address
	Amount abi.TokenAmount
}

// TransferFromParams moves tokens from a third party's balance.
// The token actor rejects the call unless `From` has granted the caller
// an allowance of at least `Amount`.
type TransferFromParams struct {
	From   addr.Address
	To     addr.Address
	Amount abi.TokenAmount
}
