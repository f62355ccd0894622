package adt

import (
	"github.com/filecoin-project/go-state-types/abi"
	"github.com/filecoin-project/go-state-types/big"
	cid "github.com/ipfs/go-cid"
)

// BalanceTable is a specialization of a map of keys to token amounts.
// A key that has never been set reads as zero.
type BalanceTable Map

// AsBalanceTable interprets a store as a balance table with root `r`.
func AsBalanceTable(s Store, r cid.Cid) *BalanceTable {
	return &BalanceTable{
		root:  r,
		store: s,
	}
}

// MakeEmptyBalanceTable creates a new empty balance table and flushes it to the store.
func MakeEmptyBalanceTable(s Store) (*BalanceTable, error) {
	m, err := MakeEmptyMap(s)
	if err != nil {
		return nil, err
	}
	return (*BalanceTable)(m), nil
}

// Root returns the root cid of the underlying HAMT.
func (t *BalanceTable) Root() cid.Cid {
	return t.root
}

// Get returns the balance for a key, zero if it has never been set.
func (t *BalanceTable) Get(key Keyer) (abi.TokenAmount, error) {
	var value abi.TokenAmount
	found, err := (*Map)(t).Get(key, &value)
	if err != nil {
		return big.Zero(), err // The errors from Map carry good information, no need to wrap here.
	}
	if !found {
		return big.Zero(), nil
	}
	return value, nil
}

// Set sets the balance for a key, overwriting any previous balance.
func (t *BalanceTable) Set(key Keyer, value abi.TokenAmount) error {
	return (*Map)(t).Put(key, &value)
}
