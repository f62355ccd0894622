package escrow

import (
	addr "github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/abi"
	cid "github.com/ipfs/go-cid"
	"golang.org/x/xerrors"

	"github.com/vestlock/vesting-actors/actors/builtin/vesting"
	"github.com/vestlock/vesting-actors/actors/util/adt"
)

// TradeID is a dense, monotonically assigned identifier for a trade.
type TradeID int64

type State struct {
	// Address entitled to admin operations and the protocol fee.
	Owner addr.Address

	// Fee charged on the payment leg at execution, in parts per million.
	FeeRatePpm int64

	// Trades indexed by TradeID (AMT[TradeID]Trade).
	Trades cid.Cid
}

// Trade is a two-party swap of vesting rights against a token payment.
// Each leg is deposited into escrow custody independently; Execute settles
// both atomically once both are in.
type Trade struct {
	Buyer  addr.Address
	Seller addr.Address

	// Payment leg: what the buyer deposits and the seller receives.
	BuyToken  addr.Address
	BuyAmount abi.TokenAmount

	// Rights leg: what the seller deposits and the buyer receives.
	Pool       vesting.PoolID
	SellAmount abi.TokenAmount

	BuyerFunded  bool
	SellerFunded bool
	Canceled     bool
	Executed     bool
}

// Terminal reports whether the trade has reached a final state.
func (t *Trade) Terminal() bool {
	return t.Canceled || t.Executed
}

// Participant reports whether a is one of the trade's two parties.
func (t *Trade) Participant(a addr.Address) bool {
	return a == t.Buyer || a == t.Seller
}

func ConstructState(store adt.Store, owner addr.Address, feeRatePpm int64) (*State, error) {
	trades, err := adt.MakeEmptyArray(store)
	if err != nil {
		return nil, xerrors.Errorf("failed to create empty trades array: %w", err)
	}
	return &State{
		Owner:      owner,
		FeeRatePpm: feeRatePpm,
		Trades:     trades.Root(),
	}, nil
}

func (st *State) LoadTrade(store adt.Store, id TradeID) (*Trade, bool, error) {
	if id < 0 {
		return nil, false, nil
	}
	trades := adt.AsArray(store, st.Trades)
	var trade Trade
	found, err := trades.Get(uint64(id), &trade)
	if err != nil {
		return nil, false, xerrors.Errorf("failed to get trade %d: %w", id, err)
	}
	return &trade, found, nil
}

func (st *State) SaveTrade(store adt.Store, id TradeID, trade *Trade) error {
	trades := adt.AsArray(store, st.Trades)
	if err := trades.Set(uint64(id), trade); err != nil {
		return xerrors.Errorf("failed to set trade %d: %w", id, err)
	}
	st.Trades = trades.Root()
	return nil
}

// AppendTrade stores a new trade at the next dense identifier.
func (st *State) AppendTrade(store adt.Store, trade *Trade) (TradeID, error) {
	trades := adt.AsArray(store, st.Trades)
	idx, err := trades.Append(trade)
	if err != nil {
		return 0, xerrors.Errorf("failed to append trade: %w", err)
	}
	st.Trades = trades.Root()
	return TradeID(idx), nil
}
