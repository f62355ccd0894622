package escrow

import (
	"io"

	cbg "github.com/whyrusleeping/cbor-gen"
	"golang.org/x/xerrors"

	"github.com/vestlock/vesting-actors/actors/builtin/vesting"
)

// Hand-rolled tuple codecs for state and method parameters.
// Struct fields are encoded positionally, in declaration order.

func writeInt64(w io.Writer, scratch []byte, v int64) error {
	if v >= 0 {
		return cbg.WriteMajorTypeHeaderBuf(scratch, w, cbg.MajUnsignedInt, uint64(v))
	}
	return cbg.WriteMajorTypeHeaderBuf(scratch, w, cbg.MajNegativeInt, uint64(-v-1))
}

func readInt64(br io.Reader, scratch []byte) (int64, error) {
	maj, extra, err := cbg.CborReadHeaderBuf(br, scratch)
	if err != nil {
		return 0, err
	}
	switch maj {
	case cbg.MajUnsignedInt:
		return int64(extra), nil
	case cbg.MajNegativeInt:
		return -int64(extra) - 1, nil
	default:
		return 0, xerrors.Errorf("unexpected cbor major type %d for integer", maj)
	}
}

func readTupleHeader(br io.Reader, scratch []byte, size uint64) error {
	maj, n, err := cbg.CborReadHeaderBuf(br, scratch)
	if err != nil {
		return err
	}
	if maj != cbg.MajArray || n != size {
		return xerrors.Errorf("cbor input was not a %d-element tuple", size)
	}
	return nil
}

//
// State
//

func (t *State) MarshalCBOR(w io.Writer) error {
	if t == nil {
		_, err := w.Write(cbg.CborNull)
		return err
	}
	scratch := make([]byte, 9)
	if err := cbg.WriteMajorTypeHeaderBuf(scratch, w, cbg.MajArray, 3); err != nil {
		return err
	}
	if err := t.Owner.MarshalCBOR(w); err != nil {
		return err
	}
	if err := writeInt64(w, scratch, t.FeeRatePpm); err != nil {
		return err
	}
	return cbg.WriteCidBuf(scratch, w, t.Trades)
}

func (t *State) UnmarshalCBOR(r io.Reader) error {
	*t = State{}
	br := cbg.GetPeeker(r)
	scratch := make([]byte, 8)
	if err := readTupleHeader(br, scratch, 3); err != nil {
		return err
	}
	if err := t.Owner.UnmarshalCBOR(br); err != nil {
		return xerrors.Errorf("unmarshaling Owner: %w", err)
	}
	rate, err := readInt64(br, scratch)
	if err != nil {
		return xerrors.Errorf("unmarshaling FeeRatePpm: %w", err)
	}
	t.FeeRatePpm = rate
	c, err := cbg.ReadCid(br)
	if err != nil {
		return xerrors.Errorf("unmarshaling Trades: %w", err)
	}
	t.Trades = c
	return nil
}

//
// Trade
//

func (t *Trade) MarshalCBOR(w io.Writer) error {
	if t == nil {
		_, err := w.Write(cbg.CborNull)
		return err
	}
	scratch := make([]byte, 9)
	if err := cbg.WriteMajorTypeHeaderBuf(scratch, w, cbg.MajArray, 10); err != nil {
		return err
	}
	if err := t.Buyer.MarshalCBOR(w); err != nil {
		return err
	}
	if err := t.Seller.MarshalCBOR(w); err != nil {
		return err
	}
	if err := t.BuyToken.MarshalCBOR(w); err != nil {
		return err
	}
	if err := t.BuyAmount.MarshalCBOR(w); err != nil {
		return err
	}
	if err := writeInt64(w, scratch, int64(t.Pool)); err != nil {
		return err
	}
	if err := t.SellAmount.MarshalCBOR(w); err != nil {
		return err
	}
	for _, flag := range []bool{t.BuyerFunded, t.SellerFunded, t.Canceled, t.Executed} {
		if err := cbg.WriteBool(w, flag); err != nil {
			return err
		}
	}
	return nil
}

func (t *Trade) UnmarshalCBOR(r io.Reader) error {
	*t = Trade{}
	br := cbg.GetPeeker(r)
	scratch := make([]byte, 8)
	if err := readTupleHeader(br, scratch, 10); err != nil {
		return err
	}
	if err := t.Buyer.UnmarshalCBOR(br); err != nil {
		return xerrors.Errorf("unmarshaling Buyer: %w", err)
	}
	if err := t.Seller.UnmarshalCBOR(br); err != nil {
		return xerrors.Errorf("unmarshaling Seller: %w", err)
	}
	if err := t.BuyToken.UnmarshalCBOR(br); err != nil {
		return xerrors.Errorf("unmarshaling BuyToken: %w", err)
	}
	if err := t.BuyAmount.UnmarshalCBOR(br); err != nil {
		return xerrors.Errorf("unmarshaling BuyAmount: %w", err)
	}
	pool, err := readInt64(br, scratch)
	if err != nil {
		return xerrors.Errorf("unmarshaling Pool: %w", err)
	}
	t.Pool = vesting.PoolID(pool)
	if err := t.SellAmount.UnmarshalCBOR(br); err != nil {
		return xerrors.Errorf("unmarshaling SellAmount: %w", err)
	}
	for _, flag := range []*bool{&t.BuyerFunded, &t.SellerFunded, &t.Canceled, &t.Executed} {
		v, err := readBool(br, scratch)
		if err != nil {
			return err
		}
		*flag = v
	}
	return nil
}

func readBool(br io.Reader, scratch []byte) (bool, error) {
	maj, extra, err := cbg.CborReadHeaderBuf(br, scratch)
	if err != nil {
		return false, err
	}
	if maj != cbg.MajOther {
		return false, xerrors.Errorf("expected boolean, got major type %d", maj)
	}
	switch extra {
	case 20:
		return false, nil
	case 21:
		return true, nil
	default:
		return false, xerrors.Errorf("invalid boolean value %d", extra)
	}
}

//
// Method parameters and returns
//

func (t *ConstructorParams) MarshalCBOR(w io.Writer) error {
	if t == nil {
		_, err := w.Write(cbg.CborNull)
		return err
	}
	scratch := make([]byte, 9)
	if err := cbg.WriteMajorTypeHeaderBuf(scratch, w, cbg.MajArray, 2); err != nil {
		return err
	}
	if err := t.Owner.MarshalCBOR(w); err != nil {
		return err
	}
	return writeInt64(w, scratch, t.FeeRatePpm)
}

func (t *ConstructorParams) UnmarshalCBOR(r io.Reader) error {
	*t = ConstructorParams{}
	br := cbg.GetPeeker(r)
	scratch := make([]byte, 8)
	if err := readTupleHeader(br, scratch, 2); err != nil {
		return err
	}
	if err := t.Owner.UnmarshalCBOR(br); err != nil {
		return xerrors.Errorf("unmarshaling Owner: %w", err)
	}
	rate, err := readInt64(br, scratch)
	if err != nil {
		return xerrors.Errorf("unmarshaling FeeRatePpm: %w", err)
	}
	t.FeeRatePpm = rate
	return nil
}

func (t *NewTradeParams) MarshalCBOR(w io.Writer) error {
	if t == nil {
		_, err := w.Write(cbg.CborNull)
		return err
	}
	scratch := make([]byte, 9)
	if err := cbg.WriteMajorTypeHeaderBuf(scratch, w, cbg.MajArray, 6); err != nil {
		return err
	}
	if err := t.Buyer.MarshalCBOR(w); err != nil {
		return err
	}
	if err := t.Seller.MarshalCBOR(w); err != nil {
		return err
	}
	if err := t.BuyToken.MarshalCBOR(w); err != nil {
		return err
	}
	if err := t.BuyAmount.MarshalCBOR(w); err != nil {
		return err
	}
	if err := writeInt64(w, scratch, int64(t.Pool)); err != nil {
		return err
	}
	return t.SellAmount.MarshalCBOR(w)
}

func (t *NewTradeParams) UnmarshalCBOR(r io.Reader) error {
	*t = NewTradeParams{}
	br := cbg.GetPeeker(r)
	scratch := make([]byte, 8)
	if err := readTupleHeader(br, scratch, 6); err != nil {
		return err
	}
	if err := t.Buyer.UnmarshalCBOR(br); err != nil {
		return xerrors.Errorf("unmarshaling Buyer: %w", err)
	}
	if err := t.Seller.UnmarshalCBOR(br); err != nil {
		return xerrors.Errorf("unmarshaling Seller: %w", err)
	}
	if err := t.BuyToken.UnmarshalCBOR(br); err != nil {
		return xerrors.Errorf("unmarshaling BuyToken: %w", err)
	}
	if err := t.BuyAmount.UnmarshalCBOR(br); err != nil {
		return xerrors.Errorf("unmarshaling BuyAmount: %w", err)
	}
	pool, err := readInt64(br, scratch)
	if err != nil {
		return xerrors.Errorf("unmarshaling Pool: %w", err)
	}
	t.Pool = vesting.PoolID(pool)
	if err := t.SellAmount.UnmarshalCBOR(br); err != nil {
		return xerrors.Errorf("unmarshaling SellAmount: %w", err)
	}
	return nil
}

func (t *NewTradeReturn) MarshalCBOR(w io.Writer) error {
	if t == nil {
		_, err := w.Write(cbg.CborNull)
		return err
	}
	scratch := make([]byte, 9)
	if err := cbg.WriteMajorTypeHeaderBuf(scratch, w, cbg.MajArray, 1); err != nil {
		return err
	}
	return writeInt64(w, scratch, int64(t.ID))
}

func (t *NewTradeReturn) UnmarshalCBOR(r io.Reader) error {
	*t = NewTradeReturn{}
	br := cbg.GetPeeker(r)
	scratch := make([]byte, 8)
	if err := readTupleHeader(br, scratch, 1); err != nil {
		return err
	}
	id, err := readInt64(br, scratch)
	if err != nil {
		return xerrors.Errorf("unmarshaling ID: %w", err)
	}
	t.ID = TradeID(id)
	return nil
}

func (t *TradeParams) MarshalCBOR(w io.Writer) error {
	if t == nil {
		_, err := w.Write(cbg.CborNull)
		return err
	}
	scratch := make([]byte, 9)
	if err := cbg.WriteMajorTypeHeaderBuf(scratch, w, cbg.MajArray, 1); err != nil {
		return err
	}
	return writeInt64(w, scratch, int64(t.Trade))
}

func (t *TradeParams) UnmarshalCBOR(r io.Reader) error {
	*t = TradeParams{}
	br := cbg.GetPeeker(r)
	scratch := make([]byte, 8)
	if err := readTupleHeader(br, scratch, 1); err != nil {
		return err
	}
	id, err := readInt64(br, scratch)
	if err != nil {
		return xerrors.Errorf("unmarshaling Trade: %w", err)
	}
	t.Trade = TradeID(id)
	return nil
}

func (t *AddressParams) MarshalCBOR(w io.Writer) error {
	if t == nil {
		_, err := w.Write(cbg.CborNull)
		return err
	}
	scratch := make([]byte, 9)
	if err := cbg.WriteMajorTypeHeaderBuf(scratch, w, cbg.MajArray, 1); err != nil {
		return err
	}
	return t.Address.MarshalCBOR(w)
}

func (t *AddressParams) UnmarshalCBOR(r io.Reader) error {
	*t = AddressParams{}
	br := cbg.GetPeeker(r)
	scratch := make([]byte, 8)
	if err := readTupleHeader(br, scratch, 1); err != nil {
		return err
	}
	if err := t.Address.UnmarshalCBOR(br); err != nil {
		return xerrors.Errorf("unmarshaling Address: %w", err)
	}
	return nil
}

func (t *SetFeeRateParams) MarshalCBOR(w io.Writer) error {
	if t == nil {
		_, err := w.Write(cbg.CborNull)
		return err
	}
	scratch := make([]byte, 9)
	if err := cbg.WriteMajorTypeHeaderBuf(scratch, w, cbg.MajArray, 1); err != nil {
		return err
	}
	return writeInt64(w, scratch, t.FeeRatePpm)
}

func (t *SetFeeRateParams) UnmarshalCBOR(r io.Reader) error {
	*t = SetFeeRateParams{}
	br := cbg.GetPeeker(r)
	scratch := make([]byte, 8)
	if err := readTupleHeader(br, scratch, 1); err != nil {
		return err
	}
	rate, err := readInt64(br, scratch)
	if err != nil {
		return xerrors.Errorf("unmarshaling FeeRatePpm: %w", err)
	}
	t.FeeRatePpm = rate
	return nil
}

//
// Event payloads (marshal only)
//

func (t *TradeCreatedEvent) MarshalCBOR(w io.Writer) error {
	if t == nil {
		_, err := w.Write(cbg.CborNull)
		return err
	}
	scratch := make([]byte, 9)
	if err := cbg.WriteMajorTypeHeaderBuf(scratch, w, cbg.MajArray, 3); err != nil {
		return err
	}
	if err := writeInt64(w, scratch, int64(t.ID)); err != nil {
		return err
	}
	if err := t.Buyer.MarshalCBOR(w); err != nil {
		return err
	}
	return t.Seller.MarshalCBOR(w)
}

func (t *TradeFundedEvent) MarshalCBOR(w io.Writer) error {
	if t == nil {
		_, err := w.Write(cbg.CborNull)
		return err
	}
	scratch := make([]byte, 9)
	if err := cbg.WriteMajorTypeHeaderBuf(scratch, w, cbg.MajArray, 2); err != nil {
		return err
	}
	if err := writeInt64(w, scratch, int64(t.ID)); err != nil {
		return err
	}
	return t.Party.MarshalCBOR(w)
}

func (t *TradeCanceledEvent) MarshalCBOR(w io.Writer) error {
	if t == nil {
		_, err := w.Write(cbg.CborNull)
		return err
	}
	scratch := make([]byte, 9)
	if err := cbg.WriteMajorTypeHeaderBuf(scratch, w, cbg.MajArray, 2); err != nil {
		return err
	}
	if err := writeInt64(w, scratch, int64(t.ID)); err != nil {
		return err
	}
	return t.By.MarshalCBOR(w)
}

func (t *TradeExecutedEvent) MarshalCBOR(w io.Writer) error {
	if t == nil {
		_, err := w.Write(cbg.CborNull)
		return err
	}
	scratch := make([]byte, 9)
	if err := cbg.WriteMajorTypeHeaderBuf(scratch, w, cbg.MajArray, 2); err != nil {
		return err
	}
	if err := writeInt64(w, scratch, int64(t.ID)); err != nil {
		return err
	}
	return t.Fee.MarshalCBOR(w)
}
