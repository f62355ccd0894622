package vesting

import (
	"io"

	addr "github.com/filecoin-project/go-address"
	"github.com/filecoin-project/go-state-types/abi"
	cbg "github.com/whyrusleeping/cbor-gen"
	"golang.org/x/xerrors"
)

// Hand-rolled tuple codecs for state and method parameters.
// Struct fields are encoded positionally, in declaration order.

type bytePeeker interface {
	io.Reader
	io.ByteScanner
}

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

// writeOptionalAddr encodes Undef as null; go-address cannot marshal Undef itself.
func writeOptionalAddr(w io.Writer, a addr.Address) error {
	if a == addr.Undef {
		_, err := w.Write(cbg.CborNull)
		return err
	}
	return a.MarshalCBOR(w)
}

func readOptionalAddr(br bytePeeker) (addr.Address, error) {
	b, err := br.ReadByte()
	if err != nil {
		return addr.Undef, err
	}
	if b == cbg.CborNull[0] {
		return addr.Undef, nil
	}
	if err := br.UnreadByte(); err != nil {
		return addr.Undef, err
	}
	var a addr.Address
	if err := a.UnmarshalCBOR(br); err != nil {
		return addr.Undef, err
	}
	return a, nil
}

func isNull(br bytePeeker) (bool, error) {
	b, err := br.ReadByte()
	if err != nil {
		return false, err
	}
	if b == cbg.CborNull[0] {
		return true, nil
	}
	return false, br.UnreadByte()
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
	if err := cbg.WriteMajorTypeHeaderBuf(scratch, w, cbg.MajArray, 4); err != nil {
		return err
	}
	if err := t.Owner.MarshalCBOR(w); err != nil {
		return err
	}
	if err := t.CreationFee.MarshalCBOR(w); err != nil {
		return err
	}
	if err := t.FeesCollected.MarshalCBOR(w); err != nil {
		return err
	}
	return cbg.WriteCidBuf(scratch, w, t.Pools)
}

func (t *State) UnmarshalCBOR(r io.Reader) error {
	*t = State{}
	br := cbg.GetPeeker(r)
	scratch := make([]byte, 8)
	if err := readTupleHeader(br, scratch, 4); err != nil {
		return err
	}
	if err := t.Owner.UnmarshalCBOR(br); err != nil {
		return xerrors.Errorf("unmarshaling Owner: %w", err)
	}
	if err := t.CreationFee.UnmarshalCBOR(br); err != nil {
		return xerrors.Errorf("unmarshaling CreationFee: %w", err)
	}
	if err := t.FeesCollected.UnmarshalCBOR(br); err != nil {
		return xerrors.Errorf("unmarshaling FeesCollected: %w", err)
	}
	c, err := cbg.ReadCid(br)
	if err != nil {
		return xerrors.Errorf("unmarshaling Pools: %w", err)
	}
	t.Pools = c
	return nil
}

//
// Pool
//

func (t *Pool) MarshalCBOR(w io.Writer) error {
	if t == nil {
		_, err := w.Write(cbg.CborNull)
		return err
	}
	scratch := make([]byte, 9)
	if err := cbg.WriteMajorTypeHeaderBuf(scratch, w, cbg.MajArray, 7); err != nil {
		return err
	}
	if err := t.Owner.MarshalCBOR(w); err != nil {
		return err
	}
	if err := writeOptionalAddr(w, t.Token); err != nil {
		return err
	}
	if err := t.TotalAmount.MarshalCBOR(w); err != nil {
		return err
	}
	if err := writeInt64(w, scratch, int64(t.VestingStart)); err != nil {
		return err
	}
	if err := t.Schedule.MarshalCBOR(w); err != nil {
		return err
	}
	if err := cbg.WriteCidBuf(scratch, w, t.Claims); err != nil {
		return err
	}
	return cbg.WriteCidBuf(scratch, w, t.Approvals)
}

func (t *Pool) UnmarshalCBOR(r io.Reader) error {
	*t = Pool{}
	br := cbg.GetPeeker(r)
	scratch := make([]byte, 8)
	if err := readTupleHeader(br, scratch, 7); err != nil {
		return err
	}
	if err := t.Owner.UnmarshalCBOR(br); err != nil {
		return xerrors.Errorf("unmarshaling Owner: %w", err)
	}
	token, err := readOptionalAddr(br)
	if err != nil {
		return xerrors.Errorf("unmarshaling Token: %w", err)
	}
	t.Token = token
	if err := t.TotalAmount.UnmarshalCBOR(br); err != nil {
		return xerrors.Errorf("unmarshaling TotalAmount: %w", err)
	}
	start, err := readInt64(br, scratch)
	if err != nil {
		return xerrors.Errorf("unmarshaling VestingStart: %w", err)
	}
	t.VestingStart = abi.ChainEpoch(start)
	if err := t.Schedule.UnmarshalCBOR(br); err != nil {
		return xerrors.Errorf("unmarshaling Schedule: %w", err)
	}
	claims, err := cbg.ReadCid(br)
	if err != nil {
		return xerrors.Errorf("unmarshaling Claims: %w", err)
	}
	t.Claims = claims
	approvals, err := cbg.ReadCid(br)
	if err != nil {
		return xerrors.Errorf("unmarshaling Approvals: %w", err)
	}
	t.Approvals = approvals
	return nil
}

//
// Claim
//

func (t *Claim) MarshalCBOR(w io.Writer) error {
	if t == nil {
		_, err := w.Write(cbg.CborNull)
		return err
	}
	scratch := make([]byte, 9)
	if err := cbg.WriteMajorTypeHeaderBuf(scratch, w, cbg.MajArray, 2); err != nil {
		return err
	}
	if err := t.Allocation.MarshalCBOR(w); err != nil {
		return err
	}
	return t.Claimed.MarshalCBOR(w)
}

func (t *Claim) UnmarshalCBOR(r io.Reader) error {
	*t = Claim{}
	br := cbg.GetPeeker(r)
	scratch := make([]byte, 8)
	if err := readTupleHeader(br, scratch, 2); err != nil {
		return err
	}
	if err := t.Allocation.UnmarshalCBOR(br); err != nil {
		return xerrors.Errorf("unmarshaling Allocation: %w", err)
	}
	if err := t.Claimed.UnmarshalCBOR(br); err != nil {
		return xerrors.Errorf("unmarshaling Claimed: %w", err)
	}
	return nil
}

//
// Schedules
//

// Schedule encodes as a pair of nullable variants, exactly one non-null.
func (t *Schedule) MarshalCBOR(w io.Writer) error {
	if t == nil {
		_, err := w.Write(cbg.CborNull)
		return err
	}
	scratch := make([]byte, 9)
	if err := cbg.WriteMajorTypeHeaderBuf(scratch, w, cbg.MajArray, 2); err != nil {
		return err
	}
	if t.Linear == nil {
		if _, err := w.Write(cbg.CborNull); err != nil {
			return err
		}
	} else if err := t.Linear.MarshalCBOR(w); err != nil {
		return err
	}
	if t.Tranches == nil {
		_, err := w.Write(cbg.CborNull)
		return err
	}
	return t.Tranches.MarshalCBOR(w)
}

func (t *Schedule) UnmarshalCBOR(r io.Reader) error {
	*t = Schedule{}
	br := cbg.GetPeeker(r)
	scratch := make([]byte, 8)
	if err := readTupleHeader(br, scratch, 2); err != nil {
		return err
	}
	null, err := isNull(br)
	if err != nil {
		return err
	}
	if !null {
		t.Linear = new(LinearSchedule)
		if err := t.Linear.UnmarshalCBOR(br); err != nil {
			return xerrors.Errorf("unmarshaling Linear: %w", err)
		}
	}
	null, err = isNull(br)
	if err != nil {
		return err
	}
	if !null {
		t.Tranches = new(TrancheSchedule)
		if err := t.Tranches.UnmarshalCBOR(br); err != nil {
			return xerrors.Errorf("unmarshaling Tranches: %w", err)
		}
	}
	return nil
}

func (t *LinearSchedule) MarshalCBOR(w io.Writer) error {
	if t == nil {
		_, err := w.Write(cbg.CborNull)
		return err
	}
	scratch := make([]byte, 9)
	if err := cbg.WriteMajorTypeHeaderBuf(scratch, w, cbg.MajArray, 2); err != nil {
		return err
	}
	if err := writeInt64(w, scratch, int64(t.CliffPeriod)); err != nil {
		return err
	}
	return writeInt64(w, scratch, int64(t.VestingPeriod))
}

func (t *LinearSchedule) UnmarshalCBOR(r io.Reader) error {
	*t = LinearSchedule{}
	br := cbg.GetPeeker(r)
	scratch := make([]byte, 8)
	if err := readTupleHeader(br, scratch, 2); err != nil {
		return err
	}
	cliff, err := readInt64(br, scratch)
	if err != nil {
		return xerrors.Errorf("unmarshaling CliffPeriod: %w", err)
	}
	t.CliffPeriod = abi.ChainEpoch(cliff)
	period, err := readInt64(br, scratch)
	if err != nil {
		return xerrors.Errorf("unmarshaling VestingPeriod: %w", err)
	}
	t.VestingPeriod = abi.ChainEpoch(period)
	return nil
}

func (t *TrancheSchedule) MarshalCBOR(w io.Writer) error {
	if t == nil {
		_, err := w.Write(cbg.CborNull)
		return err
	}
	scratch := make([]byte, 9)
	if err := cbg.WriteMajorTypeHeaderBuf(scratch, w, cbg.MajArray, 1); err != nil {
		return err
	}
	if err := cbg.WriteMajorTypeHeaderBuf(scratch, w, cbg.MajArray, uint64(len(t.Tranches))); err != nil {
		return err
	}
	for i := range t.Tranches {
		if err := t.Tranches[i].MarshalCBOR(w); err != nil {
			return err
		}
	}
	return nil
}

func (t *TrancheSchedule) UnmarshalCBOR(r io.Reader) error {
	*t = TrancheSchedule{}
	br := cbg.GetPeeker(r)
	scratch := make([]byte, 8)
	if err := readTupleHeader(br, scratch, 1); err != nil {
		return err
	}
	maj, n, err := cbg.CborReadHeaderBuf(br, scratch)
	if err != nil {
		return err
	}
	if maj != cbg.MajArray {
		return xerrors.Errorf("expected array of tranches")
	}
	if n > cbg.MaxLength {
		return xerrors.Errorf("tranche array too long (%d)", n)
	}
	t.Tranches = make([]Tranche, n)
	for i := uint64(0); i < n; i++ {
		if err := t.Tranches[i].UnmarshalCBOR(br); err != nil {
			return xerrors.Errorf("unmarshaling tranche %d: %w", i, err)
		}
	}
	return nil
}

func (t *Tranche) MarshalCBOR(w io.Writer) error {
	if t == nil {
		_, err := w.Write(cbg.CborNull)
		return err
	}
	scratch := make([]byte, 9)
	if err := cbg.WriteMajorTypeHeaderBuf(scratch, w, cbg.MajArray, 2); err != nil {
		return err
	}
	if err := writeInt64(w, scratch, int64(t.Duration)); err != nil {
		return err
	}
	return writeInt64(w, scratch, t.Ppm)
}

func (t *Tranche) UnmarshalCBOR(r io.Reader) error {
	*t = Tranche{}
	br := cbg.GetPeeker(r)
	scratch := make([]byte, 8)
	if err := readTupleHeader(br, scratch, 2); err != nil {
		return err
	}
	duration, err := readInt64(br, scratch)
	if err != nil {
		return xerrors.Errorf("unmarshaling Duration: %w", err)
	}
	t.Duration = abi.ChainEpoch(duration)
	ppm, err := readInt64(br, scratch)
	if err != nil {
		return xerrors.Errorf("unmarshaling Ppm: %w", err)
	}
	t.Ppm = ppm
	return nil
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
	return t.CreationFee.MarshalCBOR(w)
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
	if err := t.CreationFee.UnmarshalCBOR(br); err != nil {
		return xerrors.Errorf("unmarshaling CreationFee: %w", err)
	}
	return nil
}

func (t *CreatePoolParams) MarshalCBOR(w io.Writer) error {
	if t == nil {
		_, err := w.Write(cbg.CborNull)
		return err
	}
	scratch := make([]byte, 9)
	if err := cbg.WriteMajorTypeHeaderBuf(scratch, w, cbg.MajArray, 5); err != nil {
		return err
	}
	if err := writeAddrSlice(w, scratch, t.Claimants); err != nil {
		return err
	}
	if err := writeAmountSlice(w, scratch, t.Allocations); err != nil {
		return err
	}
	if t.Linear == nil {
		if _, err := w.Write(cbg.CborNull); err != nil {
			return err
		}
	} else if err := t.Linear.MarshalCBOR(w); err != nil {
		return err
	}
	if err := writeEpochSlice(w, scratch, t.VestingPeriods); err != nil {
		return err
	}
	return writeInt64Slice(w, scratch, t.VestingPercents)
}

func (t *CreatePoolParams) UnmarshalCBOR(r io.Reader) error {
	*t = CreatePoolParams{}
	br := cbg.GetPeeker(r)
	scratch := make([]byte, 8)
	if err := readTupleHeader(br, scratch, 5); err != nil {
		return err
	}
	var err error
	if t.Claimants, err = readAddrSlice(br, scratch); err != nil {
		return xerrors.Errorf("unmarshaling Claimants: %w", err)
	}
	if t.Allocations, err = readAmountSlice(br, scratch); err != nil {
		return xerrors.Errorf("unmarshaling Allocations: %w", err)
	}
	null, err := isNull(br)
	if err != nil {
		return err
	}
	if !null {
		t.Linear = new(LinearSchedule)
		if err := t.Linear.UnmarshalCBOR(br); err != nil {
			return xerrors.Errorf("unmarshaling Linear: %w", err)
		}
	}
	if t.VestingPeriods, err = readEpochSlice(br, scratch); err != nil {
		return xerrors.Errorf("unmarshaling VestingPeriods: %w", err)
	}
	if t.VestingPercents, err = readInt64Slice(br, scratch); err != nil {
		return xerrors.Errorf("unmarshaling VestingPercents: %w", err)
	}
	return nil
}

func (t *CreatePoolReturn) MarshalCBOR(w io.Writer) error {
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

func (t *CreatePoolReturn) UnmarshalCBOR(r io.Reader) error {
	*t = CreatePoolReturn{}
	br := cbg.GetPeeker(r)
	scratch := make([]byte, 8)
	if err := readTupleHeader(br, scratch, 1); err != nil {
		return err
	}
	id, err := readInt64(br, scratch)
	if err != nil {
		return xerrors.Errorf("unmarshaling ID: %w", err)
	}
	t.ID = PoolID(id)
	return nil
}

func (t *AddClaimantsParams) MarshalCBOR(w io.Writer) error {
	if t == nil {
		_, err := w.Write(cbg.CborNull)
		return err
	}
	scratch := make([]byte, 9)
	if err := cbg.WriteMajorTypeHeaderBuf(scratch, w, cbg.MajArray, 3); err != nil {
		return err
	}
	if err := writeInt64(w, scratch, int64(t.Pool)); err != nil {
		return err
	}
	if err := writeAddrSlice(w, scratch, t.Claimants); err != nil {
		return err
	}
	return writeAmountSlice(w, scratch, t.Allocations)
}

func (t *AddClaimantsParams) UnmarshalCBOR(r io.Reader) error {
	*t = AddClaimantsParams{}
	br := cbg.GetPeeker(r)
	scratch := make([]byte, 8)
	if err := readTupleHeader(br, scratch, 3); err != nil {
		return err
	}
	id, err := readInt64(br, scratch)
	if err != nil {
		return xerrors.Errorf("unmarshaling Pool: %w", err)
	}
	t.Pool = PoolID(id)
	if t.Claimants, err = readAddrSlice(br, scratch); err != nil {
		return xerrors.Errorf("unmarshaling Claimants: %w", err)
	}
	if t.Allocations, err = readAmountSlice(br, scratch); err != nil {
		return xerrors.Errorf("unmarshaling Allocations: %w", err)
	}
	return nil
}

func (t *FundParams) MarshalCBOR(w io.Writer) error {
	if t == nil {
		_, err := w.Write(cbg.CborNull)
		return err
	}
	scratch := make([]byte, 9)
	if err := cbg.WriteMajorTypeHeaderBuf(scratch, w, cbg.MajArray, 3); err != nil {
		return err
	}
	if err := writeInt64(w, scratch, int64(t.Pool)); err != nil {
		return err
	}
	if err := t.Token.MarshalCBOR(w); err != nil {
		return err
	}
	return t.Amount.MarshalCBOR(w)
}

func (t *FundParams) UnmarshalCBOR(r io.Reader) error {
	*t = FundParams{}
	br := cbg.GetPeeker(r)
	scratch := make([]byte, 8)
	if err := readTupleHeader(br, scratch, 3); err != nil {
		return err
	}
	id, err := readInt64(br, scratch)
	if err != nil {
		return xerrors.Errorf("unmarshaling Pool: %w", err)
	}
	t.Pool = PoolID(id)
	if err := t.Token.UnmarshalCBOR(br); err != nil {
		return xerrors.Errorf("unmarshaling Token: %w", err)
	}
	if err := t.Amount.UnmarshalCBOR(br); err != nil {
		return xerrors.Errorf("unmarshaling Amount: %w", err)
	}
	return nil
}

func (t *TopUpParams) MarshalCBOR(w io.Writer) error {
	if t == nil {
		_, err := w.Write(cbg.CborNull)
		return err
	}
	scratch := make([]byte, 9)
	if err := cbg.WriteMajorTypeHeaderBuf(scratch, w, cbg.MajArray, 2); err != nil {
		return err
	}
	if err := writeInt64(w, scratch, int64(t.Pool)); err != nil {
		return err
	}
	return t.Amount.MarshalCBOR(w)
}

func (t *TopUpParams) UnmarshalCBOR(r io.Reader) error {
	*t = TopUpParams{}
	br := cbg.GetPeeker(r)
	scratch := make([]byte, 8)
	if err := readTupleHeader(br, scratch, 2); err != nil {
		return err
	}
	id, err := readInt64(br, scratch)
	if err != nil {
		return xerrors.Errorf("unmarshaling Pool: %w", err)
	}
	t.Pool = PoolID(id)
	if err := t.Amount.UnmarshalCBOR(br); err != nil {
		return xerrors.Errorf("unmarshaling Amount: %w", err)
	}
	return nil
}

func (t *PoolParams) MarshalCBOR(w io.Writer) error {
	if t == nil {
		_, err := w.Write(cbg.CborNull)
		return err
	}
	scratch := make([]byte, 9)
	if err := cbg.WriteMajorTypeHeaderBuf(scratch, w, cbg.MajArray, 1); err != nil {
		return err
	}
	return writeInt64(w, scratch, int64(t.Pool))
}

func (t *PoolParams) UnmarshalCBOR(r io.Reader) error {
	*t = PoolParams{}
	br := cbg.GetPeeker(r)
	scratch := make([]byte, 8)
	if err := readTupleHeader(br, scratch, 1); err != nil {
		return err
	}
	id, err := readInt64(br, scratch)
	if err != nil {
		return xerrors.Errorf("unmarshaling Pool: %w", err)
	}
	t.Pool = PoolID(id)
	return nil
}

func (t *ClaimableValueParams) MarshalCBOR(w io.Writer) error {
	if t == nil {
		_, err := w.Write(cbg.CborNull)
		return err
	}
	scratch := make([]byte, 9)
	if err := cbg.WriteMajorTypeHeaderBuf(scratch, w, cbg.MajArray, 2); err != nil {
		return err
	}
	if err := writeInt64(w, scratch, int64(t.Pool)); err != nil {
		return err
	}
	return t.Claimant.MarshalCBOR(w)
}

func (t *ClaimableValueParams) UnmarshalCBOR(r io.Reader) error {
	*t = ClaimableValueParams{}
	br := cbg.GetPeeker(r)
	scratch := make([]byte, 8)
	if err := readTupleHeader(br, scratch, 2); err != nil {
		return err
	}
	id, err := readInt64(br, scratch)
	if err != nil {
		return xerrors.Errorf("unmarshaling Pool: %w", err)
	}
	t.Pool = PoolID(id)
	if err := t.Claimant.UnmarshalCBOR(br); err != nil {
		return xerrors.Errorf("unmarshaling Claimant: %w", err)
	}
	return nil
}

func (t *ApproveParams) MarshalCBOR(w io.Writer) error {
	if t == nil {
		_, err := w.Write(cbg.CborNull)
		return err
	}
	scratch := make([]byte, 9)
	if err := cbg.WriteMajorTypeHeaderBuf(scratch, w, cbg.MajArray, 3); err != nil {
		return err
	}
	if err := writeInt64(w, scratch, int64(t.Pool)); err != nil {
		return err
	}
	if err := t.Spender.MarshalCBOR(w); err != nil {
		return err
	}
	return t.Amount.MarshalCBOR(w)
}

func (t *ApproveParams) UnmarshalCBOR(r io.Reader) error {
	*t = ApproveParams{}
	br := cbg.GetPeeker(r)
	scratch := make([]byte, 8)
	if err := readTupleHeader(br, scratch, 3); err != nil {
		return err
	}
	id, err := readInt64(br, scratch)
	if err != nil {
		return xerrors.Errorf("unmarshaling Pool: %w", err)
	}
	t.Pool = PoolID(id)
	if err := t.Spender.UnmarshalCBOR(br); err != nil {
		return xerrors.Errorf("unmarshaling Spender: %w", err)
	}
	if err := t.Amount.UnmarshalCBOR(br); err != nil {
		return xerrors.Errorf("unmarshaling Amount: %w", err)
	}
	return nil
}

func (t *TransferParams) MarshalCBOR(w io.Writer) error {
	if t == nil {
		_, err := w.Write(cbg.CborNull)
		return err
	}
	scratch := make([]byte, 9)
	if err := cbg.WriteMajorTypeHeaderBuf(scratch, w, cbg.MajArray, 3); err != nil {
		return err
	}
	if err := writeInt64(w, scratch, int64(t.Pool)); err != nil {
		return err
	}
	if err := t.To.MarshalCBOR(w); err != nil {
		return err
	}
	return t.Amount.MarshalCBOR(w)
}

func (t *TransferParams) UnmarshalCBOR(r io.Reader) error {
	*t = TransferParams{}
	br := cbg.GetPeeker(r)
	scratch := make([]byte, 8)
	if err := readTupleHeader(br, scratch, 3); err != nil {
		return err
	}
	id, err := readInt64(br, scratch)
	if err != nil {
		return xerrors.Errorf("unmarshaling Pool: %w", err)
	}
	t.Pool = PoolID(id)
	if err := t.To.UnmarshalCBOR(br); err != nil {
		return xerrors.Errorf("unmarshaling To: %w", err)
	}
	if err := t.Amount.UnmarshalCBOR(br); err != nil {
		return xerrors.Errorf("unmarshaling Amount: %w", err)
	}
	return nil
}

func (t *TransferFromParams) MarshalCBOR(w io.Writer) error {
	if t == nil {
		_, err := w.Write(cbg.CborNull)
		return err
	}
	scratch := make([]byte, 9)
	if err := cbg.WriteMajorTypeHeaderBuf(scratch, w, cbg.MajArray, 4); err != nil {
		return err
	}
	if err := writeInt64(w, scratch, int64(t.Pool)); err != nil {
		return err
	}
	if err := t.From.MarshalCBOR(w); err != nil {
		return err
	}
	if err := t.To.MarshalCBOR(w); err != nil {
		return err
	}
	return t.Amount.MarshalCBOR(w)
}

func (t *TransferFromParams) UnmarshalCBOR(r io.Reader) error {
	*t = TransferFromParams{}
	br := cbg.GetPeeker(r)
	scratch := make([]byte, 8)
	if err := readTupleHeader(br, scratch, 4); err != nil {
		return err
	}
	id, err := readInt64(br, scratch)
	if err != nil {
		return xerrors.Errorf("unmarshaling Pool: %w", err)
	}
	t.Pool = PoolID(id)
	if err := t.From.UnmarshalCBOR(br); err != nil {
		return xerrors.Errorf("unmarshaling From: %w", err)
	}
	if err := t.To.UnmarshalCBOR(br); err != nil {
		return xerrors.Errorf("unmarshaling To: %w", err)
	}
	if err := t.Amount.UnmarshalCBOR(br); err != nil {
		return xerrors.Errorf("unmarshaling Amount: %w", err)
	}
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

func (t *SetCreationFeeParams) MarshalCBOR(w io.Writer) error {
	if t == nil {
		_, err := w.Write(cbg.CborNull)
		return err
	}
	scratch := make([]byte, 9)
	if err := cbg.WriteMajorTypeHeaderBuf(scratch, w, cbg.MajArray, 1); err != nil {
		return err
	}
	return t.Fee.MarshalCBOR(w)
}

func (t *SetCreationFeeParams) UnmarshalCBOR(r io.Reader) error {
	*t = SetCreationFeeParams{}
	br := cbg.GetPeeker(r)
	scratch := make([]byte, 8)
	if err := readTupleHeader(br, scratch, 1); err != nil {
		return err
	}
	if err := t.Fee.UnmarshalCBOR(br); err != nil {
		return xerrors.Errorf("unmarshaling Fee: %w", err)
	}
	return nil
}

//
// Event payloads (marshal only)
//

func (t *PoolCreatedEvent) MarshalCBOR(w io.Writer) error {
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
	if err := t.Owner.MarshalCBOR(w); err != nil {
		return err
	}
	return t.Schedule.MarshalCBOR(w)
}

func (t *PoolFundedEvent) MarshalCBOR(w io.Writer) error {
	if t == nil {
		_, err := w.Write(cbg.CborNull)
		return err
	}
	scratch := make([]byte, 9)
	if err := cbg.WriteMajorTypeHeaderBuf(scratch, w, cbg.MajArray, 4); err != nil {
		return err
	}
	if err := writeInt64(w, scratch, int64(t.ID)); err != nil {
		return err
	}
	if err := t.Token.MarshalCBOR(w); err != nil {
		return err
	}
	if err := t.Amount.MarshalCBOR(w); err != nil {
		return err
	}
	return writeInt64(w, scratch, int64(t.Start))
}

func (t *PoolIncreasedEvent) MarshalCBOR(w io.Writer) error {
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
	return t.Amount.MarshalCBOR(w)
}

func (t *ClaimantsAddedEvent) MarshalCBOR(w io.Writer) error {
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
	return writeAddrSlice(w, scratch, t.Claimants)
}

func (t *ClaimedEvent) MarshalCBOR(w io.Writer) error {
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
	if err := t.Claimant.MarshalCBOR(w); err != nil {
		return err
	}
	return t.Amount.MarshalCBOR(w)
}

func (t *ApprovalSetEvent) MarshalCBOR(w io.Writer) error {
	if t == nil {
		_, err := w.Write(cbg.CborNull)
		return err
	}
	scratch := make([]byte, 9)
	if err := cbg.WriteMajorTypeHeaderBuf(scratch, w, cbg.MajArray, 4); err != nil {
		return err
	}
	if err := writeInt64(w, scratch, int64(t.ID)); err != nil {
		return err
	}
	if err := t.Granter.MarshalCBOR(w); err != nil {
		return err
	}
	if err := t.Spender.MarshalCBOR(w); err != nil {
		return err
	}
	return t.Amount.MarshalCBOR(w)
}

func (t *ClaimTransferredEvent) MarshalCBOR(w io.Writer) error {
	if t == nil {
		_, err := w.Write(cbg.CborNull)
		return err
	}
	scratch := make([]byte, 9)
	if err := cbg.WriteMajorTypeHeaderBuf(scratch, w, cbg.MajArray, 5); err != nil {
		return err
	}
	if err := writeInt64(w, scratch, int64(t.ID)); err != nil {
		return err
	}
	if err := t.From.MarshalCBOR(w); err != nil {
		return err
	}
	if err := t.To.MarshalCBOR(w); err != nil {
		return err
	}
	if err := t.Amount.MarshalCBOR(w); err != nil {
		return err
	}
	return writeOptionalAddr(w, t.Spender)
}

//
// Slice helpers
//

func writeAddrSlice(w io.Writer, scratch []byte, addrs []addr.Address) error {
	if err := cbg.WriteMajorTypeHeaderBuf(scratch, w, cbg.MajArray, uint64(len(addrs))); err != nil {
		return err
	}
	for i := range addrs {
		if err := addrs[i].MarshalCBOR(w); err != nil {
			return err
		}
	}
	return nil
}

func readAddrSlice(br bytePeeker, scratch []byte) ([]addr.Address, error) {
	maj, n, err := cbg.CborReadHeaderBuf(br, scratch)
	if err != nil {
		return nil, err
	}
	if maj != cbg.MajArray {
		return nil, xerrors.Errorf("expected array of addresses")
	}
	if n > cbg.MaxLength {
		return nil, xerrors.Errorf("address array too long (%d)", n)
	}
	out := make([]addr.Address, n)
	for i := uint64(0); i < n; i++ {
		if err := out[i].UnmarshalCBOR(br); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func writeAmountSlice(w io.Writer, scratch []byte, amounts []abi.TokenAmount) error {
	if err := cbg.WriteMajorTypeHeaderBuf(scratch, w, cbg.MajArray, uint64(len(amounts))); err != nil {
		return err
	}
	for i := range amounts {
		if err := amounts[i].MarshalCBOR(w); err != nil {
			return err
		}
	}
	return nil
}

func readAmountSlice(br bytePeeker, scratch []byte) ([]abi.TokenAmount, error) {
	maj, n, err := cbg.CborReadHeaderBuf(br, scratch)
	if err != nil {
		return nil, err
	}
	if maj != cbg.MajArray {
		return nil, xerrors.Errorf("expected array of amounts")
	}
	if n > cbg.MaxLength {
		return nil, xerrors.Errorf("amount array too long (%d)", n)
	}
	out := make([]abi.TokenAmount, n)
	for i := uint64(0); i < n; i++ {
		if err := out[i].UnmarshalCBOR(br); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func writeEpochSlice(w io.Writer, scratch []byte, epochs []abi.ChainEpoch) error {
	if err := cbg.WriteMajorTypeHeaderBuf(scratch, w, cbg.MajArray, uint64(len(epochs))); err != nil {
		return err
	}
	for _, e := range epochs {
		if err := writeInt64(w, scratch, int64(e)); err != nil {
			return err
		}
	}
	return nil
}

func readEpochSlice(br bytePeeker, scratch []byte) ([]abi.ChainEpoch, error) {
	maj, n, err := cbg.CborReadHeaderBuf(br, scratch)
	if err != nil {
		return nil, err
	}
	if maj != cbg.MajArray {
		return nil, xerrors.Errorf("expected array of epochs")
	}
	if n > cbg.MaxLength {
		return nil, xerrors.Errorf("epoch array too long (%d)", n)
	}
	out := make([]abi.ChainEpoch, n)
	for i := uint64(0); i < n; i++ {
		v, err := readInt64(br, scratch)
		if err != nil {
			return nil, err
		}
		out[i] = abi.ChainEpoch(v)
	}
	return out, nil
}

func writeInt64Slice(w io.Writer, scratch []byte, vals []int64) error {
	if err := cbg.WriteMajorTypeHeaderBuf(scratch, w, cbg.MajArray, uint64(len(vals))); err != nil {
		return err
	}
	for _, v := range vals {
		if err := writeInt64(w, scratch, v); err != nil {
			return err
		}
	}
	return nil
}

func readInt64Slice(br bytePeeker, scratch []byte) ([]int64, error) {
	maj, n, err := cbg.CborReadHeaderBuf(br, scratch)
	if err != nil {
		return nil, err
	}
	if maj != cbg.MajArray {
		return nil, xerrors.Errorf("expected array of integers")
	}
	if n > cbg.MaxLength {
		return nil, xerrors.Errorf("integer array too long (%d)", n)
	}
	out := make([]int64, n)
	for i := uint64(0); i < n; i++ {
		if out[i], err = readInt64(br, scratch); err != nil {
			return nil, err
		}
	}
	return out, nil
}
