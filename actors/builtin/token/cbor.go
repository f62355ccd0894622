package token

import (
	"io"

	cbg "github.com/whyrusleeping/cbor-gen"
	"golang.org/x/xerrors"
)

// Hand-rolled tuple codecs, in wire-format lockstep with the token actor.

func (t *TransferParams) MarshalCBOR(w io.Writer) error {
	if t == nil {
		_, err := w.Write(cbg.CborNull)
		return err
	}
	scratch := make([]byte, 9)
	if err := cbg.WriteMajorTypeHeaderBuf(scratch, w, cbg.MajArray, 2); err != nil {
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
	maj, n, err := cbg.CborReadHeaderBuf(br, scratch)
	if err != nil {
		return err
	}
	if maj != cbg.MajArray || n != 2 {
		return xerrors.Errorf("cbor input was not a 2-element tuple")
	}
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
	if err := cbg.WriteMajorTypeHeaderBuf(scratch, w, cbg.MajArray, 3); err != nil {
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
	maj, n, err := cbg.CborReadHeaderBuf(br, scratch)
	if err != nil {
		return err
	}
	if maj != cbg.MajArray || n != 3 {
		return xerrors.Errorf("cbor input was not a 3-element tuple")
	}
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
