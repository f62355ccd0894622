package vesting

import (
	"github.com/filecoin-project/go-state-types/abi"
	"golang.org/x/xerrors"

	"github.com/vestlock/vesting-actors/actors/builtin"
)

// A Schedule describes how a pool's rights unlock over time.
// It is a kinded union: exactly one of the two strategies is set.
type Schedule struct {
	Linear   *LinearSchedule
	Tranches *TrancheSchedule
}

// LinearSchedule unlocks rights continuously over VestingPeriod epochs from
// the funding event, with no payout permitted before CliffPeriod has elapsed.
type LinearSchedule struct {
	CliffPeriod   abi.ChainEpoch
	VestingPeriod abi.ChainEpoch
}

// TrancheSchedule unlocks a fixed fraction of rights at the end of each
// tranche, in order. The first tranche doubles as the cliff.
type TrancheSchedule struct {
	Tranches []Tranche
}

// Tranche is one step of a tranche schedule: Ppm parts-per-million of the
// allocation unlock once Duration epochs have elapsed after the prior step.
type Tranche struct {
	Duration abi.ChainEpoch
	Ppm      int64
}

// VestedPpm returns the cumulative unlocked fraction, in parts per million, of
// a schedule after `elapsed` epochs of vesting.
// The second return is false while the cliff has not yet passed.
func (s Schedule) VestedPpm(elapsed abi.ChainEpoch) (int64, bool) {
	if s.Linear != nil {
		return s.Linear.VestedPpm(elapsed)
	}
	return s.Tranches.VestedPpm(elapsed)
}

func (s *LinearSchedule) VestedPpm(elapsed abi.ChainEpoch) (int64, bool) {
	if elapsed < s.CliffPeriod {
		return 0, false
	}
	if elapsed >= s.VestingPeriod {
		// Clamped at unity so a long-idle pool cannot vest more than was allocated.
		return builtin.PpmDenominator, true
	}
	return builtin.PpmDenominator * int64(elapsed) / int64(s.VestingPeriod), true
}

func (s *TrancheSchedule) VestedPpm(elapsed abi.ChainEpoch) (int64, bool) {
	if len(s.Tranches) == 0 || elapsed < s.Tranches[0].Duration {
		return 0, false
	}
	vested := int64(0)
	end := abi.ChainEpoch(0)
	for _, t := range s.Tranches {
		end += t.Duration
		if elapsed < end {
			break
		}
		vested += t.Ppm
	}
	if vested > builtin.PpmDenominator {
		vested = builtin.PpmDenominator
	}
	return vested, true
}

// TotalPpm is the sum of all tranche fractions.
// Pool creation accepts sums other than one million; the invariant checker flags them.
func (s *TrancheSchedule) TotalPpm() int64 {
	total := int64(0)
	for _, t := range s.Tranches {
		total += t.Ppm
	}
	return total
}

// Validate checks the structural well-formedness of a schedule.
func (s Schedule) Validate() error {
	switch {
	case s.Linear != nil && s.Tranches != nil:
		return xerrors.Errorf("schedule must be linear or tranche-based, not both")
	case s.Linear != nil:
		if s.Linear.CliffPeriod < 0 {
			return xerrors.Errorf("negative cliff period %d", s.Linear.CliffPeriod)
		}
		if s.Linear.VestingPeriod <= 0 {
			return xerrors.Errorf("vesting period must be positive, got %d", s.Linear.VestingPeriod)
		}
	case s.Tranches != nil:
		if len(s.Tranches.Tranches) == 0 {
			return xerrors.Errorf("tranche schedule must have at least one tranche")
		}
		for i, t := range s.Tranches.Tranches {
			if t.Duration <= 0 {
				return xerrors.Errorf("tranche %d duration must be positive, got %d", i, t.Duration)
			}
			if t.Ppm < 0 {
				return xerrors.Errorf("tranche %d fraction must be non-negative, got %d", i, t.Ppm)
			}
		}
	default:
		return xerrors.Errorf("no schedule given")
	}
	return nil
}
