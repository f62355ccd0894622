package vesting_test

import (
	"testing"

	"github.com/filecoin-project/go-state-types/abi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vestlock/vesting-actors/actors/builtin/vesting"
)

func TestLinearSchedule(t *testing.T) {
	s := vesting.Schedule{
		Linear: &vesting.LinearSchedule{CliffPeriod: 100, VestingPeriod: 1000},
	}

	t.Run("nothing before cliff", func(t *testing.T) {
		for _, e := range []abi.ChainEpoch{0, 1, 99} {
			_, ok := s.VestedPpm(e)
			assert.False(t, ok, "epoch %d", e)
		}
	})

	t.Run("proportional after cliff", func(t *testing.T) {
		ppm, ok := s.VestedPpm(100)
		require.True(t, ok)
		assert.Equal(t, int64(100_000), ppm)

		ppm, ok = s.VestedPpm(500)
		require.True(t, ok)
		assert.Equal(t, int64(500_000), ppm)

		ppm, ok = s.VestedPpm(999)
		require.True(t, ok)
		assert.Equal(t, int64(999_000), ppm)
	})

	t.Run("clamped at unity after period", func(t *testing.T) {
		for _, e := range []abi.ChainEpoch{1000, 1001, 1 << 40} {
			ppm, ok := s.VestedPpm(e)
			require.True(t, ok)
			assert.Equal(t, int64(1_000_000), ppm, "epoch %d", e)
		}
	})

	t.Run("zero cliff vests from the start", func(t *testing.T) {
		noCliff := vesting.Schedule{
			Linear: &vesting.LinearSchedule{CliffPeriod: 0, VestingPeriod: 100},
		}
		ppm, ok := noCliff.VestedPpm(0)
		require.True(t, ok)
		assert.Equal(t, int64(0), ppm)

		ppm, ok = noCliff.VestedPpm(25)
		require.True(t, ok)
		assert.Equal(t, int64(250_000), ppm)
	})
}

func TestTrancheSchedule(t *testing.T) {
	s := vesting.Schedule{
		Tranches: &vesting.TrancheSchedule{Tranches: []vesting.Tranche{
			{Duration: 100, Ppm: 250_000},
			{Duration: 100, Ppm: 250_000},
			{Duration: 100, Ppm: 500_000},
		}},
	}

	t.Run("first tranche is the cliff", func(t *testing.T) {
		_, ok := s.VestedPpm(0)
		assert.False(t, ok)
		_, ok = s.VestedPpm(99)
		assert.False(t, ok)
	})

	t.Run("steps unlock cumulatively", func(t *testing.T) {
		ppm, ok := s.VestedPpm(100)
		require.True(t, ok)
		assert.Equal(t, int64(250_000), ppm)

		ppm, ok = s.VestedPpm(199)
		require.True(t, ok)
		assert.Equal(t, int64(250_000), ppm)

		ppm, ok = s.VestedPpm(200)
		require.True(t, ok)
		assert.Equal(t, int64(500_000), ppm)

		ppm, ok = s.VestedPpm(300)
		require.True(t, ok)
		assert.Equal(t, int64(1_000_000), ppm)

		ppm, ok = s.VestedPpm(1 << 40)
		require.True(t, ok)
		assert.Equal(t, int64(1_000_000), ppm)
	})

	t.Run("overweight schedule is clamped at unity", func(t *testing.T) {
		over := vesting.Schedule{
			Tranches: &vesting.TrancheSchedule{Tranches: []vesting.Tranche{
				{Duration: 10, Ppm: 900_000},
				{Duration: 10, Ppm: 900_000},
			}},
		}
		ppm, ok := over.VestedPpm(20)
		require.True(t, ok)
		assert.Equal(t, int64(1_000_000), ppm)
	})
}

func TestScheduleValidate(t *testing.T) {
	valid := []vesting.Schedule{
		{Linear: &vesting.LinearSchedule{CliffPeriod: 0, VestingPeriod: 1}},
		{Linear: &vesting.LinearSchedule{CliffPeriod: 50, VestingPeriod: 100}},
		{Tranches: &vesting.TrancheSchedule{Tranches: []vesting.Tranche{{Duration: 1, Ppm: 1_000_000}}}},
	}
	for _, s := range valid {
		assert.NoError(t, s.Validate())
	}

	invalid := []vesting.Schedule{
		{},
		{Linear: &vesting.LinearSchedule{CliffPeriod: -1, VestingPeriod: 100}},
		{Linear: &vesting.LinearSchedule{CliffPeriod: 0, VestingPeriod: 0}},
		{Tranches: &vesting.TrancheSchedule{}},
		{Tranches: &vesting.TrancheSchedule{Tranches: []vesting.Tranche{{Duration: 0, Ppm: 1}}}},
		{Tranches: &vesting.TrancheSchedule{Tranches: []vesting.Tranche{{Duration: 1, Ppm: -1}}}},
		{
			Linear:   &vesting.LinearSchedule{CliffPeriod: 0, VestingPeriod: 1},
			Tranches: &vesting.TrancheSchedule{Tranches: []vesting.Tranche{{Duration: 1, Ppm: 1}}},
		},
	}
	for i, s := range invalid {
		assert.Error(t, s.Validate(), "case %d", i)
	}
}
