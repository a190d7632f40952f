package ifo

import (
	"errors"
	"math/big"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func u(n uint64) *big.Int { return new(big.Int).SetUint64(n) }

func properties(t *testing.T) *gopter.Properties {
	t.Helper()
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	return gopter.NewProperties(parameters)
}

// Property: for committed <= cap the result lies in [0, balance] and in
// [0, cap-committed], and equals whichever bound is tighter.
func TestMaxCommittableWithinBothBounds(t *testing.T) {
	props := properties(t)

	props.Property("result bounded by balance and remaining cap", prop.ForAll(
		func(userCap, committedSeed, balance uint64) bool {
			if userCap == 0 {
				return true
			}
			committed := committedSeed % (userCap + 1)
			got := MaxCommittable(LimitInputs{PerUserCap: u(userCap), AlreadyCommitted: u(committed), AvailableBalance: u(balance)})

			remaining := u(userCap - committed)
			if got.Sign() < 0 || got.Cmp(u(balance)) > 0 || got.Cmp(remaining) > 0 {
				return false
			}
			return got.Cmp(u(balance)) == 0 || got.Cmp(remaining) == 0
		},
		gen.UInt64Range(0, 1<<62),
		gen.UInt64(),
		gen.UInt64(),
	))

	props.TestingRun(t)
}

// Property: an uncapped pool always yields the full balance.
func TestMaxCommittableUncappedIsBalance(t *testing.T) {
	props := properties(t)

	props.Property("cap 0 returns balance", prop.ForAll(
		func(balance uint64) bool {
			got := MaxCommittable(LimitInputs{PerUserCap: u(0), AlreadyCommitted: u(0), AvailableBalance: u(balance)})
			return got.Cmp(u(balance)) == 0
		},
		gen.UInt64(),
	))

	props.TestingRun(t)
}

// Property: the result is never negative, even with committed above the cap.
func TestMaxCommittableNeverNegative(t *testing.T) {
	props := properties(t)

	props.Property("non-negative output", prop.ForAll(
		func(userCap, committed, balance uint64) bool {
			got := MaxCommittable(LimitInputs{PerUserCap: u(userCap), AlreadyCommitted: u(committed), AvailableBalance: u(balance)})
			return got.Sign() >= 0
		},
		gen.UInt64(),
		gen.UInt64(),
		gen.UInt64(),
	))

	props.TestingRun(t)
}

// Property: every preset stays within the maximum. A non-zero preset passes
// CheckContribution; a zero maximum yields zero presets, which it rejects.
func TestPresetsAlwaysValid(t *testing.T) {
	props := properties(t)

	props.Property("presets within max", prop.ForAll(
		func(max uint64, idx int) bool {
			p := Preset(u(max), PresetPercents[idx])
			return p.Sign() >= 0 && p.Cmp(u(max)) <= 0
		},
		gen.UInt64(),
		gen.IntRange(0, len(PresetPercents)-1),
	))

	props.Property("non-zero presets validate", prop.ForAll(
		func(max uint64, idx int) bool {
			p := Preset(u(max), PresetPercents[idx])
			err := CheckContribution(p, u(max))
			if p.Sign() == 0 {
				return errors.Is(err, ErrZeroAmount)
			}
			return err == nil
		},
		gen.UInt64(),
		gen.IntRange(0, len(PresetPercents)-1),
	))

	props.TestingRun(t)
}
