// Package ifo holds the pure rules of an initial farm offering: how much a
// user may commit to a pool, amount parsing in token base units, and the
// registry of configured offerings.
package ifo

import (
	"errors"
	"math/big"
)

// Contribution validation errors.
var (
	ErrZeroAmount   = errors.New("amount must be greater than zero")
	ErrExceedsLimit = errors.New("amount exceeds the maximum committable")
)

// PresetPercents are the quick-fill shares of the maximum committable amount.
var PresetPercents = []int{10, 25, 50, 75, 100}

// LimitInputs is the snapshot the limit is computed from. All amounts are in
// token base units; nil is read as zero. Negative values are a caller bug.
type LimitInputs struct {
	PerUserCap       *big.Int // zero means the pool has no per-user cap
	AlreadyCommitted *big.Int
	AvailableBalance *big.Int
}

// MaxCommittable returns how much the user may contribute right now: the
// balance when the pool is uncapped, otherwise the smaller of the balance and
// the unused part of the cap. The result is never negative.
func MaxCommittable(in LimitInputs) *big.Int {
	balance := orZero(in.AvailableBalance)
	limit := orZero(in.PerUserCap)
	if limit.Sign() == 0 {
		return new(big.Int).Set(balance)
	}

	remaining := new(big.Int).Sub(limit, orZero(in.AlreadyCommitted))
	if remaining.Sign() < 0 {
		remaining.SetInt64(0)
	}
	if remaining.Cmp(balance) < 0 {
		return remaining
	}
	return new(big.Int).Set(balance)
}

// Preset returns percent% of max, rounded down.
func Preset(max *big.Int, percent int) *big.Int {
	out := new(big.Int).Mul(orZero(max), big.NewInt(int64(percent)))
	return out.Quo(out, big.NewInt(100))
}

// CheckContribution validates a requested amount against the limit.
func CheckContribution(amount, max *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrZeroAmount
	}
	if amount.Cmp(orZero(max)) > 0 {
		return ErrExceedsLimit
	}
	return nil
}

var zero = new(big.Int)

func orZero(n *big.Int) *big.Int {
	if n == nil {
		return zero
	}
	return n
}
