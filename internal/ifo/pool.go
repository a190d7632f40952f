package ifo

import (
	"fmt"
	"math/big"
	"strings"
)

// PoolID selects one of the two pools of an IFO contract.
type PoolID uint8

const (
	PoolBasic     PoolID = 0
	PoolUnlimited PoolID = 1
)

func (p PoolID) String() string {
	switch p {
	case PoolBasic:
		return "basic"
	case PoolUnlimited:
		return "unlimited"
	default:
		return fmt.Sprintf("pool-%d", uint8(p))
	}
}

// ParsePoolID accepts "basic", "unlimited" or the numeric pool id.
func ParsePoolID(s string) (PoolID, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "basic", "0", "":
		return PoolBasic, nil
	case "unlimited", "1":
		return PoolUnlimited, nil
	}
	return 0, fmt.Errorf("unknown pool %q (want basic or unlimited)", s)
}

// PoolSnapshot is the public state of one pool as read from the contract.
type PoolSnapshot struct {
	RaisingAmount  *big.Int
	OfferingAmount *big.Int
	LimitPerUser   *big.Int // zero = uncapped
	HasTax         bool
	TotalAmount    *big.Int
}

// UserSnapshot is one user's state relative to a pool.
type UserSnapshot struct {
	Committed *big.Int
	Claimed   bool
	Balance   *big.Int // raising-currency wallet balance
}

// Inputs builds the limit calculator inputs from snapshots.
func Inputs(pool PoolSnapshot, user UserSnapshot) LimitInputs {
	return LimitInputs{
		PerUserCap:       pool.LimitPerUser,
		AlreadyCommitted: user.Committed,
		AvailableBalance: user.Balance,
	}
}
