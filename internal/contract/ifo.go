package contract

import (
	"context"
	"fmt"
	"math/big"

	"github.com/Mohsinsiddi/swapflow/internal/ifo"
	"github.com/ethereum/go-ethereum/common"
)

// IFOPool binds an IFO contract with a basic and an unlimited pool.
type IFOPool struct {
	addr   common.Address
	caller Caller
}

// NewIFOPool binds the IFO contract at address.
func NewIFOPool(address string, c Caller) (*IFOPool, error) {
	addr, err := parseAddress("ifo", address)
	if err != nil {
		return nil, err
	}
	return &IFOPool{addr: addr, caller: c}, nil
}

// Address returns the IFO contract address. It is also the spender the
// raising currency must be approved for.
func (p *IFOPool) Address() common.Address { return p.addr }

// PoolInfo reads viewPoolInformation(pid).
func (p *IFOPool) PoolInfo(ctx context.Context, pid ifo.PoolID) (ifo.PoolSnapshot, error) {
	vals, err := call(ctx, p.caller, ifoABI, p.addr, "viewPoolInformation", new(big.Int).SetUint64(uint64(pid)))
	if err != nil {
		return ifo.PoolSnapshot{}, err
	}
	if len(vals) < 5 {
		return ifo.PoolSnapshot{}, fmt.Errorf("viewPoolInformation: got %d outputs", len(vals))
	}
	var snap ifo.PoolSnapshot
	if snap.RaisingAmount, err = bigOut(vals, 0); err != nil {
		return snap, err
	}
	if snap.OfferingAmount, err = bigOut(vals, 1); err != nil {
		return snap, err
	}
	if snap.LimitPerUser, err = bigOut(vals, 2); err != nil {
		return snap, err
	}
	snap.HasTax, _ = vals[3].(bool)
	if snap.TotalAmount, err = bigOut(vals, 4); err != nil {
		return snap, err
	}
	return snap, nil
}

// UserInfo reads viewUserInfo(user, [pid]) and returns the committed amount
// and whether the user already harvested.
func (p *IFOPool) UserInfo(ctx context.Context, user string, pid ifo.PoolID) (*big.Int, bool, error) {
	u, err := parseAddress("user", user)
	if err != nil {
		return nil, false, err
	}
	vals, err := call(ctx, p.caller, ifoABI, p.addr, "viewUserInfo", u, []uint8{uint8(pid)})
	if err != nil {
		return nil, false, err
	}
	amounts, ok := vals[0].([]*big.Int)
	if !ok || len(amounts) != 1 {
		return nil, false, fmt.Errorf("viewUserInfo: unexpected amounts %v", vals[0])
	}
	claimed, ok := vals[1].([]bool)
	if !ok || len(claimed) != 1 {
		return nil, false, fmt.Errorf("viewUserInfo: unexpected claimed flags %v", vals[1])
	}
	return amounts[0], claimed[0], nil
}

// DepositCalldata encodes depositPool(amount, pid).
func DepositCalldata(amount *big.Int, pid ifo.PoolID) ([]byte, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, ifo.ErrZeroAmount
	}
	return ifoABI.Pack("depositPool", amount, uint8(pid))
}

// ClaimRewardCalldata encodes the trading competition's claimReward().
func ClaimRewardCalldata() []byte {
	data, err := competitionABI.Pack("claimReward")
	if err != nil {
		panic("contract: packing claimReward: " + err.Error())
	}
	return data
}
