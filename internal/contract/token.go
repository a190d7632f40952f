package contract

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
)

// MaxApproval is the allowance granted by an unlimited approval (2^256-1).
var MaxApproval = math.MaxBig256

// Token is a read binding for one ERC-20 contract.
type Token struct {
	addr   common.Address
	caller Caller
}

// NewToken binds the ERC-20 at address.
func NewToken(address string, c Caller) (*Token, error) {
	addr, err := parseAddress("token", address)
	if err != nil {
		return nil, err
	}
	return &Token{addr: addr, caller: c}, nil
}

// Address returns the token contract address.
func (t *Token) Address() common.Address { return t.addr }

// Allowance returns how much spender may move on behalf of owner.
func (t *Token) Allowance(ctx context.Context, owner, spender string) (*big.Int, error) {
	o, err := parseAddress("owner", owner)
	if err != nil {
		return nil, err
	}
	s, err := parseAddress("spender", spender)
	if err != nil {
		return nil, err
	}
	vals, err := call(ctx, t.caller, erc20ABI, t.addr, "allowance", o, s)
	if err != nil {
		return nil, err
	}
	return bigOut(vals, 0)
}

// BalanceOf returns the token balance of account in base units.
func (t *Token) BalanceOf(ctx context.Context, account string) (*big.Int, error) {
	a, err := parseAddress("account", account)
	if err != nil {
		return nil, err
	}
	vals, err := call(ctx, t.caller, erc20ABI, t.addr, "balanceOf", a)
	if err != nil {
		return nil, err
	}
	return bigOut(vals, 0)
}

// Decimals returns the token's decimals().
func (t *Token) Decimals(ctx context.Context) (uint8, error) {
	vals, err := call(ctx, t.caller, erc20ABI, t.addr, "decimals")
	if err != nil {
		return 0, err
	}
	d, ok := vals[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("decimals: unexpected type %T", vals[0])
	}
	return d, nil
}

// Symbol returns the token's symbol().
func (t *Token) Symbol(ctx context.Context) (string, error) {
	vals, err := call(ctx, t.caller, erc20ABI, t.addr, "symbol")
	if err != nil {
		return "", err
	}
	s, ok := vals[0].(string)
	if !ok {
		return "", fmt.Errorf("symbol: unexpected type %T", vals[0])
	}
	return s, nil
}

// ApproveCalldata encodes approve(spender, amount).
func ApproveCalldata(spender string, amount *big.Int) ([]byte, error) {
	s, err := parseAddress("spender", spender)
	if err != nil {
		return nil, err
	}
	if amount == nil || amount.Sign() < 0 {
		return nil, fmt.Errorf("approve: invalid amount %v", amount)
	}
	return erc20ABI.Pack("approve", s, amount)
}

func bigOut(vals []interface{}, i int) (*big.Int, error) {
	if len(vals) <= i {
		return nil, fmt.Errorf("missing output %d", i)
	}
	n, ok := vals[i].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("output %d: unexpected type %T", i, vals[i])
	}
	return n, nil
}
