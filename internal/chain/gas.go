package chain

import (
	"context"
	"math/big"
)

// minTip is the priority fee floor used when the node suggests nothing
// sensible (BSC validators accept 1 gwei).
var minTip = big.NewInt(1_000_000_000)

// Fees is an EIP-1559 fee suggestion.
type Fees struct {
	TipCap *big.Int // max priority fee per gas
	FeeCap *big.Int // max fee per gas
}

// SuggestFees derives dynamic-fee caps: the tip is the node's gas price
// (at least minTip) and the cap leaves room for one doubling of the base fee.
func (c *EVMClient) SuggestFees(ctx context.Context) (*Fees, error) {
	gp, err := c.GasPrice(ctx)
	if err != nil {
		return nil, err
	}
	tip := new(big.Int).Set(gp)
	if tip.Cmp(minTip) < 0 {
		tip.Set(minTip)
	}

	feeCap := new(big.Int).Mul(tip, big.NewInt(2))
	if base, err := c.baseFee(ctx); err == nil && base != nil {
		withBase := new(big.Int).Add(new(big.Int).Mul(base, big.NewInt(2)), tip)
		if withBase.Cmp(feeCap) > 0 {
			feeCap = withBase
		}
	}
	return &Fees{TipCap: tip, FeeCap: feeCap}, nil
}

// baseFee reads baseFeePerGas from the latest header; nil on legacy chains.
func (c *EVMClient) baseFee(ctx context.Context) (*big.Int, error) {
	var header struct {
		BaseFeePerGas string `json:"baseFeePerGas"`
	}
	if err := c.callInto(ctx, &header, "eth_getBlockByNumber", "latest", false); err != nil {
		return nil, err
	}
	bf, ok := parseBigHex(header.BaseFeePerGas)
	if !ok {
		return nil, nil
	}
	return bf, nil
}

// WeiToGwei converts a Wei value to Gwei as float64.
func WeiToGwei(wei *big.Int) float64 {
	if wei == nil {
		return 0
	}
	f, _ := new(big.Float).Quo(
		new(big.Float).SetInt(wei),
		new(big.Float).SetFloat64(1e9),
	).Float64()
	return f
}
