// Package contract binds the handful of contracts the dialogs talk to:
// ERC-20 tokens, IFO pools and trading competitions. Calls go through a
// minimal Caller so the bindings work against any JSON-RPC client.
package contract

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Caller runs a read-only eth_call and returns the hex-encoded result.
type Caller interface {
	CallContract(ctx context.Context, to, calldata string) (string, error)
}

const erc20JSON = `[
	{"type":"function","name":"allowance","stateMutability":"view",
	 "inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],
	 "outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"balanceOf","stateMutability":"view",
	 "inputs":[{"name":"account","type":"address"}],
	 "outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"decimals","stateMutability":"view",
	 "inputs":[],"outputs":[{"name":"","type":"uint8"}]},
	{"type":"function","name":"symbol","stateMutability":"view",
	 "inputs":[],"outputs":[{"name":"","type":"string"}]},
	{"type":"function","name":"approve","stateMutability":"nonpayable",
	 "inputs":[{"name":"spender","type":"address"},{"name":"value","type":"uint256"}],
	 "outputs":[{"name":"","type":"bool"}]}
]`

const ifoJSON = `[
	{"type":"function","name":"viewPoolInformation","stateMutability":"view",
	 "inputs":[{"name":"_pid","type":"uint256"}],
	 "outputs":[
		{"name":"","type":"uint256"},{"name":"","type":"uint256"},{"name":"","type":"uint256"},
		{"name":"","type":"bool"},{"name":"","type":"uint256"},{"name":"","type":"uint256"}]},
	{"type":"function","name":"viewUserInfo","stateMutability":"view",
	 "inputs":[{"name":"_user","type":"address"},{"name":"_pids","type":"uint8[]"}],
	 "outputs":[{"name":"","type":"uint256[]"},{"name":"","type":"bool[]"}]},
	{"type":"function","name":"depositPool","stateMutability":"nonpayable",
	 "inputs":[{"name":"_amount","type":"uint256"},{"name":"_pid","type":"uint8"}],
	 "outputs":[]}
]`

const competitionJSON = `[
	{"type":"function","name":"claimReward","stateMutability":"nonpayable",
	 "inputs":[],"outputs":[]}
]`

var (
	erc20ABI       = mustABI("erc20", erc20JSON)
	ifoABI         = mustABI("ifo", ifoJSON)
	competitionABI = mustABI("competition", competitionJSON)
)

func mustABI(name, raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("contract: parsing %s ABI: %v", name, err))
	}
	return parsed
}

// call packs method, runs it against to and unpacks the outputs.
func call(ctx context.Context, c Caller, a abi.ABI, to common.Address, method string, args ...interface{}) ([]interface{}, error) {
	data, err := a.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", method, err)
	}
	out, err := c.CallContract(ctx, to.Hex(), hexutil.Encode(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	raw, err := hexutil.Decode(out)
	if err != nil {
		return nil, fmt.Errorf("%s: bad return data: %w", method, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%s: empty return data (is %s a contract?)", method, to.Hex())
	}
	vals, err := a.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", method, err)
	}
	return vals, nil
}

func parseAddress(field, s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid %s address %q", field, s)
	}
	return common.HexToAddress(s), nil
}
