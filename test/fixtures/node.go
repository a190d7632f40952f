// Package fixtures provides a fake EVM node for tests that exercise the
// full approve-then-contribute path over JSON-RPC.
package fixtures

import (
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
)

// Contract addresses the node answers for.
var (
	TokenAddress       = common.HexToAddress("0x0E09FaBB73Bd3Ade0a17ECC321fD13a19e81cE82")
	IFOAddress         = common.HexToAddress("0x1111111111111111111111111111111111111111")
	CompetitionAddress = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

const nodeABI = `[
	{"type":"function","name":"allowance","inputs":[{"type":"address"},{"type":"address"}],"outputs":[{"type":"uint256"}]},
	{"type":"function","name":"balanceOf","inputs":[{"type":"address"}],"outputs":[{"type":"uint256"}]},
	{"type":"function","name":"decimals","inputs":[],"outputs":[{"type":"uint8"}]},
	{"type":"function","name":"symbol","inputs":[],"outputs":[{"type":"string"}]},
	{"type":"function","name":"approve","inputs":[{"type":"address"},{"type":"uint256"}],"outputs":[{"type":"bool"}]},
	{"type":"function","name":"viewPoolInformation","inputs":[{"type":"uint256"}],
	 "outputs":[{"type":"uint256"},{"type":"uint256"},{"type":"uint256"},{"type":"bool"},{"type":"uint256"},{"type":"uint256"}]},
	{"type":"function","name":"viewUserInfo","inputs":[{"type":"address"},{"type":"uint8[]"}],
	 "outputs":[{"type":"uint256[]"},{"type":"bool[]"}]},
	{"type":"function","name":"depositPool","inputs":[{"type":"uint256"},{"type":"uint8"}],"outputs":[]},
	{"type":"function","name":"claimReward","inputs":[],"outputs":[]}
]`

var parsedABI = func() abi.ABI {
	a, err := abi.JSON(strings.NewReader(nodeABI))
	if err != nil {
		panic(err)
	}
	return a
}()

// Node is a single-account fake chain holding one ERC-20 token, one IFO
// contract and one competition contract. Every broadcast transaction is
// mined immediately.
type Node struct {
	URL     string
	ChainID int64

	mu           sync.Mutex
	allowance    *big.Int
	balance      *big.Int
	committed    *big.Int
	limitPerUser *big.Int
	revert       map[string]string // method -> revert reason during estimation
	receipts     map[string]uint64
	sent         []string
	block        uint64
}

// NewNode starts a node; it is closed when the test ends.
func NewNode(t *testing.T, chainID int64) *Node {
	t.Helper()
	n := &Node{
		ChainID:      chainID,
		allowance:    new(big.Int),
		balance:      new(big.Int),
		committed:    new(big.Int),
		limitPerUser: new(big.Int),
		revert:       make(map[string]string),
		receipts:     make(map[string]uint64),
		block:        100,
	}
	srv := httptest.NewServer(http.HandlerFunc(n.serve))
	t.Cleanup(srv.Close)
	n.URL = srv.URL
	return n
}

// SetBalance sets the account's token balance.
func (n *Node) SetBalance(v *big.Int) { n.set(&n.balance, v) }

// SetAllowance sets the allowance granted to the IFO contract.
func (n *Node) SetAllowance(v *big.Int) { n.set(&n.allowance, v) }

// SetCommitted sets the amount already committed to the pool.
func (n *Node) SetCommitted(v *big.Int) { n.set(&n.committed, v) }

// SetLimitPerUser sets the pool cap; zero is uncapped.
func (n *Node) SetLimitPerUser(v *big.Int) { n.set(&n.limitPerUser, v) }

// RevertOn makes gas estimation for method revert with reason. An empty
// reason clears it.
func (n *Node) RevertOn(method, reason string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if reason == "" {
		delete(n.revert, method)
		return
	}
	n.revert[method] = reason
}

// Allowance returns the current allowance.
func (n *Node) Allowance() *big.Int { return n.get(&n.allowance) }

// Committed returns the committed amount.
func (n *Node) Committed() *big.Int { return n.get(&n.committed) }

// Sent lists the methods of every mined transaction in order.
func (n *Node) Sent() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.sent...)
}

func (n *Node) set(dst **big.Int, v *big.Int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	*dst = new(big.Int).Set(v)
}

func (n *Node) get(src **big.Int) *big.Int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return new(big.Int).Set(*src)
}

type rpcReq struct {
	ID     int               `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

type rpcErr struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (n *Node) serve(w http.ResponseWriter, r *http.Request) {
	var req rpcReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	result, rerr := n.handle(req)
	resp := map[string]interface{}{"jsonrpc": "2.0", "id": req.ID}
	if rerr != nil {
		resp["error"] = rerr
	} else {
		resp["result"] = result
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (n *Node) handle(req rpcReq) (interface{}, *rpcErr) {
	n.mu.Lock()
	defer n.mu.Unlock()

	switch req.Method {
	case "eth_chainId":
		return hexutil.EncodeBig(big.NewInt(n.ChainID)), nil
	case "eth_blockNumber":
		return hexutil.EncodeUint64(n.block), nil
	case "eth_gasPrice":
		return hexutil.EncodeBig(big.NewInt(3_000_000_000)), nil
	case "eth_getBlockByNumber":
		return map[string]string{"number": hexutil.EncodeUint64(n.block)}, nil
	case "eth_getTransactionCount":
		return hexutil.EncodeUint64(uint64(len(n.sent))), nil
	case "eth_call":
		var call map[string]string
		if err := json.Unmarshal(req.Params[0], &call); err != nil {
			return nil, &rpcErr{Code: -32602, Message: err.Error()}
		}
		out, err := n.view(hexutil.MustDecode(call["data"]))
		if err != nil {
			return nil, &rpcErr{Code: 3, Message: "execution reverted: " + err.Error()}
		}
		return hexutil.Encode(out), nil
	case "eth_estimateGas":
		var call map[string]string
		if err := json.Unmarshal(req.Params[0], &call); err != nil {
			return nil, &rpcErr{Code: -32602, Message: err.Error()}
		}
		m, err := parsedABI.MethodById(hexutil.MustDecode(call["data"]))
		if err != nil {
			return nil, &rpcErr{Code: 3, Message: "execution reverted"}
		}
		if reason, ok := n.revert[m.Name]; ok {
			return nil, &rpcErr{Code: 3, Message: "execution reverted: " + reason}
		}
		return hexutil.EncodeUint64(60_000), nil
	case "eth_sendRawTransaction":
		var raw string
		if err := json.Unmarshal(req.Params[0], &raw); err != nil {
			return nil, &rpcErr{Code: -32602, Message: err.Error()}
		}
		tx := new(types.Transaction)
		if err := tx.UnmarshalBinary(hexutil.MustDecode(raw)); err != nil {
			return nil, &rpcErr{Code: -32000, Message: "invalid transaction: " + err.Error()}
		}
		if err := n.apply(tx); err != nil {
			return nil, &rpcErr{Code: -32000, Message: err.Error()}
		}
		n.block++
		n.receipts[tx.Hash().Hex()] = n.block
		return tx.Hash().Hex(), nil
	case "eth_getTransactionReceipt":
		var hash string
		if err := json.Unmarshal(req.Params[0], &hash); err != nil {
			return nil, &rpcErr{Code: -32602, Message: err.Error()}
		}
		block, ok := n.receipts[hash]
		if !ok {
			return nil, nil
		}
		return map[string]string{
			"status":      "0x1",
			"blockNumber": hexutil.EncodeUint64(block),
			"gasUsed":     hexutil.EncodeUint64(46_000),
		}, nil
	}
	return nil, &rpcErr{Code: -32601, Message: "method not found: " + req.Method}
}

// view answers eth_call. Caller holds mu.
func (n *Node) view(data []byte) ([]byte, error) {
	m, err := parsedABI.MethodById(data)
	if err != nil {
		return nil, err
	}
	switch m.Name {
	case "allowance":
		return m.Outputs.Pack(n.allowance)
	case "balanceOf":
		return m.Outputs.Pack(n.balance)
	case "decimals":
		return m.Outputs.Pack(uint8(18))
	case "symbol":
		return m.Outputs.Pack("CAKE")
	case "viewPoolInformation":
		raising := new(big.Int).Mul(big.NewInt(1000), big.NewInt(1e18))
		return m.Outputs.Pack(raising, raising, n.limitPerUser, false, n.committed, new(big.Int))
	case "viewUserInfo":
		return m.Outputs.Pack([]*big.Int{n.committed}, []bool{false})
	}
	return nil, fmt.Errorf("%s is not a view", m.Name)
}

// apply mutates state for a mined transaction. Caller holds mu.
func (n *Node) apply(tx *types.Transaction) error {
	m, err := parsedABI.MethodById(tx.Data())
	if err != nil {
		return err
	}
	args, err := m.Inputs.Unpack(tx.Data()[4:])
	if err != nil {
		return err
	}
	switch m.Name {
	case "approve":
		n.allowance = new(big.Int).Set(args[1].(*big.Int))
	case "depositPool":
		amount := args[0].(*big.Int)
		if n.allowance.Cmp(amount) < 0 {
			return fmt.Errorf("insufficient allowance")
		}
		n.committed = new(big.Int).Add(n.committed, amount)
		n.balance = new(big.Int).Sub(n.balance, amount)
	}
	n.sent = append(n.sent, m.Name)
	return nil
}
