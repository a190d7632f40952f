package cmd

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/Mohsinsiddi/swapflow/internal/chain"
	"github.com/Mohsinsiddi/swapflow/internal/config"
	"github.com/Mohsinsiddi/swapflow/internal/contract"
	"github.com/Mohsinsiddi/swapflow/internal/ifo"
	"github.com/Mohsinsiddi/swapflow/internal/rpc"
	"github.com/Mohsinsiddi/swapflow/internal/ui"
	"github.com/Mohsinsiddi/swapflow/internal/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// network bundles the chain entry with a client for the chosen endpoint.
type network struct {
	chain  *chain.Chain
	mode   string
	client *chain.EVMClient
}

// dialNetwork resolves name (or the configured default) and picks an RPC.
func dialNetwork(ctx context.Context, name string) (*network, error) {
	if name == "" {
		name = cfg.DefaultNetwork
	}
	c, err := chain.NewRegistry().GetByName(name)
	if err != nil {
		return nil, fmt.Errorf("unknown chain %q — supported: bsc, ethereum, base, arbitrum, polygon", name)
	}
	url, err := pickBestRPC(ctx, c, cfg.NetworkMode)
	if err != nil {
		return nil, err
	}
	logger.Debug("using rpc", "chain", c.Name, "mode", cfg.NetworkMode, "url", url)
	return &network{
		chain:  c,
		mode:   cfg.NetworkMode,
		client: chain.NewEVMClient(url, chain.WithPollInterval(config.ReceiptPoll)),
	}, nil
}

// pickBestRPC merges custom RPCs ahead of the built-in list and probes them.
func pickBestRPC(ctx context.Context, c *chain.Chain, mode string) (string, error) {
	rpcs := rpcCandidates(cfg.GetRPCs(c.Name), c.RPCs(mode))
	if len(rpcs) == 0 {
		return "", fmt.Errorf("no RPCs configured for %s (%s) — add one with `swapflow config set-rpc %s <url>`", c.Name, mode, c.Name)
	}
	algo, err := rpc.ParseAlgorithm(cfg.RPCAlgorithm)
	if err != nil {
		return "", err
	}
	dial := func(url string) rpc.Pinger { return chain.NewEVMClient(url) }
	return rpc.Select(ctx, rpcs, algo, dial, config.RPCTimeout)
}

// rpcCandidates returns custom URLs first, then built-ins, without duplicates.
func rpcCandidates(custom, builtin []string) []string {
	seen := make(map[string]bool, len(custom)+len(builtin))
	out := make([]string, 0, len(custom)+len(builtin))
	for _, u := range append(append([]string{}, custom...), builtin...) {
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}

// txURL links a hash to the chain explorer.
func (n *network) txURL(hash string) string {
	return n.chain.TxURL(n.mode, hash)
}

// label is the "BNB Smart Chain (mainnet)" form used in output headers.
func (n *network) label() string {
	return fmt.Sprintf("%s (%s)", n.chain.DisplayName, n.mode)
}

// newSender builds a Sender for the named (or default) signing wallet.
// Unless skipPrompt is set every transaction is previewed and confirmed
// on the terminal before it is signed.
func (n *network) newSender(ctx context.Context, walletName string, skipPrompt bool, extra ...contract.SenderOption) (*contract.Sender, error) {
	chainID, err := n.client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading chain id: %w", err)
	}
	if want := n.chain.ID(n.mode); want != 0 && chainID.Int64() != want {
		return nil, fmt.Errorf("RPC %s serves chain %s, expected %d for %s", n.client.URL(), chainID, want, n.label())
	}

	var opts []wallet.SignerOption
	if !skipPrompt {
		opts = append(opts, wallet.WithApproval(promptApproval(ui.StdPrompter())))
	}
	signer, err := newWalletManager().Signer(walletName, opts...)
	if err != nil {
		return nil, err
	}

	senderOpts := append([]contract.SenderOption{
		contract.WithConfirmTimeout(cfg.ConfirmWait()),
		contract.WithLogger(logger),
	}, extra...)
	return contract.NewSender(n.client, signer, chainID, senderOpts...), nil
}

// promptApproval previews a transaction and asks before it is signed.
func promptApproval(p *ui.Prompter) wallet.ApproveFunc {
	return func(tx *types.Transaction) (bool, error) {
		fmt.Println(ui.KeyValueBlock("Transaction Preview", txPreview(tx)))
		return p.Confirm("Sign and broadcast this transaction?")
	}
}

func txPreview(tx *types.Transaction) [][2]string {
	to := "(contract creation)"
	if tx.To() != nil {
		to = tx.To().Hex()
	}
	return [][2]string{
		{"To", ui.Addr(to)},
		{"Method", ui.Val(contract.Describe(tx.Data()))},
		{"Gas Limit", fmt.Sprintf("%d", tx.Gas())},
		{"Max Fee", fmt.Sprintf("%.2f gwei", chain.WeiToGwei(tx.GasFeeCap()))},
		{"Nonce", fmt.Sprintf("%d", tx.Nonce())},
	}
}

// resolveAddress accepts a 0x address or a wallet name. Empty means the
// default wallet.
func resolveAddress(s string) (string, error) {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		if !common.IsHexAddress(s) {
			return "", fmt.Errorf("%w: %s", wallet.ErrInvalidAddress, s)
		}
		return common.HexToAddress(s).Hex(), nil
	}
	w, err := newWalletManager().Resolve(s)
	if err != nil {
		return "", err
	}
	return w.Address, nil
}

// resolveAmount turns --amount or --percent into base units. Exactly one
// must be set; percent is taken of maxAmt (the maximum committable).
func resolveAmount(amount string, percent int, decimals int, maxAmt *big.Int) (*big.Int, error) {
	switch {
	case amount != "" && percent != 0:
		return nil, fmt.Errorf("use either --amount or --percent, not both")
	case amount != "":
		return ifo.ParseAmount(amount, decimals)
	case percent < 0 || percent > 100:
		return nil, fmt.Errorf("--percent must be between 1 and 100, got %d", percent)
	case percent > 0:
		return ifo.Preset(maxAmt, percent), nil
	}
	return nil, fmt.Errorf("--amount or --percent is required")
}
