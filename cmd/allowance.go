package cmd

import (
	"context"
	"fmt"

	"github.com/Mohsinsiddi/swapflow/internal/actions"
	"github.com/Mohsinsiddi/swapflow/internal/config"
	"github.com/Mohsinsiddi/swapflow/internal/contract"
	"github.com/Mohsinsiddi/swapflow/internal/ifo"
	"github.com/Mohsinsiddi/swapflow/internal/ui"
	"github.com/spf13/cobra"
)

var (
	allowanceToken   string
	allowanceOwner   string
	allowanceSpender string
	allowanceNetwork string
)

var allowanceCmd = &cobra.Command{
	Use:   "allowance",
	Short: "Check ERC-20 token allowance (owner → spender)",
	Long: `Query how many tokens an owner has approved a spender to use, and
whether a contribution would need an approval step first.

Examples:
  swapflow allowance --token 0xCAKE --spender 0xIFO
  swapflow allowance --token 0xCAKE --owner myWallet --spender 0xIFO --network bsc`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if allowanceToken == "" {
			return fmt.Errorf("--token is required — provide the ERC-20 contract address")
		}
		if allowanceSpender == "" {
			return fmt.Errorf("--spender is required — provide the spender address")
		}
		owner, err := resolveAddress(allowanceOwner)
		if err != nil {
			return fmt.Errorf("resolving owner: %w", err)
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), config.RPCTimeout*2)
		defer cancel()

		net, err := dialNetwork(ctx, allowanceNetwork)
		if err != nil {
			return err
		}
		tok, err := contract.NewToken(allowanceToken, net.client)
		if err != nil {
			return err
		}

		spin := ui.NewSpinner("Querying allowance...")
		spin.Start()
		allowance, err := tok.Allowance(ctx, owner, allowanceSpender)
		if err != nil {
			spin.Stop()
			return fmt.Errorf("querying allowance: %w", err)
		}
		decimals := ifo.DefaultDecimals
		if d, err := tok.Decimals(ctx); err == nil {
			decimals = int(d)
		}
		symbol, _ := tok.Symbol(ctx)
		needs, _ := actions.NeedsApproval(ctx, tok, owner, allowanceSpender, nil)
		spin.Stop()

		formatted := ifo.FormatAmount(allowance, decimals)
		if allowance.Cmp(contract.MaxApproval) == 0 {
			formatted = "unlimited"
		}
		if symbol != "" {
			formatted += " " + symbol
		}
		status := ui.Success("enabled")
		if needs {
			status = ui.Warn("approval required")
		}

		fmt.Println(ui.KeyValueBlock("ERC-20 Allowance", [][2]string{
			{"Token", ui.Addr(allowanceToken)},
			{"Owner", ui.Addr(owner)},
			{"Spender", ui.Addr(allowanceSpender)},
			{"Allowance", ui.Val(formatted)},
			{"Raw", allowance.String()},
			{"Status", status},
			{"Network", net.label()},
		}))
		return nil
	},
}

func init() {
	allowanceCmd.Flags().StringVar(&allowanceToken, "token", "", "ERC-20 token address (required)")
	allowanceCmd.Flags().StringVar(&allowanceOwner, "owner", "", "owner address or wallet name (default: default wallet)")
	allowanceCmd.Flags().StringVar(&allowanceSpender, "spender", "", "spender address (required)")
	allowanceCmd.Flags().StringVar(&allowanceNetwork, "network", "", "chain (default: config)")
}
