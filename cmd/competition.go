package cmd

import (
	"fmt"

	"github.com/Mohsinsiddi/swapflow/internal/actions"
	"github.com/Mohsinsiddi/swapflow/internal/contract"
	"github.com/Mohsinsiddi/swapflow/internal/ui"
	"github.com/spf13/cobra"
)

var (
	claimContract string
	claimWallet   string
	claimNetwork  string
	claimYes      bool
	claimTUI      bool
)

var competitionCmd = &cobra.Command{
	Use:   "competition",
	Short: "Trading competition rewards",
}

var competitionClaimCmd = &cobra.Command{
	Use:   "claim",
	Short: "Claim trading competition rewards",
	Long: `Claim the rewards a wallet earned in a trading competition.

No token approval is involved, so the claim is sent straight away.

Examples:
  swapflow competition claim --contract 0xCompetition
  swapflow competition claim --contract 0xCompetition --wallet trading --yes`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if claimContract == "" {
			return fmt.Errorf("--contract is required — provide the competition contract address")
		}
		ctx := cmd.Context()
		net, err := dialNetwork(ctx, claimNetwork)
		if err != nil {
			return err
		}

		prog := &progress{}
		var extra []contract.SenderOption
		if !claimTUI {
			extra = append(extra, contract.WithBroadcastHook(prog.broadcast))
		}
		sender, err := net.newSender(ctx, claimWallet, claimYes || claimTUI, extra...)
		if err != nil {
			return err
		}

		req := actions.NewClaim(sender, claimContract, nil)
		screen := ui.FlowScreen{
			Title: "Claim competition rewards",
			Details: [][2]string{
				{"Wallet", ui.Addr(sender.From())},
				{"Contract", ui.Addr(claimContract)},
				{"Network", net.label()},
			},
			Success: actions.ClaimSuccessMessage,
		}
		receipt, err := runWorkflow(ctx, req, screen, claimTUI, prog)
		if err != nil {
			return err
		}
		printReceipt(actions.ClaimSuccessMessage, net, receipt)
		return nil
	},
}

func init() {
	competitionClaimCmd.Flags().StringVar(&claimContract, "contract", "", "competition contract address (required)")
	competitionClaimCmd.Flags().StringVar(&claimWallet, "wallet", "", "wallet name (default: default wallet)")
	competitionClaimCmd.Flags().StringVar(&claimNetwork, "network", "", "chain (default: config)")
	competitionClaimCmd.Flags().BoolVarP(&claimYes, "yes", "y", false, "sign without a confirmation prompt")
	competitionClaimCmd.Flags().BoolVar(&claimTUI, "tui", false, "run the claim in an interactive screen")
	competitionCmd.AddCommand(competitionClaimCmd)
}
