package cmd

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/Mohsinsiddi/swapflow/internal/actions"
	"github.com/Mohsinsiddi/swapflow/internal/config"
	"github.com/Mohsinsiddi/swapflow/internal/contract"
	"github.com/Mohsinsiddi/swapflow/internal/ifo"
	"github.com/Mohsinsiddi/swapflow/internal/ui"
	"github.com/spf13/cobra"
)

var (
	ifoPool    string
	ifoWallet  string
	ifoAmount  string
	ifoPercent int
	ifoYes     bool
	ifoTUI     bool
)

var ifoCmd = &cobra.Command{
	Use:   "ifo",
	Short: "Inspect and contribute to IFO pools",
	Long: `Commit the raising token to an initial farm offering.

IFOs are read from ifos.yaml in the config directory (or the path set as
ifo_file in config.json):

  ifos:
    - id: acme
      name: Acme Protocol
      network: bsc
      address: 0xIFOContract
      currency: {symbol: CAKE, address: 0xCAKE, decimals: 18}
      pools: [basic, unlimited]
      active: true`,
}

var ifoListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured IFOs",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := ifo.LoadRegistry(cfg.IFOPath())
		if err != nil {
			return err
		}
		all := reg.All()
		if len(all) == 0 {
			fmt.Println(ui.Info("No IFOs configured yet."))
			fmt.Println(ui.Hint("Add entries to " + cfg.IFOPath()))
			return nil
		}

		t := ui.NewTable([]ui.Column{
			{Title: "ID", Width: 14},
			{Title: "Name", Width: 22},
			{Title: "Network", Width: 10},
			{Title: "Currency", Width: 9},
			{Title: "Pools", Width: 16},
			{Title: "Status", Width: 8},
		})
		for _, x := range all {
			status := ui.Meta("ended")
			if x.Active {
				status = ui.StyleSuccess.Render("live")
			}
			t.AddRow(ui.Row{
				ui.Val(x.ID),
				x.Name,
				ui.ChainName(x.Network),
				x.Currency.Symbol,
				poolNames(&x),
				status,
			})
		}
		fmt.Println(t.Render())
		return nil
	},
}

var ifoLimitCmd = &cobra.Command{
	Use:   "limit <id>",
	Short: "Show how much a wallet may still commit to a pool",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, pid, err := lookupIFO(args[0], ifoPool)
		if err != nil {
			return err
		}
		user, err := resolveAddress(ifoWallet)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), config.RPCTimeout*2)
		defer cancel()
		net, err := dialNetwork(ctx, target.Network)
		if err != nil {
			return err
		}
		pool, tok, err := ifoContracts(target, net)
		if err != nil {
			return err
		}

		spin := ui.NewSpinner(fmt.Sprintf("Reading %s pool...", pid))
		spin.Start()
		snap, usr, err := actions.LoadLimitInputs(ctx, pool, tok, user, pid)
		spin.Stop()
		if err != nil {
			return err
		}

		dec, sym := target.Currency.Decimals, target.Currency.Symbol
		maxAmt := ifo.MaxCommittable(ifo.Inputs(snap, usr))

		capLabel := "none"
		if snap.LimitPerUser != nil && snap.LimitPerUser.Sign() > 0 {
			capLabel = amountLabel(snap.LimitPerUser, dec, sym)
		}
		fmt.Println(ui.KeyValueBlock(fmt.Sprintf("%s · %s pool", target.Name, pid), [][2]string{
			{"Wallet", ui.Addr(user)},
			{"Per-user cap", capLabel},
			{"Committed", amountLabel(usr.Committed, dec, sym)},
			{"Balance", amountLabel(usr.Balance, dec, sym)},
			{"Max committable", ui.Val(amountLabel(maxAmt, dec, sym))},
			{"Presets", presetLine(maxAmt, dec)},
			{"Network", net.label()},
		}))
		if usr.Claimed {
			fmt.Println(ui.Warn("This wallet has already harvested the pool."))
		}
		return nil
	},
}

var ifoContributeCmd = &cobra.Command{
	Use:   "contribute <id>",
	Short: "Approve (if needed) and commit tokens to an IFO pool",
	Long: `Commit the raising token to an IFO pool.

If the IFO contract cannot spend the token yet, an approval transaction is
sent first. A failed contribution keeps the approval, so running the command
again only repeats the contribution.

Examples:
  swapflow ifo contribute acme --pool basic --amount 12.5
  swapflow ifo contribute acme --pool unlimited --percent 50 --wallet trading
  swapflow ifo contribute acme --pool basic --percent 100 --tui`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, pid, err := lookupIFO(args[0], ifoPool)
		if err != nil {
			return err
		}
		if !target.Active {
			return fmt.Errorf("IFO %q is not active", target.ID)
		}

		ctx := cmd.Context()
		net, err := dialNetwork(ctx, target.Network)
		if err != nil {
			return err
		}

		prog := &progress{}
		var extra []contract.SenderOption
		if !ifoTUI {
			extra = append(extra, contract.WithBroadcastHook(prog.broadcast))
		}
		sender, err := net.newSender(ctx, ifoWallet, ifoYes || ifoTUI, extra...)
		if err != nil {
			return err
		}
		pool, tok, err := ifoContracts(target, net)
		if err != nil {
			return err
		}

		readCtx, cancel := context.WithTimeout(ctx, config.RPCTimeout*2)
		snap, usr, err := actions.LoadLimitInputs(readCtx, pool, tok, sender.From(), pid)
		cancel()
		if err != nil {
			return err
		}

		dec, sym := target.Currency.Decimals, target.Currency.Symbol
		maxAmt := ifo.MaxCommittable(ifo.Inputs(snap, usr))
		amount, err := resolveAmount(ifoAmount, ifoPercent, dec, maxAmt)
		if err != nil {
			return err
		}
		if err := ifo.CheckContribution(amount, maxAmt); err != nil {
			return fmt.Errorf("%w (max %s)", err, amountLabel(maxAmt, dec, sym))
		}

		req, err := actions.NewContribute(tok, sender, actions.Contribution{
			IFO:      target.Address,
			Currency: target.Currency.Address,
			Pool:     pid,
			Amount:   amount,
		}, nil)
		if err != nil {
			return err
		}

		screen := ui.FlowScreen{
			Title: fmt.Sprintf("Contribute · %s (%s pool)", target.Name, pid),
			Details: [][2]string{
				{"Wallet", ui.Addr(sender.From())},
				{"Amount", ui.Val(amountLabel(amount, dec, sym))},
				{"Max committable", amountLabel(maxAmt, dec, sym)},
				{"Network", net.label()},
			},
			Success: fmt.Sprintf("Committed %s to the %s pool.", amountLabel(amount, dec, sym), pid),
		}
		receipt, err := runWorkflow(ctx, req, screen, ifoTUI, prog)
		if err != nil {
			return err
		}
		printReceipt(screen.Success, net, receipt)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{ifoLimitCmd, ifoContributeCmd} {
		c.Flags().StringVar(&ifoPool, "pool", "basic", "pool: basic or unlimited")
		c.Flags().StringVar(&ifoWallet, "wallet", "", "wallet name (default: default wallet)")
	}
	ifoContributeCmd.Flags().StringVar(&ifoAmount, "amount", "", "amount to commit, in token units")
	ifoContributeCmd.Flags().IntVar(&ifoPercent, "percent", 0, "commit this share of the maximum (e.g. 25, 50, 100)")
	ifoContributeCmd.Flags().BoolVarP(&ifoYes, "yes", "y", false, "sign without a confirmation prompt")
	ifoContributeCmd.Flags().BoolVar(&ifoTUI, "tui", false, "run the approve/confirm steps in an interactive screen")
	ifoContributeCmd.MarkFlagsMutuallyExclusive("amount", "percent")

	ifoCmd.AddCommand(ifoListCmd, ifoLimitCmd, ifoContributeCmd)
}

// lookupIFO loads the registry and validates the pool choice.
func lookupIFO(id, pool string) (*ifo.IFO, ifo.PoolID, error) {
	reg, err := ifo.LoadRegistry(cfg.IFOPath())
	if err != nil {
		return nil, 0, err
	}
	target, err := reg.Get(id)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %q — run `swapflow ifo list`", err, id)
	}
	pid, err := ifo.ParsePoolID(pool)
	if err != nil {
		return nil, 0, err
	}
	if !target.HasPool(pid) {
		return nil, 0, fmt.Errorf("IFO %q has no %s pool", target.ID, pid)
	}
	return target, pid, nil
}

func ifoContracts(target *ifo.IFO, net *network) (*contract.IFOPool, *contract.Token, error) {
	pool, err := contract.NewIFOPool(target.Address, net.client)
	if err != nil {
		return nil, nil, err
	}
	tok, err := contract.NewToken(target.Currency.Address, net.client)
	if err != nil {
		return nil, nil, err
	}
	return pool, tok, nil
}

func amountLabel(v *big.Int, decimals int, symbol string) string {
	s := ifo.FormatAmount(v, decimals)
	if symbol != "" {
		s += " " + symbol
	}
	return s
}

// presetLine renders "10%: 1.2 · 25%: 3 · ..." for the quick-fill shares.
func presetLine(maxAmt *big.Int, decimals int) string {
	parts := make([]string, 0, len(ifo.PresetPercents))
	for _, p := range ifo.PresetPercents {
		parts = append(parts, fmt.Sprintf("%d%%: %s", p, ifo.FormatAmount(ifo.Preset(maxAmt, p), decimals)))
	}
	return strings.Join(parts, " · ")
}

func poolNames(x *ifo.IFO) string {
	var names []string
	for _, p := range []ifo.PoolID{ifo.PoolBasic, ifo.PoolUnlimited} {
		if x.HasPool(p) {
			names = append(names, p.String())
		}
	}
	return strings.Join(names, ", ")
}
