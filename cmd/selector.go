package cmd

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/Mohsinsiddi/swapflow/internal/contract"
	"github.com/Mohsinsiddi/swapflow/internal/ui"
	"github.com/spf13/cobra"
)

var selectorCmd = &cobra.Command{
	Use:   "selector <signature-or-calldata>",
	Short: "Compute a function selector or decode the method of calldata",
	Long: `Compute a 4-byte function selector from a signature, or name the method
behind a selector or calldata swapflow sends.

Examples:
  swapflow selector "approve(address spender, uint256 amount)"   # → 0x095ea7b3
  swapflow selector 0x095ea7b3                                   # → approve(address,uint256)`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input := args[0]

		if strings.HasPrefix(input, "0x") || strings.HasPrefix(input, "0X") {
			data, err := hex.DecodeString(input[2:])
			if err != nil {
				return fmt.Errorf("invalid hex %q: %w", input, err)
			}
			fmt.Println(ui.KeyValueBlock("Selector Lookup", [][2]string{
				{"Input", ui.TruncateAddr(input)},
				{"Method", ui.Val(contract.Describe(data))},
			}))
			return nil
		}

		sig := normalizeSignature(input)
		fmt.Println(ui.KeyValueBlock("Function Selector", [][2]string{
			{"Signature", sig},
			{"Selector", ui.Val(contract.Selector(sig))},
		}))
		return nil
	},
}

// normalizeSignature removes parameter names, keeping only types.
// "transfer(address to, uint256 amount)" → "transfer(address,uint256)"
func normalizeSignature(sig string) string {
	open := strings.Index(sig, "(")
	if open < 0 || !strings.HasSuffix(sig, ")") {
		return strings.TrimSpace(sig)
	}
	name := strings.TrimSpace(sig[:open])
	params := strings.TrimSpace(sig[open+1 : len(sig)-1])
	if params == "" {
		return name + "()"
	}

	var types []string
	for _, p := range strings.Split(params, ",") {
		if fields := strings.Fields(p); len(fields) > 0 {
			types = append(types, fields[0])
		}
	}
	return name + "(" + strings.Join(types, ",") + ")"
}
