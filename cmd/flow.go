package cmd

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Mohsinsiddi/swapflow/internal/txflow"
	"github.com/Mohsinsiddi/swapflow/internal/ui"
)

var errClosed = errors.New("closed before the transaction was confirmed")

// progress shows a spinner while a broadcast transaction is being mined.
type progress struct {
	mu   sync.Mutex
	spin *ui.Spinner
}

func (p *progress) broadcast(hash string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.spin != nil {
		p.spin.Stop()
	}
	p.spin = ui.NewSpinner(fmt.Sprintf("Waiting for %s to be mined...", ui.TruncateAddr(hash)))
	p.spin.Start()
}

func (p *progress) stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.spin != nil {
		p.spin.Stop()
		p.spin = nil
	}
}

// runWorkflow drives req to completion and returns the confirmed receipt.
// With tui set the interactive screen hosts the workflow; otherwise the
// steps run in order and progress is printed as it happens.
func runWorkflow(ctx context.Context, req txflow.Request, screen ui.FlowScreen, tui bool, prog *progress) (*txflow.Receipt, error) {
	var receipt *txflow.Receipt
	onSuccess := req.OnSuccess
	req.OnSuccess = func(r *txflow.Receipt) {
		receipt = r
		if onSuccess != nil {
			onSuccess(r)
		}
	}

	flow, err := txflow.New(req, txflow.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	if tui {
		m, err := ui.RunFlow(ctx, flow, screen)
		if err != nil {
			return nil, err
		}
		if !m.Confirmed() {
			if m.Err() != nil {
				return nil, m.Err()
			}
			return nil, errClosed
		}
		return receipt, nil
	}

	fmt.Println(ui.KeyValueBlock(screen.Title, screen.Details))
	if err := runSteps(ctx, flow, prog); err != nil {
		printFailureHint(err)
		return nil, err
	}
	return receipt, nil
}

// runSteps walks Start, Approve when required, then Confirm.
func runSteps(ctx context.Context, flow *txflow.Orchestrator, prog *progress) error {
	flow.Subscribe(func(tr txflow.Transition) {
		if prog != nil && !tr.To.IsBusy() {
			prog.stop()
		}
		switch {
		case tr.To == txflow.PhaseAwaitingApproval:
			fmt.Println(ui.Info("The contract cannot spend this token yet, sending an approval first."))
		case tr.To == txflow.PhaseApproved && tr.From == txflow.PhaseApproving:
			fmt.Println(ui.Success("Approval confirmed."))
		}
	})
	defer func() {
		if prog != nil {
			prog.stop()
		}
	}()

	if err := flow.Start(ctx); err != nil {
		return err
	}
	if flow.Phase().CanApprove() {
		if err := flow.Approve(ctx); err != nil {
			return err
		}
	}
	return flow.Confirm(ctx)
}

func printFailureHint(err error) {
	for _, line := range failureHint(err) {
		fmt.Println(line)
	}
}

// failureHint suggests what to do after a failed workflow.
func failureHint(err error) []string {
	var f *txflow.Failure
	if !errors.As(err, &f) {
		return nil
	}
	switch {
	case f.Unconfirmed():
		return []string{
			ui.Warn(fmt.Sprintf("Transaction %s was broadcast but its receipt could not be read.", f.Hash)),
			ui.Hint("Check the hash on the explorer before running the command again, or the transaction may be sent twice."),
		}
	case f.Kind == txflow.KindRejected && f.Step == txflow.StepApprove:
		return []string{ui.Hint("Nothing was sent.")}
	case f.Step == txflow.StepConfirm:
		return []string{ui.Hint("Any approval already sent is kept; run the command again to retry.")}
	case f.Kind == txflow.KindNetwork:
		return []string{ui.Hint("Check the RPC with --verbose, or add another one with `swapflow config set-rpc`.")}
	}
	return nil
}

func printReceipt(msg string, net *network, r *txflow.Receipt) {
	fmt.Println()
	fmt.Println(ui.Success(msg))
	if r == nil {
		return
	}
	fmt.Println(ui.KeyValueBlock("Transaction Confirmed ✓", [][2]string{
		{"Hash", ui.Addr(r.Hash)},
		{"Block", fmt.Sprintf("%d", r.BlockNumber)},
		{"Gas Used", fmt.Sprintf("%d", r.GasUsed)},
		{"Explorer", net.txURL(r.Hash)},
	}))
}
