// Package actions adapts chain, contract and wallet operations into the
// capabilities a txflow.Request runs with.
package actions

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/Mohsinsiddi/swapflow/internal/chain"
	"github.com/Mohsinsiddi/swapflow/internal/contract"
	"github.com/Mohsinsiddi/swapflow/internal/ifo"
	"github.com/Mohsinsiddi/swapflow/internal/txflow"
	"github.com/Mohsinsiddi/swapflow/internal/wallet"
)

// ClaimSuccessMessage is shown once a competition reward claim is mined.
const ClaimSuccessMessage = "You have claimed your rewards!"

// AllowanceReader reads ERC-20 allowances.
type AllowanceReader interface {
	Allowance(ctx context.Context, owner, spender string) (*big.Int, error)
}

// BalanceReader reads ERC-20 balances.
type BalanceReader interface {
	BalanceOf(ctx context.Context, account string) (*big.Int, error)
}

// PoolReader reads IFO pool and user state.
type PoolReader interface {
	PoolInfo(ctx context.Context, pid ifo.PoolID) (ifo.PoolSnapshot, error)
	UserInfo(ctx context.Context, user string, pid ifo.PoolID) (*big.Int, bool, error)
}

// TxSender submits a transaction and waits for it to be mined.
type TxSender interface {
	From() string
	Send(ctx context.Context, to string, data []byte) (*chain.TxReceipt, error)
}

// Contribution describes one commit of the raising currency to an IFO pool.
type Contribution struct {
	IFO      string // IFO contract, also the approval spender
	Currency string // raising token
	Pool     ifo.PoolID
	Amount   *big.Int
}

// NeedsApproval reports whether owner must approve spender before amount
// can be pulled. A nil or zero amount asks for any allowance at all.
func NeedsApproval(ctx context.Context, tok AllowanceReader, owner, spender string, amount *big.Int) (bool, error) {
	allowance, err := tok.Allowance(ctx, owner, spender)
	if err != nil {
		return true, err
	}
	required := big.NewInt(1)
	if amount != nil && amount.Sign() > 0 {
		required = amount
	}
	return allowance.Cmp(required) < 0, nil
}

// NewContribute builds the approve-then-deposit request for an IFO pool.
// The approval grants the maximum allowance to the IFO contract.
func NewContribute(tok AllowanceReader, sender TxSender, c Contribution, onSuccess func(*txflow.Receipt)) (txflow.Request, error) {
	depositData, err := contract.DepositCalldata(c.Amount, c.Pool)
	if err != nil {
		return txflow.Request{}, err
	}
	approveData, err := contract.ApproveCalldata(c.IFO, contract.MaxApproval)
	if err != nil {
		return txflow.Request{}, err
	}

	return txflow.Request{
		CheckNeedsApproval: func(ctx context.Context) (bool, error) {
			return NeedsApproval(ctx, tok, sender.From(), c.IFO, c.Amount)
		},
		Approve: func(ctx context.Context) (*txflow.Receipt, error) {
			return send(ctx, sender, c.Currency, approveData)
		},
		PerformAction: func(ctx context.Context) (*txflow.Receipt, error) {
			return send(ctx, sender, c.IFO, depositData)
		},
		OnSuccess: onSuccess,
	}, nil
}

// NewClaim builds the request for a trading competition reward claim. No
// allowance is involved, so the workflow starts already approved.
func NewClaim(sender TxSender, competition string, onSuccess func(*txflow.Receipt)) txflow.Request {
	data := contract.ClaimRewardCalldata()
	return txflow.Request{
		AlreadyApproved: true,
		PerformAction: func(ctx context.Context) (*txflow.Receipt, error) {
			return send(ctx, sender, competition, data)
		},
		OnSuccess: onSuccess,
	}
}

// LoadLimitInputs reads the pool and user snapshots a limit is computed from.
func LoadLimitInputs(ctx context.Context, pool PoolReader, tok BalanceReader, user string, pid ifo.PoolID) (ifo.PoolSnapshot, ifo.UserSnapshot, error) {
	snap, err := pool.PoolInfo(ctx, pid)
	if err != nil {
		return ifo.PoolSnapshot{}, ifo.UserSnapshot{}, fmt.Errorf("reading pool %s: %w", pid, err)
	}
	committed, claimed, err := pool.UserInfo(ctx, user, pid)
	if err != nil {
		return snap, ifo.UserSnapshot{}, fmt.Errorf("reading user info: %w", err)
	}
	balance, err := tok.BalanceOf(ctx, user)
	if err != nil {
		return snap, ifo.UserSnapshot{}, fmt.Errorf("reading balance: %w", err)
	}
	return snap, ifo.UserSnapshot{Committed: committed, Claimed: claimed, Balance: balance}, nil
}

func send(ctx context.Context, sender TxSender, to string, data []byte) (*txflow.Receipt, error) {
	r, err := sender.Send(ctx, to, data)
	if err != nil {
		return nil, Tag(err)
	}
	return &txflow.Receipt{Hash: r.Hash, BlockNumber: r.BlockNumber, GasUsed: r.GasUsed}, nil
}

// Tag maps chain and wallet errors onto the workflow failure kinds.
// Errors it does not recognise are returned unchanged.
func Tag(err error) error {
	var pending *chain.PendingError
	switch {
	case err == nil:
		return nil
	case errors.Is(err, wallet.ErrDeclined):
		return txflow.Rejected(err)
	case chain.AsRevert(err) != nil:
		return txflow.Reverted(chain.AsRevert(err).Reason, err)
	case errors.As(err, &pending):
		return txflow.Pending(pending.Hash, err)
	case errors.Is(err, chain.ErrUnreachable),
		errors.Is(err, chain.ErrNotMined),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return txflow.NetworkFailure(err)
	}
	return err
}
