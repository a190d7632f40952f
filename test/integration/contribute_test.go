package integration_test

import (
	"context"
	"errors"
	"math/big"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Mohsinsiddi/swapflow/internal/actions"
	"github.com/Mohsinsiddi/swapflow/internal/chain"
	"github.com/Mohsinsiddi/swapflow/internal/contract"
	"github.com/Mohsinsiddi/swapflow/internal/ifo"
	"github.com/Mohsinsiddi/swapflow/internal/txflow"
	"github.com/Mohsinsiddi/swapflow/internal/wallet"
	"github.com/Mohsinsiddi/swapflow/test/fixtures"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

func cake(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1e18))
}

type rig struct {
	node   *fixtures.Node
	client *chain.EVMClient
	sender *contract.Sender
	token  *contract.Token
	pool   *contract.IFOPool
}

func newRig(t *testing.T, opts ...wallet.SignerOption) *rig {
	t.Helper()
	ctx := context.Background()

	node := fixtures.NewNode(t, 56)
	client := chain.NewEVMClient(node.URL, chain.WithPollInterval(10*time.Millisecond))

	mgr := wallet.NewManager(wallet.WithInMemoryStore())
	require.NoError(t, mgr.AddWithKey("alice", testKey))
	signer, err := mgr.Signer("alice", opts...)
	require.NoError(t, err)

	chainID, err := client.ChainID(ctx)
	require.NoError(t, err)

	tok, err := contract.NewToken(fixtures.TokenAddress.Hex(), client)
	require.NoError(t, err)
	pool, err := contract.NewIFOPool(fixtures.IFOAddress.Hex(), client)
	require.NoError(t, err)

	return &rig{
		node:   node,
		client: client,
		sender: contract.NewSender(client, signer, chainID, contract.WithConfirmTimeout(5*time.Second)),
		token:  tok,
		pool:   pool,
	}
}

func (r *rig) contribute(t *testing.T, amount *big.Int, onSuccess func(*txflow.Receipt)) *txflow.Orchestrator {
	t.Helper()
	req, err := actions.NewContribute(r.token, r.sender, actions.Contribution{
		IFO:      fixtures.IFOAddress.Hex(),
		Currency: fixtures.TokenAddress.Hex(),
		Pool:     ifo.PoolBasic,
		Amount:   amount,
	}, onSuccess)
	require.NoError(t, err)
	flow, err := txflow.New(req)
	require.NoError(t, err)
	return flow
}

// ---------------------------------------------------------------------------
// Contribution
// ---------------------------------------------------------------------------

func TestContributeApprovesThenDeposits(t *testing.T) {
	ctx := context.Background()
	r := newRig(t)
	r.node.SetBalance(cake(100))
	r.node.SetLimitPerUser(cake(50))
	r.node.SetCommitted(cake(10))

	snap, usr, err := actions.LoadLimitInputs(ctx, r.pool, r.token, r.sender.From(), ifo.PoolBasic)
	require.NoError(t, err)
	max := ifo.MaxCommittable(ifo.Inputs(snap, usr))
	assert.Equal(t, cake(40), max)

	amount := ifo.Preset(max, 50)
	require.NoError(t, ifo.CheckContribution(amount, max))

	var receipt *txflow.Receipt
	flow := r.contribute(t, amount, func(rc *txflow.Receipt) { receipt = rc })

	require.NoError(t, flow.Start(ctx))
	assert.Equal(t, txflow.PhaseAwaitingApproval, flow.Phase())

	require.NoError(t, flow.Approve(ctx))
	assert.Equal(t, txflow.PhaseApproved, flow.Phase())
	assert.Equal(t, contract.MaxApproval, r.node.Allowance())

	require.NoError(t, flow.Confirm(ctx))
	assert.Equal(t, txflow.PhaseConfirmed, flow.Phase())
	require.NotNil(t, receipt)
	assert.NotEmpty(t, receipt.Hash)

	assert.Equal(t, []string{"approve", "depositPool"}, r.node.Sent())
	assert.Equal(t, cake(30), r.node.Committed())
}

func TestContributeSkipsApprovalWhenAllowanceCovers(t *testing.T) {
	ctx := context.Background()
	r := newRig(t)
	r.node.SetBalance(cake(10))
	r.node.SetAllowance(cake(5))

	flow := r.contribute(t, cake(5), nil)
	require.NoError(t, flow.Start(ctx))
	assert.Equal(t, txflow.PhaseApproved, flow.Phase())
	require.NoError(t, flow.Confirm(ctx))

	assert.Equal(t, []string{"depositPool"}, r.node.Sent())
}

func TestContributeRevertKeepsApprovalOnRetry(t *testing.T) {
	ctx := context.Background()
	r := newRig(t)
	r.node.SetBalance(cake(10))
	r.node.RevertOn("depositPool", "Deposit: Too early")

	flow := r.contribute(t, cake(1), nil)
	require.NoError(t, flow.Start(ctx))
	require.NoError(t, flow.Approve(ctx))

	err := flow.Confirm(ctx)
	var f *txflow.Failure
	require.True(t, errors.As(err, &f))
	assert.Equal(t, txflow.KindReverted, f.Kind)
	assert.Equal(t, txflow.StepConfirm, f.Step)
	assert.Equal(t, "Deposit: Too early", f.Reason)
	assert.Equal(t, txflow.PhaseFailed, flow.Phase())

	r.node.RevertOn("depositPool", "")
	next, err := flow.Retry()
	require.NoError(t, err)
	require.NoError(t, next.Start(ctx))
	assert.Equal(t, txflow.PhaseApproved, next.Phase())
	require.NoError(t, next.Confirm(ctx))

	assert.Equal(t, []string{"approve", "depositPool"}, r.node.Sent())
}

func TestContributeDeclinedApproval(t *testing.T) {
	ctx := context.Background()
	decline := wallet.WithApproval(func(*types.Transaction) (bool, error) { return false, nil })
	r := newRig(t, decline)
	r.node.SetBalance(cake(10))

	flow := r.contribute(t, cake(1), nil)
	require.NoError(t, flow.Start(ctx))

	err := flow.Approve(ctx)
	var f *txflow.Failure
	require.True(t, errors.As(err, &f))
	assert.Equal(t, txflow.KindRejected, f.Kind)
	assert.Equal(t, txflow.StepApprove, f.Step)
	assert.Empty(t, r.node.Sent())

	next, err := flow.Retry()
	require.NoError(t, err)
	require.NoError(t, next.Start(ctx))
	assert.Equal(t, txflow.PhaseAwaitingApproval, next.Phase())
}

func TestContributeUnreachableNode(t *testing.T) {
	ctx := context.Background()
	r := newRig(t)

	dead := httptest.NewServer(nil)
	dead.Close()
	client := chain.NewEVMClient(dead.URL)
	tok, err := contract.NewToken(fixtures.TokenAddress.Hex(), client)
	require.NoError(t, err)
	r.token = tok
	r.sender = contract.NewSender(client, signerFor(t), big.NewInt(56))

	flow := r.contribute(t, cake(1), nil)
	require.NoError(t, flow.Start(ctx))
	assert.Equal(t, txflow.PhaseAwaitingApproval, flow.Phase())

	err = flow.Approve(ctx)
	var f *txflow.Failure
	require.True(t, errors.As(err, &f))
	assert.Equal(t, txflow.KindNetwork, f.Kind)
	assert.ErrorIs(t, err, chain.ErrUnreachable)
}

// ---------------------------------------------------------------------------
// Competition claim
// ---------------------------------------------------------------------------

func TestClaimRewards(t *testing.T) {
	ctx := context.Background()
	r := newRig(t)

	claimed := false
	flow, err := txflow.New(actions.NewClaim(r.sender, fixtures.CompetitionAddress.Hex(), func(*txflow.Receipt) { claimed = true }))
	require.NoError(t, err)

	require.NoError(t, flow.Start(ctx))
	assert.Equal(t, txflow.PhaseApproved, flow.Phase())
	require.NoError(t, flow.Confirm(ctx))

	assert.True(t, claimed)
	assert.Equal(t, []string{"claimReward"}, r.node.Sent())
}

func signerFor(t *testing.T) *wallet.Signer {
	t.Helper()
	mgr := wallet.NewManager(wallet.WithInMemoryStore())
	require.NoError(t, mgr.AddWithKey("bob", testKey))
	s, err := mgr.Signer("bob")
	require.NoError(t, err)
	return s
}
