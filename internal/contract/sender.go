package contract

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/Mohsinsiddi/swapflow/internal/chain"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
)

// Backend is the slice of the JSON-RPC client the Sender needs.
type Backend interface {
	SuggestFees(ctx context.Context) (*chain.Fees, error)
	GetPendingNonce(ctx context.Context, address string) (uint64, error)
	EstimateGas(ctx context.Context, from, to, data string, value *big.Int) (uint64, error)
	SendRawTransaction(ctx context.Context, rawTx string) (string, error)
	WaitForReceipt(ctx context.Context, hash string, timeout time.Duration) (*chain.TxReceipt, error)
}

// TxSigner signs transactions for one account.
type TxSigner interface {
	Address() string
	SignTx(tx *types.Transaction, chainID *big.Int) ([]byte, error)
}

// gasBufferPercent pads every estimate; estimates taken against the latest
// block can fall short once state moves.
const gasBufferPercent = 20

// SenderOption configures a Sender.
type SenderOption func(*Sender)

// WithConfirmTimeout bounds how long Send waits for a receipt.
func WithConfirmTimeout(d time.Duration) SenderOption {
	return func(s *Sender) { s.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) SenderOption {
	return func(s *Sender) {
		if l != nil {
			s.log = l
		}
	}
}

// WithBroadcastHook is called with the hash as soon as a transaction is
// accepted by the node, before it is mined.
func WithBroadcastHook(fn func(hash string)) SenderOption {
	return func(s *Sender) { s.onBroadcast = fn }
}

// Sender builds, signs, broadcasts and waits for write transactions.
type Sender struct {
	backend     Backend
	signer      TxSigner
	chainID     *big.Int
	timeout     time.Duration
	log         *slog.Logger
	onBroadcast func(string)
}

// NewSender creates a Sender.
func NewSender(b Backend, signer TxSigner, chainID *big.Int, opts ...SenderOption) *Sender {
	s := &Sender{
		backend: b,
		signer:  signer,
		chainID: chainID,
		timeout: 3 * time.Minute,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// From returns the sending address.
func (s *Sender) From() string { return s.signer.Address() }

// Send submits data to the contract at to and blocks until the transaction
// is mined. A transaction that would revert is caught during gas estimation
// and returned as *chain.RevertError without being broadcast.
func (s *Sender) Send(ctx context.Context, to string, data []byte) (*chain.TxReceipt, error) {
	toAddr, err := parseAddress("target", to)
	if err != nil {
		return nil, err
	}
	from := s.signer.Address()
	calldata := hexutil.Encode(data)
	method := Describe(data)

	gas, err := s.backend.EstimateGas(ctx, from, toAddr.Hex(), calldata, nil)
	if err != nil {
		if re := chain.AsRevert(err); re != nil {
			return nil, re
		}
		return nil, fmt.Errorf("estimating gas: %w", err)
	}
	gas += gas * gasBufferPercent / 100

	fees, err := s.backend.SuggestFees(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting gas price: %w", err)
	}

	nonce, err := s.backend.GetPendingNonce(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("getting nonce: %w", err)
	}

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   s.chainID,
		Nonce:     nonce,
		GasTipCap: fees.TipCap,
		GasFeeCap: fees.FeeCap,
		Gas:       gas,
		To:        &toAddr,
		Value:     big.NewInt(0),
		Data:      data,
	})

	raw, err := s.signer.SignTx(tx, s.chainID)
	if err != nil {
		return nil, fmt.Errorf("signing transaction: %w", err)
	}

	hash, err := s.backend.SendRawTransaction(ctx, hexutil.Encode(raw))
	if err != nil {
		return nil, fmt.Errorf("broadcasting transaction: %w", err)
	}
	s.log.Info("transaction sent", "method", method, "to", toAddr.Hex(), "hash", hash, "nonce", nonce, "gas", gas)
	if s.onBroadcast != nil {
		s.onBroadcast(hash)
	}

	receipt, err := s.backend.WaitForReceipt(ctx, hash, s.timeout)
	if err != nil {
		if chain.AsRevert(err) != nil {
			return receipt, err
		}
		s.log.Warn("transaction outcome unknown", "hash", hash, "err", err)
		return receipt, &chain.PendingError{Hash: hash, Err: err}
	}
	s.log.Info("transaction mined", "hash", hash, "block", receipt.BlockNumber, "gas_used", receipt.GasUsed)
	return receipt, nil
}

// Compile-time check that the JSON-RPC client satisfies Backend.
var _ Backend = (*chain.EVMClient)(nil)
