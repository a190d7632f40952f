package wallet

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// ErrDeclined is returned when the user refuses to sign a transaction.
var ErrDeclined = errors.New("user declined to sign the transaction")

// ApproveFunc is shown every transaction before it is signed. Returning
// false declines the signature.
type ApproveFunc func(tx *types.Transaction) (bool, error)

// SignerOption configures a Signer.
type SignerOption func(*Signer)

// WithApproval installs a prompt consulted before every signature.
func WithApproval(fn ApproveFunc) SignerOption {
	return func(s *Signer) { s.approve = fn }
}

// Signer signs EVM transactions for a signing wallet.
type Signer struct {
	wallet  *Wallet
	ks      KeyStore
	approve ApproveFunc
}

// NewSigner creates a signer for the given wallet.
func NewSigner(w *Wallet, ks KeyStore, opts ...SignerOption) *Signer {
	s := &Signer{wallet: w, ks: ks}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SignTx signs an EVM transaction and returns the raw signed bytes.
func (s *Signer) SignTx(tx *types.Transaction, chainID *big.Int) ([]byte, error) {
	if !s.wallet.CanSign() {
		return nil, fmt.Errorf("wallet %q is watch-only and cannot sign", s.wallet.Name)
	}

	if s.approve != nil {
		ok, err := s.approve(tx)
		if err != nil {
			return nil, fmt.Errorf("approval prompt: %w", err)
		}
		if !ok {
			return nil, ErrDeclined
		}
	}

	hexKey, err := s.ks.Retrieve(s.wallet.KeyRef)
	if err != nil {
		return nil, fmt.Errorf("retrieving key: %w", err)
	}

	privKey, err := crypto.HexToECDSA(normaliseHexKey(hexKey))
	if err != nil {
		return nil, fmt.Errorf("parsing private key: %w", err)
	}

	signed, err := types.SignTx(tx, types.NewLondonSigner(chainID), privKey)
	if err != nil {
		return nil, fmt.Errorf("signing transaction: %w", err)
	}

	raw, err := signed.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("marshaling signed tx: %w", err)
	}
	return raw, nil
}

// Address returns the wallet's address.
func (s *Signer) Address() string {
	return s.wallet.Address
}

// Wallet returns the wallet the signer signs for.
func (s *Signer) Wallet() *Wallet { return s.wallet }
