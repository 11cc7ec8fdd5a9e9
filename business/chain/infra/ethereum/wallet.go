package ethereum

import (
	"crypto/ecdsa"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/fd1az/sam-client/internal/apperror"
	"github.com/fd1az/sam-client/internal/keyfile"
)

// ErrWatchOnly is returned when signing is requested without a key.
var ErrWatchOnly = errors.New("wallet is watch-only")

// Wallet is the session account. Without a key it can only watch.
type Wallet struct {
	address common.Address
	opts    *bind.TransactOpts
}

// NewWallet creates a signing wallet for chainID.
func NewWallet(key *ecdsa.PrivateKey, chainID *big.Int) (*Wallet, error) {
	opts, err := bind.NewKeyedTransactorWithChainID(key, chainID)
	if err != nil {
		return nil, apperror.New(apperror.CodeSignerUnavailable, apperror.WithCause(err))
	}
	return &Wallet{address: crypto.PubkeyToAddress(key.PublicKey), opts: opts}, nil
}

// NewWatchOnly creates a wallet that tracks addr without signing.
func NewWatchOnly(addr common.Address) *Wallet {
	return &Wallet{address: addr}
}

// LoadWallet builds the wallet from a key source, falling back to a
// watch-only wallet for watchAddr when no key is configured.
func LoadWallet(src keyfile.Source, watchAddr common.Address, chainID *big.Int) (*Wallet, error) {
	key, err := keyfile.Load(src)
	switch {
	case errors.Is(err, keyfile.ErrNoKey):
		return NewWatchOnly(watchAddr), nil
	case err != nil:
		return nil, err
	}
	return NewWallet(key, chainID)
}

// Address returns the account address; zero when nothing is connected.
func (w *Wallet) Address() common.Address { return w.address }

// CanSign reports whether the wallet holds a key.
func (w *Wallet) CanSign() bool { return w.opts != nil }

// Sign signs tx for the wallet's chain.
func (w *Wallet) Sign(tx *types.Transaction) (*types.Transaction, error) {
	if w.opts == nil {
		return nil, ErrWatchOnly
	}
	return w.opts.Signer(w.address, tx)
}
