package chain

import (
	"errors"
	"fmt"

	"sol_cycle/internal/domain"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// Wallet signs gateway transactions with a single keypair.
type Wallet struct {
	key solana.PrivateKey
}

// LoadWallet parses a base58 encoded private key.
func LoadWallet(base58Key string) (*Wallet, error) {
	if base58Key == "" {
		return nil, errors.New("private key is empty")
	}
	key, err := solana.PrivateKeyFromBase58(base58Key)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return &Wallet{key: key}, nil
}

// NewWalletLoader defers key parsing to run start, so a bad key aborts the run
// instead of the process.
func NewWalletLoader(base58Key string) domain.WalletLoader {
	return func() (domain.Wallet, error) {
		return LoadWallet(base58Key)
	}
}

func (w *Wallet) Address() string {
	return w.key.PublicKey().String()
}

// Sign decodes a serialized transaction, signs it as fee payer and re-serializes it.
func (w *Wallet) Sign(raw []byte) ([]byte, error) {
	tx, err := decodeTransaction(raw)
	if err != nil {
		return nil, err
	}

	// gateway transactions arrive with zeroed placeholder signatures
	tx.Signatures = nil

	pub := w.key.PublicKey()
	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(pub) {
			return &w.key
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}

	out, err := tx.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("marshal transaction: %w", err)
	}
	return out, nil
}

func decodeTransaction(raw []byte) (*solana.Transaction, error) {
	if len(raw) == 0 {
		return nil, domain.ErrNoInstructions
	}
	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	if err != nil {
		return nil, fmt.Errorf("decode transaction: %w", err)
	}
	return tx, nil
}

// ValidateAddress reports whether s is a base58 encoded 32-byte public key.
func ValidateAddress(s string) error {
	if _, err := solana.PublicKeyFromBase58(s); err != nil {
		return fmt.Errorf("invalid address %q: %w", s, err)
	}
	return nil
}
