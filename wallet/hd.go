package wallet

import (
	"fmt"

	bip32 "github.com/bsv-blockchain/go-sdk/compat/bip32"
	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
)

const (
	// PurposeBIP44 is the BIP43 purpose field.
	PurposeBIP44 = 44

	// BIP44 coin types.
	CoinTypeBTC     = 0
	CoinTypeTestnet = 1
	CoinTypeDecred  = 42
	CoinTypeCosmos  = 118
	CoinTypeBSV     = 236
	CoinTypeVeChain = 818

	// ExternalChain is the receive branch of an account.
	ExternalChain = 0

	// MaxIndex is the largest non-hardened child index.
	MaxIndex = 1<<31 - 1

	// Hardened is the BIP32 hardened offset.
	Hardened = 0x80000000
)

// Path is a BIP44 derivation path m/44'/coin'/account'/0/index.
type Path struct {
	CoinType uint32
	Account  uint32
	Index    uint32
}

// String renders the path in the usual apostrophe notation.
func (p Path) String() string {
	return fmt.Sprintf("m/%d'/%d'/%d'/%d/%d", PurposeBIP44, p.CoinType, p.Account, ExternalChain, p.Index)
}

// Validate checks that every path component fits below the hardened offset.
func (p Path) Validate() error {
	if p.CoinType > MaxIndex {
		return fmt.Errorf("%w: coin type %d", ErrIndexOutOfRange, p.CoinType)
	}
	if p.Account > MaxIndex {
		return fmt.Errorf("%w: account %d", ErrIndexOutOfRange, p.Account)
	}
	if p.Index > MaxIndex {
		return fmt.Errorf("%w: index %d", ErrIndexOutOfRange, p.Index)
	}
	return nil
}

// deriveKey walks seed down p and returns the leaf private key.
func deriveKey(seed []byte, net Network, p Path) (*ec.PrivateKey, error) {
	if len(seed) == 0 {
		return nil, ErrInvalidSeed
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	key, err := bip32.NewMaster(seed, net.bip32Params())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDerivationFailed, err)
	}

	steps := []struct {
		name  string
		index uint32
	}{
		{"purpose", PurposeBIP44 + Hardened},
		{"coin type", p.CoinType + Hardened},
		{"account", p.Account + Hardened},
		{"chain", ExternalChain},
		{"index", p.Index},
	}
	for _, s := range steps {
		key, err = key.Child(s.index)
		if err != nil {
			return nil, fmt.Errorf("%w: %s derivation: %w", ErrDerivationFailed, s.name, err)
		}
	}

	priv, err := key.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to extract EC private key: %w", ErrDerivationFailed, err)
	}
	return priv, nil
}
