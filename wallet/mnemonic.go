// Package wallet holds mnemonic handling, the encrypted keystore and BIP44
// key derivation shared by every chain client.
//
// Key hierarchy: m/44'/{coin}'/{account}'/0/{index}
package wallet

import (
	"fmt"
	"strings"

	"github.com/bsv-blockchain/go-sdk/compat/bip39"
)

// entropyBits maps the supported phrase lengths to BIP39 entropy sizes.
var entropyBits = map[int]int{
	12: 128,
	24: 256,
}

// GenerateMnemonic returns a fresh BIP39 phrase of 12 or 24 words.
func GenerateMnemonic(words int) (string, error) {
	bits, ok := entropyBits[words]
	if !ok {
		return "", fmt.Errorf("%w: %d", ErrInvalidWordCount, words)
	}
	entropy, err := bip39.NewEntropy(bits)
	if err != nil {
		return "", fmt.Errorf("wallet: entropy: %w", err)
	}
	defer clear(entropy)
	return bip39.NewMnemonic(entropy)
}

// NormalizeMnemonic lowercases the phrase and collapses whitespace to
// single spaces.
func NormalizeMnemonic(mnemonic string) string {
	return strings.Join(strings.Fields(strings.ToLower(mnemonic)), " ")
}

// ValidateMnemonic reports whether the normalized phrase passes the BIP39
// wordlist and checksum checks.
func ValidateMnemonic(mnemonic string) bool {
	return bip39.IsMnemonicValid(NormalizeMnemonic(mnemonic))
}

// SeedFromMnemonic returns the 64-byte BIP39 seed of the normalized phrase.
// An empty passphrase still takes part in the derivation.
func SeedFromMnemonic(mnemonic, passphrase string) ([]byte, error) {
	mnemonic = NormalizeMnemonic(mnemonic)
	if !ValidateMnemonic(mnemonic) {
		return nil, ErrInvalidMnemonic
	}
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, passphrase)
	if err != nil {
		return nil, fmt.Errorf("wallet: seed: %w", err)
	}
	return seed, nil
}
