package wallet

import "errors"

var (
	// ErrInvalidMnemonic indicates the mnemonic fails BIP39 validation.
	ErrInvalidMnemonic = errors.New("wallet: invalid BIP39 mnemonic")

	// ErrInvalidWordCount indicates a phrase length other than 12 or 24 words.
	ErrInvalidWordCount = errors.New("wallet: mnemonic must have 12 or 24 words")

	// ErrIndexOutOfRange indicates an account or address index at or above
	// the BIP32 hardened offset.
	ErrIndexOutOfRange = errors.New("wallet: index exceeds maximum (2^31-1)")

	// ErrDecryptionFailed indicates wrong password or corrupted wallet data.
	ErrDecryptionFailed = errors.New("wallet: seed decryption failed (wrong password or corrupted data)")

	// ErrInvalidKeystore indicates a malformed or unsupported keystore file.
	ErrInvalidKeystore = errors.New("wallet: invalid keystore")

	// ErrNetworkMismatch indicates a keystore sealed for another network.
	ErrNetworkMismatch = errors.New("wallet: keystore belongs to another network")

	// ErrInvalidNetwork indicates an unknown network name.
	ErrInvalidNetwork = errors.New("wallet: invalid network name")

	// ErrInvalidSeed indicates the seed is empty or invalid.
	ErrInvalidSeed = errors.New("wallet: invalid seed")

	// ErrDerivationFailed indicates BIP32 key derivation failed.
	ErrDerivationFailed = errors.New("wallet: key derivation failed")

	// ErrHandleReleased indicates use of a secret handle after Release.
	ErrHandleReleased = errors.New("wallet: secret handle already released")
)
