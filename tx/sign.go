package tx

import (
	"fmt"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
)

// KeyResolver returns the private key owning the locking script of the input
// at index. Implementations must not retain the returned key past the call
// to Sign.
type KeyResolver func(index int, utxo *UTXO) (*ec.PrivateKey, error)

// Codec binds the chain-agnostic pipeline to one chain's address format,
// script rules and serialization.
type Codec interface {
	// ValidateAddress returns an error if addr is not a valid destination.
	ValidateAddress(addr string) error
	// LockingScript returns the locking script paying to addr.
	LockingScript(addr string) ([]byte, error)
	// SignTx serializes and signs every input of unsigned.
	SignTx(unsigned *UnsignedTx, keys KeyResolver) (*SignedTx, error)
	// VerifyTx checks every unlocking script of signed against the locking
	// script of its input.
	VerifyTx(signed *SignedTx) error
}

// Sign signs unsigned with the chain codec and finalizes the result: every
// input must carry a non-empty unlocking script that verifies against its
// input's locking script before the transaction is returned. Sign performs
// no network access.
func Sign(codec Codec, unsigned *UnsignedTx, keys KeyResolver) (*SignedTx, error) {
	if codec == nil {
		return nil, fmt.Errorf("%w: codec", ErrNilParam)
	}
	if keys == nil {
		return nil, fmt.Errorf("%w: key resolver", ErrNilParam)
	}
	if err := unsigned.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSigningFailed, err)
	}

	signed, err := codec.SignTx(unsigned, keys)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSigningFailed, err)
	}
	if err := Finalize(codec, signed); err != nil {
		return nil, err
	}
	log.Debugf("Signed tx %s with %d inputs, %d outputs, fee %d",
		signed.TxID, len(unsigned.Inputs), len(unsigned.Outputs), unsigned.Fee)
	return signed, nil
}

// Finalize checks that signed is complete and broadcastable.
func Finalize(codec Codec, signed *SignedTx) error {
	if signed == nil || signed.Unsigned == nil {
		return fmt.Errorf("%w: %w: signed tx", ErrSigningFailed, ErrNilParam)
	}
	if len(signed.Raw) == 0 || signed.TxID == "" {
		return fmt.Errorf("%w: missing serialization", ErrSigningFailed)
	}
	n := len(signed.Unsigned.Inputs)
	if len(signed.UnlockingScripts) != n {
		return fmt.Errorf("%w: have %d unlocking scripts for %d inputs",
			ErrSigningFailed, len(signed.UnlockingScripts), n)
	}
	for i, us := range signed.UnlockingScripts {
		if len(us) == 0 {
			return fmt.Errorf("%w: input %d is not signed", ErrSigningFailed, i)
		}
	}
	if err := codec.VerifyTx(signed); err != nil {
		return fmt.Errorf("%w: %w", ErrSigningFailed, err)
	}
	return nil
}
