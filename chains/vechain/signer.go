package vechain

import (
	"encoding/hex"
	"fmt"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"golang.org/x/crypto/blake2b"
)

// SignatureLen is the length of a recoverable signature: r || s || v.
const SignatureLen = 65

// SignHash signs a 32-byte signing hash and returns the recoverable
// signature r || s || v with v in {0, 1}.
func SignHash(hash []byte, priv *ec.PrivateKey) ([]byte, error) {
	if len(hash) != 32 {
		return nil, fmt.Errorf("%w: hash is %d bytes", ErrSigningFailed, len(hash))
	}
	if priv == nil {
		return nil, fmt.Errorf("%w: nil private key", ErrSigningFailed)
	}
	key := secp256k1.PrivKeyFromBytes(priv.Serialize())
	defer key.Zero()

	// SignCompact returns v || r || s with v = 27 + recovery code.
	compact := ecdsa.SignCompact(key, hash, false)
	sig := make([]byte, SignatureLen)
	copy(sig, compact[1:])
	sig[64] = compact[0] - 27
	return sig, nil
}

// RecoverAddress returns the address that produced sig over hash.
func RecoverAddress(hash, sig []byte) (string, error) {
	if len(sig) != SignatureLen || sig[64] > 3 {
		return "", fmt.Errorf("%w: malformed signature", ErrInvalidParams)
	}
	compact := make([]byte, SignatureLen)
	compact[0] = sig[64] + 27
	copy(compact[1:], sig[:64])
	pub, _, err := ecdsa.RecoverCompact(compact, hash)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}
	return "0x" + hex.EncodeToString(addressBytes(pub)), nil
}

// TxID returns the transaction ID of a transaction with the given signing
// hash sent by origin: blake2b-256(signingHash || origin).
func TxID(signingHash []byte, origin string) (string, error) {
	addr, err := DecodeAddress(origin)
	if err != nil {
		return "", err
	}
	buf := make([]byte, 0, len(signingHash)+AddressLen)
	buf = append(buf, signingHash...)
	buf = append(buf, addr...)
	sum := blake2b.Sum256(buf)
	return "0x" + hex.EncodeToString(sum[:]), nil
}
