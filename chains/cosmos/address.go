package cosmos

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/bech32"
	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
)

// DefaultPrefix is the bech32 human-readable part of Cosmos Hub accounts.
const DefaultPrefix = "cosmos"

// accAddressLen is the length of an account address payload, a HASH160.
const accAddressLen = 20

// AddressFromPubKey returns the bech32 account address of pub:
// bech32(prefix, RIPEMD160(SHA256(compressed pubkey))).
func AddressFromPubKey(pub *ec.PublicKey, prefix string) (string, error) {
	if pub == nil {
		return "", fmt.Errorf("%w: nil public key", ErrInvalidAddress)
	}
	return encodeAddress(prefix, btcutil.Hash160(pub.Compressed()))
}

func encodeAddress(prefix string, payload []byte) (string, error) {
	conv, err := bech32.ConvertBits(payload, 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}
	addr, err := bech32.Encode(prefix, conv)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}
	return addr, nil
}

// DecodeAddress checks addr against prefix and returns its 20-byte payload.
func DecodeAddress(addr, prefix string) ([]byte, error) {
	hrp, data, err := bech32.Decode(addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}
	if hrp != prefix {
		return nil, fmt.Errorf("%w: prefix %q, want %q", ErrInvalidAddress, hrp, prefix)
	}
	payload, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}
	if len(payload) != accAddressLen {
		return nil, fmt.Errorf("%w: payload is %d bytes", ErrInvalidAddress, len(payload))
	}
	return payload, nil
}
