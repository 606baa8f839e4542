package vechain

import (
	"encoding/hex"
	"fmt"
	"strings"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"golang.org/x/crypto/sha3"
)

// AddressLen is the byte length of an account address.
const AddressLen = 20

// AddressFromPubKey returns the account address of pub: the last 20 bytes
// of keccak256 over the uncompressed key without its 0x04 prefix, as
// lowercase 0x hex.
func AddressFromPubKey(pub *ec.PublicKey) (string, error) {
	if pub == nil {
		return "", fmt.Errorf("%w: nil public key", ErrInvalidAddress)
	}
	key, err := secp256k1.ParsePubKey(pub.Compressed())
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}
	return "0x" + hex.EncodeToString(addressBytes(key)), nil
}

func addressBytes(key *secp256k1.PublicKey) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(key.SerializeUncompressed()[1:])
	return h.Sum(nil)[32-AddressLen:]
}

// DecodeAddress returns the 20 address bytes of a 0x-prefixed hex address.
// Hex digits of either case are accepted.
func DecodeAddress(addr string) ([]byte, error) {
	if len(addr) != 2+2*AddressLen || !strings.HasPrefix(addr, "0x") && !strings.HasPrefix(addr, "0X") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAddress, addr)
	}
	b, err := hex.DecodeString(addr[2:])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}
	return b, nil
}

// ValidateAddress reports whether addr is a well-formed account address.
func ValidateAddress(addr string) bool {
	_, err := DecodeAddress(addr)
	return err == nil
}
