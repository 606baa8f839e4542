package cosmos

import (
	"crypto/sha256"
	"fmt"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"google.golang.org/protobuf/encoding/protowire"
)

// Protobuf type URLs packed into Any.
const (
	MsgSendTypeURL = "/cosmos.bank.v1beta1.MsgSend"
	PubKeyTypeURL  = "/cosmos.crypto.secp256k1.PubKey"
)

// DefaultGasLimit is the gas limit of a transfer.
const DefaultGasLimit = 200000

const (
	signModeDirect = 1
	signatureLen   = 64
)

// SendTx is a single MsgSend transaction ready to be signed in
// SIGN_MODE_DIRECT.
type SendTx struct {
	From          string
	To            string
	Amount        []Coin
	Memo          string
	Fee           []Coin
	GasLimit      uint64
	ChainID       string
	AccountNumber uint64
	Sequence      uint64
}

// Proto3 omits empty and zero fields; the node re-encodes the sign doc the
// same way, so every append below skips them.

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	if len(v) == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendUint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

// appendMessage always emits the field, even for an empty message.
func appendMessage(b []byte, num protowire.Number, msg []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, msg)
}

func encodeCoin(c Coin) []byte {
	b := appendString(nil, 1, c.Denom)
	return appendString(b, 2, c.Amount)
}

func encodeAny(typeURL string, value []byte) []byte {
	b := appendString(nil, 1, typeURL)
	return appendBytes(b, 2, value)
}

func encodeMsgSend(from, to string, amount []Coin) []byte {
	b := appendString(nil, 1, from)
	b = appendString(b, 2, to)
	for _, c := range amount {
		b = appendMessage(b, 3, encodeCoin(c))
	}
	return b
}

// BodyBytes encodes the TxBody carrying the MsgSend and memo.
func (t *SendTx) BodyBytes() []byte {
	msg := encodeAny(MsgSendTypeURL, encodeMsgSend(t.From, t.To, t.Amount))
	b := appendMessage(nil, 1, msg)
	return appendString(b, 2, t.Memo)
}

// AuthInfoBytes encodes the AuthInfo of a single secp256k1 signer.
func (t *SendTx) AuthInfoBytes(pubKey []byte) []byte {
	pk := encodeAny(PubKeyTypeURL, appendBytes(nil, 1, pubKey))
	single := appendUint(nil, 1, signModeDirect)
	modeInfo := appendMessage(nil, 1, single)

	signer := appendMessage(nil, 1, pk)
	signer = appendMessage(signer, 2, modeInfo)
	signer = appendUint(signer, 3, t.Sequence)

	var fee []byte
	for _, c := range t.Fee {
		fee = appendMessage(fee, 1, encodeCoin(c))
	}
	fee = appendUint(fee, 2, t.GasLimit)

	b := appendMessage(nil, 1, signer)
	return appendMessage(b, 2, fee)
}

// SignDocBytes encodes the SIGN_MODE_DIRECT sign document.
func SignDocBytes(body, authInfo []byte, chainID string, accountNumber uint64) []byte {
	b := appendBytes(nil, 1, body)
	b = appendBytes(b, 2, authInfo)
	b = appendString(b, 3, chainID)
	return appendUint(b, 4, accountNumber)
}

// TxRawBytes encodes the broadcastable TxRaw.
func TxRawBytes(body, authInfo []byte, signatures ...[]byte) []byte {
	b := appendBytes(nil, 1, body)
	b = appendBytes(b, 2, authInfo)
	for _, sig := range signatures {
		b = appendMessage(b, 3, sig)
	}
	return b
}

// SignDirect returns the 64-byte r||s signature over SHA-256 of signDoc.
// S is always in the lower half of the curve order.
func SignDirect(priv *ec.PrivateKey, signDoc []byte) ([]byte, error) {
	if priv == nil {
		return nil, fmt.Errorf("%w: nil private key", ErrInvalidParams)
	}
	key := secp256k1.PrivKeyFromBytes(priv.Serialize())
	defer key.Zero()

	hash := sha256.Sum256(signDoc)
	sig := ecdsa.Sign(key, hash[:])
	r, s := sig.R(), sig.S()
	out := make([]byte, signatureLen)
	r.PutBytesUnchecked(out[:32])
	s.PutBytesUnchecked(out[32:])
	return out, nil
}

// VerifyDirect checks a SignDirect signature against the compressed pubKey.
func VerifyDirect(pubKey, signDoc, sig []byte) bool {
	if len(sig) != signatureLen {
		return false
	}
	pub, err := secp256k1.ParsePubKey(pubKey)
	if err != nil {
		return false
	}
	var r, s secp256k1.ModNScalar
	if r.SetByteSlice(sig[:32]) || s.SetByteSlice(sig[32:]) {
		return false
	}
	hash := sha256.Sum256(signDoc)
	return ecdsa.NewSignature(&r, &s).Verify(hash[:], pub)
}

// Sign encodes and signs t with priv and returns the TxRaw bytes.
func (t *SendTx) Sign(priv *ec.PrivateKey) ([]byte, error) {
	if priv == nil {
		return nil, fmt.Errorf("%w: nil private key", ErrInvalidParams)
	}
	body := t.BodyBytes()
	authInfo := t.AuthInfoBytes(priv.PubKey().Compressed())
	sig, err := SignDirect(priv, SignDocBytes(body, authInfo, t.ChainID, t.AccountNumber))
	if err != nil {
		return nil, err
	}
	return TxRawBytes(body, authInfo, sig), nil
}
