// Package btc binds the UTXO transfer pipeline to Bitcoin-family chains
// that use legacy P2PKH outputs, built on btcd's wire and txscript.
package btc

import (
	"bytes"
	"fmt"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/bitfsorg/xchain-go/tx"
)

// Codec implements tx.Codec for legacy P2PKH spends.
type Codec struct {
	params *chaincfg.Params
}

var _ tx.Codec = (*Codec)(nil)

// NewCodec returns a codec for the given network parameters.
func NewCodec(params *chaincfg.Params) *Codec {
	return &Codec{params: params}
}

// Mainnet returns a codec for Bitcoin mainnet.
func Mainnet() *Codec { return NewCodec(&chaincfg.MainNetParams) }

// Testnet returns a codec for Bitcoin testnet3.
func Testnet() *Codec { return NewCodec(&chaincfg.TestNet3Params) }

// Params returns the network parameters of the codec.
func (c *Codec) Params() *chaincfg.Params {
	return c.params
}

func (c *Codec) decode(addr string) (*btcutil.AddressPubKeyHash, error) {
	if addr == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidAddress)
	}
	a, err := btcutil.DecodeAddress(addr, c.params)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}
	if !a.IsForNet(c.params) {
		return nil, fmt.Errorf("%w: %s is not a %s address", ErrWrongNetwork, addr, c.params.Name)
	}
	pkh, ok := a.(*btcutil.AddressPubKeyHash)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedAddress, a)
	}
	return pkh, nil
}

// ValidateAddress accepts only P2PKH addresses on the codec's network.
func (c *Codec) ValidateAddress(addr string) error {
	_, err := c.decode(addr)
	return err
}

// LockingScript returns the P2PKH locking script for addr.
func (c *Codec) LockingScript(addr string) ([]byte, error) {
	a, err := c.decode(addr)
	if err != nil {
		return nil, err
	}
	s, err := txscript.PayToAddrScript(a)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", tx.ErrScriptBuild, err)
	}
	return s, nil
}

// PubKeyAddress returns the P2PKH address of the compressed pub.
func (c *Codec) PubKeyAddress(pub *ec.PublicKey) (string, error) {
	if pub == nil {
		return "", fmt.Errorf("%w: public key", tx.ErrNilParam)
	}
	a, err := btcutil.NewAddressPubKeyHash(btcutil.Hash160(pub.Compressed()), c.params)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}
	return a.EncodeAddress(), nil
}

// SignTx builds a wire transaction for unsigned and signs every input with
// SIGHASH_ALL over a compressed public key.
func (c *Codec) SignTx(unsigned *tx.UnsignedTx, keys tx.KeyResolver) (*tx.SignedTx, error) {
	msgTx := wire.NewMsgTx(wire.TxVersion)

	for i, in := range unsigned.Inputs {
		prevHash, err := chainhash.NewHashFromStr(in.TxID)
		if err != nil || len(in.TxID) != 2*chainhash.HashSize {
			return nil, fmt.Errorf("input %d: %w: txid %q", i, ErrInvalidTx, in.TxID)
		}
		msgTx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(prevHash, in.Vout), nil, nil))
	}
	for i, out := range unsigned.Outputs {
		pkScript := out.Script
		if !out.IsData() {
			var err error
			if pkScript, err = c.LockingScript(out.Address); err != nil {
				return nil, fmt.Errorf("output %d: %w", i, err)
			}
		}
		msgTx.AddTxOut(wire.NewTxOut(int64(out.Amount), pkScript))
	}

	inputs := make([]*tx.UTXO, len(unsigned.Inputs))
	unlocking := make([][]byte, len(unsigned.Inputs))
	for i, in := range unsigned.Inputs {
		priv, err := keys(i, in)
		if err != nil {
			return nil, fmt.Errorf("input %d: resolve key: %w", i, err)
		}
		if priv == nil {
			return nil, fmt.Errorf("input %d: %w: private key", i, tx.ErrNilParam)
		}
		btcPriv, _ := btcec.PrivKeyFromBytes(priv.Serialize())

		pkScript := in.ScriptPubKey
		if len(pkScript) == 0 {
			addr, err := c.PubKeyAddress(priv.PubKey())
			if err != nil {
				return nil, fmt.Errorf("input %d: %w", i, err)
			}
			if pkScript, err = c.LockingScript(addr); err != nil {
				return nil, fmt.Errorf("input %d: %w", i, err)
			}
		}
		resolved := *in
		resolved.ScriptPubKey = pkScript
		inputs[i] = &resolved

		sigScript, err := txscript.SignatureScript(msgTx, i, pkScript, txscript.SigHashAll, btcPriv, true)
		if err != nil {
			return nil, fmt.Errorf("input %d: %w", i, err)
		}
		msgTx.TxIn[i].SignatureScript = sigScript
		unlocking[i] = sigScript
	}

	var buf bytes.Buffer
	if err := msgTx.Serialize(&buf); err != nil {
		return nil, fmt.Errorf("%w: serialize: %w", ErrInvalidTx, err)
	}

	return &tx.SignedTx{
		Unsigned:         &tx.UnsignedTx{Inputs: inputs, Outputs: unsigned.Outputs, Fee: unsigned.Fee},
		Raw:              buf.Bytes(),
		TxID:             msgTx.TxHash().String(),
		UnlockingScripts: unlocking,
	}, nil
}

// VerifyTx runs every input through the txscript engine with standard
// verification flags.
func (c *Codec) VerifyTx(signed *tx.SignedTx) error {
	msgTx := wire.NewMsgTx(wire.TxVersion)
	if err := msgTx.Deserialize(bytes.NewReader(signed.Raw)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTx, err)
	}
	if len(msgTx.TxIn) != len(signed.Unsigned.Inputs) {
		return fmt.Errorf("%w: raw tx has %d inputs, expected %d",
			ErrInvalidTx, len(msgTx.TxIn), len(signed.Unsigned.Inputs))
	}

	fetcher := txscript.NewMultiPrevOutFetcher(nil)
	for i, in := range signed.Unsigned.Inputs {
		fetcher.AddPrevOut(msgTx.TxIn[i].PreviousOutPoint, wire.NewTxOut(int64(in.Amount), in.ScriptPubKey))
	}
	hashes := txscript.NewTxSigHashes(msgTx, fetcher)

	for i, in := range signed.Unsigned.Inputs {
		vm, err := txscript.NewEngine(in.ScriptPubKey, msgTx, i, txscript.StandardVerifyFlags,
			nil, hashes, int64(in.Amount), fetcher)
		if err != nil {
			return fmt.Errorf("input %d: %w", i, err)
		}
		if err := vm.Execute(); err != nil {
			return fmt.Errorf("input %d: %w", i, err)
		}
	}
	return nil
}
