// Package dcr binds the UTXO transfer pipeline to Decred, built on dcrd's
// wire and txscript. Only version 0 secp256k1 P2PKH outputs in the regular
// transaction tree are spent and produced.
package dcr

import (
	"fmt"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/decred/dcrd/chaincfg/chainhash"
	"github.com/decred/dcrd/chaincfg/v3"
	"github.com/decred/dcrd/dcrec"
	"github.com/decred/dcrd/dcrutil/v4"
	"github.com/decred/dcrd/txscript/v4"
	"github.com/decred/dcrd/txscript/v4/sign"
	"github.com/decred/dcrd/txscript/v4/stdaddr"
	"github.com/decred/dcrd/wire"

	"github.com/bitfsorg/xchain-go/tx"
)

// scriptVersion is the only script version the codec produces.
const scriptVersion = 0

// verifyFlags are the script flags VerifyTx runs every input with.
const verifyFlags = txscript.ScriptVerifyCleanStack | txscript.ScriptDiscourageUpgradableNops

// Codec implements tx.Codec for Decred P2PKH spends.
type Codec struct {
	params *chaincfg.Params
	other  *chaincfg.Params
}

var _ tx.Codec = (*Codec)(nil)

// Mainnet returns a codec for Decred mainnet.
func Mainnet() *Codec {
	return &Codec{params: chaincfg.MainNetParams(), other: chaincfg.TestNet3Params()}
}

// Testnet returns a codec for Decred testnet3.
func Testnet() *Codec {
	return &Codec{params: chaincfg.TestNet3Params(), other: chaincfg.MainNetParams()}
}

// Params returns the network parameters of the codec.
func (c *Codec) Params() *chaincfg.Params {
	return c.params
}

func (c *Codec) decode(addr string) (*stdaddr.AddressPubKeyHashEcdsaSecp256k1V0, error) {
	if addr == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidAddress)
	}
	a, err := stdaddr.DecodeAddress(addr, c.params)
	if err != nil {
		if _, otherErr := stdaddr.DecodeAddress(addr, c.other); otherErr == nil {
			return nil, fmt.Errorf("%w: %s is not a %s address", ErrWrongNetwork, addr, c.params.Name)
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}
	pkh, ok := a.(*stdaddr.AddressPubKeyHashEcdsaSecp256k1V0)
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

// LockingScript returns the version 0 P2PKH locking script for addr.
func (c *Codec) LockingScript(addr string) ([]byte, error) {
	a, err := c.decode(addr)
	if err != nil {
		return nil, err
	}
	_, script := a.PaymentScript()
	return script, nil
}

// PubKeyAddress returns the P2PKH address of the compressed pub.
func (c *Codec) PubKeyAddress(pub *ec.PublicKey) (string, error) {
	if pub == nil {
		return "", fmt.Errorf("%w: public key", tx.ErrNilParam)
	}
	a, err := stdaddr.NewAddressPubKeyHashEcdsaSecp256k1V0(dcrutil.Hash160(pub.Compressed()), c.params)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}
	return a.String(), nil
}

// SignTx builds a wire transaction for unsigned and signs every input with
// SIGHASH_ALL over a compressed public key. Input values are committed in
// the witness as dcrd requires.
func (c *Codec) SignTx(unsigned *tx.UnsignedTx, keys tx.KeyResolver) (*tx.SignedTx, error) {
	msgTx := wire.NewMsgTx()

	for i, in := range unsigned.Inputs {
		prevHash, err := chainhash.NewHashFromStr(in.TxID)
		if err != nil || len(in.TxID) != 2*chainhash.HashSize {
			return nil, fmt.Errorf("input %d: %w: txid %q", i, ErrInvalidTx, in.TxID)
		}
		prevOut := wire.NewOutPoint(prevHash, in.Vout, wire.TxTreeRegular)
		msgTx.AddTxIn(wire.NewTxIn(prevOut, int64(in.Amount), nil))
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

		sigScript, err := sign.SignatureScript(msgTx, i, pkScript, txscript.SigHashAll,
			priv.Serialize(), dcrec.STEcdsaSecp256k1, true)
		if err != nil {
			return nil, fmt.Errorf("input %d: %w", i, err)
		}
		msgTx.TxIn[i].SignatureScript = sigScript
		unlocking[i] = sigScript
	}

	raw, err := msgTx.Bytes()
	if err != nil {
		return nil, fmt.Errorf("%w: serialize: %w", ErrInvalidTx, err)
	}

	return &tx.SignedTx{
		Unsigned:         &tx.UnsignedTx{Inputs: inputs, Outputs: unsigned.Outputs, Fee: unsigned.Fee},
		Raw:              raw,
		TxID:             msgTx.TxHash().String(),
		UnlockingScripts: unlocking,
	}, nil
}

// VerifyTx runs every input through the txscript engine.
func (c *Codec) VerifyTx(signed *tx.SignedTx) error {
	var msgTx wire.MsgTx
	if err := msgTx.FromBytes(signed.Raw); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTx, err)
	}
	if len(msgTx.TxIn) != len(signed.Unsigned.Inputs) {
		return fmt.Errorf("%w: raw tx has %d inputs, expected %d",
			ErrInvalidTx, len(msgTx.TxIn), len(signed.Unsigned.Inputs))
	}

	for i, in := range signed.Unsigned.Inputs {
		vm, err := txscript.NewEngine(in.ScriptPubKey, &msgTx, i, verifyFlags, scriptVersion, nil)
		if err != nil {
			return fmt.Errorf("input %d: %w", i, err)
		}
		if err := vm.Execute(); err != nil {
			return fmt.Errorf("input %d: %w", i, err)
		}
	}
	return nil
}
