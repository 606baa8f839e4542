// Package bsv binds the UTXO transfer pipeline to Bitcoin SV using the
// bsv go-sdk: base58 P2PKH addresses, P2PKH locking scripts and
// SIGHASH_ALL|FORKID signatures.
package bsv

import (
	"fmt"

	"github.com/bsv-blockchain/go-sdk/chainhash"
	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/bsv-blockchain/go-sdk/script"
	"github.com/bsv-blockchain/go-sdk/script/interpreter"
	"github.com/bsv-blockchain/go-sdk/transaction"
	"github.com/bsv-blockchain/go-sdk/transaction/template/p2pkh"

	"github.com/bitfsorg/xchain-go/tx"
)

// Codec implements tx.Codec for Bitcoin SV.
type Codec struct {
	mainnet bool
}

// NewCodec returns a codec for mainnet or testnet addresses.
func NewCodec(mainnet bool) *Codec {
	return &Codec{mainnet: mainnet}
}

var _ tx.Codec = (*Codec)(nil)

// Mainnet reports whether the codec accepts mainnet addresses.
func (c *Codec) Mainnet() bool {
	return c.mainnet
}

func (c *Codec) parseAddress(addr string) (*script.Address, error) {
	if addr == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidAddress)
	}
	a, err := script.NewAddressFromString(addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}
	// Re-encode under this codec's network to reject foreign version bytes.
	same, err := script.NewAddressFromPublicKeyHash(a.PublicKeyHash, c.mainnet)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}
	if same.AddressString != addr {
		return nil, fmt.Errorf("%w: %s is not a %s address", ErrWrongNetwork, addr, c.networkName())
	}
	return a, nil
}

func (c *Codec) networkName() string {
	if c.mainnet {
		return "mainnet"
	}
	return "testnet"
}

// ValidateAddress returns an error if addr is not a P2PKH address on the
// codec's network.
func (c *Codec) ValidateAddress(addr string) error {
	_, err := c.parseAddress(addr)
	return err
}

// LockingScript returns the P2PKH locking script for addr.
func (c *Codec) LockingScript(addr string) ([]byte, error) {
	a, err := c.parseAddress(addr)
	if err != nil {
		return nil, err
	}
	lock, err := p2pkh.Lock(a)
	if err != nil {
		return nil, fmt.Errorf("%w: P2PKH lock: %w", tx.ErrScriptBuild, err)
	}
	return []byte(*lock), nil
}

// PubKeyAddress returns the P2PKH address of pub on the codec's network.
func (c *Codec) PubKeyAddress(pub *ec.PublicKey) (string, error) {
	if pub == nil {
		return "", fmt.Errorf("%w: public key", tx.ErrNilParam)
	}
	a, err := script.NewAddressFromPublicKey(pub, c.mainnet)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}
	return a.AddressString, nil
}

// SignTx builds the go-sdk transaction for unsigned and signs every input
// with a P2PKH unlocker. Inputs without a known locking script are assumed
// to pay to the address of their signing key.
func (c *Codec) SignTx(unsigned *tx.UnsignedTx, keys tx.KeyResolver) (*tx.SignedTx, error) {
	sdkTx := transaction.NewTransaction()
	inputs := make([]*tx.UTXO, len(unsigned.Inputs))

	for i, in := range unsigned.Inputs {
		txid, err := txidHash(in.TxID)
		if err != nil {
			return nil, fmt.Errorf("input %d: %w", i, err)
		}
		priv, err := keys(i, in)
		if err != nil {
			return nil, fmt.Errorf("input %d: resolve key: %w", i, err)
		}
		if priv == nil {
			return nil, fmt.Errorf("input %d: %w: private key", i, tx.ErrNilParam)
		}

		lockBytes := in.ScriptPubKey
		if len(lockBytes) == 0 {
			addr, err := c.PubKeyAddress(priv.PubKey())
			if err != nil {
				return nil, fmt.Errorf("input %d: %w", i, err)
			}
			if lockBytes, err = c.LockingScript(addr); err != nil {
				return nil, fmt.Errorf("input %d: %w", i, err)
			}
		}
		resolved := *in
		resolved.ScriptPubKey = lockBytes
		inputs[i] = &resolved

		unlocker, err := p2pkh.Unlock(priv, nil)
		if err != nil {
			return nil, fmt.Errorf("input %d: create unlocker: %w", i, err)
		}
		sdkTx.AddInput(&transaction.TransactionInput{
			SourceTXID:       txid,
			SourceTxOutIndex: in.Vout,
			SequenceNumber:   transaction.DefaultSequenceNumber,
		})
		sdkTx.Inputs[i].SetSourceTxOutput(&transaction.TransactionOutput{
			Satoshis:      in.Amount,
			LockingScript: script.NewFromBytes(lockBytes),
		})
		sdkTx.Inputs[i].UnlockingScriptTemplate = unlocker
	}

	for i, out := range unsigned.Outputs {
		lockBytes := out.Script
		if !out.IsData() {
			var err error
			if lockBytes, err = c.LockingScript(out.Address); err != nil {
				return nil, fmt.Errorf("output %d: %w", i, err)
			}
		}
		sdkTx.AddOutput(&transaction.TransactionOutput{
			Satoshis:      out.Amount,
			LockingScript: script.NewFromBytes(lockBytes),
		})
	}

	if err := sdkTx.Sign(); err != nil {
		return nil, err
	}

	unlocking := make([][]byte, len(sdkTx.Inputs))
	for i, in := range sdkTx.Inputs {
		if in.UnlockingScript != nil {
			unlocking[i] = []byte(*in.UnlockingScript)
		}
	}

	resolved := &tx.UnsignedTx{Inputs: inputs, Outputs: unsigned.Outputs, Fee: unsigned.Fee}
	return &tx.SignedTx{
		Unsigned:         resolved,
		Raw:              sdkTx.Bytes(),
		TxID:             sdkTx.TxID().String(),
		UnlockingScripts: unlocking,
	}, nil
}

// VerifyTx executes every input's unlocking script against its locking
// script in the script interpreter.
func (c *Codec) VerifyTx(signed *tx.SignedTx) error {
	sdkTx, err := transaction.NewTransactionFromBytes(signed.Raw)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTx, err)
	}
	if len(sdkTx.Inputs) != len(signed.Unsigned.Inputs) {
		return fmt.Errorf("%w: raw tx has %d inputs, expected %d",
			ErrInvalidTx, len(sdkTx.Inputs), len(signed.Unsigned.Inputs))
	}
	for i, in := range signed.Unsigned.Inputs {
		prev := &transaction.TransactionOutput{
			Satoshis:      in.Amount,
			LockingScript: script.NewFromBytes(in.ScriptPubKey),
		}
		err := interpreter.NewEngine().Execute(
			interpreter.WithTx(sdkTx, i, prev),
			interpreter.WithForkID(),
			interpreter.WithAfterGenesis(),
		)
		if err != nil {
			return fmt.Errorf("input %d: %w", i, err)
		}
	}
	return nil
}

// txidHash parses a display-order hex txid. Decode accepts short
// strings, so the length is checked first.
func txidHash(txid string) (*chainhash.Hash, error) {
	if len(txid) != chainhash.MaxHashStringSize {
		return nil, fmt.Errorf("%w: txid %q", ErrInvalidTx, txid)
	}
	h, err := chainhash.NewHashFromHex(txid)
	if err != nil {
		return nil, fmt.Errorf("%w: txid %q: %v", ErrInvalidTx, txid, err)
	}
	return h, nil
}
