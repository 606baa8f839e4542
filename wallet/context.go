package wallet

import (
	"fmt"
	"sync"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
)

// Context is the immutable wallet input to every client operation: the
// network, the BIP44 account and the BIP39 seed. It carries no derived key
// material; keys are derived per call into a SecretHandle.
type Context struct {
	network Network
	account uint32
	seed    []byte
}

// NewContext returns a Context over a copy of seed.
func NewContext(seed []byte, network Network, account uint32) (Context, error) {
	if len(seed) == 0 {
		return Context{}, ErrInvalidSeed
	}
	if _, err := ParseNetwork(string(network)); err != nil {
		return Context{}, err
	}
	if account > MaxIndex {
		return Context{}, fmt.Errorf("%w: account %d", ErrIndexOutOfRange, account)
	}
	return Context{
		network: network,
		account: account,
		seed:    append([]byte(nil), seed...),
	}, nil
}

// NewContextFromMnemonic derives the seed of mnemonic and passphrase and
// returns a Context over it. The phrase itself is not retained.
func NewContextFromMnemonic(mnemonic, passphrase string, network Network, account uint32) (Context, error) {
	seed, err := SeedFromMnemonic(mnemonic, passphrase)
	if err != nil {
		return Context{}, err
	}
	defer zero(seed)
	return NewContext(seed, network, account)
}

// Network returns the network of the context.
func (c Context) Network() Network { return c.network }

// Account returns the BIP44 account of the context.
func (c Context) Account() uint32 { return c.account }

// Valid reports whether the context was built by NewContext.
func (c Context) Valid() bool { return len(c.seed) > 0 }

// Path returns the derivation path for index under coinType.
func (c Context) Path(coinType, index uint32) Path {
	return Path{CoinType: coinType, Account: c.account, Index: index}
}

// DeriveKey derives the key at m/44'/coinType'/account'/0/index. The caller
// must Release the returned handle.
func (c Context) DeriveKey(coinType, index uint32) (*SecretHandle, error) {
	if !c.Valid() {
		return nil, ErrInvalidSeed
	}
	p := c.Path(coinType, index)
	priv, err := deriveKey(c.seed, c.network, p)
	if err != nil {
		return nil, err
	}
	return newSecretHandle(priv, p), nil
}

// PublicKey derives only the public key at index under coinType.
func (c Context) PublicKey(coinType, index uint32) (*ec.PublicKey, error) {
	var pub *ec.PublicKey
	err := c.WithKey(coinType, index, func(priv *ec.PrivateKey) error {
		pub = priv.PubKey()
		return nil
	})
	return pub, err
}

// WithKey derives the key at index under coinType, passes it to fn and
// releases it when fn returns. fn must not retain the key.
func (c Context) WithKey(coinType, index uint32, fn func(priv *ec.PrivateKey) error) error {
	h, err := c.DeriveKey(coinType, index)
	if err != nil {
		return err
	}
	defer h.Release()

	priv, err := h.PrivateKey()
	if err != nil {
		return err
	}
	return fn(priv)
}

// SecretHandle scopes one derived private key. The raw key bytes are zeroed
// by Release; every accessor fails afterwards.
type SecretHandle struct {
	mu       sync.Mutex
	key      []byte
	path     Path
	released bool
}

func newSecretHandle(priv *ec.PrivateKey, p Path) *SecretHandle {
	return &SecretHandle{key: priv.Serialize(), path: p}
}

// Path returns the derivation path of the key.
func (h *SecretHandle) Path() Path {
	return h.path
}

// PrivateKey returns the private key held by the handle.
func (h *SecretHandle) PrivateKey() (*ec.PrivateKey, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return nil, ErrHandleReleased
	}
	priv, _ := ec.PrivateKeyFromBytes(h.key)
	return priv, nil
}

// PublicKey returns the public key of the handle's private key.
func (h *SecretHandle) PublicKey() (*ec.PublicKey, error) {
	priv, err := h.PrivateKey()
	if err != nil {
		return nil, err
	}
	return priv.PubKey(), nil
}

// Released reports whether Release has been called.
func (h *SecretHandle) Released() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.released
}

// Release zeroes the key bytes. It is safe to call more than once.
func (h *SecretHandle) Release() {
	h.mu.Lock()
	defer h.mu.Unlock()
	zero(h.key)
	h.released = true
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
