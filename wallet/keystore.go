package wallet

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/crypto/argon2"
)

// KeystoreVersion is the envelope version written by SealSeed.
const KeystoreVersion = 1

const (
	kdfArgon2id = "argon2id"
	saltLen     = 16
	keyLen      = 32

	// Upper bounds applied to KDF parameters read from disk.
	maxKDFTime   = 16
	maxKDFMemory = 1 << 20 // KiB
)

// KDFParams are the Argon2id parameters and salt a keystore was sealed with.
type KDFParams struct {
	Name    string `json:"name"`
	Time    uint32 `json:"time"`
	Memory  uint32 `json:"memory"`
	Threads uint8  `json:"threads"`
	Salt    []byte `json:"salt"`
}

// DefaultKDF returns the Argon2id cost used for new keystores.
func DefaultKDF() KDFParams {
	return KDFParams{Name: kdfArgon2id, Time: 3, Memory: 64 * 1024, Threads: 4}
}

// Keystore is the on-disk envelope of an encrypted seed. Version, network
// and creation time are authenticated as AES-GCM additional data, so they
// cannot be edited without breaking decryption.
type Keystore struct {
	Version    int       `json:"version"`
	Network    Network   `json:"network"`
	Created    time.Time `json:"created"`
	KDF        KDFParams `json:"kdf"`
	Nonce      []byte    `json:"nonce"`
	Ciphertext []byte    `json:"ciphertext"`
}

// SealSeed encrypts seed under password for use on net.
func SealSeed(seed []byte, password string, net Network) (*Keystore, error) {
	return sealSeed(seed, password, net, DefaultKDF(), time.Now())
}

func sealSeed(seed []byte, password string, net Network, kdf KDFParams, now time.Time) (*Keystore, error) {
	if len(seed) == 0 {
		return nil, ErrInvalidSeed
	}
	if _, err := ParseNetwork(string(net)); err != nil {
		return nil, err
	}
	kdf.Salt = make([]byte, saltLen)
	if _, err := rand.Read(kdf.Salt); err != nil {
		return nil, fmt.Errorf("wallet: salt: %w", err)
	}
	ks := &Keystore{
		Version: KeystoreVersion,
		Network: net,
		Created: now.UTC().Truncate(time.Second),
		KDF:     kdf,
	}
	gcm, err := ks.cipher(password)
	if err != nil {
		return nil, err
	}
	ks.Nonce = make([]byte, gcm.NonceSize())
	if _, err := rand.Read(ks.Nonce); err != nil {
		return nil, fmt.Errorf("wallet: nonce: %w", err)
	}
	ks.Ciphertext = gcm.Seal(nil, ks.Nonce, seed, ks.additionalData())
	return ks, nil
}

// Open decrypts the seed. A wrong password and a tampered envelope both
// return ErrDecryptionFailed.
func (ks *Keystore) Open(password string) ([]byte, error) {
	if err := ks.check(); err != nil {
		return nil, err
	}
	gcm, err := ks.cipher(password)
	if err != nil {
		return nil, err
	}
	if len(ks.Nonce) != gcm.NonceSize() {
		return nil, fmt.Errorf("%w: nonce length %d", ErrInvalidKeystore, len(ks.Nonce))
	}
	seed, err := gcm.Open(nil, ks.Nonce, ks.Ciphertext, ks.additionalData())
	if err != nil || len(seed) == 0 {
		return nil, ErrDecryptionFailed
	}
	return seed, nil
}

// Compatible reports whether the keystore may be used on net. Mainnet and
// stagenet share address encodings and are interchangeable.
func (ks *Keystore) Compatible(net Network) bool {
	return ks.Network.IsMainnet() == net.IsMainnet()
}

// Marshal encodes the keystore as indented JSON.
func (ks *Keystore) Marshal() ([]byte, error) {
	return json.MarshalIndent(ks, "", "  ")
}

// ParseKeystore decodes and checks a keystore envelope. It does not need
// the password.
func ParseKeystore(data []byte) (*Keystore, error) {
	var ks Keystore
	if err := json.Unmarshal(data, &ks); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKeystore, err)
	}
	if err := ks.check(); err != nil {
		return nil, err
	}
	return &ks, nil
}

func (ks *Keystore) check() error {
	switch {
	case ks.Version != KeystoreVersion:
		return fmt.Errorf("%w: version %d", ErrInvalidKeystore, ks.Version)
	case ks.KDF.Name != kdfArgon2id:
		return fmt.Errorf("%w: kdf %q", ErrInvalidKeystore, ks.KDF.Name)
	case ks.KDF.Time == 0 || ks.KDF.Time > maxKDFTime,
		ks.KDF.Memory == 0 || ks.KDF.Memory > maxKDFMemory,
		ks.KDF.Threads == 0:
		return fmt.Errorf("%w: kdf cost out of range", ErrInvalidKeystore)
	case len(ks.KDF.Salt) != saltLen:
		return fmt.Errorf("%w: salt length %d", ErrInvalidKeystore, len(ks.KDF.Salt))
	}
	if _, err := ParseNetwork(string(ks.Network)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidKeystore, err)
	}
	return nil
}

func (ks *Keystore) cipher(password string) (cipher.AEAD, error) {
	key := argon2.IDKey([]byte(password), ks.KDF.Salt, ks.KDF.Time, ks.KDF.Memory, ks.KDF.Threads, keyLen)
	defer clear(key)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("wallet: aes: %w", err)
	}
	return cipher.NewGCM(block)
}

func (ks *Keystore) additionalData() []byte {
	return fmt.Appendf(nil, "xchain-keystore:%d:%s:%d", ks.Version, ks.Network, ks.Created.Unix())
}
