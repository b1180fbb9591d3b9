package peerplays

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil/base58"
	"golang.org/x/crypto/ripemd160"
)

const wifVersion = 0x80

type PrivateKey struct {
	key *btcec.PrivateKey
}

func NewPrivateKey(b []byte) (*PrivateKey, error) {
	if len(b) != btcec.PrivKeyBytesLen {
		return nil, fmt.Errorf("invalid private key length %d", len(b))
	}

	key, _ := btcec.PrivKeyFromBytes(b)
	return &PrivateKey{key: key}, nil
}

// FromWIF decodes a base58check wallet import format key.
func FromWIF(wif string) (*PrivateKey, error) {
	decoded, version, err := base58.CheckDecode(wif)
	if err != nil {
		return nil, fmt.Errorf("invalid wif: %w", err)
	}

	if version != wifVersion {
		return nil, fmt.Errorf("invalid wif version %#x", version)
	}

	return NewPrivateKey(decoded)
}

// FromPassword derives the key of a role (owner, active, memo) from the
// account name and master password.
func FromPassword(accountName, role, password string) (*PrivateKey, error) {
	if accountName == "" || password == "" {
		return nil, errors.New("empty account name or password")
	}

	seed := sha256.Sum256([]byte(accountName + role + password))
	return NewPrivateKey(seed[:])
}

func (k *PrivateKey) WIF() string {
	return base58.CheckEncode(k.key.Serialize(), wifVersion)
}

func (k *PrivateKey) PublicKey() *PublicKey {
	return &PublicKey{key: k.key.PubKey()}
}

type PublicKey struct {
	key *btcec.PublicKey
}

// String returns the public key in graphene format, e.g. PPY6MRyAjQq8ud7...
func (k *PublicKey) String(prefix string) string {
	compressed := k.key.SerializeCompressed()

	h := ripemd160.New()
	h.Write(compressed)
	checksum := h.Sum(nil)

	return prefix + base58.Encode(append(compressed, checksum[:4]...))
}
