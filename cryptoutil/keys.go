// Package cryptoutil manages the searcher's wallet signing key: generation,
// byte encoding, and derivation of its Ethereum address.
package cryptoutil

import (
	"crypto/ecdsa"
	"crypto/rand"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// PrivateKey wraps an ECDSA secp256k1 key used to sign searcher bundles and
// relay authentication headers.
type PrivateKey struct {
	*ecdsa.PrivateKey
}

// PublicKey wraps the corresponding public half.
type PublicKey struct {
	*ecdsa.PublicKey
}

// GeneratePrivateKey creates a new random signing key.
func GeneratePrivateKey() (*PrivateKey, error) {
	key, err := ecdsa.GenerateKey(crypto.S256(), rand.Reader)
	if err != nil {
		return nil, err
	}
	return &PrivateKey{key}, nil
}

// PrivateKeyFromBytes decodes a raw 32-byte secp256k1 scalar.
func PrivateKeyFromBytes(b []byte) (*PrivateKey, error) {
	key, err := crypto.ToECDSA(b)
	if err != nil {
		return nil, err
	}
	return &PrivateKey{key}, nil
}

// Bytes returns the raw scalar encoding of the key.
func (k *PrivateKey) Bytes() []byte {
	return crypto.FromECDSA(k.PrivateKey)
}

// PubKey returns the public half of the key.
func (k *PrivateKey) PubKey() *PublicKey {
	return &PublicKey{&k.PrivateKey.PublicKey}
}

// Address derives the Ethereum address controlled by this key — the
// searcher's identity address used both as the bundle sender and as the
// address half of the Flashbots-style X-Flashbots-Signature header.
func (k *PublicKey) Address() common.Address {
	return crypto.PubkeyToAddress(*k.PublicKey)
}

// Sign produces a 65-byte recoverable ECDSA signature over digest, which must
// already be the 32-byte Keccak256 hash of the signed payload.
func (k *PrivateKey) Sign(digest []byte) ([]byte, error) {
	return crypto.Sign(digest, k.PrivateKey)
}
