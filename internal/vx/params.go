// Package vx verifies VX oracle signatures over provably-fair game rounds.
//
// A round is verified by rebuilding the message the oracle is expected to
// have signed from the game salt and the revealed round hash, fetching the
// oracle's signature for the round index, and checking the BLS signature
// against the oracle public key. The fetched message is compared with the
// rebuilt one separately, so an oracle that signs unrelated bytes is
// reported as a mismatch even when its signature is valid.
package vx

import (
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	// Curve is the only pairing curve accepted for oracle keys.
	Curve = "bls12-381"

	// Suite is the BLS ciphersuite used by the oracle: public keys in G1,
	// signatures in G2, hash-to-curve with SHA-256 and SSWU.
	Suite = "BLS_SIG_BLS12381G2_XMD:SHA-256_SSWU_RO_NUL_"

	// SaltSize is the size of the game salt in bytes.
	SaltSize = 32
	// RoundHashSize is the size of a revealed round hash in bytes.
	RoundHashSize = 32
	// CommitmentSize is the size of the oracle commitment in bytes.
	CommitmentSize = 32
	// PublicKeySize is the size of a compressed G1 public key.
	PublicKeySize = 48
	// SignatureSize is the size of a compressed G2 signature.
	SignatureSize = 96

	// MaxRoundIndex is the largest index the oracle API accepts (GraphQL Int).
	MaxRoundIndex = 1<<31 - 1
)

// Params holds the fixed values a game series is verified against.
// A Params value is never modified after ParseParams returns it, so it can be
// shared by concurrent verifications.
type Params struct {
	salt       [SaltSize]byte
	commitment string
	publicKey  [PublicKeySize]byte
}

// ParseParams decodes and checks the hex-encoded salt, commitment and
// oracle public key.
func ParseParams(saltHex, commitmentHex, publicKeyHex string) (Params, error) {
	var p Params

	salt, err := decodeHexExact(saltHex, SaltSize)
	if err != nil {
		return Params{}, fmt.Errorf("salt: %w", err)
	}
	copy(p.salt[:], salt)

	commitment, err := decodeHexExact(commitmentHex, CommitmentSize)
	if err != nil {
		return Params{}, fmt.Errorf("commitment: %w", err)
	}
	p.commitment = hex.EncodeToString(commitment)

	pub, err := decodeHexExact(publicKeyHex, PublicKeySize)
	if err != nil {
		return Params{}, fmt.Errorf("public key: %w", err)
	}
	copy(p.publicKey[:], pub)

	return p, nil
}

// Salt returns a copy of the game salt.
func (p Params) Salt() []byte {
	out := make([]byte, SaltSize)
	copy(out, p.salt[:])
	return out
}

// SaltHex returns the lowercase hex form of the salt.
func (p Params) SaltHex() string {
	return hex.EncodeToString(p.salt[:])
}

// Commitment returns the lowercase hex commitment sent to the oracle API.
func (p Params) Commitment() string {
	return p.commitment
}

// PublicKey returns a copy of the compressed oracle public key.
func (p Params) PublicKey() []byte {
	out := make([]byte, PublicKeySize)
	copy(out, p.publicKey[:])
	return out
}

// PublicKeyHex returns the lowercase hex form of the oracle public key.
func (p Params) PublicKeyHex() string {
	return hex.EncodeToString(p.publicKey[:])
}

// IsZero reports whether p was never initialised.
func (p Params) IsZero() bool {
	return p.commitment == ""
}

// normalizeHex trims s, strips an optional 0x prefix and lowercases it.
// It is for configured values; fetched messages are compared as-is.
func normalizeHex(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	return strings.ToLower(s)
}

func decodeHexExact(s string, size int) ([]byte, error) {
	s = normalizeHex(s)
	if len(s) != size*2 {
		return nil, fmt.Errorf("want %d hex characters, got %d", size*2, len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex: %w", err)
	}
	return b, nil
}
