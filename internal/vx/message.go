package vx

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// BuildMessage returns the bytes the oracle signs for a round:
//
//	SHA-256(salt) || SHA-256(roundHash) || UTF-8(hex(salt))
//
// Both digests are taken over raw bytes, not over hex strings. roundHashHex
// must be exactly 64 hex characters.
func BuildMessage(p Params, roundHashHex string) ([]byte, error) {
	roundHash, err := decodeRoundHash(roundHashHex)
	if err != nil {
		return nil, err
	}
	return buildMessage(p, roundHash), nil
}

// MessageSize is the length of every message returned by BuildMessage.
const MessageSize = sha256.Size + sha256.Size + 2*SaltSize

func buildMessage(p Params, roundHash []byte) []byte {
	saltDigest := sha256.Sum256(p.salt[:])
	hashDigest := sha256.Sum256(roundHash)

	msg := make([]byte, 0, MessageSize)
	msg = append(msg, saltDigest[:]...)
	msg = append(msg, hashDigest[:]...)
	msg = append(msg, p.SaltHex()...)
	return msg
}

// decodeRoundHash accepts exactly 2*RoundHashSize hex digits, upper or
// lower case, and nothing else.
func decodeRoundHash(s string) ([]byte, error) {
	if len(s) != 2*RoundHashSize {
		return nil, invalidInput(-1, "round hash must be %d hex characters, got %d", 2*RoundHashSize, len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, invalidInput(-1, "round hash is not hex: %v", err)
	}
	return b, nil
}

// MessageHex is BuildMessage followed by lowercase hex encoding.
func MessageHex(p Params, roundHashHex string) (string, error) {
	msg, err := BuildMessage(p, roundHashHex)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(msg), nil
}

// sameHex compares two hex strings ignoring case only.
func sameHex(a, b string) bool {
	return strings.EqualFold(a, b)
}

func mustBeInitialised(p Params) error {
	if p.IsZero() {
		return fmt.Errorf("vx: params not initialised")
	}
	return nil
}
