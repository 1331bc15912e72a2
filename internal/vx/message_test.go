package vx

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParams(t *testing.T) {
	p, err := ParseParams(bustabitSalt, bustabitCommitment, bustabitPublicKey)
	require.NoError(t, err)
	assert.Equal(t, bustabitSalt, p.SaltHex())
	assert.Equal(t, bustabitCommitment, p.Commitment())
	assert.Equal(t, bustabitPublicKey, p.PublicKeyHex())
	assert.False(t, p.IsZero())

	// 0x prefix and upper case are accepted in configuration.
	p2, err := ParseParams("0x"+strings.ToUpper(bustabitSalt), bustabitCommitment, bustabitPublicKey)
	require.NoError(t, err)
	assert.Equal(t, p, p2)
}

func TestParseParams_Rejects(t *testing.T) {
	tests := []struct {
		name                  string
		salt, commitment, pub string
	}{
		{"short salt", bustabitSalt[:62], bustabitCommitment, bustabitPublicKey},
		{"non-hex commitment", bustabitSalt, "zz" + bustabitCommitment[2:], bustabitPublicKey},
		{"G2-sized public key", bustabitSalt, bustabitCommitment, bustabitPublicKey + bustabitPublicKey},
		{"empty public key", bustabitSalt, bustabitCommitment, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseParams(tt.salt, tt.commitment, tt.pub)
			assert.Error(t, err)
		})
	}
}

func TestParams_ReturnsCopies(t *testing.T) {
	p, err := ParseParams(bustabitSalt, bustabitCommitment, bustabitPublicKey)
	require.NoError(t, err)

	salt := p.Salt()
	salt[0] = 0xff
	pub := p.PublicKey()
	pub[0] = 0x00

	assert.Equal(t, bustabitSalt, p.SaltHex())
	assert.Equal(t, bustabitPublicKey, p.PublicKeyHex())
}

func TestBuildMessage_KnownVector(t *testing.T) {
	p, err := ParseParams(bustabitSalt, bustabitCommitment, bustabitPublicKey)
	require.NoError(t, err)

	got, err := MessageHex(p, sampleRoundHash)
	require.NoError(t, err)
	assert.Equal(t, sampleMessageHex, got)
}

func TestBuildMessage_Layout(t *testing.T) {
	p, err := ParseParams(bustabitSalt, bustabitCommitment, bustabitPublicKey)
	require.NoError(t, err)

	msg, err := BuildMessage(p, sampleRoundHash)
	require.NoError(t, err)
	require.Len(t, msg, 32+32+len(bustabitSalt))
	assert.Equal(t, MessageSize, len(msg))

	salt, _ := hex.DecodeString(bustabitSalt)
	roundHash, _ := hex.DecodeString(sampleRoundHash)
	saltDigest := sha256.Sum256(salt)
	hashDigest := sha256.Sum256(roundHash)

	assert.Equal(t, saltDigest[:], msg[:32], "first segment hashes the raw salt bytes")
	assert.Equal(t, hashDigest[:], msg[32:64], "second segment hashes the raw round hash bytes")
	assert.Equal(t, []byte(bustabitSalt), msg[64:], "third segment is the salt hex as text")

	// Hashing the hex text instead of the bytes must give something else.
	wrong := sha256.Sum256([]byte(sampleRoundHash))
	assert.NotEqual(t, wrong[:], msg[32:64])
}

func TestBuildMessage_Deterministic(t *testing.T) {
	p, err := ParseParams(bustabitSalt, bustabitCommitment, bustabitPublicKey)
	require.NoError(t, err)

	for _, h := range []string{
		sampleRoundHash,
		strings.Repeat("00", 32),
		strings.Repeat("ff", 32),
	} {
		a, err := BuildMessage(p, h)
		require.NoError(t, err)
		b, err := BuildMessage(p, h)
		require.NoError(t, err)
		assert.True(t, bytes.Equal(a, b), "hash %s", h)
		assert.Len(t, a, MessageSize)
	}
}

func TestBuildMessage_CaseInsensitiveRoundHash(t *testing.T) {
	p, err := ParseParams(bustabitSalt, bustabitCommitment, bustabitPublicKey)
	require.NoError(t, err)

	lower, err := BuildMessage(p, sampleRoundHash)
	require.NoError(t, err)
	upper, err := BuildMessage(p, strings.ToUpper(sampleRoundHash))
	require.NoError(t, err)
	assert.Equal(t, lower, upper)
}

func TestBuildMessage_InvalidRoundHash(t *testing.T) {
	p, err := ParseParams(bustabitSalt, bustabitCommitment, bustabitPublicKey)
	require.NoError(t, err)

	for name, h := range map[string]string{
		"empty":        "",
		"63 chars":     sampleRoundHash[:63],
		"65 chars":     sampleRoundHash + "0",
		"0x prefixed":  "0x" + sampleRoundHash,
		"non-hex":      "g" + sampleRoundHash[1:],
		"inner space":  sampleRoundHash[:30] + " " + sampleRoundHash[31:],
		"128 chars":    sampleRoundHash + sampleRoundHash,
		"unicode pad":  sampleRoundHash[:62] + "é",
		"game id text": "1234567",
	} {
		t.Run(name, func(t *testing.T) {
			msg, err := BuildMessage(p, h)
			assert.Nil(t, msg)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidInput))
			assert.Equal(t, KindInvalidInput, KindOf(err))
		})
	}
}
