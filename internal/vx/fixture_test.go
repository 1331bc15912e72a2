package vx

import (
	"context"
	"encoding/hex"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	blst "github.com/supranational/blst/bindings/go"
)

const (
	bustabitSalt       = "000000000000000000011f6e135efe67d7463dfe7bb955663ef88b1243b2deea"
	bustabitCommitment = "567a98370fb7545137ddb53687723cf0b8a1f5e93b1f76f4a1da29416930fa59"
	bustabitPublicKey  = "b40c94495f6e6e73619aeb54ec2fc84c5333f7a88ace82923946fc5b6c8635b08f9130888dd96e1749a1d5aab00020e4"

	// sha256("vxverify round 1")
	sampleRoundHash = "8003ad64ebc2d854e7e60058c62bef82254469d4e053f96772bb561ec72ea0fd"
	// BuildMessage(bustabitSalt, sampleRoundHash), computed independently.
	sampleMessageHex = "4d42457fe34b6b9de0a2ae1c7456474042a6522e979eb777b722b97769840f3a" +
		"717613eec1035f8c3938521bcf5691841c8905cf261066c64b0ad03b20bbae8d" +
		"30303030303030303030303030303030303030313166366531333565666536376437343633646665376262393535363633656638386231323433623264656561"
)

// oracleKey stands in for the VX oracle in tests.
type oracleKey struct {
	sk  *blst.SecretKey
	pub []byte
}

func newOracleKey(t *testing.T, seed byte) oracleKey {
	t.Helper()
	ikm := make([]byte, 32)
	for i := range ikm {
		ikm[i] = seed + byte(i)
	}
	sk := blst.KeyGen(ikm)
	require.NotNil(t, sk)
	return oracleKey{sk: sk, pub: new(blst.P1Affine).From(sk).Compress()}
}

func (k oracleKey) pubHex() string {
	return hex.EncodeToString(k.pub)
}

func (k oracleKey) sign(msg []byte) string {
	sig := new(blst.P2Affine).Sign(k.sk, msg, []byte(Suite))
	return hex.EncodeToString(sig.Compress())
}

func testParams(t *testing.T, k oracleKey) Params {
	t.Helper()
	p, err := ParseParams(bustabitSalt, bustabitCommitment, k.pubHex())
	require.NoError(t, err)
	return p
}

// publishedRecord is what an honest oracle would publish for roundHash.
func publishedRecord(t *testing.T, p Params, k oracleKey, roundHash string) SignedMessage {
	t.Helper()
	msg, err := BuildMessage(p, roundHash)
	require.NoError(t, err)
	return SignedMessage{SignatureHex: k.sign(msg), MessageHex: hex.EncodeToString(msg)}
}

type fetchCall struct {
	index      int64
	commitment string
}

type fakeFetcher struct {
	mu      sync.Mutex
	records map[int64]SignedMessage
	err     error
	calls   []fetchCall
}

func (f *fakeFetcher) FetchSignedMessage(_ context.Context, index int64, commitment string) (*SignedMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fetchCall{index: index, commitment: commitment})
	if f.err != nil {
		return nil, f.err
	}
	rec, ok := f.records[index]
	if !ok {
		return nil, errors.Join(errors.New("empty messagesByIndex"), ErrNoRecord)
	}
	return &rec, nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func flipBit(t *testing.T, hexStr string, byteIdx int) string {
	t.Helper()
	b, err := hex.DecodeString(hexStr)
	require.NoError(t, err)
	b[byteIdx] ^= 0x01
	return hex.EncodeToString(b)
}
