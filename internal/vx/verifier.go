package vx

import (
	"encoding/hex"
	"fmt"
	"strings"

	blst "github.com/supranational/blst/bindings/go"
)

// SignedMessage is what the oracle publishes for one round index.
type SignedMessage struct {
	SignatureHex string
	MessageHex   string
}

// Verifier checks oracle signatures against a fixed public key.
type Verifier struct {
	params Params
}

// NewVerifier returns a Verifier bound to p.
func NewVerifier(p Params) (*Verifier, error) {
	if err := mustBeInitialised(p); err != nil {
		return nil, err
	}
	return &Verifier{params: p}, nil
}

// Check verifies a fetched record against the locally rebuilt message.
//
// MessageMatches compares the fetched message with msg. SignatureValid is
// computed over msg only; the fetched message bytes are never verified.
// A signature that is not hex or not SignatureSize bytes long is an
// ErrMalformedSignature error. Points that fail to decode or validate give
// SignatureValid == false.
func (v *Verifier) Check(msg []byte, rec SignedMessage) (Result, error) {
	sig, err := decodeSignature(rec.SignatureHex)
	if err != nil {
		return Result{}, err
	}

	msgHex := hex.EncodeToString(msg)
	return Result{
		Signature:      sig,
		Message:        msgHex,
		FetchedMessage: strings.ToLower(rec.MessageHex),
		MessageMatches: sameHex(msgHex, rec.MessageHex),
		SignatureValid: verifyBLS(sig, msg, v.params.publicKey[:]),
	}, nil
}

func decodeSignature(s string) ([]byte, error) {
	s = normalizeHex(s)
	if len(s) != 2*SignatureSize {
		return nil, &VerificationError{
			Kind:  KindMalformedSignature,
			Round: -1,
			Err:   fmt.Errorf("want %d hex characters, got %d", 2*SignatureSize, len(s)),
		}
	}
	sig, err := hex.DecodeString(s)
	if err != nil {
		return nil, &VerificationError{Kind: KindMalformedSignature, Round: -1, Err: err}
	}
	return sig, nil
}

// verifyBLS runs the min-pk pairing check. The signature is group-checked
// and the public key validated on every call.
func verifyBLS(sig, msg, pub []byte) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	pk := new(blst.P1Affine).Uncompress(pub)
	if pk == nil {
		return false
	}
	s := new(blst.P2Affine).Uncompress(sig)
	if s == nil {
		return false
	}
	return s.Verify(true, pk, true, msg, []byte(Suite))
}
