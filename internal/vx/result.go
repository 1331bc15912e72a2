package vx

import "encoding/hex"

// Status summarises a Result.
type Status string

const (
	StatusVerified         Status = "verified"
	StatusMessageMismatch  Status = "message_mismatch"
	StatusInvalidSignature Status = "invalid_signature"
	StatusFailed           Status = "failed"
)

// Result is the outcome of verifying one round.
type Result struct {
	Round          int64
	RoundHash      string
	Signature      []byte
	Message        string // rebuilt message, lowercase hex
	FetchedMessage string // message reported by the oracle, lowercase hex
	MessageMatches bool
	SignatureValid bool
}

// Verified reports whether the oracle signed exactly the rebuilt message.
func (r Result) Verified() bool {
	return r.MessageMatches && r.SignatureValid
}

// Status classifies the result. A valid signature over a different message
// is reported as StatusMessageMismatch, not as verified.
func (r Result) Status() Status {
	switch {
	case r.MessageMatches && r.SignatureValid:
		return StatusVerified
	case !r.MessageMatches && r.SignatureValid:
		return StatusMessageMismatch
	case r.MessageMatches && !r.SignatureValid:
		return StatusInvalidSignature
	default:
		return StatusFailed
	}
}

// SignatureHex returns the signature in lowercase hex.
func (r Result) SignatureHex() string {
	return hex.EncodeToString(r.Signature)
}
