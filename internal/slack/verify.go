package slack

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidTimestamp       = errors.New("invalid timestamp")
	ErrTimestampOutsideWindow = errors.New("timestamp outside allowed window")
	ErrInvalidSignature       = errors.New("invalid signature")
)

// Window is the replay-protection window around the request timestamp.
const Window = 5 * time.Minute

const sigPrefix = "v0="

type SignatureInput struct {
	SigningSecret   string
	TimestampHeader string // X-Slack-Request-Timestamp
	SignatureHeader string // X-Slack-Signature
	Body            []byte
	Now             time.Time
}

// VerifySignature checks Slack's v0 request signature:
// HMAC-SHA256 over "v0:<ts>:<body>" with the signing secret, hex, prefixed "v0=".
func VerifySignature(in SignatureInput) error {
	tsHeader := strings.TrimSpace(in.TimestampHeader)
	sigHeader := strings.TrimSpace(in.SignatureHeader)

	tsInt, err := strconv.ParseInt(tsHeader, 10, 64)
	if err != nil {
		return ErrInvalidTimestamp
	}
	ts := time.Unix(tsInt, 0).UTC()

	now := in.Now.UTC()
	if ts.Before(now.Add(-Window)) || ts.After(now.Add(Window)) {
		return ErrTimestampOutsideWindow
	}

	if !strings.HasPrefix(sigHeader, sigPrefix) {
		return ErrInvalidSignature
	}
	providedSig, err := hex.DecodeString(strings.TrimPrefix(sigHeader, sigPrefix))
	if err != nil {
		return ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, []byte(in.SigningSecret))
	_, _ = mac.Write(baseString(tsHeader, in.Body))
	expectedSig := mac.Sum(nil)

	if !hmac.Equal(providedSig, expectedSig) {
		return ErrInvalidSignature
	}
	return nil
}

// Sign computes the X-Slack-Signature value for a timestamp and body.
// Used by tests and local tooling.
func Sign(signingSecret, timestampHeader string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(signingSecret))
	_, _ = mac.Write(baseString(timestampHeader, body))
	return sigPrefix + hex.EncodeToString(mac.Sum(nil))
}

func baseString(tsHeader string, body []byte) []byte {
	msg := make([]byte, 0, 3+len(tsHeader)+1+len(body))
	msg = append(msg, []byte("v0:")...)
	msg = append(msg, []byte(tsHeader)...)
	msg = append(msg, ':')
	msg = append(msg, body...)
	return msg
}
