// Package qrtoken generates and verifies the short-lived tokens encoded on
// the physical QR placards. Tokens are derived, not stored: anyone holding
// the signing secret can regenerate the currently valid token for a question,
// and verification needs no lookup. The same placard stays scannable for the
// whole TTL window and rotates afterward, which stops screenshots from being
// shared across teams at different progress points.
package qrtoken

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultTTLSeconds is how long one token slot lasts.
const DefaultTTLSeconds = 60

// Rejection reasons returned by Verify.
const (
	ReasonMalformed = "malformed"
	ReasonBadSig    = "bad_sig"
	ReasonExpired   = "expired"
)

// Codec signs and verifies placard tokens with a process-wide secret.
type Codec struct {
	secret []byte
}

// New creates a codec from the signing secret.
func New(secret string) *Codec {
	return &Codec{secret: []byte(secret)}
}

// Verification is the outcome of Verify. A forged or stale token is a
// normal rejection, never an error.
type Verification struct {
	Valid          bool
	Reason         string
	QuestionNumber int
	TTLSeconds     int
	ExpiresAt      time.Time
}

// Generate builds the token "<question>.<slot>.<ttl>.<signature>" for the
// given instant. ttlSeconds <= 0 falls back to DefaultTTLSeconds.
func (c *Codec) Generate(questionNumber int, now time.Time, ttlSeconds int) string {
	if ttlSeconds <= 0 {
		ttlSeconds = DefaultTTLSeconds
	}
	slot := now.Unix() / int64(ttlSeconds)
	payload := fmt.Sprintf("%d.%d.%d", questionNumber, slot, ttlSeconds)
	return payload + "." + c.sign(payload)
}

// Verify checks a token against the given instant. Tokens from the previous
// and next slot are accepted to absorb boundary-crossing latency between
// placard refresh and scan.
func (c *Codec) Verify(token string, now time.Time) Verification {
	parts := strings.Split(token, ".")
	if len(parts) != 4 {
		return Verification{Reason: ReasonMalformed}
	}

	questionNumber, err := strconv.Atoi(parts[0])
	if err != nil {
		return Verification{Reason: ReasonMalformed}
	}
	slot, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return Verification{Reason: ReasonMalformed}
	}
	ttlSeconds, err := strconv.Atoi(parts[2])
	if err != nil || ttlSeconds <= 0 {
		return Verification{Reason: ReasonMalformed}
	}

	expected := c.sign(parts[0] + "." + parts[1] + "." + parts[2])
	if !hmac.Equal([]byte(parts[3]), []byte(expected)) {
		return Verification{Reason: ReasonBadSig}
	}

	currentSlot := now.Unix() / int64(ttlSeconds)
	if diff := currentSlot - slot; diff > 1 || diff < -1 {
		return Verification{Reason: ReasonExpired}
	}

	return Verification{
		Valid:          true,
		QuestionNumber: questionNumber,
		TTLSeconds:     ttlSeconds,
		ExpiresAt:      time.Unix((slot+1)*int64(ttlSeconds), 0),
	}
}

func (c *Codec) sign(payload string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
