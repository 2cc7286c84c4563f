package panel

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"math/rand"
	"strconv"
	"time"
)

const (
	nonceLength  = 15
	nonceLetters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// Signature is the set of authentication parameters sent with every API request
type Signature struct {
	Nonce     string
	Timestamp int64
	Signature string
}

// Sign computes the request signature: hex(HMAC-SHA256(secret, timestamp + nonce))
func Sign(secret string, ts int64, nonce string) (string, error) {
	if secret == "" {
		return "", errors.New("panel secret is empty")
	}
	if nonce == "" {
		return "", errors.New("nonce is required")
	}
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(strconv.FormatInt(ts, 10)))
	_, _ = mac.Write([]byte(nonce))
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// NewSignature signs a request made at now with a fresh nonce
func NewSignature(secret string, now time.Time) (Signature, error) {
	ts := now.UTC().Unix()
	nonce := randomNonce(nonceLength)
	sig, err := Sign(secret, ts, nonce)
	if err != nil {
		return Signature{}, err
	}
	return Signature{Nonce: nonce, Timestamp: ts, Signature: sig}, nil
}

func randomNonce(length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = nonceLetters[rand.Intn(len(nonceLetters))]
	}
	return string(b)
}
