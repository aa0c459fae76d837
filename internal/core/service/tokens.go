package service

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
)

const (
	inviteTokenBytes = 20
	joinCodeLength   = 6
	joinCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// RandomToken returns 20 bytes from crypto/rand, hex encoded.
func RandomToken() (string, error) {
	b := make([]byte, inviteTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// RandomJoinCode returns a short uppercase code people can read out loud.
func RandomJoinCode() (string, error) {
	max := big.NewInt(int64(len(joinCodeAlphabet)))
	out := make([]byte, joinCodeLength)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate join code: %w", err)
		}
		out[i] = joinCodeAlphabet[n.Int64()]
	}
	return string(out), nil
}
