// Package services – referral code generation.
package services

import (
	"crypto/rand"
	"fmt"
	"strings"
)

// codeAlphabet is the 32-symbol unambiguous alphabet used for referral codes.
// 0, O, 1 and I are excluded because codes are read aloud and retyped from
// screenshots. 32^6 ≈ 1.07e9 possible codes.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// codeLength is the fixed referral code length.
const codeLength = 6

// normalizeCode uppercases and trims a client-supplied code and rejects
// anything that is not exactly codeLength symbols of the alphabet. Returns
// "" for invalid input.
func normalizeCode(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != codeLength {
		return ""
	}
	for i := 0; i < len(code); i++ {
		if !strings.ContainsRune(codeAlphabet, rune(code[i])) {
			return ""
		}
	}
	return code
}

// newReferralCode draws a random 6-character code from codeAlphabet using
// crypto/rand. The alphabet size divides 256 evenly, so the byte-modulo
// mapping introduces no bias.
func newReferralCode() (string, error) {
	var buf [codeLength]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	out := make([]byte, codeLength)
	for i, b := range buf {
		out[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(out), nil
}
