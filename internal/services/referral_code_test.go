package services

import (
	"strings"
	"testing"
)

func TestNormalizeCode(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"ABCDEF", "ABCDEF"},
		{"abcdef", "ABCDEF"},
		{"  k7xq2m ", "K7XQ2M"},
		{"", ""},
		{"ABCDE", ""},       // too short
		{"ABCDEFG", ""},     // too long
		{"ABC0EF", ""},      // 0 excluded from the alphabet
		{"ABCOEF", ""},      // O excluded
		{"ABC1EF", ""},      // 1 excluded
		{"ABCIEF", ""},      // I excluded
		{"AB CD2", ""},      // inner whitespace
		{"ÄBCDEF", ""},      // non-ASCII
		{"234567", "234567"},
	}
	for _, tc := range cases {
		if got := normalizeCode(tc.in); got != tc.want {
			t.Fatalf("normalizeCode(%q) = %q; want %q", tc.in, got, tc.want)
		}
	}
}

func TestNewReferralCode_ShapeAndVariety(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		code, err := newReferralCode()
		if err != nil {
			t.Fatalf("newReferralCode: %v", err)
		}
		if len(code) != codeLength {
			t.Fatalf("expected %d chars, got %q", codeLength, code)
		}
		for _, r := range code {
			if !strings.ContainsRune(codeAlphabet, r) {
				t.Fatalf("code %q contains %q outside the alphabet", code, r)
			}
		}
		// Generated codes must round-trip through normalization unchanged.
		if normalizeCode(code) != code {
			t.Fatalf("generated code fails normalization: %q", code)
		}
		seen[code] = struct{}{}
	}
	// 100 draws from a ~1e9 space colliding down to a handful would mean the
	// generator is broken.
	if len(seen) < 95 {
		t.Fatalf("suspiciously many collisions: %d distinct of 100", len(seen))
	}
}
