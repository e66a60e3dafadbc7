package rule

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainRules prefixes rule-list hashes. The version suffix leaves room
// for changing the canonical encoding later.
const DomainRules = "tradecal/rules/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data) as lowercase hex.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Hash returns the content hash of a rule list. Structurally equal lists
// (same variants, same fields, same order) hash identically.
func Hash(rules []Rule) (string, error) {
	canonical, err := MarshalCanonical(rules)
	if err != nil {
		return "", fmt.Errorf("hash rules: %w", err)
	}
	return hashWithDomain(DomainRules, canonical), nil
}

// MustHash is like Hash but panics on error.
// Use only in tests or when the rules are known to be valid.
func MustHash(rules []Rule) string {
	h, err := Hash(rules)
	if err != nil {
		panic(err)
	}
	return h
}
