package ir

import (
	"crypto/sha256"
	"encoding/hex"
)

// DomainOutput prefixes output digests. The version suffix follows FormatVersion.
const DomainOutput = "customobjects/ini/v" + FormatVersion

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Digest computes the content-addressed identity of rendered output.
// Identical inputs and options always give the same digest.
func Digest(output []byte) string {
	return hashWithDomain(DomainOutput, output)
}
