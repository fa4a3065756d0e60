package canon

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainInstance prefixes instance fingerprints. The version suffix allows
// the encoding to change without colliding with older catalog entries.
const DomainInstance = "scc/instance/v1"

// HashWithDomain computes SHA256(domain + 0x00 + data) as lowercase hex.
// The null separator keeps domain and data boundaries unambiguous.
func HashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint canonically marshals v and hashes it under domain.
func Fingerprint(domain string, v any) (string, error) {
	data, err := Marshal(v)
	if err != nil {
		return "", fmt.Errorf("fingerprint %s: %w", domain, err)
	}
	return HashWithDomain(domain, data), nil
}
