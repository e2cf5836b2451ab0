package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainLedger prefixes ledger fingerprints. The version suffix allows a
// future change of the canonical form without colliding with old hashes.
const DomainLedger = "stageledger/ledger/v1"

func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint returns a content hash of l that ignores record order and
// timestamps.
func (l Ledger) Fingerprint() (string, error) {
	canonical, err := l.MarshalCanonical()
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	return hashWithDomain(DomainLedger, canonical), nil
}
