package state

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// maxNormalized caps how much of the normalized message feeds the hash.
// Long tracebacks differ only in their tails; the head identifies the error.
const maxNormalized = 200

// Fingerprint computes the deterministic deduplication key for a detected
// error: sha256 over the target repo, category, source location, and
// normalized message, truncated to 16 bytes hex. It is independent of
// detection timestamp and stable across process restarts. Including the repo
// scopes deduplication: fingerprints for different target repositories are
// never comparable.
func Fingerprint(repo, category, source, message string) string {
	h := sha256.New()
	h.Write([]byte(repo))
	h.Write([]byte{0})
	h.Write([]byte(category))
	h.Write([]byte{0})
	h.Write([]byte(source))
	h.Write([]byte{0})
	h.Write([]byte(NormalizeMessage(message)))
	return hex.EncodeToString(h.Sum(nil)[:16])
}

// NormalizeMessage canonicalizes an error message for fingerprinting:
// NFKC normalization, lowercasing, and whitespace collapsing, capped at
// maxNormalized bytes.
func NormalizeMessage(s string) string {
	s = norm.NFKC.String(s)
	s = strings.ToLower(s)
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > maxNormalized {
		s = s[:maxNormalized]
	}
	return s
}
