// Package naming derives physical store names from logical dataset names.
//
// The derivation is the only durable contract between provisioning runs, so
// it must stay stable across releases.
package naming

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/zeebo/xxh3"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxLength is the longest physical name produced. It fits the tightest
// identifier limit among supported backends (PostgreSQL, 63 bytes).
const MaxLength = 63

// hashSuffixLen is the length of "_" plus 8 hex digits.
const hashSuffixLen = 9

// Physical returns prefix + the sanitized logical name.
//
// The name is lower-cased, accents are stripped, and every character outside
// [a-z0-9_] becomes "_" with runs collapsed. Names that would exceed
// MaxLength are truncated and suffixed with a hash of the logical name so
// distinct long names stay distinct.
func Physical(prefix, name string) (string, error) {
	body := sanitize(name)
	if body == "" {
		return "", fmt.Errorf("dataset name %q has no usable characters", name)
	}
	cleanPrefix := sanitizePrefix(prefix)

	full := cleanPrefix + body
	if len(full) <= MaxLength {
		return full, nil
	}

	keep := MaxLength - hashSuffixLen - len(cleanPrefix)
	if keep <= 0 {
		return "", fmt.Errorf("store prefix %q is too long", prefix)
	}
	return fmt.Sprintf("%s%s_%08x", cleanPrefix, strings.TrimRight(body[:keep], "_"), uint32(xxh3.HashString(name))), nil
}

// HasPrefix reports whether a catalog entry belongs to the given prefix.
func HasPrefix(prefix, storeName string) bool {
	return strings.HasPrefix(storeName, sanitizePrefix(prefix))
}

// stripMarks returns a fresh accent-stripping transformer. Chains keep
// internal buffers and must not be shared between goroutines.
func stripMarks() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

func sanitize(s string) string {
	folded, _, err := transform.String(stripMarks(), s)
	if err != nil {
		folded = s
	}

	var sb strings.Builder
	lastUnderscore := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore && sb.Len() > 0 {
				sb.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.TrimRight(sb.String(), "_")
}

// sanitizePrefix keeps a trailing separator, which sanitize would trim.
func sanitizePrefix(prefix string) string {
	p := sanitize(prefix)
	if p == "" {
		return ""
	}
	return p + "_"
}
