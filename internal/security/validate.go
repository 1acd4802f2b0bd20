package security

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxRequestBytes caps inbound request bodies at 1 MiB.
const MaxRequestBytes = 1 << 20

const (
	minAPIKeyLength    = 32
	maxSanitizedLength = 1000
)

var botSignatures = []string{"bot", "crawler", "spider"}

var scriptKeywords = []string{"script", "onload", "onerror", "onclick"}

// IsValidAPIKey accepts keys of at least 32 alphanumeric characters.
func IsValidAPIKey(key string) bool {
	if len(key) < minAPIKeyLength {
		return false
	}

	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

func IsValidRequestSize(bytes int64) bool {
	return bytes >= 0 && bytes <= MaxRequestBytes
}

// IsValidOrigin applies a lightweight bot heuristic over the user agent.
// It is a hint, not an authentication mechanism.
func IsValidOrigin(origin, userAgent string) bool {
	ua := strings.ToLower(userAgent)
	for _, sig := range botSignatures {
		if strings.Contains(ua, sig) {
			return false
		}
	}
	return true
}

// GenerateClientID derives a stable identifier from IP and user agent, used
// to key all rate/block/suspicious state in lieu of true user identity.
func GenerateClientID(ip, userAgent string) string {
	sum := sha256.Sum256([]byte(ip + "|" + userAgent))
	return "client_" + hex.EncodeToString(sum[:])[:16]
}

// SanitizeForSecurity strips markup-injection characters and script-related
// keywords (case-insensitive), then truncates to 1000 characters.
func SanitizeForSecurity(input string) string {
	replacer := strings.NewReplacer(
		"<", "",
		">", "",
		"\"", "",
		"'", "",
		"&", "",
		";", "",
	)
	out := replacer.Replace(input)

	for _, kw := range scriptKeywords {
		out = stripKeyword(out, kw)
	}

	runes := []rune(out)
	if len(runes) > maxSanitizedLength {
		out = string(runes[:maxSanitizedLength])
	}
	return out
}

// stripKeyword removes every occurrence of kw ignoring case, repeating until
// none remain so that interleaved occurrences cannot reassemble the keyword.
func stripKeyword(s, kw string) string {
	for {
		start, end := foldIndex(s, kw)
		if start < 0 {
			return s
		}
		s = s[:start] + s[end:]
	}
}

// foldIndex returns the byte bounds of the first case-insensitive occurrence
// of kw in s, or (-1, -1). It walks s rune by rune, so a rune whose lowered
// form has a different byte length (Kelvin sign, "Ⱥ") can never misalign the
// slice bounds. kw must be lowercase ASCII.
func foldIndex(s, kw string) (int, int) {
	want := []rune(kw)

	for i := 0; i < len(s); {
		j := i
		matched := true
		for _, w := range want {
			r, size := utf8.DecodeRuneInString(s[j:])
			if size == 0 || unicode.ToLower(r) != w {
				matched = false
				break
			}
			j += size
		}
		if matched {
			return i, j
		}

		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}

	return -1, -1
}
