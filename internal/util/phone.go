package util

import (
	"regexp"
	"strings"
)

var (
	nonPhoneChars = regexp.MustCompile(`[^\d\+]+`)
	phoneLike     = regexp.MustCompile(`^\+?[\d\s().-]+$`)
)

// NormalizePhone tries to normalize user input into E.164-like format.
func NormalizePhone(raw string) string {
	s := nonPhoneChars.ReplaceAllString(strings.TrimSpace(raw), "")

	if strings.HasPrefix(s, "00") {
		s = "+" + s[2:]
	}

	return s
}

// NormalizeAddress turns a raw sender address ("whatsapp:+33 6 12...", "sms:0033...")
// into the stable identity used to key users.
func NormalizeAddress(raw string) string {
	s := strings.TrimSpace(raw)
	if i := strings.LastIndex(s, ":"); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSpace(s)
	if phoneLike.MatchString(s) {
		if p := NormalizePhone(s); p != "" && p != "+" {
			return p
		}
	}
	// non-phone identities (e.g. test channels) are kept whole, lowercased
	return strings.ToLower(s)
}
