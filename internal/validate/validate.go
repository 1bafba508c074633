// Package validate holds the pure input checks used by the conversation engine.
package validate

import (
	"regexp"
	"strings"
	"time"

	"github.com/jmehdipour/parcel-relay/internal/model"
)

var isoDate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Date accepts exactly YYYY-MM-DD and rejects impossible calendar dates.
func Date(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if !isoDate.MatchString(s) {
		return time.Time{}, false
	}
	t, err := time.Parse(model.DateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Text returns the trimmed input and whether it is non-empty.
func Text(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != ""
}

// Choice reports whether input is exactly one of the allowed tokens.
// The engine trims each message before dispatch, so " 1 " arrives here as "1".
// Choice itself neither trims nor parses integers: "01" is not "1".
func Choice(input string, allowed ...string) bool {
	for _, a := range allowed {
		if input == a {
			return true
		}
	}
	return false
}

// TitleCase capitalizes the first letter of each word ("paris nord" -> "Paris Nord").
func TitleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(strings.ToLower(w))
		r[0] = []rune(strings.ToUpper(string(r[0])))[0]
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
