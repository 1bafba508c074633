package rating

import (
	"strings"

	"github.com/jmehdipour/parcel-relay/internal/model"
)

type Resolution int

const (
	NotFound Resolution = iota
	Resolved
	Ambiguous
)

// Resolve picks the carrier a name token designates among candidates.
// A case-insensitive exact match wins; otherwise a single prefix match is accepted.
// Several matches at the same level are reported as Ambiguous, never guessed.
func Resolve(token string, candidates []model.User) (model.User, Resolution) {
	token = strings.ToLower(strings.TrimSpace(token))
	if token == "" {
		return model.User{}, NotFound
	}

	var exact, prefix []model.User
	for _, c := range candidates {
		if !c.IsCarrier() || !c.Name.Valid {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(c.Name.String))
		switch {
		case name == token:
			exact = append(exact, c)
		case strings.HasPrefix(name, token):
			prefix = append(prefix, c)
		}
	}

	for _, set := range [][]model.User{exact, prefix} {
		switch len(set) {
		case 0:
			continue
		case 1:
			return set[0], Resolved
		default:
			return model.User{}, Ambiguous
		}
	}
	return model.User{}, NotFound
}
