// Package rating parses "note <name> <comment with a 1-5 score>" commands
// and resolves the carrier they target.
package rating

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/jmehdipour/parcel-relay/internal/model"
)

// Keyword starts a rating command.
const Keyword = "note"

var (
	ErrFormat = errors.New("rating: malformed command")
	ErrScore  = errors.New("rating: score out of range")
)

var digitRun = regexp.MustCompile(`\d+`)

// Command is a parsed rating command.
type Command struct {
	Name    string
	Score   int
	Comment string
}

// IsCommand reports whether text is addressed to the rating recorder.
func IsCommand(text string) bool {
	f := strings.Fields(text)
	return len(f) > 0 && strings.EqualFold(f[0], Keyword)
}

// Parse splits a rating command. The name is the first token after the keyword,
// the score is the last digit run of the rest, and the comment is the rest with
// that run removed.
func Parse(text string) (Command, error) {
	f := strings.Fields(text)
	if len(f) < 3 || !strings.EqualFold(f[0], Keyword) {
		return Command{}, ErrFormat
	}

	name := f[1]
	rest := strings.Join(f[2:], " ")

	locs := digitRun.FindAllStringIndex(rest, -1)
	if len(locs) == 0 {
		return Command{}, ErrFormat
	}
	last := locs[len(locs)-1]

	score, err := strconv.Atoi(rest[last[0]:last[1]])
	if err != nil || score < model.MinScore || score > model.MaxScore {
		return Command{}, ErrScore
	}

	comment := strings.Join(strings.Fields(rest[:last[0]]+" "+rest[last[1]:]), " ")

	return Command{Name: name, Score: score, Comment: comment}, nil
}
