package keywords

import (
	"strings"
	"unicode"

	"github.com/samber/lo"
)

// Normalize joins texts with a single space, removes every character that is
// not a word character or whitespace, lowercases, splits on whitespace and
// drops stoplisted tokens. No stemming is applied.
func Normalize(texts []string, stops *Stoplist) []string {
	if len(texts) == 0 {
		return nil
	}

	joined := strings.Join(texts, " ")
	cleaned := strings.ToLower(strings.Map(keepWordRune, joined))
	words := strings.Fields(cleaned)
	if len(words) == 0 {
		return nil
	}

	return lo.Filter(words, func(w string, _ int) bool {
		return !stops.IsStop(w)
	})
}

// keepWordRune mirrors the Unicode reading of `[\w\s]`: letters, combining
// marks, numbers, underscore and whitespace survive, everything else is dropped.
func keepWordRune(r rune) rune {
	if unicode.IsLetter(r) || unicode.IsMark(r) || unicode.IsNumber(r) || r == '_' || unicode.IsSpace(r) {
		return r
	}
	return -1
}
