// Package sentiment scores text polarity by summing word valences from an
// AFINN-style lexicon.
package sentiment

import (
	"bufio"
	_ "embed"
	"strconv"
	"strings"
	"unicode"
)

//go:embed lexicon.txt
var lexiconData string

var lexicon = parseLexicon(lexiconData)

var negators = map[string]struct{}{
	"not": {}, "no": {}, "never": {}, "nor": {}, "neither": {}, "none": {}, "nothing": {}, "nobody": {},
	"don't": {}, "dont": {}, "doesn't": {}, "didn't": {}, "isn't": {}, "aren't": {}, "wasn't": {},
	"weren't": {}, "can't": {}, "cant": {}, "cannot": {}, "won't": {}, "wouldn't": {}, "shouldn't": {},
	"couldn't": {}, "hardly": {}, "barely": {},
}

type Result struct {
	Score       int      `json:"score"`
	Comparative float64  `json:"comparative"`
	Tokens      []string `json:"tokens"`
	Positive    []string `json:"positive"`
	Negative    []string `json:"negative"`
}

// Analyze returns the lexicon sum for text. A word directly preceded by a
// negator counts with its sign flipped.
func Analyze(text string) Result {
	tokens := Tokenize(text)
	res := Result{Tokens: tokens}

	for i, tok := range tokens {
		value, ok := lexicon[tok]
		if !ok || value == 0 {
			continue
		}
		if i > 0 {
			if _, negated := negators[tokens[i-1]]; negated {
				value = -value
			}
		}
		res.Score += value
		if value > 0 {
			res.Positive = append(res.Positive, tok)
		} else {
			res.Negative = append(res.Negative, tok)
		}
	}
	if len(tokens) > 0 {
		res.Comparative = float64(res.Score) / float64(len(tokens))
	}
	return res
}

// Tokenize lowercases text and splits it into words and standalone symbols
// such as emoji. Apostrophes stay inside words.
func Tokenize(text string) []string {
	var (
		tokens []string
		word   strings.Builder
	)
	flush := func() {
		if word.Len() > 0 {
			tokens = append(tokens, word.String())
			word.Reset()
		}
	}

	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			word.WriteRune(r)
		case r == '\'' || r == '’':
			if word.Len() > 0 {
				word.WriteRune('\'')
			}
		case unicode.Is(unicode.So, r):
			flush()
			tokens = append(tokens, string(r))
		case unicode.Is(unicode.Mn, r) || r == '‍':
			// variation selectors and joiners
		default:
			flush()
		}
	}
	flush()
	return tokens
}

func parseLexicon(data string) map[string]int {
	out := make(map[string]int)
	scanner := bufio.NewScanner(strings.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		word, raw, ok := strings.Cut(line, "\t")
		if !ok {
			continue
		}
		value, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			continue
		}
		out[strings.TrimSpace(word)] = value
	}
	return out
}
