package sentiment

import "strings"

const negator = "not"

// Scorer turns free text into an integer sentiment score.
type Scorer struct {
	lexicon  Lexicon
	patterns PatternTable
}

func NewScorer(lexicon Lexicon, patterns PatternTable) *Scorer {
	return &Scorer{lexicon: lexicon, patterns: patterns}
}

// DefaultScorer returns a Scorer over the built-in lexicon and patterns.
func DefaultScorer() *Scorer {
	return NewScorer(DefaultLexicon(), DefaultPatternTable())
}

// Score lowercases text, adds the polarity of each whitespace token (inverted
// when the previous token is exactly "not"), then adds the weight of every
// pattern found in the unsplit text.
//
// Word and pattern rules are not deduplicated: "stale" scores -1 as a word
// and -3 as a pattern, -4 in total. Existing result tables depend on this.
func (s *Scorer) Score(text string) int {
	text = strings.ToLower(text)
	words := strings.Fields(text)

	score := 0
	for i, word := range words {
		p := s.lexicon.Polarity(word)
		if p == 0 {
			continue
		}
		if i > 0 && words[i-1] == negator {
			p = -p
		}
		score += p
	}

	return score + s.patterns.Score(text)
}
