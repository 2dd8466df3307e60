// Package sentiment implements the rule-based review scorer: a word lexicon
// with single-token "not" negation, an unordered table of weighted regular
// expressions evaluated against the whole text, and fixed label thresholds.
//
// Rule values are built once and never mutated, so a Scorer may be shared by
// any number of goroutines.
package sentiment

var defaultPositiveWords = []string{
	"good", "great", "excellent", "amazing", "love",
	"awesome", "fantastic", "perfect", "nice", "satisfied",
	"delicious", "fresh", "happy",
}

var defaultNegativeWords = []string{
	"bad", "worst", "poor", "terrible", "hate",
	"awful", "disappointed", "broken", "damaged",
	"stale", "mushy", "expensive",
}

// Lexicon holds the single-word polarity sets.
type Lexicon struct {
	positive map[string]struct{}
	negative map[string]struct{}
}

// NewLexicon builds a Lexicon from word lists. Words are matched against
// lowercased tokens, so callers pass them in lowercase.
func NewLexicon(positive, negative []string) Lexicon {
	l := Lexicon{
		positive: make(map[string]struct{}, len(positive)),
		negative: make(map[string]struct{}, len(negative)),
	}
	for _, w := range positive {
		l.positive[w] = struct{}{}
	}
	for _, w := range negative {
		l.negative[w] = struct{}{}
	}
	return l
}

// DefaultLexicon returns the built-in review vocabulary.
func DefaultLexicon() Lexicon {
	return NewLexicon(defaultPositiveWords, defaultNegativeWords)
}

// Polarity returns +1 for a positive word, -1 for a negative word and 0
// otherwise. A word listed in both sets nets to 0.
func (l Lexicon) Polarity(word string) int {
	p := 0
	if _, ok := l.positive[word]; ok {
		p++
	}
	if _, ok := l.negative[word]; ok {
		p--
	}
	return p
}

func (l Lexicon) PositiveWords() []string { return keys(l.positive) }

func (l Lexicon) NegativeWords() []string { return keys(l.negative) }

func keys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
