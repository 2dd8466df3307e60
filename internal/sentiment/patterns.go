package sentiment

import (
	"fmt"
	"regexp"
	"strings"
)

var defaultPatternWeights = map[string]int{
	// negative
	`never\s+buy\s+again`:        -3,
	`won'?t\s+buy\s+again`:       -3,
	`no\s+flavor`:                -2,
	`no\s+taste`:                 -2,
	`arrived\s+.*melted`:         -3,
	`solid\s+mass\s+of\s+melted`: -3,
	`stale`:                      -3,
	`diarrhea`:                   -3,
	`itching\s+increased`:        -3,
	`too\s+expensive`:            -2,
	`not\s+as\s+advertised`:      -3,
	`would\s+not\s+buy\s+again`:  -3,

	// positive
	`highly\s+recommend`:      3,
	`definitely\s+recommend`:  3,
	`love\s+this`:             2,
	`very\s+satisfied`:        2,
	`great\s+taste`:           2,
	`delicious`:               2,
	`arrived\s+on\s+time`:     2,
	`works\s+wonders`:         3,
	`great\s+deal`:            2,
	`fresh\s+and\s+delicious`: 2,
}

// PatternRule is a compiled expression and the weight it adds on a match.
type PatternRule struct {
	Expr   string
	Weight int
	re     *regexp.Regexp
}

// PatternTable is an unordered set of pattern rules keyed by expression.
// Contributions are additive, so evaluation order never affects a score.
type PatternTable struct {
	rules map[string]PatternRule
}

// NewPatternTable compiles every expression in weights. \s and \S are
// widened to the full Unicode whitespace set, so a no-break space or a
// vertical tab separates words the same way a plain space does.
func NewPatternTable(weights map[string]int) (PatternTable, error) {
	t := PatternTable{rules: make(map[string]PatternRule, len(weights))}
	for expr, w := range weights {
		re, err := regexp.Compile(widenSpace(expr))
		if err != nil {
			return PatternTable{}, fmt.Errorf("compiling pattern %q: %w", expr, err)
		}
		t.rules[expr] = PatternRule{Expr: expr, Weight: w, re: re}
	}
	return t, nil
}

// DefaultPatternTable returns the built-in multi-word overrides.
func DefaultPatternTable() PatternTable {
	t, err := NewPatternTable(defaultPatternWeights)
	if err != nil {
		panic(fmt.Sprintf("sentiment: default patterns: %v", err))
	}
	return t
}

// Score sums the weight of every rule that matches anywhere in text. A rule
// counts once no matter how many times it matches.
func (t PatternTable) Score(text string) int {
	score := 0
	for _, r := range t.rules {
		if r.re.MatchString(text) {
			score += r.Weight
		}
	}
	return score
}

// Matches returns the rules that match text, for diagnostics.
func (t PatternTable) Matches(text string) []PatternRule {
	var out []PatternRule
	for _, r := range t.rules {
		if r.re.MatchString(text) {
			out = append(out, r)
		}
	}
	return out
}

// spaceClass is a character class body covering RE2's \s plus \v, NEL, the
// Z category (NBSP, U+2000..U+200A, ...) and the ASCII separators 0x1c..0x1f.
const spaceClass = `\s\v\x{85}\p{Z}\x{1c}-\x{1f}`

// widenSpace rewrites \s and \S in expr using spaceClass. Inside a bracket
// expression only \s is widened.
func widenSpace(expr string) string {
	var b strings.Builder
	inClass := false
	for i := 0; i < len(expr); i++ {
		c := expr[i]
		if c == '\\' && i+1 < len(expr) {
			next := expr[i+1]
			i++
			switch {
			case next == 's' && inClass:
				b.WriteString(spaceClass)
			case next == 's':
				b.WriteString("[" + spaceClass + "]")
			case next == 'S' && !inClass:
				b.WriteString("[^" + spaceClass + "]")
			default:
				b.WriteByte(c)
				b.WriteByte(next)
			}
			continue
		}
		switch {
		case c == '[' && inClass && strings.HasPrefix(expr[i:], "[:"):
			// POSIX class such as [:alpha:] inside a bracket expression
			if end := strings.Index(expr[i:], ":]"); end >= 0 {
				b.WriteString(expr[i : i+end+2])
				i += end + 1
				continue
			}
		case c == '[':
			inClass = true
		case c == ']':
			inClass = false
		}
		b.WriteByte(c)
	}
	return b.String()
}
