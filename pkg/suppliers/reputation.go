package suppliers

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

const (
	MinReputation = 0
	MaxReputation = 5
)

//go:embed data/reputation.yaml
var reputationYAML []byte

// Reputation is the keyword-based score of a search snippet.
type Reputation struct {
	Score    int      `json:"score"`
	Positive []string `json:"positive,omitempty"`
	Negative []string `json:"negative,omitempty"`
}

// Stars renders the score as five filled/empty stars.
func (r Reputation) Stars() string {
	return strings.Repeat("★", r.Score) + strings.Repeat("☆", MaxReputation-r.Score)
}

type keyword struct {
	word   string // como escrito no arquivo
	folded string
}

type lexicon struct {
	base     int
	positive []keyword
	negative []keyword
}

var (
	lexOnce sync.Once
	lex     *lexicon
	lexErr  error
)

func loadLexicon() *lexicon {
	lexOnce.Do(func() {
		lex, lexErr = parseLexicon(reputationYAML)
	})
	if lexErr != nil {
		panic(lexErr)
	}
	return lex
}

func parseLexicon(raw []byte) (*lexicon, error) {
	var f struct {
		Base     int      `yaml:"base"`
		Positive []string `yaml:"positive"`
		Negative []string `yaml:"negative"`
	}
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("suppliers: decode reputation keywords: %w", err)
	}
	if f.Base < MinReputation || f.Base > MaxReputation {
		return nil, fmt.Errorf("suppliers: reputation base %d out of range", f.Base)
	}

	l := &lexicon{base: f.Base}
	for _, w := range f.Positive {
		l.positive = append(l.positive, keyword{word: w, folded: Fold(w)})
	}
	for _, w := range f.Negative {
		l.negative = append(l.negative, keyword{word: w, folded: Fold(w)})
	}
	return l, nil
}

// Fold lowercases s and strips diacritics ("Reclamação" → "reclamacao").
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// ScoreReputation starts at the base score, adds one per positive keyword
// found in text and subtracts one per negative keyword, clamped to [0, 5].
func ScoreReputation(text string) Reputation {
	l := loadLexicon()
	folded := Fold(text)

	r := Reputation{Score: l.base}
	for _, k := range l.positive {
		if strings.Contains(folded, k.folded) {
			r.Positive = append(r.Positive, k.word)
			r.Score++
		}
	}
	for _, k := range l.negative {
		if strings.Contains(folded, k.folded) {
			r.Negative = append(r.Negative, k.word)
			r.Score--
		}
	}

	r.Score = max(MinReputation, min(MaxReputation, r.Score))
	return r
}
