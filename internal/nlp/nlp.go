// Package nlp derives keywords, topics and an influence score from a profile.
package nlp

import (
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/AnshulAlgoS/AtenFlux/internal/types"
)

const (
	// MaxKeywords is how many keywords are stored.
	MaxKeywords = 15
	// TopKeywords is how many of them are surfaced separately.
	TopKeywords = 5

	// GeneralTopic is assigned when articles exist but no category matches.
	GeneralTopic = "General"

	minTokenRunes  = 3
	articleCap     = 50
	bioBonusLength = 50
)

// Signals are the derived fields of a profile.
type Signals struct {
	Keywords       []string `json:"keywords"`
	TopKeywords    []string `json:"topKeywords"`
	Topics         []string `json:"topics"`
	InfluenceScore int      `json:"influenceScore"`
}

// Enricher computes Signals. It holds no state and is safe for concurrent use.
type Enricher struct{}

// NewEnricher creates an Enricher.
func NewEnricher() *Enricher { return &Enricher{} }

// Enrich computes the signals for p from its article titles and bio.
func (e *Enricher) Enrich(p *types.AuthorProfile) Signals {
	titles := make([]string, 0, len(p.Articles))
	for _, a := range p.Articles {
		if t := strings.TrimSpace(a.Title); t != "" {
			titles = append(titles, t)
		}
	}

	keywords := Keywords(titles, MaxKeywords)
	top := keywords
	if len(top) > TopKeywords {
		top = top[:TopKeywords]
	}

	text := strings.ToLower(strings.Join(append(titles, p.Bio), " "))
	topics := Topics(text)
	if len(topics) == 0 && len(p.Articles) > 0 {
		topics = []string{GeneralTopic}
	}

	return Signals{
		Keywords:       keywords,
		TopKeywords:    append([]string(nil), top...),
		Topics:         topics,
		InfluenceScore: Influence(len(p.Articles), len(topics), p.SocialLinks.Count(), utf8.RuneCountInString(p.Bio), p.ProfilePicture != ""),
	}
}

// Apply enriches p in place.
func (e *Enricher) Apply(p *types.AuthorProfile) {
	s := e.Enrich(p)
	p.Keywords = s.Keywords
	p.TopKeywords = s.TopKeywords
	p.Topics = s.Topics
	p.InfluenceScore = s.InfluenceScore
}

// Influence is min(articles,50)*2 + topics*5 + social*10 + 15 for a bio over
// 50 characters + 10 for a profile picture.
func Influence(articles, topics, social, bioLen int, hasPicture bool) int {
	score := min(articles, articleCap)*2 + topics*5 + social*10
	if bioLen > bioBonusLength {
		score += 15
	}
	if hasPicture {
		score += 10
	}
	return score
}

// Tokenize lower-cases s and splits it into words, dropping stop-words,
// numbers and tokens shorter than three characters.
func Tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.Is(unicode.Mn, r) && !unicode.Is(unicode.Mc, r)
	})
	var out []string
	for _, f := range fields {
		if utf8.RuneCountInString(f) < minTokenRunes || stopWords[f] || isNumber(f) {
			continue
		}
		out = append(out, f)
	}
	return out
}

func isNumber(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// Keywords ranks the tokens of docs by TF-IDF, treating each title as a
// document, and returns at most n. Ties break alphabetically.
func Keywords(docs []string, n int) []string {
	if len(docs) == 0 || n <= 0 {
		return []string{}
	}
	tf := make(map[string]int)
	df := make(map[string]int)
	for _, d := range docs {
		seen := make(map[string]bool)
		for _, tok := range Tokenize(d) {
			tf[tok]++
			if !seen[tok] {
				seen[tok] = true
				df[tok]++
			}
		}
	}

	type scored struct {
		term  string
		score float64
	}
	total := float64(len(docs))
	ranked := make([]scored, 0, len(tf))
	for term, count := range tf {
		idf := math.Log(1+total/float64(df[term])) + 1
		ranked = append(ranked, scored{term, float64(count) * idf})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].term < ranked[j].term
	})

	out := make([]string, 0, min(n, len(ranked)))
	for _, s := range ranked {
		if len(out) == n {
			break
		}
		out = append(out, s.term)
	}
	return out
}
