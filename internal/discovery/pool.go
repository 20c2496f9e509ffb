package discovery

import (
	"github.com/AnshulAlgoS/AtenFlux/internal/names"
	"github.com/AnshulAlgoS/AtenFlux/internal/types"
)

// pool accumulates candidates keyed by names.Key in first-seen order.
type pool struct {
	index map[string]int
	items []types.AuthorCandidate
	seeds []*types.ArticleSet
}

func newPool() *pool {
	return &pool{index: make(map[string]int)}
}

func (p *pool) Len() int { return len(p.items) }

func (p *pool) Has(name string) bool {
	_, ok := p.index[names.Key(name)]
	return ok
}

// Add inserts c or merges it into the existing entry with the same key.
// A known profile link replaces a synthesized one; seed articles accumulate.
func (p *pool) Add(c types.AuthorCandidate, seeds ...types.Article) bool {
	key := names.Key(c.Name)
	if key == "" {
		return false
	}
	i, ok := p.index[key]
	if !ok {
		i = len(p.items)
		p.index[key] = i
		c.SeedArticles = nil
		p.items = append(p.items, c)
		p.seeds = append(p.seeds, types.NewArticleSet())
	} else {
		cur := &p.items[i]
		if cur.Source == types.SourceConstructed && c.Source != types.SourceConstructed && c.ProfileURL != "" {
			cur.ProfileURL = c.ProfileURL
			cur.Source = c.Source
		}
	}
	for _, a := range seeds {
		p.seeds[i].Add(a)
	}
	return !ok
}

// Items returns the candidates with their seed articles attached.
func (p *pool) Items() []types.AuthorCandidate {
	out := make([]types.AuthorCandidate, len(p.items))
	for i, c := range p.items {
		if p.seeds[i].Len() > 0 {
			c.SeedArticles = append([]types.Article(nil), p.seeds[i].Items()...)
		}
		out[i] = c
	}
	return out
}
