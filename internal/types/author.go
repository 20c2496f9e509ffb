package types

// AuthorSource tags where a candidate came from.
type AuthorSource string

const (
	SourceDirectory     AuthorSource = "directory"
	SourceArticleByline AuthorSource = "articleByline"
	SourceMetaTag       AuthorSource = "metaTag"
	SourceConstructed   AuthorSource = "constructed"
	SourceSearch        AuthorSource = "search"
)

// AuthorCandidate is an unverified author pending profile extraction.
//
// Directory candidates carry a profile link scraped from a staff listing.
// Article-derived candidates carry the articles they were found on as
// SeedArticles, so a profile with no reachable page still has content.
type AuthorCandidate struct {
	Name         string       `json:"name"`
	ProfileURL   string       `json:"profileUrl"`
	Source       AuthorSource `json:"source"`
	SeedArticles []Article    `json:"seedArticles,omitempty"`
}

// FromDirectory reports whether the candidate was read off a directory page.
func (c AuthorCandidate) FromDirectory() bool {
	return c.Source == SourceDirectory
}
