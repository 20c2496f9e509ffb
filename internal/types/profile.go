package types

import "time"

// SocialLinks holds an author's public social accounts.
type SocialLinks struct {
	Twitter   string `json:"twitter,omitempty"   bson:"twitter,omitempty"`
	LinkedIn  string `json:"linkedin,omitempty"  bson:"linkedin,omitempty"`
	Facebook  string `json:"facebook,omitempty"  bson:"facebook,omitempty"`
	Instagram string `json:"instagram,omitempty" bson:"instagram,omitempty"`
}

// Count returns how many links are present.
func (s SocialLinks) Count() int {
	n := 0
	for _, v := range []string{s.Twitter, s.LinkedIn, s.Facebook, s.Instagram} {
		if v != "" {
			n++
		}
	}
	return n
}

// AuthorProfile is the durable, enriched record for one author.
type AuthorProfile struct {
	Name           string       `json:"name"                     bson:"name"`
	ProfileURL     string       `json:"profileUrl"               bson:"profileUrl"`
	Source         AuthorSource `json:"source"                   bson:"source"`
	Outlet         string       `json:"outlet"                   bson:"outlet"`
	Bio            string       `json:"bio,omitempty"            bson:"bio,omitempty"`
	Role           string       `json:"role"                     bson:"role"`
	Email          string       `json:"email,omitempty"          bson:"email,omitempty"`
	ProfilePicture string       `json:"profilePicture,omitempty" bson:"profilePicture,omitempty"`
	SocialLinks    SocialLinks  `json:"socialLinks"              bson:"socialLinks"`
	Articles       []Article    `json:"articles"                 bson:"articles"`
	TotalArticles  int          `json:"totalArticles"            bson:"totalArticles"`
	Topics         []string     `json:"topics"                   bson:"topics"`
	Keywords       []string     `json:"keywords"                 bson:"keywords"`
	TopKeywords    []string     `json:"topKeywords"              bson:"topKeywords"`
	InfluenceScore int          `json:"influenceScore"           bson:"influenceScore"`
	CreatedAt      time.Time    `json:"createdAt"                bson:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"                bson:"updatedAt"`
}

// SetArticles replaces the article list and keeps TotalArticles in step.
func (p *AuthorProfile) SetArticles(articles []Article) {
	p.Articles = articles
	p.TotalArticles = len(articles)
}
