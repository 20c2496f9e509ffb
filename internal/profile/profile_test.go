package profile

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshulAlgoS/AtenFlux/internal/config"
	"github.com/AnshulAlgoS/AtenFlux/internal/search"
	"github.com/AnshulAlgoS/AtenFlux/internal/types"
	"github.com/AnshulAlgoS/AtenFlux/internal/webtest"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

const base = "https://www.example.in"

const fullProfile = `<html><head><title>Asha Verma</title></head><body>
<header><a href="https://twitter.com/exampletimes">Follow us</a></header>
<div class="author-header">
  <div class="author-image"><img src="/img/asha.jpg"></div>
  <h1>Asha Verma</h1>
  <span class="designation">Senior Correspondent, Politics</span>
  <p class="author-bio">Asha Verma covers national politics and elections for Example Times from New Delhi.</p>
  <a href="mailto:asha.verma@example.in">Email</a>
  <a href="https://twitter.com/intent/tweet?url=x">Share</a>
  <a href="https://twitter.com/ashaverma">@ashaverma</a>
  <a href="https://www.linkedin.com/in/asha-verma">LinkedIn</a>
  <a href="https://www.facebook.com/sharer/sharer.php?u=x">Share on Facebook</a>
</div>
<section>
  <div class="story-card"><h3><a href="/india/assembly-polls-phase-two-ends">Assembly polls: phase two ends</a></h3></div>
  <div class="story-card"><h3><a href="/india/parliament-session-begins-today">Parliament session begins</a></h3></div>
  <div class="story-card"><h3><a href="/india/election-commission-announces-dates">Election Commission announces dates</a></h3></div>
</section>
<footer><a href="https://www.facebook.com/exampletimes">Facebook</a></footer>
</body></html>`

func newExtractor(web *webtest.Web, client *search.Client) *Extractor {
	cfg := config.DefaultConfig()
	cfg.Fetcher.RequestTimeout = time.Second
	return New(web, client, cfg, testLogger)
}

func site(t *testing.T) *types.ResolvedSite {
	t.Helper()
	s, err := types.NewResolvedSite(base, types.DetectedBySearch, 100)
	require.NoError(t, err)
	return s
}

func candidate(seeds ...types.Article) types.AuthorCandidate {
	return types.AuthorCandidate{
		Name:         "Asha Verma",
		ProfileURL:   base + "/author/asha-verma",
		Source:       types.SourceDirectory,
		SeedArticles: seeds,
	}
}

func TestExtractFullProfile(t *testing.T) {
	web := webtest.New().HTML(base+"/author/asha-verma", fullProfile)
	seed := []types.Article{
		{Title: "Parliament session begins", URL: base + "/india/parliament-session-begins-today"},
		{Title: "Budget explained", URL: base + "/business/budget-explained-in-charts"},
	}

	p := newExtractor(web, nil).Extract(context.Background(), candidate(seed...), site(t))
	assert.Equal(t, "Asha Verma", p.Name)
	assert.Equal(t, "Senior Correspondent, Politics", p.Role)
	assert.Contains(t, p.Bio, "covers national politics")
	assert.Equal(t, "asha.verma@example.in", p.Email)
	assert.Equal(t, base+"/img/asha.jpg", p.ProfilePicture)
	assert.Equal(t, "https://twitter.com/ashaverma", p.SocialLinks.Twitter)
	assert.Equal(t, "https://www.linkedin.com/in/asha-verma", p.SocialLinks.LinkedIn)
	assert.Empty(t, p.SocialLinks.Facebook, "share buttons and footer links are not accounts")

	require.Equal(t, 4, p.TotalArticles)
	assert.Len(t, p.Articles, 4)
	assert.Equal(t, "Assembly polls: phase two ends", p.Articles[0].Title)
	assert.Equal(t, base+"/business/budget-explained-in-charts", p.Articles[3].URL)
}

func TestExtractRelocatesFromHomepage(t *testing.T) {
	web := webtest.New().
		HTML(base+"/", `<html><body><a href="/people/asha-verma">ASHA  VERMA</a></body></html>`).
		HTML(base+"/people/asha-verma", fullProfile)

	p := newExtractor(web, nil).Extract(context.Background(), candidate(), site(t))
	assert.Equal(t, base+"/people/asha-verma", p.ProfileURL)
	assert.Equal(t, 3, p.TotalArticles)
}

func TestExtractStubWhenUnreachable(t *testing.T) {
	web := webtest.New().HTML(base+"/", `<html><body><a href="/people/someone-else">Rahul Mehta</a></body></html>`)

	p := newExtractor(web, nil).Extract(context.Background(), candidate(), site(t))
	require.NotNil(t, p)
	assert.Equal(t, "Journalist", p.Role)
	assert.Zero(t, p.TotalArticles)
	assert.NotNil(t, p.Articles)
	assert.Empty(t, p.Articles)
	assert.Equal(t, base+"/author/asha-verma", p.ProfileURL)
	assert.Zero(t, web.Hits(base+"/people/someone-else"))
}

func TestExtractStubKeepsSeedArticles(t *testing.T) {
	seed := types.Article{Title: "Budget explained", URL: base + "/business/budget-explained-in-charts"}

	p := newExtractor(webtest.New(), nil).Extract(context.Background(), candidate(seed, seed), site(t))
	assert.Equal(t, 1, p.TotalArticles)
	assert.Equal(t, types.SourceDirectory, p.Source)
}

func TestExtractFallsBackToAnchors(t *testing.T) {
	web := webtest.New().HTML(base+"/author/asha-verma", `<html><body>
<h1>Asha Verma</h1>
<ul>
<li><a href="/india/assembly-polls-phase-two-ends">Assembly polls phase two ends peacefully</a></li>
<li><a href="/india/parliament-session-begins-today">Parliament session begins today in Delhi</a></li>
<li><a href="/about">About us</a></li>
</ul></body></html>`)

	p := newExtractor(web, nil).Extract(context.Background(), candidate(), site(t))
	assert.Equal(t, 2, p.TotalArticles)
	assert.Equal(t, "Journalist", p.Role)
}

func TestExtractLinkedDataPerson(t *testing.T) {
	web := webtest.New().HTML(base+"/author/asha-verma", `<html><head>
<script type="application/ld+json">{"@context":"https://schema.org","@type":"ProfilePage","mainEntity":{
 "@type":"Person","name":"Asha Verma","jobTitle":"Political Editor",
 "description":"Asha Verma has reported on Indian politics for over a decade.",
 "image":{"url":"https://cdn.example.in/asha.png"},
 "sameAs":["https://x.com/ashaverma","https://www.instagram.com/ashaverma"]}}</script>
</head><body><h1>Asha Verma</h1></body></html>`)

	p := newExtractor(web, nil).Extract(context.Background(), candidate(), site(t))
	assert.Equal(t, "Political Editor", p.Role)
	assert.Equal(t, "Asha Verma has reported on Indian politics for over a decade.", p.Bio)
	assert.Equal(t, "https://cdn.example.in/asha.png", p.ProfilePicture)
	assert.Equal(t, "https://x.com/ashaverma", p.SocialLinks.Twitter)
	assert.Equal(t, "https://www.instagram.com/ashaverma", p.SocialLinks.Instagram)
	assert.Equal(t, 2, p.SocialLinks.Count())
}

func TestExtractSearchesWhenPageHasNoArticles(t *testing.T) {
	web := webtest.New().
		HTML(base+"/author/asha-verma", `<html><body><h1>Asha Verma</h1></body></html>`).
		Route("https://bing.test/", func(u *url.URL) webtest.Page {
			assert.Equal(t, `"Asha Verma" site:www.example.in`, u.Query().Get("q"))
			return webtest.Page{Status: 200, ContentType: "text/html", Body: `
<li class="b_algo"><h2><a href="https://www.example.in/india/assembly-polls-phase-two-ends">Assembly polls</a></h2></li>
<li class="b_algo"><h2><a href="https://elsewhere.com/india/assembly-polls-phase-two-ends">Mirror</a></h2></li>`}
		})
	cfg := config.DefaultConfig()
	cfg.Search.Providers = []string{"bing"}
	cfg.Search.Endpoints = map[string]string{"bing": "https://bing.test/search"}
	client, err := search.NewClient(cfg.Search, web, time.Second, testLogger)
	require.NoError(t, err)

	p := newExtractor(web, client).Extract(context.Background(), candidate(), site(t))
	require.Equal(t, 1, p.TotalArticles, "requested: %v", web.Requested())
	assert.Equal(t, "Assembly polls", p.Articles[0].Title)
}

func TestExtractCapsArticles(t *testing.T) {
	var b strings.Builder
	b.WriteString(`<html><body>`)
	for i := 0; i < 80; i++ {
		fmt.Fprintf(&b, `<article><h2><a href="/india/story-%d-about-something-big">Story %d</a></h2></article>`, i, i)
	}
	b.WriteString(`</body></html>`)
	web := webtest.New().HTML(base+"/author/asha-verma", b.String())

	p := newExtractor(web, nil).Extract(context.Background(), candidate(), site(t))
	assert.Equal(t, 50, p.TotalArticles)
}

func TestSocialLinksSkipShareIntents(t *testing.T) {
	s := socialLinks([]string{
		"https://twitter.com/intent/tweet?text=hi",
		"https://www.linkedin.com/shareArticle?url=x",
		"https://www.linkedin.com/company/example",
		"https://www.facebook.com/asha.verma",
		"/relative/link",
	})
	assert.Empty(t, s.Twitter)
	assert.Empty(t, s.LinkedIn)
	assert.Equal(t, "https://www.facebook.com/asha.verma", s.Facebook)
}

func TestMetaDescriptionBioNeedsProfilePage(t *testing.T) {
	const tagline = `<meta name="description" content="Example Times brings you the latest news from India and the world.">`
	web := webtest.New().
		HTML(base+"/author/asha-verma", `<html><head>`+tagline+`</head><body><h1>Asha Verma</h1></body></html>`).
		HTML(base+"/author/ravi-kumar", `<html><head><meta property="og:type" content="profile">
<meta name="description" content="Ravi Kumar writes about cricket and the business of sport."></head>
<body><h1>Ravi Kumar</h1></body></html>`)
	e := newExtractor(web, nil)

	p := e.Extract(context.Background(), candidate(), site(t))
	assert.Empty(t, p.Bio)

	ravi := types.AuthorCandidate{Name: "Ravi Kumar", ProfileURL: base + "/author/ravi-kumar", Source: types.SourceDirectory}
	p = e.Extract(context.Background(), ravi, site(t))
	assert.Equal(t, "Ravi Kumar writes about cricket and the business of sport.", p.Bio)
}

func TestExtractRejectsRedirectToHomepage(t *testing.T) {
	web := webtest.New().
		Redirect(base+"/author/asha-verma", "/").
		Redirect(base+"/author/ravi-kumar", "/").
		HTML(base+"/", `<html><body><main>
<a href="/india/assembly-polls-phase-two-ends">Assembly polls phase two ends peacefully</a>
<a href="/india/parliament-session-begins-today">Parliament session begins today in Delhi</a>
</main></body></html>`)
	e := newExtractor(web, nil)

	asha := e.Extract(context.Background(), candidate(), site(t))
	ravi := e.Extract(context.Background(), types.AuthorCandidate{
		Name: "Ravi Kumar", ProfileURL: base + "/author/ravi-kumar", Source: types.SourceConstructed,
	}, site(t))

	assert.Equal(t, base+"/author/asha-verma", asha.ProfileURL)
	assert.Equal(t, base+"/author/ravi-kumar", ravi.ProfileURL)
	assert.Zero(t, asha.TotalArticles, "homepage stories are nobody's byline")
	assert.Zero(t, ravi.TotalArticles)
}

func TestExtractFollowsRedirectBetweenProfilePaths(t *testing.T) {
	web := webtest.New().
		Redirect(base+"/author/asha-verma", "/authors/asha-verma-1234").
		HTML(base+"/authors/asha-verma-1234", fullProfile)

	p := newExtractor(web, nil).Extract(context.Background(), candidate(), site(t))
	assert.Equal(t, base+"/authors/asha-verma-1234", p.ProfileURL)
	assert.Equal(t, 3, p.TotalArticles)
}
