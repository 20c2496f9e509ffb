package types

import "net/url"

// DetectionMethod records how an outlet's website was found.
type DetectionMethod string

const (
	DetectedBySearch      DetectionMethod = "search"
	DetectedByConstructed DetectionMethod = "constructed"
)

// ResolvedSite is the canonical website of an outlet. It is passed downstream
// and never persisted.
type ResolvedSite struct {
	BaseURL string          `json:"baseUrl"`
	Host    string          `json:"host"`
	Method  DetectionMethod `json:"method"`

	// Provider is the search backend that produced the result, if any.
	Provider string `json:"provider,omitempty"`
	Score    int    `json:"score"`
}

// NewResolvedSite normalizes rawURL to scheme://host and returns the site.
func NewResolvedSite(rawURL string, method DetectionMethod, score int) (*ResolvedSite, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, ErrInvalidURL
	}
	return &ResolvedSite{
		BaseURL: u.Scheme + "://" + u.Host,
		Host:    u.Hostname(),
		Method:  method,
		Score:   score,
	}, nil
}

// Rebase returns a copy of s served from rawURL's origin, keeping how the
// site was found.
func (s *ResolvedSite) Rebase(rawURL string) (*ResolvedSite, error) {
	moved, err := NewResolvedSite(rawURL, s.Method, s.Score)
	if err != nil {
		return nil, err
	}
	moved.Provider = s.Provider
	return moved, nil
}

// Resolve turns a path or relative reference into an absolute URL on the site.
func (s *ResolvedSite) Resolve(ref string) string {
	base, err := url.Parse(s.BaseURL)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(r).String()
}
