package parser

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// StructuredDataType identifies the type of structured data.
type StructuredDataType string

const (
	JSONLD    StructuredDataType = "json-ld"
	OpenGraph StructuredDataType = "opengraph"
	MetaTags  StructuredDataType = "meta"
)

// StructuredData represents extracted structured data from a page.
type StructuredData struct {
	Type StructuredDataType `json:"type"`
	Data map[string]any     `json:"data"`
}

// Person is an author reference from linked data.
type Person struct {
	Name  string
	URL   string
	Image string
}

// Extract finds and parses the structured data blocks used by the pipeline.
func Extract(doc *goquery.Document) []StructuredData {
	results := ExtractJSONLD(doc)

	og := StructuredData{Type: OpenGraph, Data: make(map[string]any)}
	doc.Find(`meta[property^="og:"]`).Each(func(_ int, sel *goquery.Selection) {
		property, _ := sel.Attr("property")
		content, _ := sel.Attr("content")
		if property != "" && content != "" {
			og.Data[strings.TrimPrefix(property, "og:")] = content
		}
	})
	if len(og.Data) > 0 {
		results = append(results, og)
	}

	meta := StructuredData{Type: MetaTags, Data: make(map[string]any)}
	if title := collapse(doc.Find("title").First().Text()); title != "" {
		meta.Data["title"] = title
	}
	for _, name := range []string{"description", "keywords", "author"} {
		if content, ok := doc.Find(`meta[name="` + name + `"]`).Attr("content"); ok && content != "" {
			meta.Data[name] = content
		}
	}
	if len(meta.Data) > 0 {
		results = append(results, meta)
	}
	return results
}

// ExtractJSONLD parses <script type="application/ld+json"> elements. Arrays and
// @graph containers are flattened into one entry per node.
func ExtractJSONLD(doc *goquery.Document) []StructuredData {
	var results []StructuredData

	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
		raw := strings.TrimSpace(sel.Text())
		if raw == "" {
			return
		}

		var data any
		if err := json.Unmarshal([]byte(raw), &data); err != nil {
			return
		}
		for _, node := range flattenLD(data) {
			results = append(results, StructuredData{Type: JSONLD, Data: node})
		}
	})

	return results
}

func flattenLD(v any) []map[string]any {
	switch t := v.(type) {
	case []any:
		var out []map[string]any
		for _, e := range t {
			out = append(out, flattenLD(e)...)
		}
		return out
	case map[string]any:
		out := []map[string]any{t}
		if graph, ok := t["@graph"]; ok {
			out = append(out, flattenLD(graph)...)
		}
		return out
	}
	return nil
}

// JSONLDAuthors returns every author referenced from linked data, in document
// order. The author field may be a string, an object or an array of either.
func JSONLDAuthors(doc *goquery.Document) []Person {
	var people []Person
	for _, sd := range ExtractJSONLD(doc) {
		for _, key := range []string{"author", "creator"} {
			if v, ok := sd.Data[key]; ok {
				people = append(people, toPeople(v)...)
			}
		}
	}
	return people
}

func toPeople(v any) []Person {
	switch t := v.(type) {
	case string:
		if s := collapse(t); s != "" {
			return []Person{{Name: s}}
		}
	case map[string]any:
		p := Person{Name: collapse(stringField(t, "name")), URL: stringField(t, "url")}
		if p.URL == "" {
			p.URL = stringField(t, "@id")
			if !strings.HasPrefix(p.URL, "http") {
				p.URL = ""
			}
		}
		switch img := t["image"].(type) {
		case string:
			p.Image = img
		case map[string]any:
			p.Image = stringField(img, "url")
		}
		if p.Name != "" {
			return []Person{p}
		}
	case []any:
		var out []Person
		for _, e := range t {
			out = append(out, toPeople(e)...)
		}
		return out
	}
	return nil
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return strings.TrimSpace(s)
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
