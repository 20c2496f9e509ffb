package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// MetaContent returns the content attribute of the first meta tag whose name,
// property or itemprop equals one of keys, tried in key order.
func MetaContent(doc *goquery.Document, keys ...string) (string, string, bool) {
	root := rootNode(doc)
	if root == nil {
		return "", "", false
	}
	for _, key := range keys {
		expr := `//meta[@name="` + key + `" or @property="` + key + `" or @itemprop="` + key + `"]`
		nodes, err := htmlquery.QueryAll(root, expr)
		if err != nil {
			continue
		}
		for _, node := range nodes {
			if v := strings.TrimSpace(htmlquery.SelectAttr(node, "content")); v != "" {
				return v, key, true
			}
		}
	}
	return "", "", false
}

// XPathTexts returns the trimmed inner text of every node matching expr.
func XPathTexts(doc *goquery.Document, expr string) []string {
	root := rootNode(doc)
	if root == nil {
		return nil
	}
	nodes, err := htmlquery.QueryAll(root, expr)
	if err != nil {
		return nil
	}
	var values []string
	for _, node := range nodes {
		if v := collapse(htmlquery.InnerText(node)); v != "" {
			values = append(values, v)
		}
	}
	return values
}

func rootNode(doc *goquery.Document) *html.Node {
	if doc == nil || doc.Selection == nil || len(doc.Nodes) == 0 {
		return nil
	}
	return doc.Get(0)
}
