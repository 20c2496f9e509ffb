package names

import (
	"regexp"
	"strings"
)

// bylinePrefix matches "By", localized equivalents and "Written by"-style
// lead-ins at the start of a byline.
var bylinePrefix = regexp.MustCompile(`(?i)^\s*(?:written\s+by|posted\s+by|reported\s+by|edited\s+by|by|por|von|par|द्वारा)\s*[:\-–]?\s+`)

// roleSuffix matches trailing role words after a name ("Asha Verma, Senior Correspondent").
var roleSuffix = regexp.MustCompile(`(?i)\s+(?:senior|chief|special|principal|staff|associate|deputy|assistant)?\s*(?:correspondent|reporter|editor|writer|journalist|columnist|contributor)\b.*$`)

// bylineSeparators split co-authored or annotated bylines; only the first
// author is kept.
var bylineSeparators = regexp.MustCompile(`(?i)\s*(?:,|\||\band\b|&|\bwith\b|\bupdated\b|\bpublished\b|•|·)\s*`)

// CleanByline strips common decoration from a byline string and returns the
// first name it contains. The result is not validated.
func CleanByline(s string) string {
	s = Collapse(s)
	s = bylinePrefix.ReplaceAllString(s, "")
	if loc := bylineSeparators.FindStringIndex(s); loc != nil && loc[0] > 0 {
		s = s[:loc[0]]
	}
	s = roleSuffix.ReplaceAllString(s, "")
	return strings.Trim(Collapse(s), " .:-–|")
}
