package names

import (
	"strings"
	"unicode"
)

const (
	minNameRunes = 3
	maxNameRunes = 60
	maxNameWords = 5
)

// casedScripts require at least two words; a single capitalised token is more
// often a section label than a person.
var casedScripts = []*unicode.RangeTable{
	unicode.Latin, unicode.Cyrillic, unicode.Greek,
}

// caselessScripts allow single-token names.
var caselessScripts = []*unicode.RangeTable{
	unicode.Devanagari, unicode.Bengali, unicode.Gurmukhi, unicode.Gujarati,
	unicode.Tamil, unicode.Telugu, unicode.Kannada, unicode.Malayalam,
	unicode.Arabic, unicode.Han, unicode.Hiragana, unicode.Katakana,
	unicode.Hangul, unicode.Thai,
}

// blocklist holds lower-cased tokens and phrases that mark a byline as a desk,
// agency, section or page furniture rather than a person.
var blocklist = map[string]bool{
	// desks and agencies
	"desk": true, "bureau": true, "staff": true, "team": true, "newsroom": true,
	"news": true, "agency": true, "agencies": true, "correspondent": true,
	"pti": true, "ani": true, "ians": true, "uni": true, "reuters": true,
	"afp": true, "ap": true, "bloomberg": true, "xinhua": true, "wire": true,
	"editorial": true, "editor": true, "editors": true, "admin": true,
	"administrator": true, "webdesk": true, "web": true, "online": true,
	"digital": true, "guest": true, "contributor": true, "sponsored": true,
	"partner": true, "content": true, "press": true, "release": true,
	// sections
	"sports": true, "sport": true, "politics": true, "business": true,
	"technology": true, "tech": true, "entertainment": true, "lifestyle": true,
	"health": true, "world": true, "national": true, "opinion": true,
	"education": true, "science": true, "markets": true, "economy": true,
	"cricket": true, "bollywood": true, "city": true, "breaking": true,
	"latest": true, "trending": true, "videos": true, "video": true,
	"photos": true, "gallery": true, "live": true, "updates": true,
	// page furniture
	"read": true, "more": true, "share": true, "subscribe": true, "login": true,
	"sign": true, "home": true, "menu": true, "search": true, "advertisement": true,
	"follow": true, "comments": true, "click": true, "here": true,
	// hindi
	"संवाददाता": true, "डेस्क": true, "ब्यूरो": true, "समाचार": true, "न्यूज़": true,
	"एजेंसी": true, "टीम": true,
	// spanish / french / german / portuguese
	"redacción": true, "redaccion": true, "agencia": true, "noticias": true,
	"rédaction": true, "redaction": true, "équipe": true, "agence": true,
	"redaktion": true, "nachrichten": true, "redação": true,
}

// blockedPhrases are matched against the whole lower-cased name.
var blockedPhrases = []string{
	"read more", "news desk", "web desk", "staff reporter", "our correspondent",
	"special correspondent", "view all", "see all", "posted by", "written by",
	"edited by", "with inputs", "all rights",
}

// IsValidName reports whether s looks like a journalist's personal name.
func IsValidName(s string) bool {
	s = Collapse(s)
	n := len([]rune(s))
	if n < minNameRunes || n > maxNameRunes {
		return false
	}

	letters, caseless := 0, 0
	for _, r := range s {
		switch {
		case unicode.IsLetter(r):
			if !inAny(r, casedScripts) && !inAny(r, caselessScripts) {
				return false
			}
			letters++
			if inAny(r, caselessScripts) {
				caseless++
			}
		case unicode.Is(unicode.Mn, r), unicode.Is(unicode.Mc, r):
		case r == ' ', r == '-', r == '\'', r == '’', r == '.':
		default:
			// digits, punctuation, symbols
			return false
		}
	}
	if letters == 0 {
		return false
	}

	words := strings.Fields(s)
	minWords := 2
	if caseless == letters {
		minWords = 1
	}
	if len(words) < minWords || len(words) > maxNameWords {
		return false
	}

	lower := strings.ToLower(s)
	for _, p := range blockedPhrases {
		if strings.Contains(lower, p) {
			return false
		}
	}
	for _, w := range strings.Fields(lower) {
		if blocklist[strings.Trim(w, ".-'’")] {
			return false
		}
	}

	// Cased names need a capital on the first word and no shouting-case
	// single-letter runs like "A. B. C.".
	if caseless == 0 {
		first := []rune(words[0])[0]
		if !unicode.IsUpper(first) {
			return false
		}
		if allInitials(words) {
			return false
		}
	}
	return true
}

func inAny(r rune, tables []*unicode.RangeTable) bool {
	for _, t := range tables {
		if unicode.Is(t, r) {
			return true
		}
	}
	return false
}

func allInitials(words []string) bool {
	for _, w := range words {
		if len([]rune(strings.TrimRight(w, "."))) > 1 {
			return false
		}
	}
	return true
}
