package nlp

var stopWords = toSet(
	"the", "and", "for", "are", "but", "not", "you", "all", "any", "can", "had", "her", "was", "one",
	"our", "out", "has", "his", "how", "its", "may", "new", "now", "old", "see", "two", "who", "did",
	"get", "him", "let", "say", "she", "too", "use", "with", "this", "that", "from", "they", "will",
	"would", "there", "their", "what", "about", "which", "when", "make", "like", "time", "just",
	"know", "take", "into", "year", "your", "some", "could", "them", "than", "then", "look", "only",
	"come", "over", "also", "back", "after", "first", "well", "even", "want", "because", "these",
	"give", "most", "were", "been", "being", "have", "here", "more", "says", "said", "amid", "over",
	"under", "why", "where", "while", "against", "between", "during", "before", "again", "off",
	"very", "im", "ive", "dont", "cant", "wont", "live", "updates", "news", "latest", "today",
	"top", "watch", "video", "photos", "read", "know", "check", "full", "list", "here's", "heres",
	"day", "days", "week", "big", "set", "gets", "amp", "via", "per", "should", "must", "does",
	"other", "such", "each", "many", "much", "own", "same", "both", "few", "those", "through",
	"नहीं", "और", "के", "की", "में", "है", "से", "को", "पर", "का",
)

func toSet(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}
