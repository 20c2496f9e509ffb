package nlp

import "strings"

// Topic maps a category to the substrings that indicate it.
type Topic struct {
	Name     string
	Keywords []string
}

// TopicTable is matched in order; result order follows it.
var TopicTable = []Topic{
	{"Politics", []string{"politic", "election", "parliament", "minister", "government", "congress", "bjp", "assembly", "lok sabha", "rajya sabha", "cabinet", "vote", "party", "opposition", "policy"}},
	{"Business", []string{"business", "economy", "market", "sensex", "nifty", "stock", "finance", "bank", "startup", "company", "rbi", "inflation", "budget", "trade", "investment", "gdp"}},
	{"Technology", []string{"technology", "tech", "software", "startup", "artificial intelligence", " ai ", "smartphone", "internet", "cyber", "digital", "app ", "gadget", "semiconductor"}},
	{"Sports", []string{"sport", "cricket", "football", "hockey", "tennis", "olympic", "ipl", "match", "tournament", "world cup", "athlete", "badminton", "kabaddi"}},
	{"Entertainment", []string{"entertainment", "bollywood", "film", "movie", "cinema", "actor", "actress", "music", "celebrity", "box office", "ott", "series", "tollywood"}},
	{"Health", []string{"health", "hospital", "covid", "vaccine", "disease", "medical", "doctor", "virus", "patients", "wellness", "fitness", "pandemic"}},
	{"Environment", []string{"environment", "climate", "pollution", "monsoon", "forest", "wildlife", "rain", "flood", "heatwave", "emission", "air quality", "cyclone"}},
	{"Crime", []string{"crime", "police", "murder", "arrest", "court", "fraud", "theft", "case filed", "accused", "investigation", "cbi", "custody"}},
	{"International", []string{"international", "world", "global", "foreign", "china", "pakistan", "united states", "usa", "russia", "ukraine", "un ", "diplomat", "bilateral"}},
	{"Education", []string{"education", "school", "university", "college", "student", "exam", "cbse", "neet", "jee", "teacher", "curriculum", "admission"}},
}

// Topics returns the categories whose keywords appear in the lower-cased
// text, in table order.
func Topics(lower string) []string {
	padded := " " + lower + " "
	topics := []string{}
	for _, t := range TopicTable {
		for _, kw := range t.Keywords {
			if strings.Contains(padded, kw) {
				topics = append(topics, t.Name)
				break
			}
		}
	}
	return topics
}
