package names

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidName(t *testing.T) {
	valid := []string{
		"Asha Verma",
		"José García",
		"Mary O'Brien",
		"Jean-Luc Picard",
		"Dr. Rohan Mehta",
		"Иван Петров",
		"राम",
		"अमित शर्मा",
		"李小明",
		"  Asha   Verma  ",
	}
	for _, s := range valid {
		assert.True(t, IsValidName(s), "expected valid: %q", s)
	}

	invalid := []string{
		"Sports Desk",
		"PTI",
		"News Bureau",
		"Staff Reporter",
		"Read More",
		"Madonna",
		"asha verma",
		"John Smith 2024",
		"Jan 12, 2024",
		"A. B.",
		"Al",
		"Web Desk Team",
		"Reuters Staff",
		"समाचार डेस्क",
		"Redacción Noticias",
		"",
		"One Two Three Four Five Six",
		"Asha@Verma",
	}
	for _, s := range invalid {
		assert.False(t, IsValidName(s), "expected invalid: %q", s)
	}
}

func TestSingleTokenOnlyForCaselessScripts(t *testing.T) {
	assert.False(t, IsValidName("Verma"))
	assert.False(t, IsValidName("Петров"))
	assert.True(t, IsValidName("सुनीता"))
	assert.True(t, IsValidName("محمد"))
}

func TestKeyFoldsCaseWhitespaceAndDiacritics(t *testing.T) {
	assert.Equal(t, "jose garcia", Key("  José   GARCÍA "))
	assert.Equal(t, Key("Asha Verma"), Key("asha  VERMA"))
	assert.Equal(t, "अमित शर्मा", Key("अमित  शर्मा"))
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "asha-verma", Slug("Asha Verma"))
	assert.Equal(t, "jose-o-brien", Slug("José O'Brien"))
	assert.Equal(t, "ravi-kumar", Slug("  Ravi  Kumar. "))
}

func TestCleanByline(t *testing.T) {
	cases := map[string]string{
		"By Asha Verma":                           "Asha Verma",
		"BY: Asha Verma":                          "Asha Verma",
		"By Asha Verma, Senior Correspondent":     "Asha Verma",
		"Asha Verma and Ravi Kumar":               "Asha Verma",
		"Written by: Rahul Mehta | Updated: Jan 5": "Rahul Mehta",
		"Priya Nair Staff Reporter":               "Priya Nair",
		"Por María López":                         "María López",
		"Anderson Cooper":                         "Anderson Cooper",
	}
	for in, want := range cases {
		assert.Equal(t, want, CleanByline(in), "input %q", in)
	}
}
