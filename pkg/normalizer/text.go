package normalizer

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// placeholderPrefixes are scraper artifacts that end up in description fields.
var placeholderPrefixes = []string{
	"Image from Swiggy",
}

// cleanText strips any HTML markup the scraper captured and collapses whitespace.
func cleanText(s string) string {
	if strings.ContainsAny(s, "<&") {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(s)); err == nil {
			s = doc.Text()
		}
	}
	return strings.Join(strings.Fields(s), " ")
}

func isPlaceholder(s string) bool {
	for _, p := range placeholderPrefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
