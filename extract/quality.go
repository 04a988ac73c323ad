package extract

import (
	"strings"

	"github.com/use-agent/filmgrab/models"
)

// qualityRule maps a marker substring to the label it implies.
type qualityRule struct {
	marker string
	label  models.QualityLabel
}

// qualityTable is evaluated top to bottom; the first matching rule wins.
var qualityTable = []qualityRule{
	{"1080", models.Quality1080p},
	{"720", models.Quality720p},
	{"480", models.Quality480p},
}

// Classify labels a link from its visible text and raw href. The text is
// compared case-insensitively, the href as-is.
func Classify(text, href string) models.QualityLabel {
	text = strings.ToLower(text)
	for _, rule := range qualityTable {
		if strings.Contains(text, rule.marker) || strings.Contains(href, rule.marker) {
			return rule.label
		}
	}
	return models.QualityUnknown
}
