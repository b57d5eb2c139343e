package freight

import (
	"regexp"
	"strings"
)

// RemoteClassifier decides whether a destination postal code is remote.
type RemoteClassifier interface {
	IsRemote(country, postalCode string) bool
}

// PatternClassifier classifies by per-country postal-code patterns.
type PatternClassifier struct {
	patterns map[string][]*regexp.Regexp
}

// NewPatternClassifier compiles country → pattern lists.
func NewPatternClassifier(patterns map[string][]string) (*PatternClassifier, error) {
	c := &PatternClassifier{patterns: make(map[string][]*regexp.Regexp, len(patterns))}
	for country, exprs := range patterns {
		for _, expr := range exprs {
			re, err := regexp.Compile(expr)
			if err != nil {
				return nil, err
			}
			c.patterns[country] = append(c.patterns[country], re)
		}
	}
	return c, nil
}

// DefaultRemoteClassifier returns a PatternClassifier over RemotePostalPatterns.
func DefaultRemoteClassifier() *PatternClassifier {
	c, err := NewPatternClassifier(RemotePostalPatterns)
	if err != nil {
		panic(err)
	}
	return c
}

// IsRemote implements RemoteClassifier. An empty postal code is never remote.
func (c *PatternClassifier) IsRemote(country, postalCode string) bool {
	postalCode = strings.ToUpper(strings.TrimSpace(postalCode))
	if postalCode == "" {
		return false
	}
	for _, re := range c.patterns[country] {
		if re.MatchString(postalCode) {
			return true
		}
	}
	return false
}

// RemotePostalPatterns lists remote-area postal patterns by country code.
var RemotePostalPatterns = map[string][]string{
	"US": {
		`^99\d{3}`,      // Alaska
		`^96[7-9]\d{2}`, // Hawaii
		`^00\d{3}`,      // military
		`^09\d{3}`,      // military
	},
	"CA": {
		`^[XY]`,
		`^[ABCEGHJKLMNPRSTV]0`,
	},
	"AU": {
		`^08\d{2}$`,
		`^6[4-7]\d{2}$`,
		`^4[7-9]\d{2}$`,
		`^5[6-7]\d{2}$`,
		`^7\d{3}$`,
	},
	"GB": {
		`^(IV|KW|PA|PH|HS|ZE)\d`, // Highlands and islands
		`^BT\d`,                  // Northern Ireland
	},
}
