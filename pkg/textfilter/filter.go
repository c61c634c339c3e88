// Package textfilter softens guard dialogue for family-friendly
// content ratings. The replacement set targets common US English
// profanity; slurs are censored outright rather than substituted.
package textfilter

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const censored = "[censored]"

// replacements maps lowercase profanity to a softer stand-in. Matching
// is case-insensitive on word boundaries; the original casing pattern
// is reapplied to the replacement.
var replacements = map[string]string{
	"fuck":         "fudge",
	"motherfucker": "mother-trucker",
	"shit":         "shoot",
	"bullshit":     "baloney",
	"horseshit":    "nonsense",
	"dipshit":      "dummy",
	"shithead":     "jerk",
	"damn":         "dang",
	"goddamn":      "gosh-dang",
	"hell":         "heck",
	"ass":          "butt",
	"asshole":      "jerk",
	"dumbass":      "dummy",
	"jackass":      "jerk",
	"smartass":     "smarty",
	"badass":       "tough",
	"bitch":        "jerk",
	"bastard":      "jerk",
	"crap":         "crud",
	"piss":         "ticked",
	"dick":         "jerk",
	"dickhead":     "jerk",
	"prick":        "jerk",
	"douche":       "jerk",
	"douchebag":    "jerk",
	"jesus christ": "jeez",
	"christ":       "crikey",
	"cock":         censored,
	"pussy":        censored,
	"tits":         censored,
	"boobs":        censored,
	"whore":        censored,
	"slut":         censored,
	"fag":          censored,
	"retard":       censored,
	"nigger":       censored,
	"nigga":        censored,
	"spic":         censored,
	"chink":        censored,
	"kike":         censored,
}

// Filter replaces profanity in text with family-friendly alternatives.
// The zero value is not usable; construct with New.
type Filter struct {
	pattern *regexp.Regexp
}

// New builds a filter over the full replacement set. Longer phrases
// are matched before their substrings, so "goddamn" never decomposes
// into a bare "damn" replacement.
func New() *Filter {
	words := make([]string, 0, len(replacements))
	for w := range replacements {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		if len(words[i]) != len(words[j]) {
			return len(words[i]) > len(words[j])
		}
		return words[i] < words[j]
	})
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	pattern := regexp.MustCompile(`(?i)\b(` + strings.Join(words, "|") + `)\b`)
	return &Filter{pattern: pattern}
}

// FilterText returns text with all known profanity replaced, keeping
// the casing of each match.
func (f *Filter) FilterText(text string) string {
	return f.pattern.ReplaceAllStringFunc(text, func(match string) string {
		repl, ok := replacements[strings.ToLower(match)]
		if !ok {
			return match
		}
		return preserveCase(match, repl)
	})
}

// ContainsProfanity reports whether text has at least one match.
func (f *Filter) ContainsProfanity(text string) bool {
	return f.pattern.MatchString(text)
}

// ShouldFilterContent reports whether dialogue at the given content
// rating needs filtering. Anything PG13 or milder does.
func ShouldFilterContent(rating string) bool {
	switch strings.ToUpper(strings.TrimSpace(rating)) {
	case "G", "PG", "PG13", "PG-13":
		return true
	default:
		return false
	}
}

// preserveCase reshapes replacement to mirror the casing of original:
// all-caps and all-lower map wholesale, title case via the English
// caser, and anything else character by character.
func preserveCase(original, replacement string) string {
	if original == "" {
		return replacement
	}
	if strings.ToUpper(original) == original {
		return strings.ToUpper(replacement)
	}
	if strings.ToLower(original) == original {
		return strings.ToLower(replacement)
	}

	title := cases.Title(language.English)
	if title.String(strings.ToLower(original)) == original {
		return title.String(replacement)
	}

	src := []rune(original)
	out := make([]rune, 0, len(replacement))
	for i, r := range []rune(replacement) {
		if i < len(src) && unicode.IsUpper(src[i]) {
			out = append(out, unicode.ToUpper(r))
		} else {
			out = append(out, unicode.ToLower(r))
		}
	}
	return string(out)
}
