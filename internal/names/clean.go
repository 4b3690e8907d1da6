package names

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	parenAnnotation = regexp.MustCompile(`\s*\([^)]*\)\s*$`)
	basePair        = regexp.MustCompile(`\s*[123]?[bB]/[123]?[bB]\s*$`)
	positionPair    = regexp.MustCompile(`(?i)\s+(?:ph|pr|dh|cf|lf|rf|ss|[123]?b|c)/(?:ph|pr|dh|cf|lf|rf|ss|[123]?b|c)\s*$`)
	// A lone position after a comma is an initial ("Johnson, C"), not a position.
	positionSingle  = regexp.MustCompile(`(?i)([^,\s])\s+(?:ph|pr|dh|cf|lf|rf|ss|[123]b|c)\s*$`)
	gameNotePrefix  = regexp.MustCompile(`^(SB|2B|3B|HR|CS|E|SF|SH|HBP|IBB|SO|WP|PB|BK):\s*`)
	countAnnotation = regexp.MustCompile(`\s*\(\d+\)\s*`)
	romanNumeralFix = []struct {
		pattern *regexp.Regexp
		value   string
	}{
		{regexp.MustCompile(`\bIii\b`), "III"},
		{regexp.MustCompile(`\bIi\b`), "II"},
		{regexp.MustCompile(`\bIv\b`), "IV"},
	}
)

// Clean strips box-score artifacts from a raw player name: position
// annotations ("3b/1b", "pr/2b", "(ph/lf)", a trailing "ss"), game-note
// prefixes ("SB:"), count markers ("(2)") and "Totals" rows. ALL CAPS names
// are converted to title case with II, III and IV kept upper case.
func Clean(raw string) string {
	name := raw
	if name == "" {
		return ""
	}

	name = parenAnnotation.ReplaceAllString(name, "")
	name = basePair.ReplaceAllString(name, "")
	name = positionPair.ReplaceAllString(name, "")
	name = positionSingle.ReplaceAllString(name, "$1")
	name = gameNotePrefix.ReplaceAllString(name, "")
	name = countAnnotation.ReplaceAllString(name, " ")

	if idx := strings.Index(name, "Totals"); idx >= 0 {
		name = name[:idx]
	}

	if isUpper(name) && len(name) > 2 {
		if strings.Contains(name, ",") {
			parts := strings.SplitN(name, ",", 2)
			last := title(strings.TrimSpace(parts[0]))
			first := title(strings.TrimSpace(parts[1]))
			if first != "" {
				name = last + ", " + first
			} else {
				name = last
			}
		} else {
			name = title(name)
		}
	}

	return strings.TrimSpace(name)
}

func title(value string) string {
	value = cases.Title(language.Und).String(strings.ToLower(value))
	for _, fix := range romanNumeralFix {
		value = fix.pattern.ReplaceAllString(value, fix.value)
	}
	return value
}

// isUpper reports whether value has at least one cased letter and no lower
// case letters.
func isUpper(value string) bool {
	cased := false
	for _, r := range value {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			cased = true
		}
	}
	return cased
}
