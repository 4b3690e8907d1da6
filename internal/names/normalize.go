package names

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var suffixPattern = regexp.MustCompile(`(?i)\s+(jr\.?|sr\.?|ii|iii|iv)$`)

// Rule describes one step of name normalization.
type Rule struct {
	Name        string
	Description string
}

type step struct {
	rule  Rule
	apply func(string) string
}

var (
	ruleNFC = Rule{
		Name:        "unicode-nfc",
		Description: "compose the name to Unicode NFC so equal names compare equal byte-wise",
	}
	ruleFoldAccents = Rule{
		Name:        "fold-accents",
		Description: "drop combining marks so accented and unaccented spellings match (optional)",
	}
	ruleCommaForm = Rule{
		Name: "comma-form",
		Description: "with exactly one comma, rewrite \"Last, First\" as \"First Last\"; a first part " +
			"of at most two characters after trimming dots is an initial and loses its dots",
	}
	ruleSuffix = Rule{
		Name:        "generational-suffix",
		Description: "strip a trailing Jr, Jr., Sr, Sr., II, III or IV",
	}
	ruleLower = Rule{
		Name:        "lowercase",
		Description: "Unicode lowercase",
	}
	ruleWhitespace = Rule{
		Name:        "whitespace",
		Description: "trim and collapse internal whitespace to single spaces",
	}
)

// Normalizer turns display names into index keys. The zero value applies the
// standard rule table.
type Normalizer struct {
	// FoldAccents makes "José" and "Jose" normalize to the same key.
	FoldAccents bool
}

// Default is the normalizer used by the package-level helpers.
var Default = Normalizer{}

func (n Normalizer) steps() []step {
	steps := []step{{ruleNFC, norm.NFC.String}}
	if n.FoldAccents {
		steps = append(steps, step{ruleFoldAccents, foldAccents})
	}
	return append(steps,
		step{ruleCommaForm, commaForm},
		step{ruleSuffix, stripSuffix},
		step{ruleLower, lower},
		step{ruleWhitespace, collapseSpace},
	)
}

// Rules lists the rules Normalize applies, in order.
func (n Normalizer) Rules() []Rule {
	steps := n.steps()
	rules := make([]Rule, len(steps))
	for i, s := range steps {
		rules[i] = s.rule
	}
	return rules
}

// Normalize returns the exact-match key for a display name. An empty result
// means the name carries no usable identity.
func (n Normalizer) Normalize(raw string) string {
	name := strings.TrimSpace(raw)
	if name == "" {
		return ""
	}
	for _, s := range n.steps() {
		name = s.apply(name)
	}
	return name
}

// PartialKey returns the lossy "_<initial>_<last>" key for the "Last, Initial"
// and "First Last" shapes. Other shapes, including "Last, First" with a full
// first name, have no partial key and return "".
func (n Normalizer) PartialKey(raw string) string {
	name := norm.NFC.String(strings.TrimSpace(raw))
	if n.FoldAccents {
		name = foldAccents(name)
	}
	if name == "" {
		return ""
	}

	if strings.Contains(name, ",") {
		parts := strings.Split(name, ",")
		if len(parts) != 2 {
			return ""
		}
		initial := strings.TrimRight(strings.TrimSpace(parts[1]), ".")
		last := collapseSpace(lower(stripSuffix(strings.TrimSpace(parts[0]))))
		if initial == "" || utf8.RuneCountInString(initial) > 2 || last == "" {
			return ""
		}
		return partial(initial, last)
	}

	tokens := strings.Fields(stripSuffix(name))
	if len(tokens) < 2 {
		return ""
	}
	return partial(tokens[0], lower(tokens[len(tokens)-1]))
}

// Keys returns the exact key followed by the partial key, omitting empties.
func (n Normalizer) Keys(raw string) []string {
	var keys []string
	if key := n.Normalize(raw); key != "" {
		keys = append(keys, key)
	}
	if key := n.PartialKey(raw); key != "" {
		keys = append(keys, key)
	}
	return keys
}

// Normalize applies the default rule table.
func Normalize(raw string) string { return Default.Normalize(raw) }

// PartialKey derives the default partial-name key.
func PartialKey(raw string) string { return Default.PartialKey(raw) }

// Rules lists the default rule table.
func Rules() []Rule { return Default.Rules() }

func partial(first, last string) string {
	r, _ := utf8.DecodeRuneInString(first)
	return "_" + lower(string(r)) + "_" + last
}

func commaForm(name string) string {
	parts := strings.Split(name, ",")
	if len(parts) != 2 {
		return name
	}
	last := stripSuffix(strings.TrimSpace(parts[0]))
	first := stripSuffix(strings.TrimSpace(parts[1]))
	if trimmed := strings.TrimRight(first, "."); utf8.RuneCountInString(trimmed) <= 2 {
		first = trimmed
	}
	if first == "" {
		return last
	}
	return first + " " + last
}

func stripSuffix(name string) string {
	return suffixPattern.ReplaceAllString(name, "")
}

func lower(name string) string {
	return cases.Lower(language.Und).String(name)
}

func collapseSpace(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

func foldAccents(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, name)
	if err != nil {
		return name
	}
	return folded
}
