// Package langmeta provides language display metadata (native names and
// emoji flags) for the CLI output, derived from CLDR data in
// golang.org/x/text.
package langmeta

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Meta describes language display metadata.
type Meta struct {
	Name string
	Flag string
}

// scriptSuffixes maps gettext "@modifier" spellings to script subtags.
var scriptSuffixes = map[string]string{
	"latin":    "Latn",
	"cyrl":     "Cyrl",
	"cyrillic": "Cyrl",
}

// canonicalize converts a remote language code into a BCP 47 string:
// underscores become hyphens and a gettext "@script" modifier becomes a
// script subtag ("sr@latin" -> "sr-Latn").
func canonicalize(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	base, modifier, hasModifier := strings.Cut(code, "@")
	base = strings.ReplaceAll(base, "_", "-")
	if hasModifier {
		if script, ok := scriptSuffixes[strings.ToLower(modifier)]; ok {
			base += "-" + script
		}
	}
	return base
}

// Parse returns the language tag of a remote language code.
func Parse(code string) (language.Tag, error) {
	return language.Parse(canonicalize(code))
}

// Resolve returns the native name and flag of a language code. Unknown
// codes resolve to the code itself and no flag.
func Resolve(code string) Meta {
	tag, err := Parse(code)
	if err != nil {
		return Meta{Name: code}
	}

	name := display.Self.Name(tag)
	if name == "" {
		name = code
	}
	return Meta{Name: upperFirst(name), Flag: flag(tag)}
}

// Label formats a language for display, e.g. "🇫🇷 Français (fr)".
func Label(code string) string {
	m := Resolve(code)
	if m.Name == code {
		return code
	}
	if m.Flag == "" {
		return m.Name + " (" + code + ")"
	}
	return m.Flag + " " + m.Name + " (" + code + ")"
}

// flag builds the regional-indicator emoji of the tag's (possibly
// inferred) region.
func flag(tag language.Tag) string {
	region, conf := tag.Region()
	if conf == language.No {
		return ""
	}
	code := region.String()
	if len(code) != 2 || code[0] < 'A' || code[0] > 'Z' || code[1] < 'A' || code[1] > 'Z' {
		return ""
	}
	const base = 0x1F1E6
	return string([]rune{rune(base + int(code[0]-'A')), rune(base + int(code[1]-'A'))})
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToTitle(r)) + s[size:]
}
