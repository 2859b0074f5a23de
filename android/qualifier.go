package android

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// scriptNames maps script spellings used in gettext-style "@script"
// suffixes to ISO 15924 codes.
var scriptNames = map[string]string{
	"latin": "Latn",
	"cyrl":  "Cyrl",
}

// Qualifier converts a remote language code into the Android resource
// qualifier used in the values-* directory name.
//
//	"de"       -> "de"
//	"en_US"    -> "en-rUS"
//	"pt-BR"    -> "pt-rBR"
//	"zh-Hans"  -> "b+zh+Hans"
//	"sr@latin" -> "b+sr+Latn"
//
// Codes of any other shape fall back to their first subtag, lowercased.
// Qualifier never fails; an empty code yields an empty qualifier.
func Qualifier(code string) string {
	raw := strings.TrimSpace(code)

	if lang, script, ok := strings.Cut(raw, "@"); ok {
		mapped, known := scriptNames[strings.ToLower(script)]
		if !known {
			mapped = capitalize(script)
		}
		return bcp47Qualifier(lang, mapped)
	}

	var parts []string
	for _, p := range strings.Split(strings.ReplaceAll(raw, "_", "-"), "-") {
		if p != "" {
			parts = append(parts, p)
		}
	}

	switch {
	case len(parts) == 0:
		return ""
	case len(parts) == 1:
		return strings.ToLower(parts[0])
	case len(parts[1]) == 2:
		return strings.ToLower(parts[0]) + "-r" + strings.ToUpper(parts[1])
	case len(parts[1]) == 4:
		return bcp47Qualifier(parts[0], capitalize(parts[1]))
	}
	return strings.ToLower(parts[0])
}

// bcp47Qualifier builds the "b+lang+Script" form Android uses for
// locales that carry a script subtag.
func bcp47Qualifier(lang, script string) string {
	return "b+" + strings.ToLower(lang) + "+" + script
}

// capitalize upper-cases the first letter and lower-cases the rest.
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

// LanguageTag converts a values-* qualifier back into a BCP 47 tag:
// "pt-rBR" -> "pt-BR", "b+sr+Latn" -> "sr-Latn". Other qualifiers are
// returned unchanged.
func LanguageTag(qualifier string) string {
	if rest, ok := strings.CutPrefix(qualifier, "b+"); ok {
		return strings.ReplaceAll(rest, "+", "-")
	}
	if lang, region, ok := strings.Cut(qualifier, "-r"); ok && len(region) == 2 {
		return lang + "-" + region
	}
	return qualifier
}
