// Package android implements the Android strings.xml side of txsync:
// reading resource catalogs, merging source catalogs, classifying
// downloaded translations and mapping remote language codes to
// values-* directory qualifiers.
//
// Supported resource types:
//   - <string>        — simple key/value string
//   - <string-array>  — ordered list of strings
//   - <plurals>       — quantity-keyed plural forms (zero/one/two/few/many/other)
//
// Resources with translatable="false" are parsed but excluded from the
// translation statistics.
package android

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// RootTag is the canonical root element of a strings.xml catalog.
const RootTag = "resources"

// Element names of the three resource kinds.
const (
	TagString      = "string"
	TagStringArray = "string-array"
	TagPlurals     = "plurals"
)

// ---------------------------------------------------------------------------
// Data model
// ---------------------------------------------------------------------------

// EntryKind identifies the type of a resource entry.
type EntryKind int

const (
	// KindString is a plain <string> resource.
	KindString EntryKind = iota
	// KindStringArray is a <string-array> resource.
	KindStringArray
	// KindPlurals is a <plurals> resource.
	KindPlurals
)

// Tag returns the XML element name for the kind.
func (k EntryKind) Tag() string {
	switch k {
	case KindStringArray:
		return TagStringArray
	case KindPlurals:
		return TagPlurals
	}
	return TagString
}

// Entry represents a single resource in a strings.xml file.
type Entry struct {
	Kind EntryKind
	// Name is the resource name (attribute name="…").
	Name string
	// Translatable reflects the translatable="…" attribute. Defaults to true.
	Translatable bool

	// Value holds the text of a KindString entry.
	Value string
	// Items holds the <item> values of a KindStringArray entry in document order.
	Items []string
	// Plurals maps quantity keyword to text for a KindPlurals entry.
	Plurals map[string]string
	// PluralOrder preserves the order of quantity keywords as they appear in the file.
	PluralOrder []string
}

// Key identifies an entry within a catalog: names are unique per tag.
type Key struct {
	Tag  string
	Name string
}

// Key returns the (tag, name) identity of the entry.
func (e *Entry) Key() Key { return Key{Tag: e.Kind.Tag(), Name: e.Name} }

// IsTranslated reports whether the entry has a complete (non-empty) value.
func (e *Entry) IsTranslated() bool {
	switch e.Kind {
	case KindString:
		return e.Value != ""
	case KindStringArray:
		if len(e.Items) == 0 {
			return false
		}
		for _, v := range e.Items {
			if v == "" {
				return false
			}
		}
		return true
	case KindPlurals:
		if len(e.Plurals) == 0 {
			return false
		}
		for _, v := range e.Plurals {
			if v == "" {
				return false
			}
		}
		return true
	}
	return false
}

// File represents a parsed Android strings.xml file.
type File struct {
	// Entries in document order.
	Entries []*Entry
	byKey   map[Key]int
}

// ---------------------------------------------------------------------------
// Parsing
// ---------------------------------------------------------------------------

// ParseFile reads and parses an Android strings.xml file.
func ParseFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return f, nil
}

// Parse parses Android strings.xml data. The document root must be
// <resources>.
func Parse(data []byte) (*File, error) {
	f := &File{byKey: make(map[Key]int)}

	dec := xml.NewDecoder(bytes.NewReader(data))
	depth := 0
	sawRoot := false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			if !sawRoot {
				return nil, fmt.Errorf("no <%s> root element", RootTag)
			}
			return f, nil
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if depth == 0 {
				if t.Name.Local != RootTag {
					return nil, fmt.Errorf("invalid root element <%s>, want <%s>", t.Name.Local, RootTag)
				}
				sawRoot = true
				depth++
				continue
			}

			var e *Entry
			switch t.Name.Local {
			case TagString:
				e, err = parseStringElement(dec, t)
			case TagStringArray:
				e, err = parseStringArrayElement(dec, t)
			case TagPlurals:
				e, err = parsePluralsElement(dec, t)
			default:
				err = dec.Skip()
			}
			if err != nil {
				return nil, err
			}
			if e != nil {
				f.addEntry(e)
			}

		case xml.EndElement:
			depth--
			if depth == 0 {
				return f, nil
			}
		}
	}
}

func (f *File) addEntry(e *Entry) {
	idx := len(f.Entries)
	f.Entries = append(f.Entries, e)
	if e.Name != "" {
		f.byKey[e.Key()] = idx
	}
}

// parseAttrs extracts name and translatable from a start element.
func parseAttrs(elem xml.StartElement) (name string, translatable bool) {
	translatable = true
	for _, attr := range elem.Attr {
		switch attr.Name.Local {
		case "name":
			name = attr.Value
		case "translatable":
			if strings.EqualFold(attr.Value, "false") {
				translatable = false
			}
		}
	}
	return
}

func parseStringElement(dec *xml.Decoder, elem xml.StartElement) (*Entry, error) {
	name, translatable := parseAttrs(elem)
	var inner strings.Builder
	if err := readElementContent(dec, &inner); err != nil {
		return nil, fmt.Errorf("reading <string name=%q>: %w", name, err)
	}
	return &Entry{
		Kind:         KindString,
		Name:         name,
		Translatable: translatable,
		Value:        inner.String(),
	}, nil
}

func parseStringArrayElement(dec *xml.Decoder, elem xml.StartElement) (*Entry, error) {
	name, translatable := parseAttrs(elem)
	e := &Entry{
		Kind:         KindStringArray,
		Name:         name,
		Translatable: translatable,
	}

	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("reading <string-array name=%q>: %w", name, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "item" && depth == 1 {
				var inner strings.Builder
				if err := readElementContent(dec, &inner); err != nil {
					return nil, fmt.Errorf("reading <item> in <string-array name=%q>: %w", name, err)
				}
				e.Items = append(e.Items, inner.String())
			} else {
				depth++
			}
		case xml.EndElement:
			depth--
		}
	}
	return e, nil
}

func parsePluralsElement(dec *xml.Decoder, elem xml.StartElement) (*Entry, error) {
	name, translatable := parseAttrs(elem)
	e := &Entry{
		Kind:         KindPlurals,
		Name:         name,
		Translatable: translatable,
		Plurals:      make(map[string]string),
	}

	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("reading <plurals name=%q>: %w", name, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "item" && depth == 1 {
				var quantity string
				for _, attr := range t.Attr {
					if attr.Name.Local == "quantity" {
						quantity = attr.Value
						break
					}
				}
				var inner strings.Builder
				if err := readElementContent(dec, &inner); err != nil {
					return nil, fmt.Errorf("reading <item quantity=%q> in <plurals name=%q>: %w", quantity, name, err)
				}
				if quantity != "" {
					e.Plurals[quantity] = inner.String()
					e.PluralOrder = append(e.PluralOrder, quantity)
				}
			} else {
				depth++
			}
		case xml.EndElement:
			depth--
		}
	}
	return e, nil
}

// readElementContent reads the inner content of an element up to its
// matching close tag. Inline child elements (e.g. <xliff:g>) are kept as
// raw text.
func readElementContent(dec *xml.Decoder, b *strings.Builder) error {
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.CharData:
			b.Write(t)
		case xml.StartElement:
			depth++
			b.WriteString("<" + t.Name.Local)
			for _, attr := range t.Attr {
				fmt.Fprintf(b, ` %s="%s"`, attr.Name.Local, attr.Value)
			}
			b.WriteString(">")
		case xml.EndElement:
			depth--
			if depth > 0 {
				b.WriteString("</" + t.Name.Local + ">")
			}
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

// Keys returns the (tag, name) identity of every named entry in document order.
func (f *File) Keys() []Key {
	var keys []Key
	for _, e := range f.Entries {
		if e.Name != "" {
			keys = append(keys, e.Key())
		}
	}
	return keys
}

// Lookup returns the entry with the given tag and name, or nil.
func (f *File) Lookup(tag, name string) *Entry {
	idx, ok := f.byKey[Key{Tag: tag, Name: name}]
	if !ok {
		return nil
	}
	return f.Entries[idx]
}

// Get returns the value of a <string> entry.
func (f *File) Get(name string) (string, bool) {
	e := f.Lookup(TagString, name)
	if e == nil {
		return "", false
	}
	return e.Value, true
}

// Stats returns (total, translated, untranslated) counts for translatable resources.
func (f *File) Stats() (total, translated, untranslated int) {
	for _, e := range f.Entries {
		if !e.Translatable {
			continue
		}
		total++
		if e.IsTranslated() {
			translated++
		} else {
			untranslated++
		}
	}
	return
}

// ---------------------------------------------------------------------------
// Classification
// ---------------------------------------------------------------------------

var (
	reComment       = regexp.MustCompile(`(?s)<!--.*?-->`)
	reResourceEntry = regexp.MustCompile(`<(?:string|plurals|string-array)\s+name=`)
)

// HasTranslatableEntries reports whether content carries at least one
// <string>, <plurals> or <string-array> resource. This is a presence
// test only: the document does not have to be well-formed beyond that.
// Entries inside XML comments do not count.
func HasTranslatableEntries(content []byte) bool {
	return reResourceEntry.Match(reComment.ReplaceAll(content, nil))
}

// ---------------------------------------------------------------------------
// Layout of the res/ directory
// ---------------------------------------------------------------------------

// StringsFileName is the catalog file name inside every values directory.
const StringsFileName = "strings.xml"

// ValuesDirName returns the values directory for a qualifier
// (e.g. "fr" -> "values-fr", "b+sr+Latn" -> "values-b+sr+Latn").
func ValuesDirName(qualifier string) string {
	return "values-" + qualifier
}

// StringsXMLPath returns the path to strings.xml for a qualifier.
func StringsXMLPath(resDir, qualifier string) string {
	return filepath.Join(resDir, ValuesDirName(qualifier), StringsFileName)
}

// DetectQualifiers scans an Android res/ directory for values-* directories
// that contain strings.xml and returns their qualifiers, sorted.
func DetectQualifiers(resDir string) []string {
	entries, err := os.ReadDir(resDir)
	if err != nil {
		return nil
	}

	var quals []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		q := strings.TrimPrefix(name, "values-")
		if q == name || q == "" {
			continue
		}
		if _, err := os.Stat(filepath.Join(resDir, name, StringsFileName)); err == nil {
			quals = append(quals, q)
		}
	}
	sort.Strings(quals)
	return quals
}
