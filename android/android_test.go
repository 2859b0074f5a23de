package android

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

// ---------------------------------------------------------------------------
// Parse tests
// ---------------------------------------------------------------------------

func TestParse_BasicString(t *testing.T) {
	xml := `<?xml version="1.0" encoding="utf-8"?>
<resources>
    <string name="app_name">My App</string>
    <string name="hello">Hello World</string>
</resources>`

	f, err := Parse([]byte(xml))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if len(f.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(f.Entries))
	}
	v, ok := f.Get("app_name")
	if !ok || v != "My App" {
		t.Errorf("app_name: got %q ok=%v, want %q", v, ok, "My App")
	}
	v, ok = f.Get("hello")
	if !ok || v != "Hello World" {
		t.Errorf("hello: got %q ok=%v, want %q", v, ok, "Hello World")
	}
}

func TestParse_StringArrayAndPlurals(t *testing.T) {
	xml := `<?xml version="1.0" encoding="utf-8"?>
<resources>
    <string-array name="planets">
        <item>Mercury</item>
        <item>Venus</item>
    </string-array>
    <plurals name="songs_found">
        <item quantity="one">%d song found.</item>
        <item quantity="other">%d songs found.</item>
    </plurals>
</resources>`

	f, err := Parse([]byte(xml))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	arr := f.Lookup(TagStringArray, "planets")
	if arr == nil {
		t.Fatal("planets not found")
	}
	if !reflect.DeepEqual(arr.Items, []string{"Mercury", "Venus"}) {
		t.Errorf("planets items = %v", arr.Items)
	}
	pl := f.Lookup(TagPlurals, "songs_found")
	if pl == nil {
		t.Fatal("songs_found not found")
	}
	if pl.Plurals["other"] != "%d songs found." {
		t.Errorf("other: got %q", pl.Plurals["other"])
	}
	if !reflect.DeepEqual(pl.PluralOrder, []string{"one", "other"}) {
		t.Errorf("PluralOrder: got %v", pl.PluralOrder)
	}
	if f.Lookup(TagString, "planets") != nil {
		t.Error("lookup must distinguish tags")
	}
}

func TestParse_RejectsWrongRoot(t *testing.T) {
	if _, err := Parse([]byte(`<manifest><string name="a">x</string></manifest>`)); err == nil {
		t.Fatal("expected error for non-<resources> root")
	}
	if _, err := Parse([]byte(``)); err == nil {
		t.Fatal("expected error for empty document")
	}
}

func TestStats_SkipsNonTranslatable(t *testing.T) {
	xml := `<resources>
    <string name="app_name" translatable="false">MyApp</string>
    <string name="greeting">Hello</string>
    <string name="empty"></string>
</resources>`

	f, err := Parse([]byte(xml))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	total, translated, untranslated := f.Stats()
	if total != 2 || translated != 1 || untranslated != 1 {
		t.Errorf("Stats() = (%d, %d, %d), want (2, 1, 1)", total, translated, untranslated)
	}
}

// ---------------------------------------------------------------------------
// Classification
// ---------------------------------------------------------------------------

func TestHasTranslatableEntries(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    bool
	}{
		{"empty resources", `<?xml version="1.0" encoding="utf-8"?>` + "\n<resources/>\n", false},
		{"whitespace and comments only", "<resources>\n  <!-- nothing yet -->\n\n</resources>", false},
		{"commented out entry", `<resources><!-- <string name="a">A</string> --></resources>`, false},
		{"string", "<resources>\n  <!-- c -->\n  <string name=\"a\">A</string>\n</resources>", true},
		{"plurals", `<resources><plurals name="p"><item quantity="one">x</item></plurals></resources>`, true},
		{"string-array", `<resources><string-array name="arr"><item>x</item></string-array></resources>`, true},
		{"not well formed", `<resources><string name="a">unterminated`, true},
		{"raw text", "not xml at all", false},
	}
	for _, tc := range tests {
		if got := HasTranslatableEntries([]byte(tc.content)); got != tc.want {
			t.Errorf("%s: HasTranslatableEntries() = %v, want %v", tc.name, got, tc.want)
		}
	}
}

// ---------------------------------------------------------------------------
// res/ layout
// ---------------------------------------------------------------------------

func TestStringsXMLPath(t *testing.T) {
	got := StringsXMLPath("res", "b+sr+Latn")
	want := filepath.Join("res", "values-b+sr+Latn", "strings.xml")
	if got != want {
		t.Errorf("StringsXMLPath() = %q, want %q", got, want)
	}
}

func TestDetectQualifiers(t *testing.T) {
	res := t.TempDir()
	for _, dir := range []string{"values", "values-fr", "values-pt-rBR", "values-night", "drawable"} {
		if err := os.MkdirAll(filepath.Join(res, dir), 0755); err != nil {
			t.Fatal(err)
		}
	}
	for _, dir := range []string{"values", "values-fr", "values-pt-rBR"} {
		if err := os.WriteFile(filepath.Join(res, dir, "strings.xml"), []byte("<resources/>"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	got := DetectQualifiers(res)
	want := []string{"fr", "pt-rBR"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("DetectQualifiers() = %v, want %v", got, want)
	}
	if got := DetectQualifiers(filepath.Join(res, "missing")); got != nil {
		t.Errorf("DetectQualifiers(missing) = %v, want nil", got)
	}
}
