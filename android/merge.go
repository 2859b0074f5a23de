package android

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

// layout records where the pieces of a strings.xml document sit in its
// raw bytes, so that a merge can copy entries verbatim.
type layout struct {
	// rootOpenEnd is the offset just past the root start tag.
	rootOpenEnd int64
	// closeStart is the offset of the root end tag.
	closeStart  int64
	selfClosing bool
	nsDecls     []xml.Attr
	children    []child
}

type child struct {
	key   Key
	named bool
	raw   []byte
}

func scanLayout(data []byte) (*layout, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	l := &layout{}
	depth := 0
	sawRoot := false

	for {
		start := dec.InputOffset()
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if depth == 0 {
				if sawRoot {
					return nil, fmt.Errorf("unexpected second root element <%s>", t.Name.Local)
				}
				if t.Name.Local != RootTag {
					return nil, fmt.Errorf("invalid root element <%s>, want <%s>", t.Name.Local, RootTag)
				}
				sawRoot = true
				depth = 1
				l.rootOpenEnd = dec.InputOffset()
				l.selfClosing = bytes.HasSuffix(data[start:l.rootOpenEnd], []byte("/>"))
				for _, a := range t.Attr {
					if a.Name.Space == "xmlns" {
						l.nsDecls = append(l.nsDecls, a)
					}
				}
				continue
			}

			if err := dec.Skip(); err != nil {
				return nil, err
			}
			c := child{raw: data[start:dec.InputOffset()]}
			for _, a := range t.Attr {
				if a.Name.Local == "name" && a.Name.Space == "" && a.Value != "" {
					c.key = Key{Tag: t.Name.Local, Name: a.Value}
					c.named = true
				}
			}
			l.children = append(l.children, c)

		case xml.EndElement:
			if depth == 1 {
				l.closeStart = start
				depth = 0
			}
		}
	}

	if !sawRoot {
		return nil, fmt.Errorf("no <%s> root element", RootTag)
	}
	return l, nil
}

// MergeSources merges the extra catalog into the primary one. Entries of
// extra whose (tag, name) already exists in primary are skipped, so the
// primary value always wins; the remaining entries are appended after all
// primary entries, in their own order. Entries are copied byte for byte.
// A nil extra returns primary unchanged.
func MergeSources(primary, extra []byte) ([]byte, error) {
	base, err := scanLayout(primary)
	if err != nil {
		return nil, fmt.Errorf("primary catalog: %w", err)
	}
	if extra == nil {
		return primary, nil
	}
	ex, err := scanLayout(extra)
	if err != nil {
		return nil, fmt.Errorf("extra catalog: %w", err)
	}

	seen := make(map[Key]bool, len(base.children))
	for _, c := range base.children {
		if c.named {
			seen[c.key] = true
		}
	}

	var appended [][]byte
	for _, c := range ex.children {
		if !c.named || seen[c.key] {
			continue
		}
		seen[c.key] = true
		appended = append(appended, c.raw)
	}
	if len(appended) == 0 {
		return primary, nil
	}

	declared := make(map[string]bool, len(base.nsDecls))
	for _, a := range base.nsDecls {
		declared[a.Name.Local] = true
	}
	var missing []xml.Attr
	for _, a := range ex.nsDecls {
		if !declared[a.Name.Local] {
			missing = append(missing, a)
		}
	}

	nl := lineEnding(primary)
	head := primary[:base.rootOpenEnd]
	var b bytes.Buffer
	if base.selfClosing {
		head = bytes.TrimSuffix(head, []byte("/>"))
	} else {
		head = bytes.TrimSuffix(head, []byte(">"))
	}
	b.Write(head)
	for _, a := range missing {
		fmt.Fprintf(&b, ` xmlns:%s="%s"`, a.Name.Local, escapeAttr(a.Value))
	}
	b.WriteString(">")

	if base.selfClosing {
		for _, raw := range appended {
			b.WriteString(nl + "    ")
			b.Write(raw)
		}
		b.WriteString(nl + "</" + RootTag + ">")
		b.Write(primary[base.rootOpenEnd:])
		return b.Bytes(), nil
	}

	b.Write(primary[base.rootOpenEnd:base.closeStart])
	for _, raw := range appended {
		b.WriteString("    ")
		b.Write(raw)
		b.WriteString(nl)
	}
	b.Write(primary[base.closeStart:])
	return b.Bytes(), nil
}

// MergeFiles reads the primary catalog and the optional extra catalog and
// merges them with MergeSources. A missing extra file is treated as empty.
func MergeFiles(primaryPath, extraPath string) ([]byte, error) {
	primary, err := os.ReadFile(primaryPath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", primaryPath, err)
	}

	var extra []byte
	if extraPath != "" {
		extra, err = os.ReadFile(extraPath)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading %s: %w", extraPath, err)
		}
	}

	merged, err := MergeSources(primary, extra)
	if err != nil {
		return nil, fmt.Errorf("merging %s: %w", primaryPath, err)
	}
	return merged, nil
}

// lineEnding returns "\r\n" when data uses CRLF line breaks, "\n" otherwise.
func lineEnding(data []byte) string {
	if bytes.Contains(data, []byte("\r\n")) {
		return "\r\n"
	}
	return "\n"
}

func escapeAttr(s string) string {
	var b bytes.Buffer
	if err := xml.EscapeText(&b, []byte(s)); err != nil {
		return s
	}
	return b.String()
}
