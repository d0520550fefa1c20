package doctree

import (
	"regexp"
	"slices"
	"strings"
	"unicode"
)

// BlockKind classifies a content block inside a section.
type BlockKind string

const (
	KindParagraph BlockKind = "paragraph"
	KindListItem  BlockKind = "list_item"
	KindCode      BlockKind = "code"
	KindQuote     BlockKind = "quote"
	KindTable     BlockKind = "table"
)

// Block is one unit of section content: a paragraph, list item, code excerpt, etc.
type Block struct {
	Kind  BlockKind `json:"kind"`
	Text  string    `json:"text"`
	Level int       `json:"level,omitempty"` // List nesting, 0 for non-list blocks
}

// Section is a heading and the content blocks that follow it up to the next heading.
type Section struct {
	Title       string  `json:"title"`
	Depth       int     `json:"depth"`          // Heading depth, 1 for top-level
	Line        int     `json:"line,omitempty"` // Source line of the heading (0 if N/A)
	Blocks      []Block `json:"blocks,omitempty"`
	Placeholder bool    `json:"placeholder,omitempty"`
}

// Document is one loaded source file.
type Document struct {
	Name        string     `json:"name"`  // Source identifier, usually the path
	Title       string     `json:"title"` // Derived from the filename or metadata
	Ordinal     int        `json:"ordinal"`
	ContentHash string     `json:"content_hash"`
	Preamble    []Block    `json:"preamble,omitempty"` // Content before the first heading
	Sections    []*Section `json:"sections"`           // Flat, in source order
}

// ID returns a path-safe identifier for the document.
func (d *Document) ID() string {
	if id := Slugify(d.Title); id != "" {
		return id
	}
	return Slugify(d.Name)
}

// ContentText joins the text of every block.
func (s *Section) ContentText() string {
	parts := make([]string, 0, len(s.Blocks))
	for _, b := range s.Blocks {
		parts = append(parts, b.Text)
	}
	return strings.Join(parts, "\n\n")
}

// Clone returns a deep copy of the section.
func (s *Section) Clone() *Section {
	c := *s
	c.Blocks = slices.Clone(s.Blocks)
	return &c
}

// HeadingPathSeparator joins heading titles in the textual form of a path.
const HeadingPathSeparator = " > "

// HeadingPath is the ordered list of heading titles from the document root to a section.
type HeadingPath []string

// ParseHeadingPath splits "A > B > C" into its titles. A '>' separates titles
// only when it has whitespace or the string boundary on both sides, so
// "a -> b" and "vector<int>" stay whole; "\>" is a literal '>' and "\\" a
// literal backslash. Titles are trimmed and empty ones dropped.
func ParseHeadingPath(s string) HeadingPath {
	var p HeadingPath
	var seg strings.Builder
	flush := func() {
		if t := strings.TrimSpace(seg.String()); t != "" {
			p = append(p, t)
		}
		seg.Reset()
	}

	rs := []rune(s)
	for i := 0; i < len(rs); i++ {
		switch r := rs[i]; {
		case r == '\\' && i+1 < len(rs) && (rs[i+1] == '>' || rs[i+1] == '\\'):
			i++
			seg.WriteRune(rs[i])
		case r == '>' && spaceAt(rs, i-1) && spaceAt(rs, i+1):
			flush()
		default:
			seg.WriteRune(r)
		}
	}
	flush()
	return p
}

// spaceAt reports whether rs[i] is whitespace or lies outside rs.
func spaceAt(rs []rune, i int) bool {
	return i < 0 || i >= len(rs) || unicode.IsSpace(rs[i])
}

// String joins the titles with HeadingPathSeparator, escaping whatever
// ParseHeadingPath would otherwise read as a separator or an escape.
func (p HeadingPath) String() string {
	var sb strings.Builder
	for i, title := range p {
		if i > 0 {
			sb.WriteString(HeadingPathSeparator)
		}
		rs := []rune(title)
		for j, r := range rs {
			switch {
			case r == '\\' && j+1 < len(rs) && (rs[j+1] == '>' || rs[j+1] == '\\'):
				sb.WriteString(`\\`)
			case r == '>' && spaceAt(rs, j-1) && spaceAt(rs, j+1):
				sb.WriteString(`\>`)
			default:
				sb.WriteRune(r)
			}
		}
	}
	return sb.String()
}

// Key is a collision-free map key for the path.
func (p HeadingPath) Key() string {
	return strings.Join(p, "\x1f")
}

func (p HeadingPath) Equal(o HeadingPath) bool {
	return slices.Equal(p, o)
}

// Append returns a new path with title added, leaving p untouched.
func (p HeadingPath) Append(title string) HeadingPath {
	out := make(HeadingPath, len(p), len(p)+1)
	copy(out, p)
	return append(out, title)
}

var (
	slugInvalid = regexp.MustCompile(`[^a-z0-9-]`)
	slugDashes  = regexp.MustCompile(`-+`)
)

// Slugify converts a string to a URL/path-safe slug.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = slugInvalid.ReplaceAllString(s, "-")
	s = slugDashes.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > 50 {
		s = strings.TrimRight(s[:50], "-")
	}
	return s
}
