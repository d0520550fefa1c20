package doctree

import "testing"

func TestParseHeadingPath(t *testing.T) {
	tests := []struct {
		in   string
		want HeadingPath
	}{
		{"Chapter 1 > Hello World", HeadingPath{"Chapter 1", "Hello World"}},
		{"  Chapter 1 >\tHello World  ", HeadingPath{"Chapter 1", "Hello World"}},
		{"Single", HeadingPath{"Single"}},
		{"A >  > B", HeadingPath{"A", "B"}},
		{"", nil},
		{"Chapter 3 > a -> b", HeadingPath{"Chapter 3", "a -> b"}},
		{"Types > std::vector<int> > operator>", HeadingPath{"Types", "std::vector<int>", "operator>"}},
		{"Chapter 1>Hello World", HeadingPath{"Chapter 1>Hello World"}},
		{`x \> y > z`, HeadingPath{"x > y", "z"}},
		{`a\\b > c\d`, HeadingPath{`a\b`, `c\d`}},
	}
	for _, tt := range tests {
		got := ParseHeadingPath(tt.in)
		if !got.Equal(tt.want) {
			t.Errorf("ParseHeadingPath(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestHeadingPath_StringRoundTrip(t *testing.T) {
	p := HeadingPath{"Chapter 3", "Sharing data", "Mutexes"}
	if got := p.String(); got != "Chapter 3 > Sharing data > Mutexes" {
		t.Errorf("unexpected String(): %q", got)
	}
	if !ParseHeadingPath(p.String()).Equal(p) {
		t.Errorf("expected round trip to preserve %v", p)
	}
}

func TestHeadingPath_StringRoundTripSpecialTitles(t *testing.T) {
	titles := []string{
		"a -> b", "operator>", "vector<int>", "x > y", ">", "> quote", "ends >",
		`back\slash`, `a\>`, `end\`, `two\\`, `\\>`, "template<typename T>",
	}
	for _, title := range titles {
		p := HeadingPath{"Chapter 3", title, "Notes"}
		got := ParseHeadingPath(p.String())
		if !got.Equal(p) {
			t.Errorf("round trip of %q via %q = %q", title, p.String(), got)
		}
	}
	if got := (HeadingPath{"Chapter 3", "a -> b"}).String(); got != "Chapter 3 > a -> b" {
		t.Errorf("unexpected String(): %q", got)
	}
	if got := (HeadingPath{"x > y"}).String(); got != `x \> y` {
		t.Errorf("unexpected String(): %q", got)
	}
}

func TestHeadingPath_AppendDoesNotAlias(t *testing.T) {
	base := make(HeadingPath, 1, 4)
	base[0] = "Root"
	a := base.Append("A")
	b := base.Append("B")
	if a[1] != "A" || b[1] != "B" {
		t.Errorf("appends aliased each other: a=%v b=%v", a, b)
	}
	if len(base) != 1 {
		t.Errorf("base path modified: %v", base)
	}
}

func TestHeadingPath_KeyDistinguishesSegments(t *testing.T) {
	a := HeadingPath{"a b", "c"}
	b := HeadingPath{"a", "b c"}
	if a.Key() == b.Key() {
		t.Error("expected distinct keys for distinct paths")
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"C++ Concurrency in Action", "c-concurrency-in-action"},
		{"  The C Programming Language ", "the-c-programming-language"},
		{"notes_v2.md", "notes-v2-md"},
		{"---", ""},
	}
	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDocumentID_FallsBackToName(t *testing.T) {
	d := &Document{Name: "notes/kr.md", Title: "+++"}
	if got := d.ID(); got != "notes-kr-md" {
		t.Errorf("expected fallback id, got %q", got)
	}
}

func TestSection_CloneIsDeep(t *testing.T) {
	s := &Section{Title: "A", Blocks: []Block{{Kind: KindParagraph, Text: "x"}}}
	c := s.Clone()
	c.Blocks[0].Text = "y"
	if s.Blocks[0].Text != "x" {
		t.Error("clone shares block storage with original")
	}
}
