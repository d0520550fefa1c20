package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/notedex/internal/doctree"
	"github.com/dgallion1/notedex/internal/outline"
	"github.com/dgallion1/notedex/internal/parser"
)

func TestSection_Markdown(t *testing.T) {
	sec := &doctree.Section{
		Title: "Hello World",
		Depth: 2,
		Blocks: []doctree.Block{
			{Kind: doctree.KindParagraph, Text: "The first program."},
			{Kind: doctree.KindListItem, Text: "main"},
			{Kind: doctree.KindListItem, Text: "returns int", Level: 1},
			{Kind: doctree.KindCode, Text: `printf("hello, world\n");`},
			{Kind: doctree.KindQuote, Text: "The only way to learn\nis to write programs."},
		},
	}

	var sb strings.Builder
	require.NoError(t, Section(&sb, sec))

	want := "## Hello World\n\n" +
		"The first program.\n\n" +
		"- main\n  - returns int\n\n" +
		"```\nprintf(\"hello, world\\n\");\n```\n\n" +
		"> The only way to learn\n> is to write programs.\n\n"
	assert.Equal(t, want, sb.String())
}

func TestMarkdown_RoundTripsThroughParser(t *testing.T) {
	src := "Preface text.\n\n# Chapter 1\n\n## Hello World\n\n- main\n- printf\n\n# Chapter 2\n\nTypes.\n"
	doc, err := parser.LoadOne(parser.Input{Name: "kr.md", Data: []byte(src)}, 0, parser.Options{})
	require.NoError(t, err)

	var sb strings.Builder
	require.NoError(t, Markdown(&sb, outline.Build(doc)))

	again, err := parser.LoadOne(parser.Input{Name: "kr.md", Data: []byte(sb.String())}, 0, parser.Options{})
	require.NoError(t, err)
	require.Len(t, again.Sections, len(doc.Sections))
	for i := range doc.Sections {
		assert.Equal(t, doc.Sections[i].Title, again.Sections[i].Title)
		assert.Equal(t, doc.Sections[i].Depth, again.Sections[i].Depth)
		assert.Equal(t, doc.Sections[i].Blocks, again.Sections[i].Blocks)
	}
	assert.Equal(t, doc.Preamble, again.Preamble)
}

func TestOutline_ShowsPlaceholders(t *testing.T) {
	doc := &doctree.Document{
		Name:  "ccia.md",
		Title: "ccia",
		Sections: []*doctree.Section{
			{Title: "Chapter 3", Depth: 1},
			{Title: "Deadlock", Depth: 3},
		},
	}

	var sb strings.Builder
	require.NoError(t, Outline(&sb, outline.Build(doc)))

	want := "ccia (ccia.md)\n" +
		"  Chapter 3\n" +
		"    (missing level 2)\n" +
		"      Deadlock\n"
	assert.Equal(t, want, sb.String())
}
