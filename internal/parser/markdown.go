package parser

import (
	"bytes"
	"io"
	"strings"

	"github.com/dgallion1/notedex/internal/doctree"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown files using goldmark.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	src, err := readText(r, filename)
	if err != nil {
		return nil, err
	}

	md := goldmark.New(goldmark.WithExtensions(extension.Table, extension.Strikethrough))
	doc := md.Parser().Parse(text.NewReader(src))

	b := newBuilder(filename)
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if h, ok := n.(*ast.Heading); ok {
			if err := b.heading(h.Level, inlineText(h, src), lineOf(h, src)); err != nil {
				return nil, err
			}
			continue
		}
		appendBlocks(b, n, src)
	}
	return b.document(), nil
}

// appendBlocks turns a top-level (non-heading) block node into content blocks.
func appendBlocks(b *builder, n ast.Node, src []byte) {
	switch node := n.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		b.block(doctree.KindParagraph, inlineText(node, src), 0)
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		b.block(doctree.KindCode, rawLines(node, src), 0)
	case *ast.HTMLBlock:
		b.block(doctree.KindParagraph, rawLines(node, src), 0)
	case *ast.Blockquote:
		var parts []string
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			if t := blockText(c, src); t != "" {
				parts = append(parts, t)
			}
		}
		b.block(doctree.KindQuote, strings.Join(parts, "\n"), 0)
	case *ast.List:
		appendList(b, node, src, 0)
	case *east.Table:
		b.block(doctree.KindTable, tableText(node, src), 0)
	case *ast.ThematicBreak:
	default:
		b.block(doctree.KindParagraph, blockText(node, src), 0)
	}
}

// appendList emits one list_item block per item, nested lists one level deeper.
func appendList(b *builder, list *ast.List, src []byte, level int) {
	for item := list.FirstChild(); item != nil; item = item.NextSibling() {
		var parts []string
		var nested []ast.Node
		for c := item.FirstChild(); c != nil; c = c.NextSibling() {
			switch c.(type) {
			case *ast.TextBlock, *ast.Paragraph:
				parts = append(parts, inlineText(c, src))
			default:
				nested = append(nested, c)
			}
		}
		b.block(doctree.KindListItem, strings.Join(parts, "\n"), level)
		for _, c := range nested {
			if sub, ok := c.(*ast.List); ok {
				appendList(b, sub, src, level+1)
				continue
			}
			appendBlocks(b, c, src)
		}
	}
}

// blockText returns the readable text of any block node.
func blockText(n ast.Node, src []byte) string {
	switch n.(type) {
	case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock:
		return rawLines(n, src)
	case *ast.Paragraph, *ast.TextBlock, *ast.Heading:
		return inlineText(n, src)
	}
	var parts []string
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t := blockText(c, src); t != "" {
			parts = append(parts, t)
		}
	}
	if len(parts) == 0 {
		return inlineText(n, src)
	}
	return strings.Join(parts, "\n")
}

// inlineText gets the plain text of a node's inline children.
func inlineText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	writeInline(&buf, n, src)
	return strings.TrimSpace(buf.String())
}

func writeInline(buf *bytes.Buffer, n ast.Node, src []byte) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(src))
			if t.HardLineBreak() {
				buf.WriteByte('\n')
			} else if t.SoftLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(t.Value)
		case *ast.AutoLink:
			// <std::mutex> parses as an autolink; keep the brackets.
			buf.WriteByte('<')
			buf.Write(t.Label(src))
			buf.WriteByte('>')
		case *ast.RawHTML:
			// Template arguments such as <int> parse as inline HTML.
			for i := 0; i < t.Segments.Len(); i++ {
				seg := t.Segments.At(i)
				buf.Write(seg.Value(src))
			}
		default:
			writeInline(buf, c, src)
		}
	}
}

// rawLines returns the verbatim source lines of a block (code, raw HTML).
func rawLines(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(src))
	}
	return strings.TrimRight(buf.String(), "\n")
}

func tableText(t *east.Table, src []byte) string {
	var rows []string
	for row := t.FirstChild(); row != nil; row = row.NextSibling() {
		var cells []string
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			cells = append(cells, inlineText(cell, src))
		}
		rows = append(rows, strings.Join(cells, " | "))
	}
	return strings.Join(rows, "\n")
}

// lineOf returns the 1-based source line of a block node, 0 if it has no lines.
func lineOf(n ast.Node, src []byte) int {
	lines := n.Lines()
	if lines.Len() == 0 {
		return 0
	}
	start := lines.At(0).Start
	if start > len(src) {
		start = len(src)
	}
	return bytes.Count(src[:start], []byte("\n")) + 1
}
