package parser

import (
	"bufio"
	"bytes"
	"io"
	"regexp"
	"strings"

	"github.com/dgallion1/notedex/internal/doctree"
)

var (
	// "# Title", "## Title ##"; "#include" is not a heading.
	textHeading  = regexp.MustCompile(`^(#{1,6})(?:[ \t]+(.*?))?[ \t]*$`)
	textListItem = regexp.MustCompile(`^([ \t]*)(?:[-*+]|\d+[.)])[ \t]+(.*)$`)
)

// TextParser handles plain text notes that mark headings with leading '#'
// characters, one per nesting level.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	src, err := readText(r, filename)
	if err != nil {
		return nil, err
	}

	scanner := bufio.NewScanner(bytes.NewReader(src))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	b := newBuilder(filename)

	var current strings.Builder
	kind := doctree.KindParagraph
	level := 0
	inFence := false

	flush := func() {
		if current.Len() > 0 {
			b.block(kind, current.String(), level)
			current.Reset()
		}
		kind = doctree.KindParagraph
		level = 0
	}
	appendLine := func(line string) {
		if current.Len() > 0 {
			current.WriteString("\n")
		}
		current.WriteString(line)
	}

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "```") {
			if inFence {
				inFence = false
				flush()
			} else {
				flush()
				inFence = true
				kind = doctree.KindCode
			}
			continue
		}
		if inFence {
			// Keep blank lines inside code; flush only on the closing fence.
			current.WriteString(line)
			current.WriteString("\n")
			continue
		}

		if trimmed == "" {
			flush()
			continue
		}

		if m := textHeading.FindStringSubmatch(line); m != nil {
			flush()
			title := strings.TrimSpace(strings.TrimRight(m[2], "#"))
			if err := b.heading(len(m[1]), title, lineNo); err != nil {
				return nil, err
			}
			continue
		}

		if m := textListItem.FindStringSubmatch(line); m != nil {
			flush()
			kind = doctree.KindListItem
			level = indentLevel(m[1])
			appendLine(m[2])
			continue
		}

		if strings.HasPrefix(trimmed, ">") {
			if kind != doctree.KindQuote {
				flush()
				kind = doctree.KindQuote
			}
			appendLine(strings.TrimSpace(strings.TrimPrefix(trimmed, ">")))
			continue
		}

		if kind == doctree.KindQuote {
			flush()
		}
		appendLine(line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()

	return b.document(), nil
}

// indentLevel converts list indentation to a nesting level (two spaces or one tab per level).
func indentLevel(indent string) int {
	width := 0
	for _, r := range indent {
		if r == '\t' {
			width += 2
		} else {
			width++
		}
	}
	return width / 2
}
