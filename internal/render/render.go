// Package render writes sections and outlines as text.
package render

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/notedex/internal/doctree"
	"github.com/dgallion1/notedex/internal/outline"
)

// Section writes sec as Markdown: a heading at its own depth followed by its
// blocks.
func Section(w io.Writer, sec *doctree.Section) error {
	bw := bufio.NewWriter(w)
	writeSection(bw, sec)
	return bw.Flush()
}

// Markdown writes the whole tree back as Markdown. Placeholders produce no
// heading; their children keep their original depth.
func Markdown(w io.Writer, t *outline.Tree) error {
	bw := bufio.NewWriter(w)
	writeBlocks(bw, t.Document.Preamble)
	for n := range t.Nodes() {
		if n.IsPlaceholder() {
			continue
		}
		writeSection(bw, n.Section)
	}
	return bw.Flush()
}

// Outline writes an indented title tree. Placeholders are shown as "(missing
// level N)" so gaps remain visible.
func Outline(w io.Writer, t *outline.Tree) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%s (%s)\n", t.Document.Title, t.Document.Name)
	for n := range t.Nodes() {
		indent := strings.Repeat("  ", n.Depth())
		if n.IsPlaceholder() {
			fmt.Fprintf(bw, "%s(missing level %d)\n", indent, n.Depth())
			continue
		}
		fmt.Fprintf(bw, "%s%s\n", indent, n.Title())
	}
	return bw.Flush()
}

func writeSection(w *bufio.Writer, sec *doctree.Section) {
	depth := min(max(sec.Depth, 1), 6)
	fmt.Fprintf(w, "%s %s\n\n", strings.Repeat("#", depth), sec.Title)
	writeBlocks(w, sec.Blocks)
}

func writeBlocks(w *bufio.Writer, blocks []doctree.Block) {
	for i, b := range blocks {
		switch b.Kind {
		case doctree.KindListItem:
			fmt.Fprintf(w, "%s- %s\n", strings.Repeat("  ", b.Level), b.Text)
			// Keep consecutive items in one list.
			if i+1 < len(blocks) && blocks[i+1].Kind == doctree.KindListItem {
				continue
			}
		case doctree.KindCode:
			fmt.Fprintf(w, "```\n%s\n```\n", b.Text)
		case doctree.KindQuote:
			for _, line := range strings.Split(b.Text, "\n") {
				fmt.Fprintf(w, "> %s\n", line)
			}
		default:
			fmt.Fprintf(w, "%s\n", b.Text)
		}
		w.WriteString("\n")
	}
}
