package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/notedex/internal/doctree"
	"golang.org/x/net/html"
)

// HTMLParser handles HTML exports of notes.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	src, err := readText(r, filename)
	if err != nil {
		return nil, err
	}
	doc, err := html.Parse(strings.NewReader(string(src)))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	b := newBuilder(filename)

	// Extract title from <title> tag if present.
	if title := findTitle(doc); title != "" {
		b.doc.Title = title
	}

	var walkErr error
	var walk func(n *html.Node, listLevel int)
	walk = func(n *html.Node, listLevel int) {
		if walkErr != nil {
			return
		}
		if n.Type == html.ElementNode {
			if level := headingLevel(n.Data); level > 0 {
				walkErr = b.heading(level, textContent(n), 0)
				return // Don't recurse into heading children (already extracted text).
			}

			switch n.Data {
			case "script", "style", "nav", "footer", "header", "title":
				return
			case "p", "td", "th":
				b.block(doctree.KindParagraph, textContent(n), 0)
				return
			case "blockquote":
				b.block(doctree.KindQuote, textContent(n), 0)
				return
			case "pre":
				b.block(doctree.KindCode, rawTextContent(n), 0)
				return
			case "table":
				b.block(doctree.KindTable, tableContent(n), 0)
				return
			case "ul", "ol":
				for c := n.FirstChild; c != nil; c = c.NextSibling {
					walk(c, listLevel+1)
				}
				return
			case "li":
				b.block(doctree.KindListItem, ownText(n), max(listLevel-1, 0))
				for c := n.FirstChild; c != nil; c = c.NextSibling {
					if c.Type == html.ElementNode && (c.Data == "ul" || c.Data == "ol" || c.Data == "pre") {
						walk(c, listLevel)
					}
				}
				return
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, listLevel)
		}
	}

	// Find <body> or use whole document.
	if body := findBody(doc); body != nil {
		walk(body, 0)
	} else {
		walk(doc, 0)
	}
	if walkErr != nil {
		return nil, walkErr
	}

	return b.document(), nil
}

func headingLevel(tag string) int {
	switch tag {
	case "h1":
		return 1
	case "h2":
		return 2
	case "h3":
		return 3
	case "h4":
		return 4
	case "h5":
		return 5
	case "h6":
		return 6
	}
	return 0
}

func textContent(n *html.Node) string {
	return strings.Join(strings.Fields(rawTextContent(n)), " ")
}

func rawTextContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.Trim(buf.String(), "\n")
}

// ownText is the text of a list item excluding nested lists and code.
func ownText(li *html.Node) string {
	var parts []string
	for c := li.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (c.Data == "ul" || c.Data == "ol" || c.Data == "pre") {
			continue
		}
		if t := textContent(c); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

func tableContent(table *html.Node) string {
	var rows []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			var cells []string
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.ElementNode && (c.Data == "td" || c.Data == "th") {
					cells = append(cells, textContent(c))
				}
			}
			rows = append(rows, strings.Join(cells, " | "))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(table)
	return strings.Join(rows, "\n")
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return textContent(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
