package parser

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/notedex/internal/doctree"
)

// Parser converts raw document bytes into a Document with flat, depth-tagged sections.
type Parser interface {
	Parse(r io.Reader, filename string) (*doctree.Document, error)
}

// Options tune format-specific behaviour.
type Options struct {
	PDFFallbackPdftotext bool
}

// Input is one raw document handed to the loader.
type Input struct {
	Name string
	Data []byte
}

// ErrUnsupportedFormat is returned for files whose extension has no parser.
var ErrUnsupportedFormat = errors.New("unsupported file extension")

// MalformedInputError reports a document whose heading structure cannot be used.
// The document is skipped; other documents in the batch still load.
type MalformedInputError struct {
	Document string
	Line     int // 0 when the position is unknown
	Reason   string
	Err      error
}

func (e *MalformedInputError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("malformed input %s:%d: %s", e.Document, e.Line, e.Reason)
	}
	return fmt.Sprintf("malformed input %s: %s", e.Document, e.Reason)
}

func (e *MalformedInputError) Unwrap() error { return e.Err }

// SupportedExtensions lists file extensions the loader can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string, opts Options) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".csv":
		return &CSVParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{FallbackPdftotext: opts.PDFFallbackPdftotext}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// LoadOne parses a single input. Any parse failure is reported as a
// *MalformedInputError except for unsupported extensions.
func LoadOne(in Input, ordinal int, opts Options) (*doctree.Document, error) {
	p, err := ForFile(in.Name, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", in.Name, err)
	}
	doc, err := p.Parse(bytes.NewReader(in.Data), in.Name)
	if err != nil {
		var malformed *MalformedInputError
		if errors.As(err, &malformed) {
			return nil, err
		}
		return nil, &MalformedInputError{Document: in.Name, Reason: err.Error(), Err: err}
	}
	doc.Name = in.Name
	doc.Ordinal = ordinal
	doc.ContentHash = ContentHashHex(in.Data)
	return doc, nil
}

// Load parses every input and returns the documents that loaded, in input
// order. Failures are collected and returned together after all inputs were
// attempted.
func Load(inputs []Input, opts Options) ([]*doctree.Document, error) {
	var docs []*doctree.Document
	var errs []error
	for i, in := range inputs {
		doc, err := LoadOne(in, i, opts)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		docs = append(docs, doc)
	}
	return docs, errors.Join(errs...)
}

// titleFromFilename strips directories and the extension.
func titleFromFilename(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// readText reads a text-format input and rejects invalid UTF-8.
func readText(r io.Reader, filename string) ([]byte, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	src = bytes.TrimPrefix(src, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(src) {
		return nil, &MalformedInputError{Document: filename, Reason: "input is not valid UTF-8"}
	}
	return src, nil
}

// builder accumulates the flat section sequence and enforces the heading rules
// shared by every format.
type builder struct {
	doc *doctree.Document
	cur *doctree.Section
}

func newBuilder(filename string) *builder {
	return &builder{doc: &doctree.Document{
		Name:  filename,
		Title: titleFromFilename(filename),
	}}
}

func (b *builder) heading(depth int, title string, line int) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return &MalformedInputError{Document: b.doc.Name, Line: line, Reason: "heading without a title"}
	}
	if len(b.doc.Sections) == 0 && depth > 1 {
		return &MalformedInputError{
			Document: b.doc.Name,
			Line:     line,
			Reason:   fmt.Sprintf("level-%d heading %q appears before any top-level heading", depth, title),
		}
	}
	s := &doctree.Section{Title: title, Depth: depth, Line: line}
	b.doc.Sections = append(b.doc.Sections, s)
	b.cur = s
	return nil
}

func (b *builder) block(kind doctree.BlockKind, text string, level int) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	blk := doctree.Block{Kind: kind, Text: text, Level: level}
	if b.cur == nil {
		b.doc.Preamble = append(b.doc.Preamble, blk)
		return
	}
	b.cur.Blocks = append(b.cur.Blocks, blk)
}

func (b *builder) document() *doctree.Document {
	return b.doc
}
