// Package pipeline runs the load stages in order: read and parse every input,
// build outlines, reconcile duplicates and index the result.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dgallion1/notedex/internal/doctree"
	"github.com/dgallion1/notedex/internal/index"
	"github.com/dgallion1/notedex/internal/parser"
)

// Options configures a pipeline.
type Options struct {
	Parser       parser.Options
	Index        index.Options
	MaxFileBytes int64
}

// Pipeline is a single-pass batch loader. It holds no state between runs.
type Pipeline struct {
	opts Options
	log  *slog.Logger
}

func New(opts Options, log *slog.Logger) *Pipeline {
	if opts.MaxFileBytes <= 0 {
		opts.MaxFileBytes = 50 << 20
	}
	return &Pipeline{opts: opts, log: log}
}

// LoadPaths expands paths into files, reads them and runs the pipeline.
// Unreadable paths are recorded in the report; only cancellation is an error.
func (p *Pipeline) LoadPaths(ctx context.Context, paths []string) (*index.Snapshot, *Report, error) {
	report := newReport()
	var inputs []parser.Input
	seen := make(map[string]bool)

	for _, arg := range paths {
		files, err := parser.CollectPaths([]string{arg})
		if err != nil {
			p.log.Warn("path unreadable", "path", arg, "error", err)
			report.add(DocReport{Name: arg, Status: StatusUnreadable, Error: err.Error()})
		}
		for _, f := range files {
			if seen[f] {
				continue
			}
			seen[f] = true
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
			data, err := parser.ReadFile(f, p.opts.MaxFileBytes)
			if err != nil {
				p.log.Warn("file unreadable", "path", f, "error", err)
				report.add(DocReport{Name: f, Status: StatusUnreadable, Error: err.Error()})
				continue
			}
			inputs = append(inputs, parser.Input{Name: f, Data: data})
		}
	}

	snap, err := p.run(ctx, inputs, report)
	if err != nil {
		return nil, nil, err
	}
	return snap, report, nil
}

// Run processes in-memory inputs.
func (p *Pipeline) Run(ctx context.Context, inputs []parser.Input) (*index.Snapshot, *Report, error) {
	report := newReport()
	snap, err := p.run(ctx, inputs, report)
	if err != nil {
		return nil, nil, err
	}
	return snap, report, nil
}

func (p *Pipeline) run(ctx context.Context, inputs []parser.Input, report *Report) (*index.Snapshot, error) {
	var docs []*doctree.Document
	pending := make(map[*doctree.Document]int) // document -> report row

	for i, in := range inputs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		log := p.log.With("document", in.Name)

		doc, err := parser.LoadOne(in, i, p.opts.Parser)
		if err != nil {
			status := StatusMalformed
			if errors.Is(err, parser.ErrUnsupportedFormat) {
				status = StatusUnsupported
			}
			log.Error("document skipped", "status", status, "error", err)
			report.add(DocReport{Name: in.Name, Status: status, Error: err.Error()})
			documentsTotal.WithLabelValues(string(status)).Inc()
			continue
		}

		pending[doc] = len(report.Documents)
		report.add(DocReport{
			Name:        doc.Name,
			DocID:       doc.ID(),
			Status:      StatusLoaded,
			Sections:    len(doc.Sections),
			ContentHash: doc.ContentHash,
		})
		docs = append(docs, doc)
	}

	snap := index.New(docs, p.opts.Index)

	for _, tree := range snap.Trees {
		row := &report.Documents[pending[tree.Document]]
		for _, w := range tree.Warnings {
			p.log.Warn("heading level skipped", "document", w.Document, "path", w.Path.String(),
				"line", w.Line, "from_depth", w.FromDepth, "to_depth", w.ToDepth)
			row.Warnings = append(row.Warnings, w.Error())
			row.Status = StatusWarnings
		}
		structureWarningsTotal.Add(float64(len(tree.Warnings)))
		documentsTotal.WithLabelValues(string(row.Status)).Inc()
	}

	report.Generation = snap.Generation
	report.ContestedPaths = len(snap.Reconciled.Paths)
	report.DuplicateGroups = len(snap.Reconciled.Duplicates())
	report.FinishedAt = time.Now().UTC()
	loadDuration.Observe(time.Since(report.StartedAt).Seconds())

	p.log.Info("load complete",
		"generation", report.Generation,
		"documents", len(report.Documents),
		"loaded", report.Loaded(),
		"warnings", len(snap.Warnings),
		"duplicate_groups", report.DuplicateGroups,
		"duration", report.Duration(),
	)
	return snap, nil
}
