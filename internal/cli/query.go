package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dgallion1/notedex/internal/doctree"
	"github.com/dgallion1/notedex/internal/index"
	"github.com/dgallion1/notedex/internal/outline"
	"github.com/dgallion1/notedex/internal/render"
)

func queryCmd(a *app) *cobra.Command {
	var all bool
	var format string

	c := &cobra.Command{
		Use:   "query <heading-path>",
		Short: `Print the section at a heading path, e.g. "Chapter 1 > Hello World"`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format, "text", "markdown", "json"); err != nil {
				return err
			}
			path := doctree.ParseHeadingPath(strings.Join(args, " "))
			if len(path) == 0 {
				return fmt.Errorf("empty heading path")
			}

			snap, err := a.snapshot(cmd.Context(), 0)
			if err != nil {
				return err
			}

			var entries []index.Entry
			if all {
				entries = snap.LookupAll(path)
			} else if e, ok := snap.Lookup(path); ok {
				entries = []index.Entry{e}
			}
			if len(entries) == 0 {
				return notFound("section not found: %s", path)
			}
			return printEntries(cmd.OutOrStdout(), snap, entries, format)
		},
	}

	c.Flags().BoolVar(&all, "all", false, "Print every document's section at the path, not just the first")
	c.Flags().StringVar(&format, "format", "text", "Output format: text|markdown|json")
	return c
}

func printEntries(w io.Writer, snap *index.Snapshot, entries []index.Entry, format string) error {
	if format == "json" {
		views := make([]render.SectionView, 0, len(entries))
		for _, e := range entries {
			views = append(views, render.NewSectionView(e, snap.Reconciled))
		}
		return writeJSON(w, views)
	}

	for i, e := range entries {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if format == "text" {
			header := fmt.Sprintf("%s  %s", e.Document.Name, e.Path())
			if g, ok := snap.Reconciled.GroupOf(e.Node); ok && g.Duplicate() {
				header += fmt.Sprintf("  [variant %d, %d copies]", g.Variant, len(g.Members))
			}
			fmt.Fprintln(w, color.CyanString("%s", header))
		}
		if err := render.Section(w, e.Section()); err != nil {
			return err
		}
	}
	return nil
}

func searchCmd(a *app) *cobra.Command {
	var limit int
	var format string

	c := &cobra.Command{
		Use:   "search <term>",
		Short: "Find sections containing a term, most matches first",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format, "text", "json"); err != nil {
				return err
			}
			if limit <= 0 {
				limit = a.cfg.SearchLimit
			}
			snap, err := a.snapshot(cmd.Context(), 0)
			if err != nil {
				return err
			}

			results := snap.Search(cmd.Context(), strings.Join(args, " "))
			if results.Term() == "" {
				return fmt.Errorf("empty search term")
			}

			w := cmd.OutOrStdout()
			var views []render.HitView
			n := 0
			for hit := range results.All() {
				n++
				if format == "json" {
					views = append(views, render.NewHitView(hit))
				} else {
					fmt.Fprintf(w, "%s %s  %s %s\n", color.CyanString("%2d.", n), hit.Document.Name, hit.Path,
						color.New(color.Faint).Sprintf("(%d matches)", hit.Matches))
					if hit.Excerpt != "" {
						fmt.Fprintf(w, "    %s\n", hit.Excerpt)
					}
				}
				if n >= limit {
					break
				}
			}
			if err := results.Err(); err != nil {
				return err
			}
			if n == 0 {
				return notFound("no sections mention %q", results.Term())
			}
			if format == "json" {
				return writeJSON(w, views)
			}
			return nil
		},
	}

	c.Flags().IntVar(&limit, "limit", 0, "Maximum hits to print (default from config)")
	c.Flags().StringVar(&format, "format", "text", "Output format: text|json")
	return c
}

func outlineCmd(a *app) *cobra.Command {
	var format string

	c := &cobra.Command{
		Use:   "outline [document]",
		Short: "Print the heading tree of one or every loaded document",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format, "text", "markdown", "json"); err != nil {
				return err
			}
			snap, err := a.snapshot(cmd.Context(), 0)
			if err != nil {
				return err
			}

			trees := snap.Trees
			if len(args) == 1 {
				t, ok := snap.Outline(args[0])
				if !ok {
					return notFound("document not found: %s", args[0])
				}
				trees = []*outline.Tree{t}
			}

			w := cmd.OutOrStdout()
			if format == "json" {
				views := make([]render.OutlineView, 0, len(trees))
				for _, t := range trees {
					views = append(views, render.NewOutlineView(t))
				}
				return writeJSON(w, views)
			}
			for i, t := range trees {
				if i > 0 {
					fmt.Fprintln(w)
				}
				if format == "markdown" {
					err = render.Markdown(w, t)
				} else {
					err = render.Outline(w, t)
				}
				if err != nil {
					return err
				}
				for _, warn := range t.Warnings {
					fmt.Fprintln(w, color.YellowString("warning:"), warn.Error())
				}
			}
			return nil
		},
	}

	c.Flags().StringVar(&format, "format", "text", "Output format: text|markdown|json")
	return c
}

func duplicatesCmd(a *app) *cobra.Command {
	var threshold float64
	var format string

	c := &cobra.Command{
		Use:   "duplicates",
		Short: "List headings that occur in several documents and how their content groups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(format, "text", "json"); err != nil {
				return err
			}
			if cmd.Flags().Changed("threshold") && (threshold <= 0 || threshold > 1) {
				return fmt.Errorf("threshold must be in (0, 1], got %g", threshold)
			}
			snap, err := a.snapshot(cmd.Context(), threshold)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			res := snap.Reconciled
			if format == "json" {
				return writeJSON(w, map[string]any{
					"threshold": res.Threshold,
					"groups":    render.NewGroupViews(res),
				})
			}
			if len(res.Paths) == 0 {
				fmt.Fprintln(w, "no heading path occurs more than once")
				return nil
			}
			for i, p := range res.Paths {
				if i > 0 {
					fmt.Fprintln(w)
				}
				fmt.Fprintln(w, color.CyanString("%s", p.Path))
				for _, g := range p.Groups {
					names := make([]string, 0, len(g.Members))
					for _, m := range g.Members {
						names = append(names, m.Document.Name)
					}
					kind := "unique"
					switch {
					case g.Exact && g.Duplicate():
						kind = color.GreenString("identical")
					case g.Duplicate():
						kind = color.YellowString("similar %.2f", g.Similarity)
					}
					fmt.Fprintf(w, "  variant %d: %s (%s)\n", g.Variant, strings.Join(names, ", "), kind)
				}
			}
			return nil
		},
	}

	c.Flags().Float64Var(&threshold, "threshold", 0, "Similarity needed to group variants (default from config)")
	c.Flags().StringVar(&format, "format", "text", "Output format: text|json")
	return c
}

func checkFormat(format string, allowed ...string) error {
	if slices.Contains(allowed, format) {
		return nil
	}
	return fmt.Errorf("unsupported format %q (expected %s)", format, strings.Join(allowed, "|"))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
