package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/beetlebugorg/avc/pkg/avc"
)

func newInfoCmd(a *app) *cobra.Command {
	var recursive bool

	cmd := &cobra.Command{
		Use:   "info PATH...",
		Short: "Describe coverages: layers, fields, projection and INFO tables",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			covs, err := a.openAll(args, recursive)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for i, c := range covs {
				if i > 0 {
					fmt.Fprintln(out)
				}
				if err := describe(out, c); err != nil {
					c.Close()
					return err
				}
				c.Close()
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "search directories for coverages")
	return cmd
}

// openAll opens every path, expanding directories that are not coverages
// themselves when recursive is set. Failed coverages are logged and
// skipped; it fails only when nothing could be opened.
func (a *app) openAll(args []string, recursive bool) ([]*avc.Coverage, error) {
	var paths []string
	for _, arg := range args {
		if recursive && !strings.HasPrefix(arg, "zip://") {
			if st, err := os.Stat(arg); err == nil && st.IsDir() {
				found, err := avc.FindCoverages(arg)
				if err != nil {
					return nil, err
				}
				paths = append(paths, found...)
				continue
			}
		}
		paths = append(paths, arg)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no coverages found")
	}

	opts, err := a.cfg.OpenOptions()
	if err != nil {
		return nil, err
	}
	lo := avc.DefaultLoadOptions()
	if a.cfg.Workers > 0 {
		lo.Workers = a.cfg.Workers
	}
	covs, errs := avc.OpenAll(paths, lo, opts...)
	for _, err := range errs {
		slog.Error("cannot open coverage", "error", err, "kind", avc.KindOf(err).String())
	}
	if len(covs) == 0 {
		if len(errs) == 1 {
			return nil, errs[0]
		}
		return nil, fmt.Errorf("none of %d coverages could be opened", len(paths))
	}
	return covs, nil
}

func describe(w io.Writer, c *avc.Coverage) error {
	fmt.Fprintf(w, "Coverage: %s\n", c.Name())
	fmt.Fprintf(w, "Path: %s\n", c.Path())
	fmt.Fprintf(w, "Format: %s\n", c.Representation())

	if srs := c.SpatialReference(); srs != nil {
		fmt.Fprintf(w, "Projection: %s\n", srs)
	} else if err := c.SpatialReferenceErr(); err != nil {
		fmt.Fprintf(w, "Projection: invalid (%v)\n", err)
	} else {
		fmt.Fprintln(w, "Projection: none")
	}

	if tols, err := c.Tolerances(); err == nil && len(tols) > 0 {
		fmt.Fprintln(w, "Tolerances:")
		for _, t := range tols {
			fmt.Fprintf(w, "  %2d  flag=%d  %g\n", t.Index, t.Flag, t.Value)
		}
	}

	for _, l := range c.Layers() {
		n, err := l.FeatureCount()
		if err != nil {
			return fmt.Errorf("%s layer %s: %w", c.Name(), l.Name(), err)
		}
		fmt.Fprintf(w, "Layer %s (%s): %d features\n", l.Name(), l.GeometryType(), n)
		for _, f := range l.Fields() {
			fmt.Fprintf(w, "  %-16s %-11s", f.Name, f.Type)
			if f.Width > 0 {
				fmt.Fprintf(w, " %d", f.Width)
				if f.Precision > 0 {
					fmt.Fprintf(w, ".%d", f.Precision)
				}
			}
			fmt.Fprintln(w)
		}
	}

	if tables := c.Tables(); len(tables) > 0 {
		fmt.Fprintln(w, "INFO tables:")
		for _, t := range tables {
			ext := ""
			if t.External {
				ext = ", external"
			}
			fmt.Fprintf(w, "  %-24s %d records, %d items%s\n", t.Name, t.Records, len(t.Items), ext)
		}
	}
	return nil
}
