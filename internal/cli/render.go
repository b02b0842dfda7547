package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowlens/pkg/errors"
	"github.com/matzehuels/flowlens/pkg/graph"
	"github.com/matzehuels/flowlens/pkg/pipeline"
	"github.com/matzehuels/flowlens/pkg/workflow"
)

// renderCommand draws one workflow in one or more formats.
func (c *CLI) renderCommand() *cobra.Command {
	var flags layoutFlags
	var output, formatsStr, from string
	var detailed bool

	cmd := &cobra.Command{
		Use:   "render [workflow-id]",
		Short: "Render a workflow to SVG, DOT, PDF or PNG",
		Long: `Render a workflow of the current connection.

Formats:
  svg       drawn directly from the layout (default)
  graphviz  SVG drawn by Graphviz with the computed positions pinned
  dot       Graphviz source
  json      the layout itself
  pdf, png  converted from SVG with rsvg-convert`,
		Example: `  flowlens render w1
  flowlens render w1 -f svg,png -o drawings/ingest
  flowlens render w1 -f dot --detailed --select n2
  flowlens render --from ingest.json -f png`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formats := parseFormats(formatsStr)
			for _, f := range formats {
				if err := pipeline.ValidateFormat(f); err != nil {
					return err
				}
			}
			opts := c.pipelineOptions()
			flags.apply(&opts)
			opts.Detailed = detailed
			if from != "" {
				return c.renderSaved(cmd.Context(), from, opts, formats, output, flags.noCache)
			}
			if len(args) == 0 {
				return errors.New(errors.ErrCodeMalformedInput, "a workflow id or --from is required")
			}
			return c.runRender(cmd.Context(), workflow.ID(args[0]), opts, formats, output, flags.noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (default: <workflow-id>)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), graphviz, dot, json, pdf, png (comma-separated)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "add ranks and attributes to DOT labels")
	cmd.Flags().StringVar(&from, "from", "", "render a layout JSON file written by the layout command, without connecting")
	flags.register(cmd)
	return cmd
}

func (c *CLI) runRender(ctx context.Context, id workflow.ID, opts pipeline.Options, formats []string, output string, noCache bool) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	res, err := c.execute(ctx, runner, id, opts)
	if err != nil {
		return err
	}

	written, err := writeFormats(ctx, runner, res.Layout, opts, formats, output, safeName(id.String()))
	if err != nil {
		return err
	}

	printSuccess("Rendered %s", StyleHighlight.Render(res.Workflow.DisplayName()))
	printStats(res)
	for _, p := range written {
		printFile(p)
	}
	return nil
}

// renderSaved draws a layout file instead of a stored workflow.
func (c *CLI) renderSaved(ctx context.Context, path string, opts pipeline.Options, formats []string, output string, noCache bool) error {
	l, err := graph.ReadLayoutFile(path)
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	name := l.WorkflowID
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	written, err := writeFormats(ctx, runner, l, opts, formats, output, safeName(name))
	if err != nil {
		return err
	}

	printSuccess("Rendered %s", StyleHighlight.Render(path))
	printDetail("%d nodes · %d edges", len(l.Nodes), len(l.Edges))
	for _, p := range written {
		printFile(p)
	}
	return nil
}

// writeFormats renders l once per format and writes each file next to
// base, or to output itself for a single format with an extension.
func writeFormats(ctx context.Context, runner *pipeline.Runner, l graph.Layout, opts pipeline.Options, formats []string, output, def string) ([]string, error) {
	spin := newSpinner(ctx, "Rendering...")
	spin.Start()
	defer spin.Stop()

	base := basePath(output, def)
	var written []string
	for _, format := range formats {
		spin.Update("Rendering " + format + "...")
		o := opts
		o.Format = format
		data, _, err := runner.RenderWithCacheInfo(ctx, l, o)
		if err != nil {
			return written, fmt.Errorf("render %s: %w", format, err)
		}

		path := base + "." + extension(format)
		if len(formats) == 1 && output != "" && filepath.Ext(output) != "" {
			path = output
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return written, fmt.Errorf("write %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}

// parseFormats splits the --format flag. Empty means SVG.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// basePath strips a known format extension from output, or falls back to
// def when output is empty.
func basePath(output, def string) string {
	if output == "" {
		return def
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// extension maps a format to its file extension.
func extension(format string) string {
	switch format {
	case pipeline.FormatGraphviz:
		return "gv.svg"
	default:
		return format
	}
}

// safeName makes a workflow id usable as a file name.
func safeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, s)
}
