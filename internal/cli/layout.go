package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowlens/pkg/errors"
	"github.com/matzehuels/flowlens/pkg/graph"
	"github.com/matzehuels/flowlens/pkg/pipeline"
	"github.com/matzehuels/flowlens/pkg/workflow"
)

// layoutFlags are the flags shared by layout, render and browse.
type layoutFlags struct {
	strategy  string
	direction string
	selected  string
	refresh   bool
	noCache   bool
}

func (f *layoutFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.strategy, "strategy", "s", "", "layout strategy: layered (default), linear")
	cmd.Flags().StringVarP(&f.direction, "direction", "d", "", "layout direction: LR (default), TB, RL, BT")
	cmd.Flags().StringVar(&f.selected, "select", "", "node to mark as selected")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "bypass cached metadata lookups")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable the pipeline cache")
}

// apply overrides the configured defaults with explicit flags.
func (f *layoutFlags) apply(opts *pipeline.Options) {
	if f.strategy != "" {
		opts.Strategy = f.strategy
	}
	if f.direction != "" {
		opts.Direction = f.direction
	}
	opts.Selected = f.selected
	opts.Refresh = f.refresh
}

// layoutCommand writes the layout of one workflow as JSON.
func (c *CLI) layoutCommand() *cobra.Command {
	var flags layoutFlags
	var output string

	cmd := &cobra.Command{
		Use:   "layout <workflow-id>",
		Short: "Compute the layout of a workflow",
		Long: `Compute the layout of a workflow of the current connection.

Node metadata is resolved with one catalog query per node kind, then the
workflow is laid out and written as JSON: node centres, edge routing
(STRAIGHT or CURVED) and SVG path data. Results are cached locally.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.pipelineOptions()
			flags.apply(&opts)
			opts.Format = pipeline.FormatJSON
			return c.runLayout(cmd.Context(), workflow.ID(args[0]), opts, output, flags.noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	flags.register(cmd)
	return cmd
}

func (c *CLI) runLayout(ctx context.Context, id workflow.ID, opts pipeline.Options, output string, noCache bool) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	res, err := c.execute(ctx, runner, id, opts)
	if err != nil {
		return err
	}
	if output == "" {
		_, err := os.Stdout.Write(append(res.Artifact, '\n'))
		return err
	}
	if err := graph.WriteLayoutFile(res.Layout, output); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	printSuccess("Layout of %s", StyleHighlight.Render(res.Workflow.DisplayName()))
	printStats(res)
	printFile(output)
	return nil
}

// execute runs the pipeline for one workflow of the current session.
func (c *CLI) execute(ctx context.Context, runner *pipeline.Runner, id workflow.ID, opts pipeline.Options) (*pipeline.Result, error) {
	logger := loggerFromContext(ctx)
	sess, st, err := c.openSession(ctx)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	prog := newProgress(logger)
	spin := newSpinner(ctx, "Laying out "+id.String()+"...")
	spin.Start()
	res, err := runner.Execute(ctx, pipeline.Input{Session: sess, Catalog: st, WorkflowID: id}, opts)
	spin.Stop()
	if err != nil {
		return nil, err
	}
	if res.ResolveErr != nil {
		printWarning("Metadata unavailable: %s", errors.UserMessage(res.ResolveErr))
	}
	if res.Stats.DroppedEdges > 0 {
		logger.Warn("dropped edges with unknown endpoints", "count", res.Stats.DroppedEdges)
	}
	prog.done(fmt.Sprintf("Laid out %s", id))
	return res, nil
}
