package cli

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowlens/pkg/cache"
	"github.com/matzehuels/flowlens/pkg/workflow"
)

// connectCommand opens a store, lists its workflows and saves the session.
func (c *CLI) connectCommand() *cobra.Command {
	var uri, dbName string
	var noCache bool

	cmd := &cobra.Command{
		Use:   "connect",
		Short: "Connect to a workflow database and cache its workflow list",
		Example: `  flowlens connect --uri mongodb://localhost:27017 --db flows
  flowlens --fixture testdata/flows.json connect`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			uri, dbName = c.connection(uri, dbName)

			runner, err := c.newRunner(ctx, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			cs, err := c.sessionStore()
			if err != nil {
				return err
			}

			spin := newSpinner(ctx, "Connecting to "+dbName+"...")
			spin.Start()
			sess, st, err := runner.Connect(ctx, c.dialer(), uri, dbName, 0, true)
			spin.Stop()
			if err != nil {
				// a failed connect forgets the previous session
				_ = cs.Clear(ctx)
				return err
			}
			defer st.Close()

			if err := cs.Save(ctx, sess); err != nil {
				return fmt.Errorf("save session: %w", err)
			}

			printSuccess("Connected to %s", StyleHighlight.Render(dbName))
			printDetail("%d workflows", len(sess.WorkflowList()))
			printNextStep("List them", appName+" workflows")
			return nil
		},
	}

	cmd.Flags().StringVar(&uri, "uri", "", "MongoDB connection string (default from config or FLOWLENS_MONGO_URI)")
	cmd.Flags().StringVar(&dbName, "db", "", "database name (default from config or FLOWLENS_DB_NAME)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the pipeline cache")

	return cmd
}

// disconnectCommand forgets the current session.
func (c *CLI) disconnectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect",
		Short: "Forget the current connection and its workflow list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cs, err := c.sessionStore()
			if err != nil {
				return err
			}
			if err := cs.Clear(cmd.Context()); err != nil {
				return err
			}
			printSuccess("Disconnected")
			return nil
		},
	}
}

// workflowsCommand lists the workflows of the current session.
func (c *CLI) workflowsCommand() *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "workflows",
		Short: "List the workflows of the current connection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sess, cs, err := c.loadSession(ctx)
			if err != nil {
				return err
			}

			if refresh {
				runner, err := c.newRunner(ctx, false)
				if err != nil {
					return err
				}
				defer runner.Close()
				st, err := c.dialer()(ctx, sess.MongoURI, sess.DBName)
				if err != nil {
					return err
				}
				defer st.Close()
				list, err := runner.Workflows(ctx, st, cache.Conn{URI: sess.MongoURI, Database: sess.DBName}, true)
				if err != nil {
					return err
				}
				if err := sess.SetWorkflows(list); err != nil {
					return err
				}
				if err := cs.Save(ctx, sess); err != nil {
					return err
				}
			}

			list := sess.WorkflowList()
			if len(list) == 0 {
				printInfo("No workflows in %s", sess.DBName)
				return nil
			}
			fmt.Println(workflowTable(list))
			return nil
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "re-read the list from the database")
	return cmd
}

// workflowTable renders workflows as a bordered table.
func workflowTable(list []workflow.Workflow) string {
	rows := make([][]string, len(list))
	for i, wf := range list {
		subs := 0
		for _, n := range wf.Nodes {
			if n.Kind() == workflow.KindSubWorkflow {
				subs++
			}
		}
		rows[i] = []string{
			wf.ID.String(),
			wf.DisplayName(),
			strconv.Itoa(len(wf.Nodes)),
			strconv.Itoa(len(wf.Edges)),
			strconv.Itoa(subs),
		}
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Name", "Nodes", "Edges", "Sub-workflows").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 0 {
				return lipgloss.NewStyle().Foreground(colorCyan)
			}
			return lipgloss.NewStyle()
		}).
		Render()
}
