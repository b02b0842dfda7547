package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowlens/pkg/errors"
	"github.com/matzehuels/flowlens/pkg/graph"
	"github.com/matzehuels/flowlens/pkg/pipeline"
	"github.com/matzehuels/flowlens/pkg/selection"
	"github.com/matzehuels/flowlens/pkg/workflow"
)

// browseCommand opens the interactive workflow browser.
func (c *CLI) browseCommand() *cobra.Command {
	var flags layoutFlags
	var allowRevisit bool

	cmd := &cobra.Command{
		Use:   "browse [workflow-id]",
		Short: "Browse workflows interactively",
		Long: `Browse a workflow in the terminal.

Move between nodes, select one to see its metadata, drill into the
sub-workflow a node references and go back up. Without an id the first
workflow of the current connection is opened.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sess, st, err := c.openSession(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			cc, err := c.newCache(ctx, flags.noCache)
			if err != nil {
				return err
			}
			// logs would corrupt the full-screen view
			runner := pipeline.NewRunner(cc, c.keyer(), log.New(io.Discard))
			defer runner.Close()

			var id workflow.ID
			if len(args) == 1 {
				id = workflow.ID(args[0])
			} else if list := sess.WorkflowList(); len(list) > 0 {
				id = list[0].ID
			} else {
				return errors.New(errors.ErrCodeNotFound, "no workflows in %s", sess.DBName)
			}

			opts := c.pipelineOptions()
			flags.apply(&opts)
			opts.Logger = runner.Logger
			opts.Selected = ""

			surface := pipeline.NewSurface(runner, sess, st, opts, selection.Options{AllowRevisit: allowRevisit})
			m := newBrowseModel(ctx, surface, id)
			_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
			return err
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&allowRevisit, "allow-revisit", false, "allow drilling into a workflow already on the trail")
	return cmd
}

// =============================================================================
// browseModel - Interactive workflow surface
// =============================================================================

var (
	browseTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	browseCursorStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	browseSelStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorGreen)
	browseDimStyle    = lipgloss.NewStyle().Foreground(colorDim)
	browseStatusStyle = lipgloss.NewStyle().Foreground(colorRed)
	browsePanelStyle  = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorDim).
				Padding(0, 1)
)

// loadedMsg delivers the outcome of a load or navigation.
type loadedMsg pipeline.Outcome

type browseModel struct {
	ctx     context.Context
	surface *pipeline.Surface
	initial workflow.ID

	res     *pipeline.Result
	cursor  int
	loading bool
	status  string
	height  int
}

func newBrowseModel(ctx context.Context, s *pipeline.Surface, id workflow.ID) browseModel {
	return browseModel{ctx: ctx, surface: s, initial: id, loading: true, height: 20}
}

func (m browseModel) Init() tea.Cmd {
	ch := m.surface.OpenAsync(m.ctx, m.initial)
	return func() tea.Msg { return loadedMsg(<-ch) }
}

// navigate runs a surface navigation off the UI goroutine.
func (m browseModel) navigate(fn func(context.Context) (*pipeline.Result, error)) tea.Cmd {
	return func() tea.Msg {
		res, err := fn(m.ctx)
		return loadedMsg{WorkflowID: m.surface.Active(), Result: res, Err: err}
	}
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		if stderrors.Is(msg.Err, pipeline.ErrStale) {
			return m, nil
		}
		m.loading = false
		prev := m.res
		m.res = m.surface.Current()
		if m.res == nil || prev == nil || m.res.Workflow.ID != prev.Workflow.ID {
			m.cursor = 0
		}
		if msg.Err != nil {
			m.status = errors.UserMessage(msg.Err)
		} else if m.res != nil && m.res.ResolveErr != nil {
			m.status = "metadata unavailable: " + errors.UserMessage(m.res.ResolveErr)
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.height = max(msg.Height-12, 5)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m browseModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "x":
		m.status = ""
		return m, nil
	}
	if m.loading {
		return m, nil
	}

	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.res != nil && m.cursor < len(m.res.Layout.Nodes)-1 {
			m.cursor++
		}
	case "enter", " ":
		if m.res == nil || len(m.res.Layout.Nodes) == 0 {
			return m, nil
		}
		id := workflow.ID(m.res.Layout.Nodes[m.cursor].ID)
		return m, m.navigate(func(ctx context.Context) (*pipeline.Result, error) {
			return m.surface.Select(ctx, id)
		})
	case "esc":
		if m.res == nil {
			return m, nil
		}
		return m, m.navigate(m.surface.Close)
	case "right", "l", "d":
		m.loading = true
		return m, m.navigate(m.surface.DrillDown)
	case "left", "h", "b", "backspace":
		m.loading = true
		m.status = ""
		return m, m.navigate(m.surface.Back)
	}
	return m, nil
}

func (m browseModel) View() string {
	var b strings.Builder

	b.WriteString(browseTitleStyle.Render(m.breadcrumb()))
	b.WriteString("\n")
	b.WriteString(browseDimStyle.Render("↑/↓ move  ⏎ select  esc close  → drill down  ← back  x dismiss  q quit"))
	b.WriteString("\n\n")

	switch {
	case m.loading && m.res == nil:
		b.WriteString(browseDimStyle.Render("Loading " + m.surface.Active().String() + "..."))
		b.WriteString("\n")
	case m.res == nil:
		b.WriteString(browsePanelStyle.Render(fmt.Sprintf("Workflow %s not found", m.surface.Active())))
		b.WriteString("\n")
	default:
		b.WriteString(m.nodeList())
		if detail := m.detail(); detail != "" {
			b.WriteString("\n")
			b.WriteString(browsePanelStyle.Render(detail))
			b.WriteString("\n")
		}
	}

	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(browseStatusStyle.Render(iconError + " " + m.status))
		b.WriteString(browseDimStyle.Render("  (x to dismiss)"))
		b.WriteString("\n")
	}
	return b.String()
}

// breadcrumb shows the drill-down trail ending at the active workflow.
func (m browseModel) breadcrumb() string {
	parts := make([]string, 0, 4)
	for _, id := range m.surface.Selection().Trail() {
		parts = append(parts, id.String())
	}
	name := m.surface.Active().String()
	if m.res != nil {
		name = m.res.Workflow.DisplayName()
	}
	parts = append(parts, name)
	return strings.Join(parts, " "+iconArrow+" ")
}

func (m browseModel) nodeList() string {
	nodes := m.res.Layout.Nodes
	if len(nodes) == 0 {
		return browseDimStyle.Render("(empty workflow)") + "\n"
	}

	start := 0
	if m.cursor >= m.height {
		start = m.cursor - m.height + 1
	}
	end := min(start+m.height, len(nodes))

	var b strings.Builder
	for i := start; i < end; i++ {
		n := nodes[i]
		marker := "  "
		if i == m.cursor {
			marker = "▸ "
		}
		line := marker + n.DisplayLabel() + browseDimStyle.Render(" "+nodeTags(n))
		switch {
		case n.Selected:
			line = browseSelStyle.Render(line)
		case i == m.cursor:
			line = browseCursorStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString(browseDimStyle.Render(fmt.Sprintf("  [%d/%d] %d edges", m.cursor+1, len(nodes), len(m.res.Layout.Edges))))
	b.WriteString("\n")
	return b.String()
}

// nodeTags describes a node's kind and state.
func nodeTags(n graph.Node) string {
	var tags []string
	if n.Kind == string(workflow.KindSubWorkflow) {
		tags = append(tags, "sub-workflow "+n.ReferenceID)
	}
	if n.Loop {
		tags = append(tags, "loop")
	}
	if !n.Resolved {
		tags = append(tags, "unresolved")
	}
	if len(tags) == 0 {
		return ""
	}
	return "[" + strings.Join(tags, ", ") + "]"
}

// detail describes the selected node.
func (m browseModel) detail() string {
	sel := m.res.Layout.Selected
	if sel == "" {
		return ""
	}
	n, ok := m.res.Layout.Node(sel)
	if !ok {
		return ""
	}

	lines := []string{
		StyleTitle.Render(n.DisplayLabel()),
		browseDimStyle.Render("id " + n.ID + "  ref " + n.ReferenceID),
	}
	keys := make([]string, 0, len(n.Meta))
	for k := range n.Meta {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("%s: %v", k, n.Meta[k]))
	}
	if n.Kind == string(workflow.KindSubWorkflow) {
		lines = append(lines, browseDimStyle.Render("→ to open "+n.ReferenceID))
	}
	return strings.Join(lines, "\n")
}
