package cli

import (
	"context"
	"io"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowlens/pkg/buildinfo"
	"github.com/matzehuels/flowlens/pkg/cache"
	"github.com/matzehuels/flowlens/pkg/config"
	"github.com/matzehuels/flowlens/pkg/errors"
	"github.com/matzehuels/flowlens/pkg/observability"
	"github.com/matzehuels/flowlens/pkg/pipeline"
	"github.com/matzehuels/flowlens/pkg/session"
	"github.com/matzehuels/flowlens/pkg/store"
	"github.com/matzehuels/flowlens/pkg/store/memory"
	"github.com/matzehuels/flowlens/pkg/store/mongo"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "flowlens"

	// fixtureURI and fixtureDB stand in for a connection when workflows come
	// from a fixture file.
	fixtureURI = "mongodb://fixture"
	fixtureDB  = "fixture"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	fixture    string
	cfg        config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		cfg:    config.Default(),
	}
}

// SetLogLevel updates the logger's level. At debug level pipeline and
// cache events are logged too.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
	if level <= log.DebugLevel {
		hooks := observability.NewLogHooks(c.Logger)
		observability.SetPipelineHooks(hooks)
		observability.SetCacheHooks(hooks)
	}
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Flowlens lays out and browses stored workflow graphs",
		Long:         `Flowlens connects to a document store of workflow definitions, resolves node metadata in bulk and draws each workflow as a layered graph, with drill-down into sub-workflows.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			c.cfg = cfg
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/flowlens/config.toml)")
	root.PersistentFlags().StringVar(&c.fixture, "fixture", "", "read workflows and catalogs from a JSON fixture instead of MongoDB")

	root.AddCommand(c.serveCommand())
	root.AddCommand(c.connectCommand())
	root.AddCommand(c.disconnectCommand())
	root.AddCommand(c.workflowsCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Factories
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cc, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cc, c.keyer(), c.Logger), nil
}

// keyer separates cache entries of different fixture files, which all
// share the same stand-in connection.
func (c *CLI) keyer() cache.Keyer {
	if c.fixture == "" {
		return nil
	}
	path, err := filepath.Abs(c.fixture)
	if err != nil {
		path = c.fixture
	}
	return cache.NewScopedKeyer(nil, "fixture:"+cache.Hash([]byte(path))[:12]+":")
}

func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	cc, err := c.cfg.Cache.Open(ctx)
	if err != nil {
		c.Logger.Warn("cache unavailable, continuing without", "err", err)
		return cache.NewNullCache(), nil
	}
	return cc, nil
}

// dialer returns the store dialer: MongoDB, or the fixture file when one
// is set.
func (c *CLI) dialer() store.Dialer {
	if c.fixture != "" {
		path := c.fixture
		return func(ctx context.Context, uri, dbName string) (store.Store, error) {
			st, err := memory.LoadFile(path)
			if err != nil {
				return nil, err
			}
			return st.Dialer()(ctx, uri, dbName)
		}
	}
	return mongo.Dialer(mongo.Options{
		Timeout: c.cfg.Mongo.Timeout.Duration,
		Logger:  c.Logger,
	})
}

// connection returns the target from flags, falling back to the config.
func (c *CLI) connection(uri, dbName string) (string, string) {
	if uri == "" {
		uri = c.cfg.Mongo.URI
	}
	if dbName == "" {
		dbName = c.cfg.Mongo.Database
	}
	if c.fixture != "" {
		if uri == "" {
			uri = fixtureURI
		}
		if dbName == "" {
			dbName = fixtureDB
		}
	}
	return uri, dbName
}

// sessionStore returns the store holding the CLI's current session.
func (c *CLI) sessionStore() (*session.CLIStore, error) {
	dir, err := config.CacheDir(c.cfg.Session.Dir)
	if err != nil {
		return nil, err
	}
	return session.NewCLIStore(filepath.Join(dir, "cli"))
}

// loadSession returns the current session, failing when not connected.
func (c *CLI) loadSession(ctx context.Context) (*session.Session, *session.CLIStore, error) {
	cs, err := c.sessionStore()
	if err != nil {
		return nil, nil, err
	}
	sess, err := cs.Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	if sess == nil {
		return nil, nil, errors.New(errors.ErrCodeNotFound, "not connected (run %s connect)", appName)
	}
	return sess, cs, nil
}

// openSession loads the current session and dials its store.
func (c *CLI) openSession(ctx context.Context) (*session.Session, store.Store, error) {
	sess, _, err := c.loadSession(ctx)
	if err != nil {
		return nil, nil, err
	}
	st, err := c.dialer()(ctx, sess.MongoURI, sess.DBName)
	if err != nil {
		return nil, nil, err
	}
	return sess, st, nil
}

// pipelineOptions starts options from the configured layout defaults.
func (c *CLI) pipelineOptions() pipeline.Options {
	return pipeline.Options{
		Strategy:  c.cfg.Layout.Strategy,
		Direction: c.cfg.Layout.Direction,
		Layout:    c.cfg.Layout.Options(),
		Logger:    c.Logger,
	}
}
