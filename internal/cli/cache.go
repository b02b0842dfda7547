package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowlens/pkg/cache"
	"github.com/matzehuels/flowlens/pkg/config"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the pipeline cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand removes every cached workflow list, resolution, layout
// and artifact of the configured backend.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear cached resolutions, layouts and renders",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cc, err := c.cfg.Cache.Open(ctx)
			if err != nil {
				return err
			}
			defer cc.Close()

			var count int
			var where string
			switch cc := cc.(type) {
			case *cache.FileCache:
				count, err = cc.Clear()
				where = cc.Dir()
			case *cache.RedisCache:
				count, err = cc.Clear(ctx)
				where = c.cfg.Cache.RedisAddr
			default:
				printInfo("Cache is disabled")
				return nil
			}
			if err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}

			if count == 0 {
				printInfo("Cache is empty")
				return nil
			}
			printSuccess("Cleared %d cached entries", count)
			printDetail("Location: %s", where)
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := config.CacheDir(c.cfg.Cache.Dir)
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Println(filepath.Join(dir, "pipeline"))
			return nil
		},
	}
}
