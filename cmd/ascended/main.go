package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"ascended/internal/cache"
	"ascended/internal/chakra"
	"ascended/internal/config"
	"ascended/internal/logging"
	"ascended/internal/metrics"
	"ascended/internal/service"
	"ascended/internal/store/sqlite"
)

const defaultConfigPath = "./ascended.yaml"

// app holds the collaborators opened for a single command invocation.
type app struct {
	cfg    config.Config
	db     *sqlite.DB
	feed   *cache.FeedCache
	engine *service.Engine
}

func (a *app) Close() {
	if a.feed != nil {
		_ = a.feed.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}

type options struct {
	configPath  string
	metricsAddr string
	verbose     bool
	cfg         config.Config
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "ascended",
		Short: "Engagement scoring and spirit progression engine",
		Long: `ascended scores posts by engagement frequency, meters spending through a
monthly energy allotment and grows each user's spirit companion with experience.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			level := cfg.Logging.Level
			if opts.verbose {
				level = "debug"
			}
			if err := logging.Init(level, cfg.Logging.Development); err != nil {
				return err
			}
			if opts.metricsAddr != "" {
				cfg.Metrics.Addr = opts.metricsAddr
			}
			metrics.StartServer(cfg.Metrics.Addr)
			opts.cfg = cfg
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logging.Sync()
		},
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", defaultConfigPath, "config path")
	root.PersistentFlags().StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newInitCmd(),
		newUserCmd(opts),
		newPostCmd(opts),
		newEngageCmd(opts),
		newRetractCmd(opts),
		newSigilCmd(opts),
		newBalanceCmd(opts),
		newSpiritCmd(opts),
		newFeedCmd(opts),
		newMonitorCmd(opts),
		newSyncCmd(opts),
	)
	return root
}

// loadConfig reads the config file. The default path may be absent, in which
// case defaults and environment overrides apply.
func loadConfig(cmd *cobra.Command, opts *options) (config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) || cmd.Flags().Changed("config") {
			return cfg, fmt.Errorf("load config: %w", err)
		}
		cfg = config.Default()
		cfg.ResolveEnv()
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// openApp wires the store, classifier, optional feed cache and engine.
func openApp(ctx context.Context, opts *options) (*app, error) {
	cfg := opts.cfg
	a := &app{cfg: cfg}
	var err error
	if a.db, err = sqlite.Open(cfg.Storage.DBPath); err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	inner, err := chakra.New(cfg.Classifier)
	if err != nil {
		a.Close()
		return nil, err
	}
	guard, err := chakra.NewGuard(inner, cfg.Classifier.Fallback)
	if err != nil {
		a.Close()
		return nil, err
	}
	var engineOpts []service.Option
	if cfg.Cache.RedisAddr != "" {
		fc, err := cache.Connect(ctx, cfg.Cache.RedisAddr)
		if err != nil {
			// the store alone still serves every command
			logging.Warn("feed_cache_unavailable", map[string]any{"addr": cfg.Cache.RedisAddr, "error": err})
		} else {
			a.feed = fc
			engineOpts = append(engineOpts, service.WithFeed(fc))
		}
	}
	a.engine = service.New(a.db, cfg, guard, engineOpts...)
	return a, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
