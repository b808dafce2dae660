// Package cli implements the fileglancer command line tool.
package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mkitti/fileglancer/internal/logger"
	"github.com/mkitti/fileglancer/pkg/config"
	"github.com/mkitti/fileglancer/pkg/filestore"
	"github.com/mkitti/fileglancer/pkg/registry"
)

// app carries the state shared by every subcommand of one invocation.
type app struct {
	configPath string
	logLevel   string

	cfg *config.Config
	reg *registry.Registry
}

// NewRootCommand builds the fileglancer command tree.
func NewRootCommand() *cobra.Command {
	a := &app{reg: registry.NewRegistry()}

	root := &cobra.Command{
		Use:   "fileglancer",
		Short: "Sandboxed access to file share paths",
		Long: `fileglancer browses and edits files under the file share paths published
by a central server, without ever leaving a share's root directory.

With no central server configured (central.url empty), a single share named
/local is served from filestore.root_dir.

Examples:
  # Write a default configuration file
  fileglancer init

  # List the configured file share paths and whether they are mounted
  fileglancer shares --probe

  # Browse a share
  fileglancer ls /groups/scicomp data -l`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "",
		"config file (default "+config.GetDefaultConfigPath()+")")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "",
		"override logging.level (DEBUG, INFO, WARN, ERROR)")

	root.AddCommand(
		newInitCommand(),
		newSharesCommand(a),
		newLsCommand(a),
		newStatCommand(a),
		newCatCommand(a),
		newTouchCommand(a),
		newMkdirCommand(a),
		newMvCommand(a),
		newRmCommand(a),
		newChmodCommand(a),
		newLinksCommand(a),
		newMonitorCommand(a),
	)

	return root
}

// Execute runs the root command until it finishes or ctx is cancelled.
func Execute(ctx context.Context) error {
	defer func() { _ = logger.Sync() }()
	return NewRootCommand().ExecuteContext(ctx)
}

// config loads the configuration once and configures logging from it.
func (a *app) config() (*config.Config, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return nil, err
	}

	if a.logLevel != "" {
		cfg.Logging.Level = strings.ToUpper(a.logLevel)
		if err := config.Validate(cfg); err != nil {
			return nil, fmt.Errorf("--log-level: %w", err)
		}
	}

	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	a.cfg = cfg
	return cfg, nil
}

func (a *app) services() (*registry.Services, error) {
	cfg, err := a.config()
	if err != nil {
		return nil, err
	}
	return config.InitializeServices(a.reg, cfg)
}

// filestore resolves a share's canonical path to its mounted filestore.
func (a *app) filestore(ctx context.Context, share string) (*filestore.Filestore, error) {
	svc, err := a.services()
	if err != nil {
		return nil, err
	}
	fs, _, err := svc.Resolver.Filestore(ctx, share)
	return fs, err
}
