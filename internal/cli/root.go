package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/artpar/arttools/internal/app"
	"github.com/artpar/arttools/internal/config"
	"github.com/artpar/arttools/internal/logging"
	"github.com/artpar/arttools/internal/tui"
	"github.com/artpar/arttools/internal/tui/views"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	configPath string
	storage    string
	dataDir    string
	catalog    string
	logLevel   string
}

// NewRootCommand creates the root command.
func NewRootCommand(version string) *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "arttools",
		Short:         "Arttools - browse art supplies and keep favorites",
		Long:          "Arttools browses an art-tool catalog and keeps a persistent list of favorites.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, opts)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Config file (default <data-dir>/config.yaml)")
	flags.StringVar(&opts.storage, "storage", "", "Storage driver: memory, file, sqlite, bolt, redis")
	flags.StringVar(&opts.dataDir, "data-dir", "", "Directory for favorites and config")
	flags.StringVar(&opts.catalog, "catalog", "", "Catalog URL or file (JSON or YAML)")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error, disabled")

	cmd.AddCommand(
		newListCommand(opts),
		newShowCommand(opts),
		newBrandsCommand(opts),
		newFavCommand(opts),
	)

	return cmd
}

// loadConfig resolves configuration: defaults, file, environment, flags.
func (o *rootOptions) loadConfig() (config.Config, error) {
	path := o.configPath
	if path == "" && o.dataDir != "" {
		candidate := filepath.Join(config.ExpandHome(o.dataDir), config.FileName)
		if _, err := os.Stat(candidate); err == nil {
			path = candidate
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}

	if o.dataDir != "" {
		cfg.DataDir = config.ExpandHome(o.dataDir)
	}
	if o.storage != "" {
		cfg.Storage.Driver = strings.ToLower(o.storage)
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if o.catalog != "" {
		if strings.HasPrefix(o.catalog, "http://") || strings.HasPrefix(o.catalog, "https://") {
			cfg.Catalog.URL = o.catalog
			cfg.Catalog.File = ""
		} else {
			cfg.Catalog.URL = ""
			cfg.Catalog.File = config.ExpandHome(o.catalog)
		}
	}
	return cfg, nil
}

// openApp opens the application and waits for favorites to hydrate.
func (o *rootOptions) openApp(ctx context.Context, cfg config.Config, log zerolog.Logger) (*app.App, error) {
	a, err := app.Open(ctx, cfg, app.WithLogger(log))
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	if err := a.WaitReady(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// session opens the app for a one-shot command, logging to stderr.
func (o *rootOptions) session(cmd *cobra.Command) (*app.App, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	log := logging.New(cmd.ErrOrStderr(), cfg.LogLevel, true)
	return o.openApp(cmd.Context(), cfg, log)
}

// runTUI starts the TUI application. Logs go to a file so they do not
// draw over the screen.
func runTUI(cmd *cobra.Command, opts *rootOptions) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	logFile, err := os.OpenFile(filepath.Join(cfg.DataDir, "arttools.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()

	ctx := cmd.Context()
	a, err := app.Open(ctx, cfg, app.WithLogger(logging.New(logFile, cfg.LogLevel, false)))
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer a.Close()

	// Hydration runs while the first frame renders; favorites changes wait for it.
	a.Start(ctx)

	model := tui.Model{Root: views.NewBrowseView(a, views.WithContext(ctx))}
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
