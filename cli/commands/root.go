// Package commands implements CLI commands.
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/docsql/cli/internal/config"
	"github.com/satishbabariya/docsql/internal/debug"
	"github.com/satishbabariya/docsql/runtime/client"
	"github.com/satishbabariya/docsql/runtime/manager"
	"github.com/satishbabariya/docsql/runtime/registry"
)

// globals holds persistent flags and the loaded config
type globals struct {
	configFile string
	debug      bool
	provider   string
	url        string
	documents  string

	cfg *config.Config
}

// Execute is the main entry point for the CLI
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return NewRootCommand().ExecuteContext(ctx)
}

// NewRootCommand builds the command tree
func NewRootCommand() *cobra.Command {
	g := &globals{}

	root := &cobra.Command{
		Use:           "docsql",
		Short:         "Query SQL databases through document mappings",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.load(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&g.configFile, "config", "", "config file (default .docsql.yaml in . or $HOME)")
	flags.BoolVar(&g.debug, "debug", false, "log every statement")
	flags.StringVar(&g.provider, "provider", "", "database provider: mysql, postgresql or sqlite")
	flags.StringVar(&g.url, "url", "", "database connection string")
	flags.StringVar(&g.documents, "documents", "", "documents mapping file")

	root.AddCommand(
		NewQueryCommand(g),
		NewFindCommand(g),
		NewPingCommand(g),
		NewInitCommand(g),
		NewVersionCommand(),
	)
	return root
}

func (g *globals) load(cmd *cobra.Command) error {
	cfg, err := config.LoadConfig(g.configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if g.provider != "" {
		cfg.Provider = g.provider
	}
	if g.url != "" {
		cfg.DatabaseURL = g.url
	}
	if g.documents != "" {
		cfg.DocumentsPath = g.documents
	}
	if g.debug {
		cfg.Debug = true
	}
	debug.SetOutput(cmd.ErrOrStderr())
	debug.Init(cfg.Debug)
	g.cfg = cfg
	return nil
}

// registry loads the documents file. A missing file yields an empty registry.
func (g *globals) registry() (*registry.Registry, error) {
	if _, err := config.AppFs.Stat(g.cfg.DocumentsPath); err != nil {
		debug.Debug("no documents file", "path", g.cfg.DocumentsPath)
		return registry.New()
	}
	return registry.LoadFile(config.AppFs, g.cfg.DocumentsPath)
}

func (g *globals) openManager(ctx context.Context, middleware ...client.Middleware) (*manager.Manager, error) {
	if g.cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("no database configured: set database_url, DATABASE_URL or --url")
	}
	reg, err := g.registry()
	if err != nil {
		return nil, err
	}
	return manager.Open(ctx, manager.Config{
		Primary:    g.cfg.Primary(),
		Reader:     g.cfg.Reader(),
		Logger:     debug.Logger(),
		Middleware: middleware,
		CacheSize:  g.cfg.CacheSize,
	}, reg)
}
