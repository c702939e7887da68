package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/neurodash/neurodash/internal/analysis"
	"github.com/neurodash/neurodash/internal/api"
	"github.com/neurodash/neurodash/internal/auth"
	"github.com/neurodash/neurodash/internal/cache"
	"github.com/neurodash/neurodash/internal/config"
	"github.com/neurodash/neurodash/internal/database"
	"github.com/neurodash/neurodash/internal/engine"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the neurodash server",
	Long:  `Start the HTTP API together with the signal generator.`,
	Example: `neurodash serve --config config.yml
neurodash serve -c /path/to/config.yml --log-level debug
`,
	Run: startServer,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func startServer(cmd *cobra.Command, _ []string) {
	cfg, err := config.Load(rootCmdPersistentFlags.ConfigFile)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	applyConfigLogLevel(cfg.LogLevel)

	tokens, err := auth.New(cfg.Auth.Secret, auth.WithTTL(cfg.Auth.TokenTTL))
	if err != nil {
		log.Fatalf("failed to create token manager: %v", err)
	}

	db, err := database.New(cfg.Database.DSN)
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}
	defer db.Close() //nolint: errcheck

	store, err := cache.NewStore(cfg.Cache)
	if err != nil {
		log.Fatalf("failed to create cache: %v", err)
	}

	eng, err := engine.New(cfg, db, analysis.New(cfg.Analysis), cache.NewSettingsCache(store, cfg.Cache.TTL))
	if err != nil {
		log.Fatalf("failed to create engine: %v", err)
	}
	defer eng.Close() //nolint: errcheck

	server, err := api.New(cfg, eng, tokens)
	if err != nil {
		log.Fatalf("failed to create API server: %v", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return eng.Run(gctx)
	})
	g.Go(func() error {
		return server.Run(gctx)
	})

	log.Info("neurodash started successfully")
	if err := g.Wait(); err != nil && err != context.Canceled {
		log.Error("neurodash stopped with an error", "error", err)
		return
	}
	log.Info("neurodash stopped")
}
