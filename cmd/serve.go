package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cardeck/cardeck/internal/config"
	"github.com/cardeck/cardeck/internal/server"
	"github.com/cardeck/cardeck/internal/session"
	"github.com/cardeck/cardeck/internal/watcher"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Render, watch for changes, and serve with live reload",
	Long: `Render every configured deck, watch the asset directory for
changes that trigger re-renders, and serve the directory over HTTP with
live reload pushed to connected browsers.

Examples:
  cardeck serve                          # single deck, prefix _card
  cardeck serve -p ./decks -x monster    # custom path and prefix
  cardeck serve --pattern '_card_(.+)\.html\.jinja2' -x '_card_{}' --render '{}.html'`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	addDeckFlags(serveCmd)

	serveCmd.Flags().Int("port", 8800, "port for the live-reloaded page")
	serveCmd.Flags().String("address", "0.0.0.0", "host address to bind to")
}

func runServe(cmd *cobra.Command, args []string) error {
	bindDeckFlags(cmd)
	viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", cmd.Flags().Lookup("address"))

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := newLogger(cfg)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sessions, err := buildSessions(ctx, cfg, log)
	if err != nil {
		return err
	}

	// Every output path is registered before anything renders or watches,
	// so no self-write can ever trigger a pass.
	registry := watcher.NewRegistry()
	for _, s := range sessions {
		registry.Add(s.OutputPath())
	}

	session.RenderAll(ctx, sessions, log)

	fw, err := watcher.NewFileWatcher(cfg.Watch.Debounce, registry, log.WithComponent("watcher"))
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	fw.AddFilter(watcher.NoGitFilter)
	fw.AddFilter(watcher.NoTempFilter)
	fw.AddFilter(watcher.IgnoreFilter(cfg.Watch.Ignore))
	fw.AddHandler(func(ctx context.Context, events []watcher.ChangeEvent) error {
		for _, event := range events {
			log.Info(ctx, "change detected", "path", event.Path, "kind", event.Type.String())
		}
		// Any qualifying change re-renders every deck: templates may share
		// assets, and a full pass is cheap and idempotent.
		session.RenderAll(ctx, sessions, log)

		return nil
	})

	if err := fw.AddRecursive(cfg.Assets.Path); err != nil {
		return fmt.Errorf("watching %s: %w", cfg.Assets.Path, err)
	}
	fw.Start(ctx)
	defer fw.Stop()

	srv, err := server.New(cfg.Server.Host, cfg.Server.Port, cfg.Assets.Path, registry, log)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info(ctx, "shutting down")
		cancel()
	}()

	fmt.Printf("Serving %s at http://%s:%d\n", cfg.Assets.Path, cfg.Server.Host, cfg.Server.Port)

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}
