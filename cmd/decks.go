package cmd

import (
	"context"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cardeck/cardeck/internal/config"
	"github.com/cardeck/cardeck/internal/deck"
	"github.com/cardeck/cardeck/internal/logging"
	"github.com/cardeck/cardeck/internal/session"
)

// addDeckFlags registers the flags shared by serve and render. Binding to
// viper happens per-invocation in bindDeckFlags so two commands can carry
// the same flag set without clobbering each other's bindings.
func addDeckFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("path", "p", "", "path to assets (default is the working directory)")
	cmd.Flags().StringP("prefix", "x", "_card", "filename prefix binding a deck's files together")
	cmd.Flags().StringP("delimiter", "d", ",", "delimiter used in the csv file")
	cmd.Flags().String("render", deck.DefaultRenderedFile, "rendered output file")
	cmd.Flags().String("csv", "", "csv file (default is <prefix>.csv)")
	cmd.Flags().String("css", "", "css file reference (default is <prefix>.css)")
	cmd.Flags().String("pattern", "", "activate multi-deck discovery with this pattern (one capturing group)")
	cmd.Flags().Duration("settle", 0, "delay before reading a just-changed data source")
}

func bindDeckFlags(cmd *cobra.Command) {
	viper.BindPFlag("assets.path", cmd.Flags().Lookup("path"))
	viper.BindPFlag("assets.prefix", cmd.Flags().Lookup("prefix"))
	viper.BindPFlag("assets.pattern", cmd.Flags().Lookup("pattern"))
	viper.BindPFlag("render.delimiter", cmd.Flags().Lookup("delimiter"))
	viper.BindPFlag("render.rendered_file", cmd.Flags().Lookup("render"))
	viper.BindPFlag("render.csv_file", cmd.Flags().Lookup("csv"))
	viper.BindPFlag("render.css_file", cmd.Flags().Lookup("css"))
	viper.BindPFlag("render.settle_delay", cmd.Flags().Lookup("settle"))
}

// buildSessions resolves the configured decks (single or discovered) into
// render sessions, ordered by deck identifier for stable logs.
func buildSessions(ctx context.Context, cfg *config.Config, log logging.Logger) ([]*session.Session, error) {
	var decks []deck.Deck

	if cfg.Assets.Pattern == "" {
		decks = []deck.Deck{deck.New(
			cfg.Assets.Path,
			cfg.Assets.Prefix,
			cfg.Render.RenderedFile,
			cfg.Render.CSVFile,
			cfg.Render.CSSFile,
		)}
	} else {
		discovered, err := deck.Discover(ctx, cfg.Assets.Path, cfg.Assets.Pattern, deck.DiscoveryOptions{
			Prefix:       cfg.Assets.Prefix,
			RenderedFile: cfg.Render.RenderedFile,
			CSVFile:      cfg.Render.CSVFile,
			CSSFile:      cfg.Render.CSSFile,
		}, log)
		if err != nil {
			return nil, err
		}

		ids := make([]string, 0, len(discovered))
		for id := range discovered {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			decks = append(decks, discovered[id])
		}
	}

	sessionLog := log.WithComponent("session")
	sessions := make([]*session.Session, 0, len(decks))
	for _, d := range decks {
		sessions = append(sessions, session.New(d, cfg.DelimiterRune(), cfg.Render.SettleDelay, sessionLog))
	}

	return sessions, nil
}

func newLogger(cfg *config.Config) logging.Logger {
	return logging.NewLogger(&logging.Config{
		Level:  logging.ParseLevel(cfg.Log.Level),
		Format: cfg.Log.Format,
		Output: logging.DefaultConfig().Output,
	})
}
