package cmd

import (
	"github.com/spf13/cobra"

	"github.com/cardeck/cardeck/internal/config"
	"github.com/cardeck/cardeck/internal/session"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render all decks once and exit",
	Long: `Render every configured deck to its output document without
watching for changes or starting the web server.`,
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)
	addDeckFlags(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	bindDeckFlags(cmd)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := newLogger(cfg)
	ctx := cmd.Context()

	sessions, err := buildSessions(ctx, cfg, log)
	if err != nil {
		return err
	}

	session.RenderAll(ctx, sessions, log)

	return nil
}
