// Package cmd provides the command-line interface for cardeck.
//
// Configuration sources, highest priority first:
//  1. Command-line flags (--port, --path, ...)
//  2. Environment variables with the CARDECK_ prefix
//     (CARDECK_SERVER_PORT, CARDECK_ASSETS_PATH, ...)
//  3. A .cardeck.yml file in the working directory
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "cardeck",
	Short: "Render CSV card data into a live-reloading HTML sheet",
	Long: `Cardeck turns a CSV file of card data into a printable HTML page,
one rendered card per row, using jinja2-syntax templates. It watches the
asset directory and re-renders on every change, pushing a reload to any
connected browser.

Quick start:
  cardeck serve              Render, watch and serve the current directory
  cardeck render             Render once and exit
  cardeck serve --pattern '_card_(.+)\.html\.jinja2'   Multi-deck mode`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .cardeck.yml)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")

	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("CARDECK_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".cardeck")
	}

	viper.SetEnvPrefix("CARDECK")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
