package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version information (set by ldflags)
	version = "dev"
	commit  = "none"
	date    = "unknown"

	// Global flags
	verbose    bool
	configPath string
	colorMode  string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "fglog",
	Short: "Fall Guys log parser and monitor",
	Long: `fglog follows the Fall Guys client log and reports completed shows.

Each show is printed once the client has written its summary, with one
record per round (level, position, qualification, crown, kudos).
Events are output as JSON Lines for easy processing with other tools.

This is an unofficial tool and is not affiliated with Mediatonic.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setColorMode(colorMode)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"Path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&colorMode, "color", "auto",
		"Colorize pretty output: auto, always, never")

	rootCmd.AddCommand(tailCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "fglog %s (commit: %s, built: %s)\n", version, commit, date)
	},
}

// newLogger returns a debug logger on stderr when --verbose is set.
func newLogger() *slog.Logger {
	if !verbose {
		return slog.New(slog.DiscardHandler)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}
