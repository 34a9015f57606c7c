// Package cli is the tapctl command line: run the analytics over local
// exports, inspect column detection and mint API tokens.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"tap-analytics-service/internal/config"
	"tap-analytics-service/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var Version = "0.1.0"

const (
	formatTable = "table"
	formatJSON  = "json"
)

// app carries what every subcommand shares once flags are parsed.
type app struct {
	profilePath string
	verbose     bool

	profile config.Profile
	log     *zap.Logger
}

func NewRootCmd() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:     "tapctl",
		Short:   "TAP Analytics - Track. Analyze. Profit.",
		Long:    "tapctl runs the TAP analytics over local POS exports (CSV or XLSX) and prints the results.",
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}
			p, err := config.LoadProfile(a.profilePath)
			if err != nil {
				return err
			}
			a.profile = p
			a.log = logger.NewCLI(a.verbose)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&a.profilePath, "profile", os.Getenv("ANALYTICS_PROFILE"), "analytics profile YAML (aliases, thresholds, clients)")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log analysis progress to stderr")

	rootCmd.AddCommand(newAnalyzeCommand(a))
	rootCmd.AddCommand(newAdvancedCommand(a))
	rootCmd.AddCommand(newSchemaCommand(a))
	rootCmd.AddCommand(newTokenCommand())

	return rootCmd
}

func checkFormat(format string) error {
	if format != formatTable && format != formatJSON {
		return fmt.Errorf("unknown format %q (want table or json)", format)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
