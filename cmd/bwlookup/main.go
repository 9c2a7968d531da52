package main

import (
	"fmt"
	"os"

	"github.com/awnumar/memguard"
	"github.com/spf13/cobra"

	"github.com/systmms/bwlookup/internal/config"
	bwerrors "github.com/systmms/bwlookup/internal/errors"
	"github.com/systmms/bwlookup/internal/logging"
	"github.com/systmms/bwlookup/internal/lookup"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	defer memguard.Purge()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		memguard.Purge()
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile string
		noColor    bool
		debug      bool
	)

	rootCmd := &cobra.Command{
		Use:   "bwlookup <field-or-json-options> <term> [term...]",
		Short: "Look up credentials from a Bitwarden vault via the bw CLI",
		Long: `bwlookup fetches secret fields, custom fields, and attachments from a
Bitwarden vault by shelling out to the bw command line tool. The vault must
already be unlocked (run 'bw unlock' and export BW_SESSION first).

The first argument is either a field name or a JSON options object.`,
		Example: `  bwlookup username Google
  bwlookup password google.com wufoo.com
  bwlookup '{"field":"fields.api_key"}' "My Service"
  bwlookup '{"field":"password","collection":"Ops"}' "Shared Login"
  bwlookup '{"attachments":["id_rsa"],"output":"/tmp/"}' "Backup Server"`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < 2 {
				return bwerrors.UsageError{
					Message:    "expected a field (or JSON options object) followed by at least one term",
					Suggestion: "Example: bwlookup username Google",
				}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.New(debug, noColor)

			cfg := &config.Config{Path: configFile}
			if err := cfg.Load(); err != nil {
				return err
			}

			opts, err := lookup.ParseOptionsArg(args[0], lookup.FromConfig(cfg.Definition))
			if err != nil {
				return err
			}

			runner := &lookup.Runner{
				Logger:  logger,
				Keyring: cfg.Definition.Keyring,
			}
			values, err := runner.Run(cmd.Context(), args[1:], opts)
			if err != nil {
				return err
			}

			if len(values) == 1 {
				fmt.Fprintln(cmd.OutOrStdout(), values[0])
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), values)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", config.DefaultPath, "Config file path")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	return rootCmd.Execute()
}
