package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/subst/pkg/config"
	"github.com/walteh/subst/pkg/operation"
	"github.com/walteh/subst/pkg/replace"
	"github.com/walteh/subst/pkg/status"
	"gitlab.com/tozd/go/errors"
)

var (
	// Flags
	silent    bool
	verbose   bool
	rulesFile string
	debug     bool
)

// errProcessing marks failures that happened while processing input, as
// opposed to argument errors. main exits with a distinct status for them so
// scripts can tell "bad invocation" from "a file was not converted".
var errProcessing = errors.New("processing failed")

// newRootCmd creates the root command
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subst [-s] [-v] from to [from to ...] [--] [files...]",
		Short: "Replace literal strings in files or from stdin to stdout",
		Long: `subst replaces each occurrence of a from-string with the corresponding
to-string, scanning every line left to right and always taking the longest
matching pattern at each position.

Without file arguments, text is read from stdin and written to stdout. With
file arguments (after --), each file is rewritten in place: content is fully
written to a temporary file first, so a file is never left half converted.`,
		Version:       FormatVersion(),
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := config.Resolve(ctx, args, cmd.ArgsLenAtDash(), config.Flags{
				Silent:    silent,
				Verbose:   verbose,
				RulesFile: rulesFile,
			})
			if err != nil {
				return err
			}

			set, err := replace.NewSetFromPairs(cfg.Pairs)
			if err != nil {
				return err
			}

			reporter := status.NewReporter(cmd.ErrOrStderr(), cfg.Silent, cfg.Verbose)

			op, err := operation.New(operation.Options{
				Set:      set,
				Files:    cfg.Files,
				Reporter: reporter,
				Stdin:    cmd.InOrStdin(),
				Stdout:   cmd.OutOrStdout(),
			})
			if err != nil {
				return err
			}

			failed, err := op.Run(ctx)
			if err != nil {
				return errors.Errorf("%w: %w", errProcessing, err)
			}
			if failed {
				return errors.Errorf("%w: one or more files were not converted", errProcessing)
			}
			return nil
		},
	}

	cmd.SetVersionTemplate("{{.Version}}")

	cmd.Flags().BoolVarP(&silent, "silent", "s", false, "suppress non-error messages")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print the pattern list and report every change")
	cmd.Flags().StringVarP(&rulesFile, "rules", "r", "", "load replacement rules from a file (.yaml, .json, .jsonc or .hcl)")
	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")

	return cmd
}

// setupLogging configures zerolog based on flags
func setupLogging() {
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &log
}
