// SPDX-License-Identifier: Apache-2.0
// SPDX-FileCopyrightText: 2025-Present Defense Unicorns

// Package cmd provides the root command for the saptune-schemagen CLI.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	schemagen "github.com/SUSE/saptune-schemagen"
	"github.com/SUSE/saptune-schemagen/config"
	configv0 "github.com/SUSE/saptune-schemagen/config/v0"
	"github.com/SUSE/saptune-schemagen/schema"
)

const (
	// ExitRefused is returned when the run was refused or aborted before any template was processed
	ExitRefused = 1
	// ExitFailed is returned when at least one template could not be generated
	ExitFailed = 2
)

// NewRootCmd creates the root command for the saptune-schemagen CLI.
func NewRootCmd() *cobra.Command {
	var (
		level      string
		ver        bool
		dry        bool
		dir        string
		configPath string
		outputDir  string
		pattern    string
		indent     int
		maxDepth   int
		policy     = config.DefaultPrunePolicy // VarP does not allow you to set a default value
	)

	root := &cobra.Command{
		Use:   "saptune-schemagen",
		Short: "Generate standalone JSON schemas from saptune schema templates",
		Long: `Renders every saptune*.template in the working directory, inlines all
internal $ref pointers, drops the $defs block and writes the result to
the parent directory with the .template suffix removed.

Existing files get overwritten, so FORCE=1 must be set for anything to run.`,
		Example: `
FORCE=1 saptune-schemagen

FORCE=1 saptune-schemagen -C ospackage/usr/share/saptune/schemas/1.1/templates

FORCE=1 saptune-schemagen --dry-run --prune-policy lenient
`,
		Args: cobra.NoArgs,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if dir != "" {
				return os.Chdir(dir)
			}
			return nil
		},
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			l, err := log.ParseLevel(level)
			if err != nil {
				return err
			}
			logger := log.FromContext(cmd.Context())
			logger.SetLevel(l)

			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			logger := log.FromContext(ctx)

			if ver {
				bi, ok := debug.ReadBuildInfo()
				if !ok {
					return fmt.Errorf("version information not available")
				}
				fmt.Fprintln(cmd.OutOrStdout(), bi.Main.Version)
				return nil
			}

			env, err := config.LoadEnv(nil)
			if err != nil {
				return err
			}
			if err := env.Guard(); err != nil {
				return err
			}

			fs := afero.NewOsFs()

			// default < cfg < flags
			var cfg *configv0.Config
			switch {
			case cmd.Flags().Changed("config"):
				cfg, err = configv0.LoadFile(fs, configPath, true)
			case env.ConfigPath != "":
				cfg, err = configv0.LoadFile(fs, env.ConfigPath, true)
			default:
				cfg, err = configv0.LoadFile(fs, config.DefaultFileName, false)
			}
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("pattern") {
				pattern = cfg.Pattern
			}
			if !cmd.Flags().Changed("output-dir") {
				outputDir = cfg.OutputDir
			}
			if !cmd.Flags().Changed("indent") {
				indent = cfg.Indent
			}
			if !cmd.Flags().Changed("max-depth") {
				maxDepth = cfg.MaxDepth
			}
			if !cmd.Flags().Changed("prune-policy") && cfg.PrunePolicy != "" {
				if err := policy.Set(cfg.PrunePolicy.String()); err != nil {
					return err
				}
			}

			if indent < 0 {
				return fmt.Errorf("indent must not be negative, got %d", indent)
			}

			logger.Debug("generating", "pattern", pattern, "output-dir", outputDir, "indent", indent, "prune-policy", policy, "max-depth", maxDepth, "dry-run", dry)

			g := schemagen.New(fs,
				schemagen.WithPattern(pattern),
				schemagen.WithOutputDir(outputDir),
				schemagen.WithIndent(indent),
				schemagen.WithPrunePolicy(policy),
				schemagen.WithMaxDepth(maxDepth),
				schemagen.WithDryRun(dry),
				schemagen.WithOutput(cmd.OutOrStdout(), cmd.ErrOrStderr()),
			)

			report, err := g.Run(ctx)
			if err != nil {
				return err
			}
			return report.Err()
		},
	}

	root.Flags().StringVarP(&level, "log-level", "l", "info", "Set log level")
	_ = root.RegisterFlagCompletionFunc("log-level", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{log.DebugLevel.String(), log.InfoLevel.String(), log.WarnLevel.String(), log.ErrorLevel.String(), log.FatalLevel.String()}, cobra.ShellCompDirectiveNoFileComp
	})
	root.Flags().BoolVarP(&ver, "version", "V", false, "Print version number and exit")
	root.Flags().BoolVar(&dry, "dry-run", false, "Print the generated schemas instead of writing them")
	root.Flags().StringVarP(&dir, "directory", "C", "", "Change to directory before doing anything")
	_ = root.MarkFlagDirname("directory")
	root.Flags().StringVar(&configPath, "config", config.DefaultFileName, "Path to config file")
	_ = root.MarkFlagFilename("config", "yaml", "yml")
	root.Flags().StringVarP(&outputDir, "output-dir", "o", config.DefaultOutputDir, "Directory generated schemas are written to")
	_ = root.MarkFlagDirname("output-dir")
	root.Flags().StringVar(&pattern, "pattern", config.DefaultPattern, "Glob matching the templates to expand")
	root.Flags().IntVar(&indent, "indent", schema.DefaultIndent, "Spaces per indentation level")
	root.Flags().IntVar(&maxDepth, "max-depth", schema.DefaultMaxDepth, "Longest reference chain followed before giving up")
	root.Flags().Var(&policy, "prune-policy", fmt.Sprintf(`Set prune policy ("%s")`, strings.Join(config.AvailablePrunePolicies(), `", "`)))
	_ = root.RegisterFlagCompletionFunc("prune-policy", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return config.AvailablePrunePolicies(), cobra.ShellCompDirectiveNoFileComp
	})

	return root
}

// Main executes the root command for the saptune-schemagen CLI.
//
// It returns the exit code calculated by ParseExitCode and logs any errors.
func Main() int {
	cli := NewRootCmd()

	ctx := context.Background()

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGTERM, os.Interrupt)
	defer cancel()

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: false,
	})

	logger.SetStyles(DefaultStyles())

	ctx = log.WithContext(ctx, logger)
	_, err := cli.ExecuteContextC(ctx)
	if err != nil {
		var failed *schemagen.FailedError
		switch {
		case errors.Is(err, config.ErrNotForced):
			logger.Error("Variable FORCE not set to 1, so we terminate.")
		case errors.As(err, &failed):
			// every failure already has its own FAIL line
			logger.Debug(failed)
		default:
			logger.Error(err)
		}
	}
	return ParseExitCode(err)
}

// ParseExitCode calculates the exit code from a given error
//
// 0 - the error was nil
// 1 - the run was refused (FORCE not set) or aborted before processing any template
// 2 - the run completed but at least one template failed
func ParseExitCode(err error) int {
	if err == nil {
		return 0
	}

	var failed *schemagen.FailedError
	if errors.As(err, &failed) {
		return ExitFailed
	}
	return ExitRefused
}
