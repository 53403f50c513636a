// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

// Package cli implements bdrsctl, the administration command line for the
// record store: bulk imports, offline exports and WKT checks.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gaiaresources/bdrs-review/internal/config"
	"github.com/gaiaresources/bdrs-review/internal/database"
	"github.com/gaiaresources/bdrs-review/internal/logging"
)

// RootOptions holds the persistent flags shared by every command.
type RootOptions struct {
	ConfigPath string
	Format     string
	Verbose    bool

	// set by tests to skip config loading and keep the store open
	cfg *config.Config
	db  *database.DB
}

// NewRootCommand builds the bdrsctl command tree.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bdrsctl",
		Short: "Administer a BDRS review record store",
		Long: `bdrsctl works directly on the DuckDB record store the review
server uses. Stop the server first: DuckDB allows a single writer.

The store and settings come from the same config file and environment
variables as the server (see --config).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if opts.Format != FormatText && opts.Format != FormatJSON {
				return NewExitError(ExitCommandError, fmt.Sprintf("unknown output format %q (want text or json)", opts.Format))
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "config file (default: "+config.ConfigPathEnvVar+" or ./config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", FormatText, "output format: text or json")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log progress to stderr")

	cmd.AddCommand(newImportCommand(opts))
	cmd.AddCommand(newExportCommand(opts))
	cmd.AddCommand(newWKTCommand(opts))
	return cmd
}

func (o *RootOptions) printer(cmd *cobra.Command) printer {
	return printer{format: o.Format, w: cmd.OutOrStdout()}
}

// open loads the configuration and opens the record store. The returned
// function closes what open created.
func (o *RootOptions) open() (*config.Config, *database.DB, func(), error) {
	if o.db != nil {
		return o.cfg, o.db, func() {}, nil
	}
	if o.ConfigPath != "" {
		if err := os.Setenv(config.ConfigPathEnvVar, o.ConfigPath); err != nil {
			return nil, nil, nil, err
		}
	}
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		return nil, nil, nil, WrapExitError(ExitCommandError, "load config", err)
	}
	level := "warn"
	if o.Verbose {
		level = "debug"
	}
	logging.Init(logging.Config{Level: level, Format: "console", Output: os.Stderr})

	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, nil, nil, WrapExitError(ExitCommandError, "open record store", err)
	}
	return cfg, db, func() { _ = db.Close() }, nil
}
