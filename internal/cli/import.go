// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/gaiaresources/bdrs-review/internal/importer"
	"github.com/gaiaresources/bdrs-review/internal/models"
)

type importOptions struct {
	*RootOptions
	skipUsers bool
}

func newImportCommand(root *RootOptions) *cobra.Command {
	opts := &importOptions{RootOptions: root}
	cmd := &cobra.Command{
		Use:   "import <file.json>",
		Short: "Import a JSON array of exported entity snapshots",
		Long: `Import recreates surveys, attributes, locations, records and their
values from a JSON array of snapshots, in order. Use "-" to read stdin.

The import stops at the first snapshot that fails; everything stored before
it is kept and reported.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, opts, args[0])
		},
	}
	cmd.Flags().BoolVar(&opts.skipUsers, "skip-users", false, "reject User snapshots instead of creating accounts")
	return cmd
}

func runImport(cmd *cobra.Command, opts *importOptions, path string) error {
	raw, err := readInput(cmd, path)
	if err != nil {
		return WrapExitError(ExitCommandError, "read "+path, err)
	}

	_, db, closeStore, err := opts.open()
	if err != nil {
		return err
	}
	defer closeStore()

	var users importer.UserStore = db
	if opts.skipUsers {
		users = nil
	}
	res, err := importer.NewRegistry(db, users, nil).ImportAll(cmd.Context(), raw)
	p := opts.printer(cmd)
	switch {
	case errors.Is(err, importer.ErrNotArray):
		return p.failure(nil, NewExitError(ExitFailure, err.Error()), nil)
	case err != nil:
		return p.failure(res, WrapExitError(ExitFailure, "import failed", err), func(w io.Writer) {
			printImport(w, res)
		})
	}
	return p.result(res, func(w io.Writer) { printImport(w, res) })
}

func printImport(w io.Writer, res models.ImportResult) {
	fmt.Fprintf(w, "Imported %d snapshot(s)\n", res.Imported)
	kinds := make([]string, 0, len(res.IDs))
	for k := range res.IDs {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fmt.Fprintf(w, "  %-16s %d\n", k, res.IDs[k])
	}
	for _, m := range res.Messages {
		fmt.Fprintf(w, "note: %s\n", m)
	}
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}
