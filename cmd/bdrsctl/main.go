// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

// Command bdrsctl administers the record store offline.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gaiaresources/bdrs-review/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.NewRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
