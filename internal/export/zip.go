// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

package export

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
)

func writeZip(ctx context.Context, w io.Writer, base string, formats []string, opts Options, stream StreamFunc) error {
	zw := zip.NewWriter(w)
	for _, format := range formats {
		entry, err := zw.Create(base + "." + format)
		if err != nil {
			return fmt.Errorf("create zip entry for %s: %w", format, err)
		}
		if err := writeOne(ctx, entry, format, opts, stream); err != nil {
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finish zip archive: %w", err)
	}
	return nil
}
