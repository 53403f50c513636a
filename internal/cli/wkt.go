// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

package cli

import (
	"fmt"
	"io"

	"github.com/paulmach/orb"
	"github.com/spf13/cobra"

	"github.com/gaiaresources/bdrs-review/internal/geo"
	"github.com/gaiaresources/bdrs-review/internal/models"
)

func newWKTCommand(root *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wkt",
		Short: "Check and combine WKT geometries",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "validate <wkt>",
		Short: "Report whether a WKT geometry is valid",
		Long:  "Validate parses the geometry and rejects self intersecting polygons. It exits 1 for invalid input.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v := geo.Validate(args[0])
			res := models.WKTValidation{IsValid: v.Valid, Message: v.Message}
			p := root.printer(cmd)
			if !v.Valid {
				msg := v.Message
				if msg == "" {
					msg = "empty geometry"
				}
				return p.failure(res, NewExitError(ExitFailure, msg), func(w io.Writer) {
					fmt.Fprintf(w, "invalid: %s\n", msg)
				})
			}
			return p.result(res, func(w io.Writer) { fmt.Fprintln(w, "valid") })
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "envelope <wkt>...",
		Short: "Print the bounding box covering every geometry",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			geoms := make([]orb.Geometry, 0, len(args))
			for _, s := range args {
				g, err := geo.Parse(s)
				if err != nil {
					return WrapExitError(ExitFailure, fmt.Sprintf("%q", s), err)
				}
				geoms = append(geoms, g)
			}
			env, err := geo.EnvelopeUnion(geoms)
			if err != nil {
				return WrapExitError(ExitFailure, "envelope", err)
			}
			out := geo.Format(env)
			return root.printer(cmd).result(out, func(w io.Writer) { fmt.Fprintln(w, out) })
		},
	})
	return cmd
}
