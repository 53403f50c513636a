// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

package cli

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/gaiaresources/bdrs-review/internal/database"
	"github.com/gaiaresources/bdrs-review/internal/export"
	"github.com/gaiaresources/bdrs-review/internal/facet"
	"github.com/gaiaresources/bdrs-review/internal/review"
)

type exportOptions struct {
	*RootOptions
	formats  []string
	surveyID int64
	search   string
	sortBy   string
	order    string
	params   []string
	asUser   int64
	output   string
}

// ExportSummary reports what an export wrote.
type ExportSummary struct {
	File    string   `json:"file"`
	Formats []string `json:"formats"`
	Records int      `json:"records"`
}

func newExportCommand(root *RootOptions) *cobra.Command {
	opts := &exportOptions{RootOptions: root}
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export matching records as CSV, XLSX, KML or JSON",
		Long: `Export runs a review query and writes the matching records. Several
--download-format values produce a zip with one entry per format.

Facet selections are passed as --param name=value, using the same
parameter names as the review endpoints (for example survey_option=3).
Without --as-user every record is exported, held and private ones included.`,
		Example: `  bdrsctl export --download-format kml -o sightings.kml
  bdrsctl export --download-format csv,xlsx --survey 3 -o survey3.zip
  bdrsctl export --download-format json --param taxon_group_option=2 --sort species.scientificName --order ASC`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExport(cmd, opts)
		},
	}
	opts.bindFlags(cmd.Flags())
	_ = cmd.MarkFlagRequired("download-format")
	return cmd
}

func (o *exportOptions) bindFlags(f *pflag.FlagSet) {
	f.StringSliceVarP(&o.formats, "download-format", "d", nil, "csv, xlsx, kml or json (repeatable)")
	f.Int64Var(&o.surveyID, "survey", 0, "restrict to a survey id")
	f.StringVar(&o.search, "search", "", "free text matched against notes and species names")
	f.StringVar(&o.sortBy, "sort", review.DefaultSortBy, "sort property")
	f.StringVar(&o.order, "order", review.DefaultSortOrder, "ASC or DESC")
	f.StringArrayVarP(&o.params, "param", "p", nil, "extra review parameter as name=value (repeatable)")
	f.Int64Var(&o.asUser, "as-user", 0, "export only what this user id may see")
	f.StringVarP(&o.output, "output", "o", "-", `output file, "-" for stdout`)
}

// reviewParams turns the flags into the parameter map a review request reads.
func (o *exportOptions) reviewParams() (url.Values, error) {
	params := url.Values{}
	for _, kv := range o.params {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("--param %q is not name=value", kv)
		}
		params.Add(name, value)
	}
	if o.surveyID != 0 {
		params.Set(review.ParamSurveyID, strconv.FormatInt(o.surveyID, 10))
	}
	if o.search != "" {
		params.Set(review.ParamSearchText, o.search)
	}
	params.Set(review.ParamSortBy, o.sortBy)
	params.Set(review.ParamSortOrder, strings.ToUpper(o.order))
	params[review.ParamDownloadFormat] = o.formats
	return params, nil
}

func (o *exportOptions) viewer() database.Viewer {
	if o.asUser != 0 {
		id := o.asUser
		return database.Viewer{UserID: &id}
	}
	return database.Viewer{SeeAll: true}
}

func runExport(cmd *cobra.Command, opts *exportOptions) error {
	params, err := opts.reviewParams()
	if err != nil {
		return NewExitError(ExitCommandError, err.Error())
	}
	dl := review.NewDownloadRequest(params)
	if verr := dl.Validate(); verr != nil {
		return WrapExitError(ExitCommandError, "invalid --download-format", verr)
	}

	cfg, db, closeStore, err := opts.open()
	if err != nil {
		return err
	}
	defer closeStore()

	req := review.NewReviewRequest(params, cfg.API.DefaultPageSize)
	svc := review.NewService(db, facet.NewRegistry(cfg.Facets.OptionCacheTTL), cfg.API)
	scope := review.Scope{Viewer: opts.viewer()}
	ctx := cmd.Context()

	set, q := svc.Query(req, scope)
	surveys, err := svc.DownloadSurveys(ctx, set, scope.Viewer)
	if err != nil {
		return WrapExitError(ExitCommandError, "load surveys", err)
	}
	ids := make([]int64, len(surveys))
	for i, sv := range surveys {
		ids[i] = sv.ID
	}
	attrs, err := db.AttributesForSurveys(ctx, ids)
	if err != nil {
		return WrapExitError(ExitCommandError, "load attributes", err)
	}

	summary := ExportSummary{File: opts.output, Formats: dl.Formats}
	stream := func(ctx context.Context, format string, sink review.Sink) (review.Stats, error) {
		stats, err := svc.Stream(ctx, q, 0, 0, format, sink)
		summary.Records = stats.Records
		return stats, err
	}
	exportOpts := export.Options{Title: export.DefaultKMLTitle, Surveys: surveys, Attributes: attrs}
	base := baseName(opts.output)

	if err := writeOutput(cmd, opts.output, func(w io.Writer) error {
		return export.Write(ctx, w, base, dl.Formats, exportOpts, stream)
	}); err != nil {
		return WrapExitError(ExitCommandError, "export", err)
	}

	if opts.output == "-" {
		return nil
	}
	return opts.printer(cmd).result(summary, func(w io.Writer) {
		fmt.Fprintf(w, "Wrote %d record(s) as %s to %s\n", summary.Records, strings.Join(summary.Formats, ", "), summary.File)
	})
}

// baseName names zip entries after the output file.
func baseName(path string) string {
	if path == "-" {
		return "records"
	}
	name := path[strings.LastIndexAny(path, `/\`)+1:]
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		name = name[:i]
	}
	if name == "" {
		return "records"
	}
	return name
}

// writeOutput runs write against stdout or a new file. A file is removed
// again when write fails.
func writeOutput(cmd *cobra.Command, path string, write func(io.Writer) error) error {
	if path == "-" {
		return write(cmd.OutOrStdout())
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	return f.Close()
}
