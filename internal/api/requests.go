// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

package api

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// formParams merges query and urlencoded body parameters. The ident is
// dropped so it never leaks into stored KML parameters.
func formParams(r *http.Request) (url.Values, error) {
	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	params := make(url.Values, len(r.Form))
	for k, v := range r.Form {
		if k == ParamIdent {
			continue
		}
		params[k] = append([]string(nil), v...)
	}
	return params, nil
}

// int64Param parses a required integer parameter. ok is false when the
// parameter is absent; err is set when it is present but malformed.
func int64Param(params url.Values, name string) (n int64, ok bool, err error) {
	raw := strings.TrimSpace(params.Get(name))
	if raw == "" {
		return 0, false, nil
	}
	n, err = strconv.ParseInt(raw, 10, 64)
	return n, true, err
}

func floatParam(params url.Values, name string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(params.Get(name)), 64)
	return f, err == nil
}
