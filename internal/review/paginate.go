// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

package review

// Page is the outcome of paginating a record count.
type Page struct {
	PageCount  int64
	PageNumber int64 // clamped to PageCount
	Limit      uint64
	Offset     uint64
}

// Paginate computes the page count and the limit/offset for a page request.
//
// The returned PageNumber is min(pageCount, pageNumber), so an empty result
// reports page 0. The limit and offset come from the requested page and are
// applied only when both resultsPerPage and pageNumber are positive; a
// non-positive resultsPerPage means a single unbounded page.
func Paginate(recordCount int64, resultsPerPage int, pageNumber int64) Page {
	var p Page
	switch {
	case resultsPerPage > 0:
		per := int64(resultsPerPage)
		p.PageCount = recordCount / per
		if recordCount%per > 0 {
			p.PageCount++
		}
	case recordCount > 0:
		p.PageCount = 1
	}

	p.PageNumber = min(p.PageCount, pageNumber)

	if resultsPerPage > 0 && pageNumber > 0 {
		p.Limit = uint64(resultsPerPage)
		p.Offset = uint64(pageNumber-1) * uint64(resultsPerPage)
	}
	return p
}
