// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

package facet

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/gaiaresources/bdrs-review/internal/cache"
	"github.com/gaiaresources/bdrs-review/internal/database"
	"github.com/gaiaresources/bdrs-review/internal/logging"
	"github.com/gaiaresources/bdrs-review/internal/metrics"
	"github.com/gaiaresources/bdrs-review/internal/models"
)

// Registry builds the facet list for a request and caches option counts.
type Registry struct {
	options *cache.Cache[[]models.FacetOption]
}

// NewRegistry creates a registry whose option counts live for ttl.
func NewRegistry(ttl time.Duration) *Registry {
	c := cache.New[[]models.FacetOption](ttl)
	c.OnLookup = metrics.RecordFacetCache
	return &Registry{options: c}
}

// Cache exposes the option cache so its cleanup loop can be supervised.
func (r *Registry) Cache() *cache.Cache[[]models.FacetOption] {
	return r.options
}

// Invalidate drops every cached option count. Called when records change.
func (r *Registry) Invalidate() {
	r.options.Clear()
	logging.Debug().Msg("Facet option cache invalidated")
}

// Set is the facet list built from one request.
type Set struct {
	User       *UserFacet
	Survey     *SurveyFacet
	Attribute  *AttributeFacet
	Visibility *VisibilityFacet
	facets     []Facet
}

// Build parses every registered facet from params in display order.
func (r *Registry) Build(params url.Values, viewer database.Viewer) *Set {
	s := &Set{
		User:       NewUserFacet(params, viewer),
		Survey:     NewSurveyFacet(params),
		Attribute:  NewAttributeFacet(params),
		Visibility: NewVisibilityFacet(params),
	}
	s.facets = []Facet{
		s.User,
		s.Survey,
		NewTaxonGroupFacet(params),
		NewCensusMethodFacet(params),
		NewMonthFacet(params),
		NewYearFacet(params),
		NewLocationFacet(params),
		s.Attribute,
		s.Visibility,
	}
	return s
}

// Facets returns every facet, active or not.
func (s *Set) Facets() []Facet {
	return s.facets
}

// Filters returns the active facets as query filters.
func (s *Set) Filters() []database.Filter {
	var out []database.Filter
	for _, f := range s.facets {
		if f.Active() {
			out = append(out, f)
		}
	}
	return out
}

// Active reports whether any facet has a selection.
func (s *Set) Active() bool {
	for _, f := range s.facets {
		if f.Active() {
			return true
		}
	}
	return false
}

// InputNames returns the request parameter of every facet.
func (s *Set) InputNames() []string {
	out := make([]string, len(s.facets))
	for i, f := range s.facets {
		out[i] = f.InputName()
	}
	return out
}

// HasFacetParams reports whether params carry any facet input at all.
func HasFacetParams(params url.Values, s *Set) bool {
	for _, name := range s.InputNames() {
		if _, ok := params[name]; ok {
			return true
		}
	}
	return false
}

// Views renders the facets with their options for the review page.
func (r *Registry) Views(ctx context.Context, s *Set, src OptionSource, viewer database.Viewer) ([]models.FacetView, error) {
	views := make([]models.FacetView, 0, len(s.facets))
	for _, f := range s.facets {
		key := cache.GenerateKey("facet:"+f.Name(), viewer)
		opts, err := r.options.GetOrLoad(key, func() ([]models.FacetOption, error) {
			loaded, err := f.Options(ctx, src, viewer)
			if err != nil {
				return nil, err
			}
			for i := range loaded {
				loaded[i].Selected = false
			}
			return loaded, nil
		})
		if err != nil {
			return nil, fmt.Errorf("facet %s options: %w", f.Name(), err)
		}
		views = append(views, models.FacetView{
			Name:        f.Name(),
			DisplayName: f.DisplayName(),
			InputName:   f.InputName(),
			Active:      f.Active(),
			Options:     markSelected(opts, f.Selected()),
		})
	}
	return views, nil
}

// markSelected copies opts with Selected set for chosen values. Cached
// slices are never modified.
func markSelected(opts []models.FacetOption, selected []string) []models.FacetOption {
	chosen := make(map[string]bool, len(selected))
	for _, s := range selected {
		chosen[s] = true
	}
	out := make([]models.FacetOption, len(opts))
	for i, o := range opts {
		o.Selected = chosen[o.Value]
		out[i] = o
	}
	return out
}
