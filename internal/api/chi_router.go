// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/gaiaresources/bdrs-review/internal/authz"
	"github.com/gaiaresources/bdrs-review/internal/middleware"
	"github.com/gaiaresources/bdrs-review/internal/models"
)

// APIPrefix is where every endpoint is mounted.
const APIPrefix = "/api/v1"

// Router wires handlers, middleware and policy into a chi router.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
	authz         *authz.Middleware
}

// NewRouter creates a router. A nil cfg uses DefaultChiMiddlewareConfig.
func NewRouter(handler *Handler, cfg *ChiMiddlewareConfig) *Router {
	return &Router{
		handler:       handler,
		chiMiddleware: NewChiMiddleware(cfg),
		authz:         authz.NewMiddleware(handler.enforcer, roleSubject, respondStatus),
	}
}

// chiMiddleware adapts http.HandlerFunc middleware to chi's r.Use.
func chiMiddleware(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// readOrPost registers h for GET and POST; the review pages accept both.
func readOrPost(r chi.Router, pattern string, h http.HandlerFunc) {
	r.Get(pattern, h)
	r.Post(pattern, h)
}

// SetupChi builds the handler tree.
func (router *Router) SetupChi() http.Handler {
	h := router.handler
	r := chi.NewRouter()

	r.Use(chiMiddleware(middleware.RequestID))
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())

	r.Route(APIPrefix+"/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Use(APISecurityHeaders())
		r.Get("/live", h.HealthLive)
		r.Get("/ready", h.HealthReady)
	})

	r.Route(APIPrefix, func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Use(h.ResolveViewer)

		r.Route("/review/sightings", func(r chi.Router) {
			r.Use(router.authz.Require(authz.ObjReview, authz.ActRead))
			readOrPost(r, "/advancedReview", h.AdvancedReview)
			readOrPost(r, "/advancedReviewJSONSightings", h.AdvancedReviewJSON)
			readOrPost(r, "/advancedReviewKMLSightings", h.AdvancedReviewKML)
			r.Post("/setKMLParameters", h.SetKMLParameters)
			r.Post("/clearKMLParameters", h.ClearKMLParameters)
			r.Group(func(r chi.Router) {
				r.Use(router.chiMiddleware.RateLimitExport())
				readOrPost(r, "/advancedReviewDownload", h.AdvancedReviewDownload)
				readOrPost(r, "/advancedReviewReport", h.AdvancedReviewReport)
			})
		})

		r.Route("/review/mySightings", func(r chi.Router) {
			r.Use(router.authz.Require(authz.ObjReviewMine, authz.ActRead))
			readOrPost(r, "/", h.MySightings)
			readOrPost(r, "/json", h.MySightingsJSON)
			readOrPost(r, "/kml", h.MySightingsKML)
			r.Group(func(r chi.Router) {
				r.Use(router.chiMiddleware.RateLimitExport())
				readOrPost(r, "/download", h.MySightingsDownload)
			})
		})

		r.Route("/webservice/location", func(r chi.Router) {
			r.With(router.authz.Require(authz.ObjLocation, authz.ActRead)).Get("/getLocationById", h.GetLocationByID)
			r.With(router.authz.Require(authz.ObjLocation, authz.ActRead)).Get("/getLocationsById", h.GetLocationsByID)
			r.With(router.authz.Require(authz.ObjLocation, authz.ActRead)).Get("/isValidWkt", h.IsValidWKT)
			r.With(router.authz.Require(authz.ObjBookmark, authz.ActWrite)).Get("/bookmarkUserLocation", h.BookmarkUserLocation)
		})

		r.With(router.authz.Require(authz.ObjSurvey, authz.ActRender)).
			Get("/bdrs/user/surveyRenderRedirect", h.SurveyRenderRedirect)

		r.Route("/content", func(r chi.Router) {
			r.With(router.authz.Require(authz.ObjContent, authz.ActRead)).Get("/", h.ListContentKeys)
			r.With(router.authz.Require(authz.ObjContent, authz.ActRead)).Get("/*", h.GetContent)
			r.With(router.authz.Require(authz.ObjContent, authz.ActWrite)).Put("/*", h.PutContent)
		})

		r.With(router.authz.Require(authz.ObjImport, authz.ActWrite)).Post("/import", h.Import)
		r.With(router.authz.Require(authz.ObjRecord, authz.ActValidate)).Post("/record/validate", h.ValidateRecord)
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("list"),
		httpSwagger.DomID("swagger-ui"),
	))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusNotFound, models.ErrCodeNotFound, "No such endpoint", nil)
	})
	return r
}
