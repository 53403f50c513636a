// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

package services

import (
	"context"
	"fmt"
)

// EventRouter is the lifecycle of *events.Router.
type EventRouter interface {
	Run(ctx context.Context) error
	Close() error
}

// EventRouterService runs the event router. A watermill router cannot be
// run twice, so the service is built with a factory that returns a fresh
// router for every (re)start.
type EventRouterService struct {
	newRouter func() (EventRouter, error)
}

// NewEventRouterService wraps a router factory.
func NewEventRouterService(newRouter func() (EventRouter, error)) *EventRouterService {
	return &EventRouterService{newRouter: newRouter}
}

// Serve implements suture.Service.
func (s *EventRouterService) Serve(ctx context.Context) error {
	router, err := s.newRouter()
	if err != nil {
		return fmt.Errorf("build event router: %w", err)
	}
	defer router.Close()

	if err := router.Run(ctx); err != nil {
		return fmt.Errorf("event router: %w", err)
	}
	return ctx.Err()
}

func (s *EventRouterService) String() string {
	return "event-router"
}
