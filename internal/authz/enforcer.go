// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

package authz

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"

	"github.com/gaiaresources/bdrs-review/internal/cache"
	"github.com/gaiaresources/bdrs-review/internal/logging"
)

//go:embed model.conf
var embeddedModel string

//go:embed policy.csv
var embeddedPolicy string

// Anonymous is the subject for callers without a resolved user.
const Anonymous = "anonymous"

// Capabilities checked by the API.
const (
	ObjReview         = "review"
	ObjReviewMine     = "review:mine"
	ObjAllRecords     = "records:all"
	ObjLocation       = "location"
	ObjBookmark       = "location:bookmark"
	ObjRecord         = "record"
	ObjContent        = "content"
	ObjSurvey         = "survey"
	ObjImport         = "import"
	ActRead           = "read"
	ActWrite          = "write"
	ActValidate       = "validate"
	ActRender         = "render"
	defaultReload     = 30 * time.Second
	defaultDecisionTT = 5 * time.Minute
)

// Config selects the policy source.
type Config struct {
	// PolicyPath replaces the embedded policy when the file exists.
	PolicyPath string
	// ReloadInterval re-reads PolicyPath. Zero uses 30s.
	ReloadInterval time.Duration
	// DecisionTTL caches decisions. Zero uses 5m; negative disables caching.
	// A reloaded policy file applies once cached decisions expire.
	DecisionTTL time.Duration
}

// Enforcer answers role, object, action questions.
type Enforcer struct {
	enforcer  *casbin.SyncedEnforcer
	decisions *cache.Cache[bool]
	fromFile  bool
}

// NewEnforcer loads the embedded model and the configured policy.
func NewEnforcer(cfg Config) (*Enforcer, error) {
	m, err := model.NewModelFromString(embeddedModel)
	if err != nil {
		return nil, fmt.Errorf("failed to load casbin model: %w", err)
	}

	var enforcer *casbin.SyncedEnforcer
	fromFile := cfg.PolicyPath != "" && fileExists(cfg.PolicyPath)
	if fromFile {
		enforcer, err = casbin.NewSyncedEnforcer(m, fileadapter.NewAdapter(cfg.PolicyPath))
	} else {
		enforcer, err = casbin.NewSyncedEnforcer(m)
		if err == nil {
			err = loadPolicy(enforcer, embeddedPolicy)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}

	if fromFile {
		interval := cfg.ReloadInterval
		if interval <= 0 {
			interval = defaultReload
		}
		enforcer.StartAutoLoadPolicy(interval)
	}

	e := &Enforcer{enforcer: enforcer, fromFile: fromFile}
	switch {
	case cfg.DecisionTTL == 0:
		e.decisions = cache.New[bool](defaultDecisionTT)
	case cfg.DecisionTTL > 0:
		e.decisions = cache.New[bool](cfg.DecisionTTL)
	}

	logging.Info().Bool("policy_file", fromFile).Str("path", cfg.PolicyPath).Msg("Authorization policy loaded")
	return e, nil
}

// loadPolicy adds the p and g lines of a policy CSV.
func loadPolicy(enforcer *casbin.SyncedEnforcer, policy string) error {
	for _, line := range strings.Split(policy, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}

		switch {
		case parts[0] == "p" && len(parts) >= 4:
			if _, err := enforcer.AddPolicy(parts[1], parts[2], parts[3]); err != nil {
				return fmt.Errorf("failed to add policy %v: %w", parts[1:], err)
			}
		case parts[0] == "g" && len(parts) >= 3:
			if _, err := enforcer.AddGroupingPolicy(parts[1], parts[2]); err != nil {
				return fmt.Errorf("failed to add grouping policy %v: %w", parts[1:], err)
			}
		}
	}
	return nil
}

// Enforce reports whether subject may perform action on object.
func (e *Enforcer) Enforce(subject, object, action string) (bool, error) {
	if subject == "" {
		subject = Anonymous
	}
	key := subject + "|" + object + "|" + action
	if e.decisions != nil {
		if allowed, ok := e.decisions.Get(key); ok {
			return allowed, nil
		}
	}

	allowed, err := e.enforcer.Enforce(subject, object, action)
	if err != nil {
		return false, fmt.Errorf("enforcement failed: %w", err)
	}
	if e.decisions != nil {
		e.decisions.Set(key, allowed)
	}
	return allowed, nil
}

// Allowed is Enforce with errors logged and treated as a denial.
func (e *Enforcer) Allowed(subject, object, action string) bool {
	allowed, err := e.Enforce(subject, object, action)
	if err != nil {
		logging.Error().Err(err).Str("subject", subject).Str("object", object).Msg("Authorization error")
		return false
	}
	return allowed
}

// CanSeeAllRecords reports whether role bypasses record visibility.
func (e *Enforcer) CanSeeAllRecords(role string) bool {
	return e.Allowed(role, ObjAllRecords, ActRead)
}

// Reload re-reads the policy file and drops cached decisions. It is a no-op
// for the embedded policy.
func (e *Enforcer) Reload() error {
	if !e.fromFile {
		return nil
	}
	if err := e.enforcer.LoadPolicy(); err != nil {
		return err
	}
	if e.decisions != nil {
		e.decisions.Clear()
	}
	return nil
}

// Close stops policy reloading.
func (e *Enforcer) Close() {
	e.enforcer.StopAutoLoadPolicy()
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
