package main

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outbound-cli/internal/analytics"
	"github.com/sells-group/outbound-cli/internal/cache"
	"github.com/sells-group/outbound-cli/internal/crm"
	"github.com/sells-group/outbound-cli/internal/qualify"
	"github.com/sells-group/outbound-cli/pkg/anthropic"
	"github.com/sells-group/outbound-cli/pkg/hubspot"
)

// appEnv holds the initialized cache, clients, and services shared by the
// serve/qualify/sync commands.
type appEnv struct {
	Cache     *cache.Cache
	Engine    *qualify.Engine // nil when the Anthropic key is absent
	HubSpot   hubspot.Client  // nil when the HubSpot token is absent
	Syncer    *crm.Syncer
	Analytics *analytics.Service
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.Cache != nil {
		e.Cache.Close()
	}
}

// initEnv builds the shared environment. Missing credentials downgrade the
// affected component instead of failing: a nil engine makes qualification
// endpoints answer "service not configured", a nil HubSpot client puts sync
// into simulation mode. Callers should defer env.Close().
func initEnv() (*appEnv, error) {
	c := cache.New(cfg.Cache.DefaultTTL, cfg.Cache.CleanupInterval)

	var engine *qualify.Engine
	if cfg.Anthropic.Key != "" {
		opts := []qualify.EngineOption{
			qualify.WithCache(c, cfg.Cache.ResearchTTL),
		}
		if cfg.Qualify.RubricPath != "" {
			rubric, err := qualify.LoadRubric(cfg.Qualify.RubricPath)
			if err != nil {
				c.Close()
				return nil, eris.Wrap(err, "init: load rubric")
			}
			opts = append(opts, qualify.WithRubric(rubric))
		}
		ai := anthropic.NewClient(cfg.Anthropic.Key)
		engine = qualify.NewEngine(ai, cfg.Anthropic, cfg.Qualify.ScoreThreshold, opts...)
	} else {
		zap.L().Warn("OUTBOUND_ANTHROPIC_KEY not set, qualification disabled")
	}

	var hub hubspot.Client
	if cfg.HubSpot.Token != "" {
		hub = hubspot.NewClient(cfg.HubSpot.Token,
			hubspot.WithBaseURL(cfg.HubSpot.BaseURL),
			hubspot.WithRateLimit(cfg.HubSpot.RateLimit),
		)
	} else {
		zap.L().Warn("OUTBOUND_HUBSPOT_TOKEN not set, CRM sync runs in simulation mode")
	}

	return &appEnv{
		Cache:     c,
		Engine:    engine,
		HubSpot:   hub,
		Syncer:    crm.NewSyncer(hub, cfg.Qualify.ScoreThreshold),
		Analytics: analytics.NewService(analytics.NewRecorder(), hub, c, cfg.Cache.AnalyticsTTL),
	}, nil
}

// requireEngine fails fast when the Anthropic key is missing instead of
// proceeding with fabricated scores.
func (e *appEnv) requireEngine() (*qualify.Engine, error) {
	if e.Engine == nil {
		return nil, eris.New("OUTBOUND_ANTHROPIC_KEY is not set; qualification requires a real model, not fabricated scores")
	}
	return e.Engine, nil
}
