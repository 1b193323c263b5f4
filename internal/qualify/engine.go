// Package qualify implements the lead qualification pipeline: a two-step
// LLM sequence (company research, then scoring) plus the batch orchestration
// that runs it over uploaded lead lists.
package qualify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outbound-cli/internal/cache"
	"github.com/sells-group/outbound-cli/internal/config"
	"github.com/sells-group/outbound-cli/internal/model"
	"github.com/sells-group/outbound-cli/pkg/anthropic"
)

const researchSystemPrompt = `You are a business intelligence expert. Analyze the company you are given and respond with a valid JSON object:
{
  "companySize": "string (e.g., '1-10', '11-50', '51-200', '201-500', '501-1000', '1000+')",
  "fundingStatus": "string (e.g., 'Bootstrapped', 'Seed', 'Series A', 'Series B+', 'Public')",
  "techStack": ["string"],
  "growthIndicators": ["string"],
  "competitorAnalysis": ["string"],
  "recentNews": ["string"]
}
Focus on factual information and avoid speculation. If information is not available, use null for that field.`

const researchUserPrompt = `Company: %s`

const scoringSystemPrompt = `You are an expert lead qualification specialist. Evaluate the lead and company information you are given and score the lead from 1-10 based on the following criteria:
%s

Respond with a valid JSON object:
{
  "qualificationScore": number (1-10),
  "qualificationReason": "string (detailed explanation)",
  "confidenceLevel": number (0-1)
}
Be specific and data-driven in your analysis.`

const scoringUserPrompt = `Lead Information:
%s

Company Analysis:
%s`

// Engine runs the qualification pipeline for individual leads. All
// collaborators are injected; the engine holds no global state beyond the
// token-usage tally for the current run.
type Engine struct {
	ai          anthropic.Client
	aiCfg       config.AnthropicConfig
	threshold   int
	rubric      *Rubric
	cache       *cache.Cache
	researchTTL time.Duration

	usageMu sync.Mutex
	usage   anthropic.TokenUsage
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithCache enables research-result caching: repeated leads from the same
// company within ttl reuse the prior company profile.
func WithCache(c *cache.Cache, ttl time.Duration) EngineOption {
	return func(e *Engine) {
		e.cache = c
		e.researchTTL = ttl
	}
}

// WithRubric overrides the default scoring criteria.
func WithRubric(r *Rubric) EngineOption {
	return func(e *Engine) {
		if r != nil {
			e.rubric = r
		}
	}
}

// NewEngine creates a qualification engine. threshold is the minimum score
// for a lead to count as qualified.
func NewEngine(ai anthropic.Client, aiCfg config.AnthropicConfig, threshold int, opts ...EngineOption) *Engine {
	e := &Engine{
		ai:        ai,
		aiCfg:     aiCfg,
		threshold: threshold,
		rubric:    DefaultRubric(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Threshold returns the qualification score threshold.
func (e *Engine) Threshold() int {
	return e.threshold
}

// Usage returns the token usage accumulated across all pipeline calls made
// through this engine. Cached research hits consume no tokens and are not
// counted.
func (e *Engine) Usage() anthropic.TokenUsage {
	e.usageMu.Lock()
	defer e.usageMu.Unlock()
	return e.usage
}

func (e *Engine) recordUsage(u anthropic.TokenUsage) {
	e.usageMu.Lock()
	e.usage.Add(u)
	e.usageMu.Unlock()
}

// QualifyLead runs the pipeline for one lead. It never returns an error:
// any step failure degrades into a score-1, confidence-0 disqualified record
// carrying the failure description. One invocation is one attempt.
func (e *Engine) QualifyLead(ctx context.Context, lead model.Lead) model.QualifiedLead {
	result, err := e.Qualify(ctx, lead)
	if err != nil {
		return Degraded(lead, err)
	}
	return result
}

// Qualify runs the pipeline for one lead, surfacing the step error instead
// of degrading, so callers (the batch orchestrator's opt-in retry) can react.
// On error the returned record is the zero value.
func (e *Engine) Qualify(ctx context.Context, lead model.Lead) (model.QualifiedLead, error) {
	start := time.Now()

	profile, err := e.researchCompany(ctx, lead.Company)
	if err != nil {
		return model.QualifiedLead{}, eris.Wrap(err, "research failed")
	}

	score, err := e.scoreLead(ctx, lead, profile)
	if err != nil {
		return model.QualifiedLead{}, eris.Wrap(err, "qualification failed")
	}

	intelligence, _ := json.Marshal(profile)

	// The enrichment field hides the uploaded lead's companySize in JSON
	// output, so keep the lead's value when research returned none.
	companySize := profile.CompanySize
	if companySize == "" {
		companySize = lead.CompanySize
	}

	result := model.QualifiedLead{
		Lead:                lead,
		Score:               score.Score,
		Reason:              score.Reason,
		Confidence:          score.Confidence,
		Qualified:           score.Score >= e.threshold,
		CompanyIntelligence: string(intelligence),
		CompanySize:         companySize,
		FundingStatus:       profile.FundingStatus,
		TechStack:           profile.TechStack,
		GrowthIndicators:    profile.GrowthIndicators,
		CompetitorAnalysis:  profile.CompetitorAnalysis,
		RecentNews:          profile.RecentNews,
		QualifiedAt:         time.Now(),
		ProcessingTime:      time.Since(start),
	}

	zap.L().Debug("qualify: lead scored",
		zap.String("email", lead.Email),
		zap.String("company", lead.Company),
		zap.Int("score", result.Score),
		zap.Bool("qualified", result.Qualified),
		zap.Duration("processing_time", result.ProcessingTime),
	)

	return result, nil
}

// researchCompany runs the research step, optionally through the cache.
func (e *Engine) researchCompany(ctx context.Context, company string) (model.CompanyProfile, error) {
	if company == "" {
		return model.CompanyProfile{}, eris.New("company name is empty")
	}

	if e.cache != nil {
		key := cache.Key("research", map[string]any{"company": company})
		return cache.WithCache(ctx, e.cache, key, e.researchTTL, func(ctx context.Context) (model.CompanyProfile, error) {
			return e.callResearch(ctx, company)
		})
	}

	return e.callResearch(ctx, company)
}

func (e *Engine) callResearch(ctx context.Context, company string) (model.CompanyProfile, error) {
	resp, err := e.ai.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       e.aiCfg.Model,
		MaxTokens:   e.aiCfg.ResearchMaxTokens,
		System:      anthropic.BuildCachedSystemBlocks(researchSystemPrompt),
		Messages:    []anthropic.Message{{Role: "user", Content: fmt.Sprintf(researchUserPrompt, company)}},
		Temperature: &e.aiCfg.Temperature,
	})
	if err != nil {
		return model.CompanyProfile{}, err
	}
	resp.Usage.LogCost(e.aiCfg.Model, "research")
	e.recordUsage(resp.Usage)

	return parseProfile(extractText(resp))
}

// scoreLead runs the scoring step. The prompt carries both the lead and the
// research output; research strictly precedes scoring.
func (e *Engine) scoreLead(ctx context.Context, lead model.Lead, profile model.CompanyProfile) (scoreResult, error) {
	leadJSON, err := json.Marshal(lead)
	if err != nil {
		return scoreResult{}, eris.Wrap(err, "marshal lead")
	}
	profileJSON, err := json.Marshal(profile)
	if err != nil {
		return scoreResult{}, eris.Wrap(err, "marshal profile")
	}

	system := fmt.Sprintf(scoringSystemPrompt, e.rubric.CriteriaLines())

	resp, err := e.ai.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       e.aiCfg.Model,
		MaxTokens:   e.aiCfg.ScoringMaxTokens,
		System:      anthropic.BuildCachedSystemBlocks(system),
		Messages:    []anthropic.Message{{Role: "user", Content: fmt.Sprintf(scoringUserPrompt, leadJSON, profileJSON)}},
		Temperature: &e.aiCfg.Temperature,
	})
	if err != nil {
		return scoreResult{}, err
	}
	resp.Usage.LogCost(e.aiCfg.Model, "scoring")
	e.recordUsage(resp.Usage)

	return parseScore(extractText(resp))
}

// Degraded builds the minimal disqualified record a failed pipeline run
// produces: score 1, confidence 0, empty enrichment, the failure description
// as the reason.
func Degraded(lead model.Lead, cause error) model.QualifiedLead {
	reason := "Error during qualification process"
	if cause != nil {
		reason = fmt.Sprintf("Error during qualification process: %s", cause.Error())
	}

	zap.L().Warn("qualify: lead degraded",
		zap.String("email", lead.Email),
		zap.String("company", lead.Company),
		zap.Error(cause),
	)

	return model.QualifiedLead{
		Lead:        lead,
		Score:       1,
		Reason:      reason,
		Confidence:  0,
		Qualified:   false,
		CompanySize: lead.CompanySize,
		QualifiedAt: time.Now(),
	}
}
