package analytics

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/outbound-cli/internal/cache"
	"github.com/sells-group/outbound-cli/pkg/hubspot"
)

// Campaign status values in the summary. The original dashboard substituted
// sample campaigns when the CRM call failed; we report the failure instead.
const (
	CampaignsLive         = "live"
	CampaignsDegraded     = "degraded"
	CampaignsUnconfigured = "unconfigured"
)

// Campaigns is the CRM-backed block of the summary.
type Campaigns struct {
	Status    string             `json:"status"`
	Total     int                `json:"total,omitempty"`
	Campaigns []hubspot.Campaign `json:"campaigns,omitempty"`
	Error     string             `json:"error,omitempty"`
}

// Summary is the dashboard analytics payload.
type Summary struct {
	Totals
	Funnel         []FunnelStage `json:"funnel"`
	RecentActivity []Activity    `json:"recentActivity"`
	Campaigns      Campaigns     `json:"campaigns"`
	GeneratedAt    time.Time     `json:"generatedAt"`
}

// Service assembles the summary from the recorder and the CRM, caching the
// result. Concurrent requests on a cold cache share one assembly via the
// cache group.
type Service struct {
	rec   *Recorder
	hub   hubspot.Client
	group *cache.Group
	ttl   time.Duration
}

// NewService creates an analytics service. hub may be nil when no CRM token
// is configured; the campaigns block then reports unconfigured.
func NewService(rec *Recorder, hub hubspot.Client, c *cache.Cache, ttl time.Duration) *Service {
	return &Service{
		rec:   rec,
		hub:   hub,
		group: cache.NewGroup(c),
		ttl:   ttl,
	}
}

// Recorder exposes the underlying recorder for the write paths.
func (s *Service) Recorder() *Recorder {
	return s.rec
}

// TTL returns the summary cache TTL, which doubles as the HTTP cache hint.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// Summary returns the cached analytics summary, assembling it at most once
// per TTL window.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	key := cache.Key("analytics:summary", nil)
	v, err := s.group.Do(ctx, key, s.ttl, func(ctx context.Context) (any, error) {
		return s.assemble(ctx), nil
	})
	if err != nil {
		return Summary{}, err
	}
	return v.(Summary), nil
}

func (s *Service) assemble(ctx context.Context) Summary {
	totals, funnel, activity := s.rec.Snapshot()

	summary := Summary{
		Totals:         totals,
		Funnel:         funnel,
		RecentActivity: activity,
		Campaigns:      s.fetchCampaigns(ctx),
		GeneratedAt:    time.Now(),
	}
	return summary
}

// fetchCampaigns pulls live campaigns from HubSpot. Failures degrade the
// block, never the whole summary.
func (s *Service) fetchCampaigns(ctx context.Context) Campaigns {
	if s.hub == nil {
		return Campaigns{Status: CampaignsUnconfigured}
	}

	list, err := s.hub.ListCampaigns(ctx, 0)
	if err != nil {
		zap.L().Warn("analytics: campaign fetch failed", zap.Error(err))
		return Campaigns{Status: CampaignsDegraded, Error: err.Error()}
	}

	return Campaigns{
		Status:    CampaignsLive,
		Total:     list.Total,
		Campaigns: list.Results,
	}
}
