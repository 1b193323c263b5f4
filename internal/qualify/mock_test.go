package qualify

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/outbound-cli/internal/config"
	"github.com/sells-group/outbound-cli/pkg/anthropic"
)

// --- Anthropic Mock ---

type mockAIClient struct {
	mock.Mock
}

func (m *mockAIClient) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.MessageResponse), args.Error(1)
}

// aiFunc adapts a function to the anthropic.Client interface for tests that
// need per-call behavior (blocking, counting) beyond canned expectations.
type aiFunc func(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error)

func (f aiFunc) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	return f(ctx, req)
}

// --- Helpers ---

func testAIConfig() config.AnthropicConfig {
	return config.AnthropicConfig{
		Key:               "test-key",
		Model:             "claude-sonnet-4-5-20250929",
		ResearchMaxTokens: 1000,
		ScoringMaxTokens:  500,
		Temperature:       0.3,
	}
}

func textResponse(text string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{
		ID:         "msg_test",
		Content:    []anthropic.ContentBlock{{Type: "text", Text: text}},
		StopReason: "end_turn",
		Usage:      anthropic.TokenUsage{InputTokens: 100, OutputTokens: 50},
	}
}

const validProfileJSON = `{
	"companySize": "51-200",
	"fundingStatus": "Series A",
	"techStack": ["Go", "Postgres"],
	"growthIndicators": ["hiring"],
	"competitorAnalysis": ["Acme Corp"],
	"recentNews": ["raised $10M"]
}`

const validScoreJSON = `{
	"qualificationScore": 8,
	"qualificationReason": "Strong fit",
	"confidenceLevel": 0.9
}`

// isResearchReq matches the research call by its token budget, which differs
// from the scoring call's.
func isResearchReq(req anthropic.MessageRequest) bool {
	return req.MaxTokens == 1000
}

func isScoringReq(req anthropic.MessageRequest) bool {
	return req.MaxTokens == 500
}
