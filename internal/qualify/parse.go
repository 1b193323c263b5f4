package qualify

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/outbound-cli/internal/model"
	"github.com/sells-group/outbound-cli/pkg/anthropic"
)

// extractText concatenates the text blocks of a message response.
func extractText(resp *anthropic.MessageResponse) string {
	if resp == nil {
		return ""
	}
	var parts []string
	for _, block := range resp.Content {
		if block.Text != "" {
			parts = append(parts, block.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// cleanJSON attempts to extract a JSON object from text that may contain
// markdown code fences or other wrapping.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	// Strip markdown code fences.
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	// Find first { and last }.
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}

// flexStrings accepts a JSON array of strings, a single string, or null.
// Models routinely return a bare string where the contract asks for a list.
type flexStrings []string

func (f *flexStrings) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*f = list
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single != "" {
			*f = []string{single}
		}
		return nil
	}
	// null or an unexpected shape: treat as absent rather than failing the
	// whole profile.
	*f = nil
	return nil
}

// parseProfile decodes the research response into a CompanyProfile.
func parseProfile(text string) (model.CompanyProfile, error) {
	cleaned := cleanJSON(text)

	var raw struct {
		CompanySize        string      `json:"companySize"`
		FundingStatus      string      `json:"fundingStatus"`
		TechStack          flexStrings `json:"techStack"`
		GrowthIndicators   flexStrings `json:"growthIndicators"`
		CompetitorAnalysis flexStrings `json:"competitorAnalysis"`
		Competitors        flexStrings `json:"competitors"`
		RecentNews         flexStrings `json:"recentNews"`
	}
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return model.CompanyProfile{}, eris.Wrap(err, "qualify: parse company profile")
	}

	competitors := []string(raw.CompetitorAnalysis)
	if len(competitors) == 0 {
		competitors = raw.Competitors
	}

	return model.CompanyProfile{
		CompanySize:        raw.CompanySize,
		FundingStatus:      raw.FundingStatus,
		TechStack:          raw.TechStack,
		GrowthIndicators:   raw.GrowthIndicators,
		CompetitorAnalysis: competitors,
		RecentNews:         raw.RecentNews,
	}, nil
}

// scoreResult is the decoded scoring response, bounded to the contract.
type scoreResult struct {
	Score      int
	Reason     string
	Confidence float64
}

// parseScore decodes the qualification response, clamping score to [1,10]
// and confidence to [0,1] rather than trusting the model's JSON.
func parseScore(text string) (scoreResult, error) {
	cleaned := cleanJSON(text)

	var raw struct {
		QualificationScore  float64 `json:"qualificationScore"`
		QualificationReason string  `json:"qualificationReason"`
		ConfidenceLevel     float64 `json:"confidenceLevel"`
	}
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return scoreResult{}, eris.Wrap(err, "qualify: parse qualification")
	}

	score := int(raw.QualificationScore + 0.5)
	if score < 1 {
		score = 1
	}
	if score > 10 {
		score = 10
	}

	confidence := raw.ConfidenceLevel
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	return scoreResult{
		Score:      score,
		Reason:     raw.QualificationReason,
		Confidence: confidence,
	}, nil
}
