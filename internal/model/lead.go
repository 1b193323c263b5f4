package model

import (
	"time"
)

// Lead represents a prospective contact ingested for qualification.
// This is the single canonical lead schema; raw upload rows only exist as
// map[string]string until validation promotes them into a Lead.
type Lead struct {
	ID          string `json:"id,omitempty"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	Company     string `json:"company"`
	Title       string `json:"title"`
	Phone       string `json:"phone,omitempty"`
	Website     string `json:"website,omitempty"`
	Industry    string `json:"industry,omitempty"`
	CompanySize string `json:"companySize,omitempty"`
	Location    string `json:"location,omitempty"`
}

// FullName joins the lead's name parts, tolerating a missing side.
func (l Lead) FullName() string {
	switch {
	case l.FirstName == "":
		return l.LastName
	case l.LastName == "":
		return l.FirstName
	default:
		return l.FirstName + " " + l.LastName
	}
}

// CompanyProfile is the structured company intelligence produced by the
// research step of the qualification pipeline.
type CompanyProfile struct {
	CompanySize        string   `json:"companySize,omitempty"`
	FundingStatus      string   `json:"fundingStatus,omitempty"`
	TechStack          []string `json:"techStack,omitempty"`
	GrowthIndicators   []string `json:"growthIndicators,omitempty"`
	CompetitorAnalysis []string `json:"competitorAnalysis,omitempty"`
	RecentNews         []string `json:"recentNews,omitempty"`
}

// QualifiedLead is a Lead with its qualification result and enrichment
// attached. Created once per lead by the pipeline; only ProcessingTime is
// stamped after creation.
type QualifiedLead struct {
	Lead

	Score      int     `json:"qualificationScore"` // 1-10
	Reason     string  `json:"qualificationReason"`
	Confidence float64 `json:"confidenceLevel"` // 0-1
	Qualified  bool    `json:"qualified"`

	CompanyIntelligence string   `json:"companyIntelligence,omitempty"` // profile as JSON
	CompanySize         string   `json:"companySize,omitempty"`         // shadows Lead.CompanySize in JSON; producers must merge
	FundingStatus       string   `json:"fundingStatus,omitempty"`
	TechStack           []string `json:"techStack,omitempty"`
	GrowthIndicators    []string `json:"growthIndicators,omitempty"`
	CompetitorAnalysis  []string `json:"competitorAnalysis,omitempty"`
	RecentNews          []string `json:"recentNews,omitempty"`

	QualifiedAt    time.Time     `json:"qualifiedAt"`
	ProcessingTime time.Duration `json:"processingTime"` // end-to-end, per lead
}

// RowError reports why one upload row failed validation. Index is the
// zero-based data row; Row is the 1-based spreadsheet row (header included)
// shown to users.
type RowError struct {
	Record map[string]string `json:"lead"`
	Errors []string          `json:"errors"`
	Index  int               `json:"index"`
	Row    int               `json:"row"`
}

// SyncStatus is the per-lead outcome of a CRM sync.
type SyncStatus string

const (
	SyncStatusSynced    SyncStatus = "success"
	SyncStatusSimulated SyncStatus = "success (simulated)"
	SyncStatusSkipped   SyncStatus = "skipped"
	SyncStatusFailed    SyncStatus = "error"
)

// SyncResult records the outcome of syncing one qualified lead to the CRM.
// Never persisted.
type SyncResult struct {
	Email  string     `json:"email"`
	Status SyncStatus `json:"status"`
	Reason string     `json:"reason,omitempty"`
}

// SyncRun summarizes a whole CRM sync invocation.
type SyncRun struct {
	ID        string       `json:"id"`
	Results   []SyncResult `json:"results"`
	Synced    int          `json:"synced"`
	Skipped   int          `json:"skipped"`
	Failed    int          `json:"failed"`
	Simulated bool         `json:"simulated"`
	StartedAt time.Time    `json:"started_at"`
}
