// Package crm pushes qualified leads into HubSpot as contacts.
package crm

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sells-group/outbound-cli/internal/model"
	"github.com/sells-group/outbound-cli/internal/resilience"
	"github.com/sells-group/outbound-cli/pkg/hubspot"
)

// leadSource labels contacts created by this tool in HubSpot.
const leadSource = "AI Dashboard"

// Syncer writes qualified leads to the CRM. A nil client puts the syncer in
// simulated mode: every eligible lead reports success without any network
// call, so the rest of the flow can be exercised without credentials.
type Syncer struct {
	client    hubspot.Client
	threshold int
}

// NewSyncer creates a Syncer. client may be nil for simulated mode.
// threshold is the minimum qualification score a lead needs to be synced.
func NewSyncer(client hubspot.Client, threshold int) *Syncer {
	return &Syncer{client: client, threshold: threshold}
}

// Simulated reports whether the syncer has no live CRM client.
func (s *Syncer) Simulated() bool {
	return s.client == nil
}

// Sync pushes each lead at or above the score threshold to the CRM,
// sequentially and in input order. Per-lead failures are recorded and do not
// abort the run; the returned SyncRun carries one result per input lead.
func (s *Syncer) Sync(ctx context.Context, leads []model.QualifiedLead) model.SyncRun {
	run := model.SyncRun{
		ID:        uuid.NewString(),
		Results:   make([]model.SyncResult, 0, len(leads)),
		Simulated: s.Simulated(),
		StartedAt: time.Now(),
	}

	for _, lead := range leads {
		result := s.syncOne(ctx, lead)
		run.Results = append(run.Results, result)

		switch result.Status {
		case model.SyncStatusSynced, model.SyncStatusSimulated:
			run.Synced++
		case model.SyncStatusSkipped:
			run.Skipped++
		case model.SyncStatusFailed:
			run.Failed++
		}
	}

	zap.L().Info("crm: sync run finished",
		zap.String("run_id", run.ID),
		zap.Int("leads", len(leads)),
		zap.Int("synced", run.Synced),
		zap.Int("skipped", run.Skipped),
		zap.Int("failed", run.Failed),
		zap.Bool("simulated", run.Simulated),
	)

	return run
}

func (s *Syncer) syncOne(ctx context.Context, lead model.QualifiedLead) model.SyncResult {
	if lead.Score < s.threshold {
		return model.SyncResult{
			Email:  lead.Email,
			Status: model.SyncStatusSkipped,
			Reason: "Score below threshold",
		}
	}

	if s.client == nil {
		zap.L().Debug("crm: simulated contact create",
			zap.String("email", lead.Email),
			zap.Int("score", lead.Score),
		)
		return model.SyncResult{Email: lead.Email, Status: model.SyncStatusSimulated}
	}

	contact, err := s.client.CreateContact(ctx, ContactProperties(lead))
	if err != nil {
		reason := err.Error()
		transient := isTransientFailure(err)
		if transient {
			reason = "transient: " + reason
		}
		zap.L().Warn("crm: contact create failed",
			zap.String("email", lead.Email),
			zap.Bool("transient", transient),
			zap.Error(err),
		)
		return model.SyncResult{
			Email:  lead.Email,
			Status: model.SyncStatusFailed,
			Reason: reason,
		}
	}

	zap.L().Debug("crm: contact created",
		zap.String("email", lead.Email),
		zap.String("contact_id", contact.ID),
	)
	return model.SyncResult{Email: lead.Email, Status: model.SyncStatusSynced}
}

// isTransientFailure reports whether a CRM failure looks retryable: a
// rate-limit or server-side status, or a network-level transient error.
// The reason string carries the distinction so an operator can tell a bad
// payload from a flaky upstream.
func isTransientFailure(err error) bool {
	var apiErr *hubspot.APIError
	if errors.As(err, &apiErr) {
		return resilience.IsTransientHTTPStatus(apiErr.StatusCode)
	}
	return resilience.IsTransient(err)
}

// ContactProperties maps a qualified lead onto HubSpot contact properties.
// Optional lead fields are included only when present.
func ContactProperties(lead model.QualifiedLead) map[string]string {
	props := map[string]string{
		"email":                    lead.Email,
		"firstname":                lead.FirstName,
		"lastname":                 lead.LastName,
		"company":                  lead.Company,
		"jobtitle":                 lead.Title,
		"lead_qualification_score": strconv.Itoa(lead.Score),
		"qualification_reason":     lead.Reason,
		"lead_source":              leadSource,
	}
	if lead.Phone != "" {
		props["phone"] = lead.Phone
	}
	if lead.Website != "" {
		props["website"] = lead.Website
	}
	if lead.Industry != "" {
		props["industry"] = lead.Industry
	}
	if lead.CompanyIntelligence != "" {
		props["company_intelligence"] = lead.CompanyIntelligence
	}
	return props
}
