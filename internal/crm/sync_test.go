package crm

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/outbound-cli/internal/model"
	"github.com/sells-group/outbound-cli/pkg/hubspot"
)

type mockHubSpotClient struct {
	mock.Mock
}

func (m *mockHubSpotClient) CreateContact(ctx context.Context, properties map[string]string) (*hubspot.Contact, error) {
	args := m.Called(ctx, properties)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*hubspot.Contact), args.Error(1)
}

func (m *mockHubSpotClient) ListCampaigns(ctx context.Context, limit int) (*hubspot.CampaignList, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*hubspot.CampaignList), args.Error(1)
}

func (m *mockHubSpotClient) ListWorkflows(ctx context.Context) (*hubspot.WorkflowList, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*hubspot.WorkflowList), args.Error(1)
}

func qualifiedLead(email string, score int) model.QualifiedLead {
	return model.QualifiedLead{
		Lead: model.Lead{
			FirstName: "Jane",
			LastName:  "Doe",
			Email:     email,
			Company:   "Acme",
			Title:     "VP Engineering",
		},
		Score:     score,
		Reason:    "Strong fit",
		Qualified: score >= 7,
	}
}

func TestSyncCreatesContactsAboveThreshold(t *testing.T) {
	hs := new(mockHubSpotClient)
	hs.On("CreateContact", mock.Anything, mock.Anything).
		Return(&hubspot.Contact{ID: "123"}, nil).Once()

	s := NewSyncer(hs, 7)
	run := s.Sync(context.Background(), []model.QualifiedLead{
		qualifiedLead("high@acme.com", 9),
		qualifiedLead("low@acme.com", 4),
	})

	require.Len(t, run.Results, 2)
	assert.Equal(t, model.SyncStatusSynced, run.Results[0].Status)
	assert.Equal(t, model.SyncStatusSkipped, run.Results[1].Status)
	assert.Equal(t, "Score below threshold", run.Results[1].Reason)
	assert.Equal(t, 1, run.Synced)
	assert.Equal(t, 1, run.Skipped)
	assert.Zero(t, run.Failed)
	assert.False(t, run.Simulated)
	assert.NotEmpty(t, run.ID)
	hs.AssertExpectations(t)
}

func TestSyncSimulatedWithoutClient(t *testing.T) {
	s := NewSyncer(nil, 7)
	assert.True(t, s.Simulated())

	run := s.Sync(context.Background(), []model.QualifiedLead{
		qualifiedLead("a@acme.com", 8),
		qualifiedLead("b@acme.com", 7),
	})

	require.Len(t, run.Results, 2)
	for _, r := range run.Results {
		assert.Equal(t, model.SyncStatusSimulated, r.Status)
	}
	assert.Equal(t, 2, run.Synced)
	assert.True(t, run.Simulated)
}

func TestSyncFailureDoesNotAbortRun(t *testing.T) {
	hs := new(mockHubSpotClient)
	hs.On("CreateContact", mock.Anything, mock.MatchedBy(func(p map[string]string) bool {
		return p["email"] == "bad@acme.com"
	})).Return(nil, eris.New("409 conflict")).Once()
	hs.On("CreateContact", mock.Anything, mock.Anything).
		Return(&hubspot.Contact{ID: "456"}, nil).Once()

	s := NewSyncer(hs, 7)
	run := s.Sync(context.Background(), []model.QualifiedLead{
		qualifiedLead("bad@acme.com", 8),
		qualifiedLead("good@acme.com", 8),
	})

	require.Len(t, run.Results, 2)
	assert.Equal(t, model.SyncStatusFailed, run.Results[0].Status)
	assert.Contains(t, run.Results[0].Reason, "409")
	assert.Equal(t, model.SyncStatusSynced, run.Results[1].Status)
	assert.Equal(t, 1, run.Synced)
	assert.Equal(t, 1, run.Failed)
	hs.AssertExpectations(t)
}

func TestSyncMarksTransientFailures(t *testing.T) {
	hs := new(mockHubSpotClient)
	hs.On("CreateContact", mock.Anything, mock.Anything).
		Return(nil, &hubspot.APIError{StatusCode: 429, Body: "rate limited"}).Once()

	s := NewSyncer(hs, 7)
	run := s.Sync(context.Background(), []model.QualifiedLead{
		qualifiedLead("busy@acme.com", 9),
	})

	require.Len(t, run.Results, 1)
	assert.Equal(t, model.SyncStatusFailed, run.Results[0].Status)
	assert.Contains(t, run.Results[0].Reason, "transient:")
	hs.AssertExpectations(t)
}

func TestSyncThresholdBoundary(t *testing.T) {
	hs := new(mockHubSpotClient)
	hs.On("CreateContact", mock.Anything, mock.Anything).
		Return(&hubspot.Contact{ID: "1"}, nil).Once()

	s := NewSyncer(hs, 7)
	run := s.Sync(context.Background(), []model.QualifiedLead{
		qualifiedLead("exact@acme.com", 7),
		qualifiedLead("below@acme.com", 6),
	})

	assert.Equal(t, model.SyncStatusSynced, run.Results[0].Status)
	assert.Equal(t, model.SyncStatusSkipped, run.Results[1].Status)
	hs.AssertExpectations(t)
}

func TestContactProperties(t *testing.T) {
	lead := qualifiedLead("jane@acme.com", 8)
	lead.Phone = "+1 555 0100"
	lead.Website = "https://acme.com"
	lead.CompanyIntelligence = `{"companySize":"51-200"}`

	props := ContactProperties(lead)

	assert.Equal(t, "jane@acme.com", props["email"])
	assert.Equal(t, "Jane", props["firstname"])
	assert.Equal(t, "Doe", props["lastname"])
	assert.Equal(t, "Acme", props["company"])
	assert.Equal(t, "VP Engineering", props["jobtitle"])
	assert.Equal(t, "8", props["lead_qualification_score"])
	assert.Equal(t, "Strong fit", props["qualification_reason"])
	assert.Equal(t, "AI Dashboard", props["lead_source"])
	assert.Equal(t, "+1 555 0100", props["phone"])
	assert.Contains(t, props["company_intelligence"], "51-200")
	assert.NotContains(t, props, "industry")
}
