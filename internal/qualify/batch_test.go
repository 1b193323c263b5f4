package qualify

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/outbound-cli/internal/model"
	"github.com/sells-group/outbound-cli/pkg/anthropic"
)

func makeLeads(n int) []model.Lead {
	leads := make([]model.Lead, n)
	for i := range leads {
		leads[i] = model.Lead{
			ID:        fmt.Sprintf("lead-%d", i),
			FirstName: "Lead",
			LastName:  fmt.Sprintf("Number%d", i),
			Email:     fmt.Sprintf("lead%d@example.com", i),
			Company:   fmt.Sprintf("Company %d", i),
			Title:     "Manager",
		}
	}
	return leads
}

func happyClient() anthropic.Client {
	return aiFunc(func(_ context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
		if isResearchReq(req) {
			return textResponse(validProfileJSON), nil
		}
		return textResponse(validScoreJSON), nil
	})
}

func TestQualifyAllPreservesOrder(t *testing.T) {
	leads := makeLeads(8)
	e := NewEngine(happyClient(), testAIConfig(), 7)

	results := e.QualifyAll(context.Background(), leads)

	require.Len(t, results, len(leads))
	for i, r := range results {
		assert.Equal(t, leads[i].Email, r.Email)
		assert.Equal(t, 8, r.Score)
		assert.True(t, r.Qualified)
	}
}

func TestQualifyAllFailuresDegradeInPlace(t *testing.T) {
	leads := makeLeads(4)
	// Fail only Company 2's research call.
	ai := aiFunc(func(_ context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
		if isResearchReq(req) {
			if len(req.Messages) > 0 && req.Messages[0].Content == "Company: Company 2" {
				return nil, eris.New("rate limited")
			}
			return textResponse(validProfileJSON), nil
		}
		return textResponse(validScoreJSON), nil
	})

	e := NewEngine(ai, testAIConfig(), 7)
	results := e.QualifyAll(context.Background(), leads)

	require.Len(t, results, 4)
	assert.Equal(t, 8, results[0].Score)
	assert.Equal(t, 1, results[2].Score)
	assert.Contains(t, results[2].Reason, "rate limited")
	assert.Equal(t, leads[2].Email, results[2].Email)
	assert.Equal(t, 8, results[3].Score)
}

func TestQualifyBatchesChunksInOrder(t *testing.T) {
	leads := makeLeads(25)
	e := NewEngine(happyClient(), testAIConfig(), 7)

	results := e.QualifyBatches(context.Background(), leads, BatchOptions{Size: 10})

	require.Len(t, results, 25)
	for i, r := range results {
		assert.Equal(t, leads[i].Email, r.Email)
	}
}

func TestQualifyBatchesDropsTimedOutLeads(t *testing.T) {
	leads := makeLeads(3)
	// Company 1 hangs until its context is cancelled.
	ai := aiFunc(func(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
		if isResearchReq(req) && req.Messages[0].Content == "Company: Company 1" {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		if isResearchReq(req) {
			return textResponse(validProfileJSON), nil
		}
		return textResponse(validScoreJSON), nil
	})

	e := NewEngine(ai, testAIConfig(), 7)
	results := e.QualifyBatches(context.Background(), leads, BatchOptions{
		Size:        10,
		ItemTimeout: 50 * time.Millisecond,
	})

	// The timed-out lead is dropped, not degraded.
	require.Len(t, results, 2)
	assert.Equal(t, leads[0].Email, results[0].Email)
	assert.Equal(t, leads[2].Email, results[1].Email)
}

func TestQualifyBatchesRetriesFailedLead(t *testing.T) {
	var researchCalls atomic.Int32
	ai := aiFunc(func(_ context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
		if isResearchReq(req) {
			if researchCalls.Add(1) == 1 {
				return nil, eris.New("transient blip")
			}
			return textResponse(validProfileJSON), nil
		}
		return textResponse(validScoreJSON), nil
	})

	e := NewEngine(ai, testAIConfig(), 7)
	results := e.QualifyBatches(context.Background(), makeLeads(1), BatchOptions{
		Size:        10,
		ItemTimeout: 5 * time.Second,
		Retries:     1,
	})

	require.Len(t, results, 1)
	assert.Equal(t, 8, results[0].Score)
	assert.EqualValues(t, 2, researchCalls.Load())
}

func TestQualifyBatchesExhaustedRetriesDegrade(t *testing.T) {
	var calls atomic.Int32
	ai := aiFunc(func(_ context.Context, _ anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
		calls.Add(1)
		return nil, eris.New("still down")
	})

	e := NewEngine(ai, testAIConfig(), 7)
	results := e.QualifyBatches(context.Background(), makeLeads(1), BatchOptions{
		Size:        10,
		ItemTimeout: 5 * time.Second,
		Retries:     1,
	})

	require.Len(t, results, 1)
	assert.Equal(t, 1, results[0].Score)
	assert.Contains(t, results[0].Reason, "still down")
	assert.EqualValues(t, 2, calls.Load())
}

func TestQualifyBatchesDefaults(t *testing.T) {
	opts := BatchOptions{}.withDefaults()

	assert.Equal(t, 10, opts.Size)
	assert.Equal(t, 30*time.Second, opts.ItemTimeout)
	assert.Zero(t, opts.Retries)
}

func TestQualifyBatchesEmptyInput(t *testing.T) {
	ai := new(mockAIClient)
	e := NewEngine(ai, testAIConfig(), 7)

	results := e.QualifyBatches(context.Background(), nil, BatchOptions{})

	assert.Empty(t, results)
	ai.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything)
}
