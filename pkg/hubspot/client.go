// Package hubspot provides token-authenticated REST access to the HubSpot
// CRM and marketing APIs.
package hubspot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Default base URL for the HubSpot API.
const defaultBaseURL = "https://api.hubapi.com"

// Client defines the HubSpot API operations used by CRM sync and analytics.
type Client interface {
	CreateContact(ctx context.Context, properties map[string]string) (*Contact, error)
	ListCampaigns(ctx context.Context, limit int) (*CampaignList, error)
	ListWorkflows(ctx context.Context) (*WorkflowList, error)
}

// Contact represents a HubSpot CRM contact record.
type Contact struct {
	ID         string            `json:"id"`
	Properties map[string]string `json:"properties"`
	CreatedAt  time.Time         `json:"createdAt"`
}

// Campaign represents a HubSpot marketing campaign.
type Campaign struct {
	ID         string            `json:"id"`
	Properties map[string]string `json:"properties"`
}

// CampaignList is the response from the marketing campaigns endpoint.
type CampaignList struct {
	Results []Campaign `json:"results"`
	Total   int        `json:"total"`
}

// Workflow represents a HubSpot automation workflow with its enrollment
// counters.
type Workflow struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Status          string `json:"status"`
	Type            string `json:"type"`
	EnrollmentCount int    `json:"enrollmentCount"`
	CompletionCount int    `json:"completionCount"`
	LastUpdated     string `json:"lastUpdated"`
}

// WorkflowList is the response from the automation workflows endpoint.
type WorkflowList struct {
	Results []Workflow `json:"results"`
	Total   int        `json:"total"`
}

// APIError is returned when HubSpot responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("hubspot: HTTP %d: %s", e.StatusCode, e.Body)
}

// Option configures the httpClient.
type Option func(*httpClient)

// WithBaseURL overrides the default base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit sets a per-second rate limit for HubSpot API calls.
// A burst equal to the integer portion of rps is allowed.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		}
	}
}

// httpClient implements Client using net/http.
type httpClient struct {
	token   string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a new HubSpot client authenticated with a private-app token.
func NewClient(token string, opts ...Option) Client {
	c := &httpClient{
		token:   token,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// wait blocks until the rate limiter allows one event, or ctx is cancelled.
func (c *httpClient) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "hubspot: rate limit wait")
	}
	return nil
}

func (c *httpClient) CreateContact(ctx context.Context, properties map[string]string) (*Contact, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	body := struct {
		Properties map[string]string `json:"properties"`
	}{Properties: properties}

	var contact Contact
	if err := c.post(ctx, "/crm/v3/objects/contacts", body, &contact); err != nil {
		return nil, eris.Wrap(err, "hubspot: create contact")
	}
	return &contact, nil
}

func (c *httpClient) ListCampaigns(ctx context.Context, limit int) (*CampaignList, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = 100
	}

	var list CampaignList
	path := fmt.Sprintf("/marketing/v3/campaigns?limit=%d", limit)
	if err := c.get(ctx, path, &list); err != nil {
		return nil, eris.Wrap(err, "hubspot: list campaigns")
	}
	return &list, nil
}

func (c *httpClient) ListWorkflows(ctx context.Context) (*WorkflowList, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	var list WorkflowList
	if err := c.get(ctx, "/automation/v3/workflows", &list); err != nil {
		return nil, eris.Wrap(err, "hubspot: list workflows")
	}
	return &list, nil
}

func (c *httpClient) post(ctx context.Context, path string, body any, out any) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return eris.Wrap(err, "marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return eris.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	return c.do(req, out)
}

func (c *httpClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return eris.Wrap(err, "create request")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	return c.do(req, out)
}

func (c *httpClient) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "execute request")
	}
	defer resp.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Body:       string(data),
		}
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return eris.Wrap(err, "decode response")
		}
	}
	return nil
}
