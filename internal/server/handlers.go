package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outbound-cli/internal/ingest"
	"github.com/sells-group/outbound-cli/internal/model"
	"github.com/sells-group/outbound-cli/internal/qualify"
	"github.com/sells-group/outbound-cli/internal/validate"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleConfigCheck(w http.ResponseWriter, _ *http.Request) {
	missing := s.cfg.Validate()
	if missing == nil {
		missing = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"config": s.cfg.Redacted(),
		"errors": missing,
	})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	records, err := ingest.ReadCSV(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to parse CSV file")
		return
	}

	valid, invalid, err := validate.Partition(records, s.cfg.Batch.MaxUploadRows)
	if err != nil {
		if eris.Is(err, validate.ErrBatchTooLarge) {
			writeError(w, http.StatusBadRequest,
				fmt.Sprintf("Batch size limit exceeded. Maximum %d leads allowed.", s.cfg.Batch.MaxUploadRows))
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if valid == nil {
		valid = []model.Lead{}
	}
	if invalid == nil {
		invalid = []model.RowError{}
	}

	s.analytics.Recorder().RecordUpload(len(records), len(valid))

	writeJSON(w, http.StatusOK, map[string]any{
		"validLeads":   valid,
		"invalidLeads": invalid,
		"previewCount": len(records),
	})
}

// qualifyOptions is the optional knobs block of the qualify request.
type qualifyOptions struct {
	BatchSize int `json:"batchSize"`
	Timeout   int `json:"timeout"` // seconds
	Retries   int `json:"retries"`
}

func (s *Server) handleQualify(w http.ResponseWriter, r *http.Request) {
	if s.engine == nil {
		writeError(w, http.StatusServiceUnavailable, "service not configured")
		return
	}

	leads, opts, err := decodeQualifyRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var results []model.QualifiedLead
	if opts != nil {
		results = s.engine.QualifyBatches(r.Context(), leads, qualify.BatchOptions{
			Size:        opts.BatchSize,
			ItemTimeout: time.Duration(opts.Timeout) * time.Second,
			Retries:     opts.Retries,
		})
	} else {
		results = s.engine.QualifyAll(r.Context(), leads)
	}
	if results == nil {
		results = []model.QualifiedLead{}
	}

	s.analytics.Recorder().RecordQualification(results)

	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

// decodeQualifyRequest accepts either a bare JSON array of leads or a
// {leads, options} object, matching what the dashboard UI sends.
func decodeQualifyRequest(r *http.Request) ([]model.Lead, *qualifyOptions, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		return nil, nil, eris.New("invalid request body")
	}

	var leads []model.Lead
	if err := json.Unmarshal(raw, &leads); err == nil {
		if len(leads) == 0 {
			return nil, nil, eris.New("no leads provided")
		}
		return leads, nil, nil
	}

	var wrapped struct {
		Leads   []model.Lead    `json:"leads"`
		Options *qualifyOptions `json:"options"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, nil, eris.New("invalid request body")
	}
	if len(wrapped.Leads) == 0 {
		return nil, nil, eris.New("no leads provided")
	}
	return wrapped.Leads, wrapped.Options, nil
}

func (s *Server) handleSyncContacts(w http.ResponseWriter, r *http.Request) {
	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var leads []model.QualifiedLead
	if err := json.Unmarshal(raw, &leads); err != nil {
		var wrapped struct {
			Leads []model.QualifiedLead `json:"leads"`
		}
		if err := json.Unmarshal(raw, &wrapped); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		leads = wrapped.Leads
	}
	if len(leads) == 0 {
		writeError(w, http.StatusBadRequest, "no leads provided")
		return
	}

	run := s.syncer.Sync(r.Context(), leads)
	s.analytics.Recorder().RecordSync(run)

	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleCampaigns(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		writeError(w, http.StatusUnauthorized, "HubSpot not configured")
		return
	}

	list, err := s.hub.ListCampaigns(r.Context(), 0)
	if err != nil {
		zap.L().Warn("server: campaign fetch failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "failed to fetch campaigns")
		return
	}

	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleWorkflows(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		writeError(w, http.StatusUnauthorized, "HubSpot not configured")
		return
	}

	list, err := s.hub.ListWorkflows(r.Context())
	if err != nil {
		zap.L().Warn("server: workflow fetch failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "failed to fetch workflows")
		return
	}

	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.analytics.Summary(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to assemble analytics summary")
		return
	}

	ttlSec := int(s.analytics.TTL().Seconds())
	w.Header().Set("Cache-Control",
		fmt.Sprintf("public, s-maxage=%d, stale-while-revalidate=%d", ttlSec, 5*ttlSec))
	writeJSON(w, http.StatusOK, summary)
}

// handleStream pushes the summary as server-sent events until the client
// disconnects. It is a consumer of the same payload /analytics/summary
// serves; the cache keeps repeated assembly cheap.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	send := func() {
		summary, err := s.analytics.Summary(r.Context())
		if err != nil {
			return
		}
		payload, err := json.Marshal(summary)
		if err != nil {
			return
		}
		fmt.Fprintf(w, "data: %s\n\n", payload)
		flusher.Flush()
	}

	send()

	interval := s.cfg.Server.StreamInterval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			send()
		}
	}
}
