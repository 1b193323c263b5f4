// Package analytics aggregates in-process activity counters for the
// dashboard summary. Nothing here is persisted: counters reset with the
// process, and the summary says only what this instance has actually done.
package analytics

import (
	"fmt"
	"sync"
	"time"

	"github.com/sells-group/outbound-cli/internal/model"
)

const (
	funnelWeeks   = 4
	activityLimit = 20
)

// Activity is one entry in the recent-activity feed.
type Activity struct {
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
}

// FunnelStage is one weekly bucket of the upload → qualified → synced funnel.
type FunnelStage struct {
	Name      string `json:"name"`
	Leads     int    `json:"leads"`
	Qualified int    `json:"qualified"`
	Synced    int    `json:"synced"`
}

// Recorder accumulates activity counters. Safe for concurrent use.
type Recorder struct {
	mu sync.Mutex

	totalLeads     int
	invalidLeads   int
	processed      int
	qualified      int
	synced         int
	scoreSum       int
	uploads        int
	qualifyRuns    int
	syncRuns       int
	recentActivity []Activity
	weeks          map[time.Time]*FunnelStage

	now func() time.Time
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		weeks: make(map[time.Time]*FunnelStage),
		now:   time.Now,
	}
}

// RecordUpload notes an upload of total rows, valid of which passed
// validation.
func (r *Recorder) RecordUpload(total, valid int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.uploads++
	r.totalLeads += valid
	r.invalidLeads += total - valid
	r.week().Leads += valid
	r.addActivity("lead_upload", fmt.Sprintf("%d leads uploaded (%d valid)", total, valid))
}

// RecordQualification notes a finished qualification run.
func (r *Recorder) RecordQualification(results []model.QualifiedLead) {
	r.mu.Lock()
	defer r.mu.Unlock()

	qualified := 0
	for _, res := range results {
		r.scoreSum += res.Score
		if res.Qualified {
			qualified++
		}
	}
	r.qualifyRuns++
	r.processed += len(results)
	r.qualified += qualified
	r.week().Qualified += qualified
	r.addActivity("qualification",
		fmt.Sprintf("Lead qualification completed for %d leads (%d qualified)", len(results), qualified))
}

// RecordSync notes a finished CRM sync run.
func (r *Recorder) RecordSync(run model.SyncRun) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.syncRuns++
	r.synced += run.Synced
	r.week().Synced += run.Synced
	r.addActivity("sync", fmt.Sprintf("%d qualified leads synced to HubSpot", run.Synced))
}

// addActivity prepends an entry and trims the feed. Caller holds the lock.
func (r *Recorder) addActivity(kind, description string) {
	entry := Activity{Type: kind, Description: description, Timestamp: r.now()}
	r.recentActivity = append([]Activity{entry}, r.recentActivity...)
	if len(r.recentActivity) > activityLimit {
		r.recentActivity = r.recentActivity[:activityLimit]
	}
}

// week returns the current week's funnel bucket. Caller holds the lock.
func (r *Recorder) week() *FunnelStage {
	start := weekStart(r.now())
	if b, ok := r.weeks[start]; ok {
		return b
	}
	b := &FunnelStage{}
	r.weeks[start] = b
	return b
}

func weekStart(t time.Time) time.Time {
	t = t.UTC()
	// Monday-based weeks.
	weekday := (int(t.Weekday()) + 6) % 7
	day := t.AddDate(0, 0, -weekday)
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
}

// Totals is the counter snapshot embedded in the summary.
type Totals struct {
	TotalLeads     int     `json:"totalLeads"`
	InvalidLeads   int     `json:"invalidLeads"`
	QualifiedLeads int     `json:"qualifiedLeads"`
	SyncedLeads    int     `json:"syncedLeads"`
	ConversionRate float64 `json:"conversionRate"`
	AverageScore   float64 `json:"averageScore"`
}

// Snapshot returns the totals, the last four weekly funnel stages (oldest
// first, zero-filled for idle weeks), and the recent-activity feed, newest
// first.
func (r *Recorder) Snapshot() (Totals, []FunnelStage, []Activity) {
	r.mu.Lock()
	defer r.mu.Unlock()

	totals := Totals{
		TotalLeads:     r.totalLeads,
		InvalidLeads:   r.invalidLeads,
		QualifiedLeads: r.qualified,
		SyncedLeads:    r.synced,
	}
	if r.processed > 0 {
		totals.ConversionRate = float64(r.qualified) / float64(r.processed)
		totals.AverageScore = float64(r.scoreSum) / float64(r.processed)
	}

	current := weekStart(r.now())
	funnel := make([]FunnelStage, 0, funnelWeeks)
	for i := funnelWeeks - 1; i >= 0; i-- {
		start := current.AddDate(0, 0, -7*i)
		stage := FunnelStage{}
		if b, ok := r.weeks[start]; ok {
			stage = *b
		}
		stage.Name = fmt.Sprintf("Week %d", funnelWeeks-i)
		funnel = append(funnel, stage)
	}

	activity := make([]Activity, len(r.recentActivity))
	copy(activity, r.recentActivity)

	return totals, funnel, activity
}
