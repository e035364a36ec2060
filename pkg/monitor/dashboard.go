package monitor

import (
	"sync"
	"time"
)

// DashboardData provides a real-time view of run state.
type DashboardData struct {
	mu      sync.RWMutex
	runID   string
	start   time.Time
	status  string
	modules map[string]ModuleState
}

// Snapshot is a point-in-time copy of the dashboard.
type Snapshot struct {
	RunID     string                 `json:"run_id"`
	StartTime time.Time              `json:"start_time"`
	Status    string                 `json:"status"`
	Modules   map[string]ModuleState `json:"modules"`
	Summary   DashboardSummary       `json:"summary"`
}

// ModuleState represents the current state of a module.
type ModuleState struct {
	ID         string        `json:"id"`
	Status     string        `json:"status"`
	Assertions int           `json:"assertions"`
	Failed     int           `json:"failed"`
	StartTime  *time.Time    `json:"start_time,omitempty"`
	EndTime    *time.Time    `json:"end_time,omitempty"`
	Duration   time.Duration `json:"duration,omitempty"`
	Message    string        `json:"message,omitempty"`
}

// DashboardSummary holds aggregate stats for the dashboard.
type DashboardSummary struct {
	Total    int     `json:"total"`
	Passed   int     `json:"passed"`
	Failed   int     `json:"failed"`
	Errored  int     `json:"errored"`
	Running  int     `json:"running"`
	PassRate float64 `json:"pass_rate"`
	Elapsed  string  `json:"elapsed"`
}

// NewDashboardData creates a new dashboard.
func NewDashboardData(runID string) *DashboardData {
	return &DashboardData{
		runID:   runID,
		start:   time.Now(),
		status:  "running",
		modules: make(map[string]ModuleState),
	}
}

// UpdateFromEvent updates dashboard state from an event.
func (d *DashboardData) UpdateFromEvent(event ModuleEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if event.Type == EventRunFinished {
		d.status = event.Status
		if event.Message != "" {
			d.runID = event.Message
		}
		return
	}

	now := time.Now()
	state, exists := d.modules[event.ModuleID]
	if !exists {
		state = ModuleState{ID: event.ModuleID}
	}

	switch event.Type {
	case EventStarted:
		state.Status = "running"
		state.StartTime = &now
	case EventAssertion:
		if event.Status != "skipped" {
			state.Assertions++
		}
		if event.Status == "failed" {
			state.Failed++
		}
	case EventCompleted, EventFailed, EventErrored:
		state.Status = event.Status
		state.EndTime = &now
		state.Duration = event.Duration
		state.Assertions = event.Total
		state.Failed = event.Failed
		state.Message = event.Message
	}

	d.modules[event.ModuleID] = state
}

// Snapshot returns a copy of the current dashboard state.
func (d *DashboardData) Snapshot() Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()

	snap := Snapshot{
		RunID:     d.runID,
		StartTime: d.start,
		Status:    d.status,
		Modules:   make(map[string]ModuleState, len(d.modules)),
	}
	for k, v := range d.modules {
		snap.Modules[k] = v
		snap.Summary.Total++
		switch v.Status {
		case "passed":
			snap.Summary.Passed++
		case "failed":
			snap.Summary.Failed++
		case "errored":
			snap.Summary.Errored++
		case "running":
			snap.Summary.Running++
		}
	}
	done := snap.Summary.Passed + snap.Summary.Failed + snap.Summary.Errored
	if done > 0 {
		snap.Summary.PassRate = float64(snap.Summary.Passed) / float64(done) * 100
	}
	snap.Summary.Elapsed = time.Since(d.start).Round(time.Millisecond).String()
	return snap
}

// SetStatus sets the overall run status.
func (d *DashboardData) SetStatus(status string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.status = status
}

// BuildDashboardData creates a dashboard by replaying every
// event of collector.
func BuildDashboardData(collector *EventCollector) *DashboardData {
	data := NewDashboardData("snapshot")
	for _, event := range collector.Events() {
		data.UpdateFromEvent(event)
	}
	return data
}
