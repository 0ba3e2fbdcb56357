package pipeline

import (
	"time"
)

// Step identifiers in execution order
const (
	StepLoad      = "load"
	StepTrim      = "trim"
	StepNormalize = "normalize"
	StepClassify  = "classify"
	StepAnalytics = "analytics"
	StepForecast  = "forecast"
	StepExport    = "export"
)

// StepOrder lists every step a run tracks
var StepOrder = []string{StepLoad, StepTrim, StepNormalize, StepClassify, StepAnalytics, StepForecast, StepExport}

var stepNames = map[string]string{
	StepLoad:      "Load reference tables",
	StepTrim:      "Trim to analysis period",
	StepNormalize: "Normalize sales",
	StepClassify:  "ABC classification",
	StepAnalytics: "Reporting aggregates",
	StepForecast:  "Daily sales forecast",
	StepExport:    "Write report files",
}

// StepStatus represents the current status of a step
type StepStatus string

const (
	StepStatusPending   StepStatus = "pending"
	StepStatusActive    StepStatus = "active"
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
	StepStatusSkipped   StepStatus = "skipped"
)

// RunStatus represents the outcome of a whole run
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	// RunStatusPartial means a non-fatal step failed, e.g. classification of
	// a period with no revenue. The normalized dataset and reports are valid.
	RunStatusPartial RunStatus = "partial"
	RunStatusFailed  RunStatus = "failed"
)

// StepState represents the runtime state of a step
type StepState struct {
	ID        string                 `json:"id"`
	Name      string                 `json:"name"`
	Status    StepStatus             `json:"status"`
	StartTime *time.Time             `json:"start_time,omitempty"`
	EndTime   *time.Time             `json:"end_time,omitempty"`
	Message   string                 `json:"message,omitempty"`
	Error     string                 `json:"error,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// NewStepState creates a pending step
func NewStepState(id string) *StepState {
	return &StepState{
		ID:       id,
		Name:     stepNames[id],
		Status:   StepStatusPending,
		Metadata: make(map[string]interface{}),
	}
}

// Start marks the step as active and sets the start time
func (s *StepState) Start() {
	now := time.Now()
	s.StartTime = &now
	s.Status = StepStatusActive
}

// Complete marks the step as completed
func (s *StepState) Complete() {
	now := time.Now()
	s.EndTime = &now
	s.Status = StepStatusCompleted
}

// Fail marks the step as failed with the given error
func (s *StepState) Fail(err error) {
	now := time.Now()
	s.EndTime = &now
	s.Status = StepStatusFailed
	if err != nil {
		s.Error = err.Error()
	}
}

// Skip marks the step as skipped with the given reason
func (s *StepState) Skip(reason string) {
	now := time.Now()
	if s.StartTime == nil {
		s.StartTime = &now
	}
	s.EndTime = &now
	s.Status = StepStatusSkipped
	s.Message = reason
}

// Duration is the time between start and end, zero while not finished
func (s *StepState) Duration() time.Duration {
	if s.StartTime == nil || s.EndTime == nil {
		return 0
	}
	return s.EndTime.Sub(*s.StartTime)
}

// Finished reports whether the step reached a terminal status
func (s *StepState) Finished() bool {
	switch s.Status {
	case StepStatusCompleted, StepStatusFailed, StepStatusSkipped:
		return true
	}
	return false
}

// Clone returns a copy that shares no maps or pointers with s
func (s *StepState) Clone() *StepState {
	c := *s
	if s.StartTime != nil {
		t := *s.StartTime
		c.StartTime = &t
	}
	if s.EndTime != nil {
		t := *s.EndTime
		c.EndTime = &t
	}
	c.Metadata = make(map[string]interface{}, len(s.Metadata))
	for k, v := range s.Metadata {
		c.Metadata[k] = v
	}
	return &c
}
