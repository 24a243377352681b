package rag

import "time"

// DefaultThreadID is used when the caller supplies no thread id.
// Unscoped callers share this conversation.
const DefaultThreadID = "default"

// MaxPlanSteps bounds the work of one turn.
const MaxPlanSteps = 6

// Settings carries the tunables of the retrieval core.
type Settings struct {
	MinSimilarity    float64
	PrimaryThreshold float64
	PrimaryLimit     int
	RelaxedThreshold []float64
	FilterLimit      int

	MaxAttempts    int
	BackoffBase    time.Duration
	ToolTimeout    time.Duration
	RequestTimeout time.Duration
}

// DefaultSettings mirrors the production defaults.
func DefaultSettings() Settings {
	return Settings{
		MinSimilarity:    0.3,
		PrimaryThreshold: 0.7,
		PrimaryLimit:     10,
		RelaxedThreshold: []float64{0.5, 0.4},
		FilterLimit:      10,
		MaxAttempts:      3,
		BackoffBase:      time.Second,
		ToolTimeout:      10 * time.Second,
		RequestTimeout:   60 * time.Second,
	}
}

// Normalize fills zero values with defaults.
func (s Settings) Normalize() Settings {
	d := DefaultSettings()
	if s.MinSimilarity <= 0 {
		s.MinSimilarity = d.MinSimilarity
	}
	if s.PrimaryThreshold <= 0 {
		s.PrimaryThreshold = d.PrimaryThreshold
	}
	if s.PrimaryLimit <= 0 {
		s.PrimaryLimit = d.PrimaryLimit
	}
	if s.RelaxedThreshold == nil {
		s.RelaxedThreshold = d.RelaxedThreshold
	}
	if len(s.RelaxedThreshold) > 2 {
		s.RelaxedThreshold = s.RelaxedThreshold[:2]
	}
	if s.FilterLimit <= 0 {
		s.FilterLimit = d.FilterLimit
	}
	if s.MaxAttempts <= 0 {
		s.MaxAttempts = d.MaxAttempts
	}
	if s.BackoffBase <= 0 {
		s.BackoffBase = d.BackoffBase
	}
	if s.ToolTimeout <= 0 {
		s.ToolTimeout = d.ToolTimeout
	}
	if s.RequestTimeout <= 0 {
		s.RequestTimeout = d.RequestTimeout
	}
	return s
}
