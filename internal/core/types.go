package core

import (
	"fmt"
	"time"
)

// Status represents the monitoring lifecycle state of a signal.
type Status string

const (
	StatusInactive  Status = "inactive"
	StatusActive    Status = "active"
	StatusTriggered Status = "triggered"
)

// IsValid checks if the status is a known state.
func (s Status) IsValid() bool {
	switch s {
	case StatusInactive, StatusActive, StatusTriggered:
		return true
	}
	return false
}

// ThresholdType selects the comparison applied when a signal is evaluated.
type ThresholdType string

const (
	ThresholdAbove         ThresholdType = "above"
	ThresholdBelow         ThresholdType = "below"
	ThresholdChangePercent ThresholdType = "change_percent"
)

// IsValid checks if the threshold type is a known comparison.
func (t ThresholdType) IsValid() bool {
	switch t {
	case ThresholdAbove, ThresholdBelow, ThresholdChangePercent:
		return true
	}
	return false
}

// Level is a signal's position in the classification hierarchy.
// Lower levels sit closer to raw economic activity. A signal's level is
// assigned at creation and never changes.
type Level int

const (
	LevelRawActivity        Level = iota // direct measurements, minimal processing
	LevelSimpleAggregation               // sums and totals over raw data
	LevelComplexAggregation              // market share, concentration ratios
	LevelDerivedMetric                   // ratios, multiples, growth rates
	LevelSentiment                       // analyst sentiment, news-derived scores
	LevelInternalResearch                // externally sourced proprietary metrics
)

// IsValid checks if the level is within the hierarchy.
func (l Level) IsValid() bool {
	return l >= LevelRawActivity && l <= LevelInternalResearch
}

// String returns the human-readable hierarchy name.
func (l Level) String() string {
	switch l {
	case LevelRawActivity:
		return "raw_activity"
	case LevelSimpleAggregation:
		return "simple_aggregation"
	case LevelComplexAggregation:
		return "complex_aggregation"
	case LevelDerivedMetric:
		return "derived_metric"
	case LevelSentiment:
		return "sentiment"
	case LevelInternalResearch:
		return "internal_research"
	}
	return "unknown"
}

// ParseLevel resolves a hierarchy name back to its level.
func ParseLevel(s string) (Level, error) {
	for l := LevelRawActivity; l <= LevelInternalResearch; l++ {
		if l.String() == s {
			return l, nil
		}
	}
	return 0, fmt.Errorf("unknown signal level %q", s)
}

// Known signal type tags. SignalType is free-form on the wire but must
// match one of these when a signal enters monitoring.
const (
	SignalTypePrice            = "price"
	SignalTypeVolume           = "volume"
	SignalTypeEconomic         = "economic"
	SignalTypeSector           = "sector"
	SignalTypeCompany          = "company"
	SignalTypeTechnical        = "technical"
	SignalTypeSentiment        = "sentiment"
	SignalTypeDerivedRatio     = "derived_ratio"
	SignalTypeInternalResearch = "internal_research"
)

// KnownSignalTypes lists every accepted signal type tag.
var KnownSignalTypes = []string{
	SignalTypePrice,
	SignalTypeVolume,
	SignalTypeEconomic,
	SignalTypeSector,
	SignalTypeCompany,
	SignalTypeTechnical,
	SignalTypeSentiment,
	SignalTypeDerivedRatio,
	SignalTypeInternalResearch,
}

// IsKnownSignalType reports whether t is an accepted signal type tag.
func IsKnownSignalType(t string) bool {
	for _, known := range KnownSignalTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Signal represents a tracked indicator attached to an investment thesis.
// ID and Level are immutable once created. CurrentValue, Status and
// LastCheckedAt are mutated only by the monitoring engine; ThresholdValue
// only by an explicit user update.
type Signal struct {
	ID             string        `validate:"required"`
	ThesisID       string        `validate:"required"`
	Name           string        `validate:"required"`
	Description    string        `validate:"-"`
	Level          Level         `validate:"gte=0,lte=5"`
	SignalType     string        `validate:"required,signal_type"`
	ThresholdValue float64       `validate:"-"`
	ThresholdType  ThresholdType `validate:"required,oneof=above below change_percent" default:"change_percent"`
	CurrentValue   *float64      `validate:"-"`
	Status         Status        `validate:"required,oneof=inactive active triggered" default:"active"`
	LastCheckedAt  *time.Time    `validate:"-"`
	CreatedAt      time.Time     `validate:"-"`
}

// Urgency grades how quickly a notification should be acted on.
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

// UrgencyFor maps a signal type to a notification urgency. Macro-level
// signal types outrank company-level ones.
func UrgencyFor(signalType string) Urgency {
	switch signalType {
	case SignalTypeEconomic, SignalTypeSector:
		return UrgencyHigh
	case SignalTypeCompany, SignalTypeTechnical:
		return UrgencyMedium
	}
	return UrgencyLow
}

// NotificationEvent records a single signal status transition. Exactly one
// event exists per observed transition; re-evaluating a signal that stays
// in the same status produces none.
type NotificationEvent struct {
	ID             string
	SignalID       string
	ThesisID       string
	SignalName     string
	FromStatus     Status
	ToStatus       Status
	Message        string
	Urgency        Urgency
	CurrentValue   float64
	ThresholdValue float64
	CreatedAt      time.Time
	Acknowledged   bool
}

// IsRecovery reports whether the event records a triggered signal
// re-arming back to active.
func (e NotificationEvent) IsRecovery() bool {
	return e.FromStatus == StatusTriggered && e.ToStatus == StatusActive
}
