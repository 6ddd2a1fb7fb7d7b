package model

import (
	"strings"
	"unicode/utf8"

	"github.com/m-mizutani/goerr/v2"
)

// CaseEvent is a dated clinical event in the patient timeline
type CaseEvent struct {
	EventDate string         `json:"event_date"`
	EventType string         `json:"event_type"`
	Payload   map[string]any `json:"payload"`
}

// CaseInput is a patient case submitted for plan validation
type CaseInput struct {
	CaseID      string      `json:"case_id,omitempty"`
	Diagnosis   string      `json:"diagnosis"`
	Stage       string      `json:"stage"`
	Biomarkers  []string    `json:"biomarkers"`
	Timeline    []CaseEvent `json:"timeline"`
	CurrentPlan []string    `json:"current_plan"`
	AsOfDate    string      `json:"as_of_date"`
}

// Validate checks the structural requirements of a case input. The
// validation engine assumes a case that passed this check.
func (c *CaseInput) Validate() error {
	if utf8.RuneCountInString(strings.TrimSpace(c.Diagnosis)) < 2 {
		return goerr.Wrap(ErrInvalidCaseInput, "diagnosis must be at least 2 characters",
			goerr.V(FieldKey, "diagnosis"))
	}
	if strings.TrimSpace(c.AsOfDate) == "" {
		return goerr.Wrap(ErrInvalidCaseInput, "as_of_date is required",
			goerr.V(FieldKey, "as_of_date"))
	}
	for i, ev := range c.Timeline {
		if strings.TrimSpace(ev.EventDate) == "" {
			return goerr.Wrap(ErrInvalidCaseInput, "timeline event_date is required",
				goerr.V(FieldKey, "event_date"), goerr.V(EventIndexKey, i))
		}
		if strings.TrimSpace(ev.EventType) == "" {
			return goerr.Wrap(ErrInvalidCaseInput, "timeline event_type is required",
				goerr.V(FieldKey, "event_type"), goerr.V(EventIndexKey, i))
		}
	}
	return nil
}

// Normalize fills optional collections so the case serializes the same way
// regardless of which fields the caller omitted
func (c *CaseInput) Normalize() {
	if c.Biomarkers == nil {
		c.Biomarkers = []string{}
	}
	if c.Timeline == nil {
		c.Timeline = []CaseEvent{}
	}
	if c.CurrentPlan == nil {
		c.CurrentPlan = []string{}
	}
	for i := range c.Timeline {
		if c.Timeline[i].Payload == nil {
			c.Timeline[i].Payload = map[string]any{}
		}
	}
}
