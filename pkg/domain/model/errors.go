package model

import "github.com/m-mizutani/goerr/v2"

// Validation errors
var (
	ErrInvalidCaseInput = goerr.New("invalid case input")
	ErrInvalidGuideline = goerr.New("invalid guideline")
	ErrInvalidScenario  = goerr.New("invalid benchmark scenario")
	ErrDuplicateChunk   = goerr.New("duplicate evidence chunk id")
)

// Context keys for error values
const (
	FieldKey       = "field"
	GuidelineIDKey = "guideline_id"
	ScenarioIDKey  = "scenario_id"
	EventIndexKey  = "event_index"
	ChunkIDKey     = "chunk_id"
)
