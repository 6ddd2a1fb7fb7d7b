package model

import "time"

// Trial is a clinical study summary from the trials registry
type Trial struct {
	NCTID                string   `json:"nctId"`
	BriefTitle           string   `json:"briefTitle"`
	OverallStatus        string   `json:"overallStatus"`
	LastUpdateSubmitDate *string  `json:"lastUpdateSubmitDate"`
	Conditions           []string `json:"conditions"`
	Interventions        []string `json:"interventions"`
}

// Recruiting reports whether the study is open or about to open
func (t *Trial) Recruiting() bool {
	switch t.OverallStatus {
	case "RECRUITING", "NOT_YET_RECRUITING", "ACTIVE_NOT_RECRUITING":
		return true
	}
	return false
}

// TrialSource tells whether a trial search was answered from the cache
type TrialSource string

const (
	TrialSourceCache TrialSource = "cache"
	TrialSourceLive  TrialSource = "live"
)

// TrialSearchResult is the answer to a trial search
type TrialSearchResult struct {
	Query      string      `json:"query"`
	Recruiting bool        `json:"recruiting"`
	Source     TrialSource `json:"source"`
	FetchedAt  time.Time   `json:"fetched_at"`
	Items      []*Trial    `json:"items"`
}

// TrialsCacheEntry is a cached registry answer keyed by query, recruiting
// filter and page size
type TrialsCacheEntry struct {
	QueryKey  string    `json:"query_key"`
	FetchedAt time.Time `json:"fetched_at"`
	Items     []*Trial  `json:"items"`
}
