package model

import "time"

// Source statuses. The worker only consults active sources.
const (
	SourceActive   = "active"
	SourceInactive = "inactive"
)

// Source is a configured creator account to poll.
type Source struct {
	ID        string    `json:"id" db:"id"`
	Platform  string    `json:"platform" db:"platform"`
	URL       string    `json:"url" db:"url"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Topic drives the per-video keyword-match signal.
type Topic struct {
	ID          string    `json:"id" db:"id"`
	Keyword     string    `json:"keyword" db:"keyword"`
	Description string    `json:"description,omitempty" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// StoredVideo is the persisted outcome of a pipeline pass. ExternalID is
// unique; a duplicate insert is an idempotent no-op counted as skipped.
type StoredVideo struct {
	ID                    string    `json:"id" db:"id"`
	SourceID              string    `json:"source_id" db:"source_id"`
	ExternalID            string    `json:"external_id" db:"external_id"`
	Title                 string    `json:"title" db:"title"`
	Description           string    `json:"description" db:"description"`
	AISummary             string    `json:"ai_summary" db:"ai_summary"`
	ViralityScore         int       `json:"virality_score" db:"virality_score"` // 1..10
	IsViral               bool      `json:"is_viral" db:"is_viral"`
	StoragePath           string    `json:"storage_path" db:"storage_path"`
	QualityDecisionReason string    `json:"quality_decision_reason" db:"quality_decision_reason"`
	CreatedAt             time.Time `json:"created_at" db:"created_at"`
}

// CycleStats are the counters returned by one worker cycle.
type CycleStats struct {
	Processed      int    `json:"processed"`
	Viral          int    `json:"viral"`
	Skipped        int    `json:"skipped"`
	Errors         int    `json:"errors"`
	RejectedFilter int    `json:"rejected_filter"`
	ErrorMessage   string `json:"error_message,omitempty"`
}
