// internal/calsync/report.go
package calsync

import (
	"time"

	"github.com/google/uuid"
)

// ItemErrorDetail records one item that failed to create or map. Item
// failures never abort their category; they end up here and in the logs.
type ItemErrorDetail struct {
	Category string `json:"category"`
	LocalID  string `json:"local_id"`
	Error    string `json:"error"`
}

// CategoryErrorDetail records a category whose query or setup failed.
type CategoryErrorDetail struct {
	Category string `json:"category"`
	Error    string `json:"error"`
}

// Report accumulates the full story of one run: what the summary counters
// compress into {synced, errors}, kept for the archived diagnostics object.
type Report struct {
	UserID         uuid.UUID             `json:"user_id"`
	RunID          uuid.UUID             `json:"run_id"`
	StartedAt      time.Time             `json:"started_at"`
	ItemsSynced    int                   `json:"items_synced"`
	ItemErrors     []ItemErrorDetail     `json:"item_errors,omitempty"`
	CategoryErrors []CategoryErrorDetail `json:"category_errors,omitempty"`
}

func newReport(userID, runID uuid.UUID, startedAt time.Time) *Report {
	return &Report{UserID: userID, RunID: runID, StartedAt: startedAt}
}

func (r *Report) itemSynced() {
	r.ItemsSynced++
}

func (r *Report) itemFailed(cat Category, localID string, err error) {
	r.ItemErrors = append(r.ItemErrors, ItemErrorDetail{
		Category: string(cat),
		LocalID:  localID,
		Error:    err.Error(),
	})
}

func (r *Report) categoryFailed(cat Category, err error) {
	r.CategoryErrors = append(r.CategoryErrors, CategoryErrorDetail{
		Category: string(cat),
		Error:    err.Error(),
	})
}
