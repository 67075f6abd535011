// Package interfaces defines core abstractions for the mediscan API
// to improve testability, maintainability, and separation of concerns.
package interfaces

import (
	"context"
	"time"

	"github.com/mediscan/mediscan-api/drapparser/entities"
)

// DataStore defines the contract for the reference index and scan state.
// It provides read-heavy, write-once-per-load access: the index is replaced
// wholesale by LoadRecords and never mutated in place.
type DataStore interface {
	// Index access
	LoadRecords(records []entities.ReferenceRecord)
	Lookup(name string) (entities.ReferenceRecord, bool)
	FuzzyLookup(name string) (entities.ReferenceRecord, bool)
	RecordCount() int
	GetLastLoaded() time.Time

	// Reload coordination
	IsUpdating() bool
	BeginUpdate() bool
	EndUpdate()

	// Server lifecycle
	SetServerStartTime(t time.Time)
	GetServerStartTime() time.Time

	// Current scan state
	NextResolutionToken() int64
	SetCurrentView(view entities.MergedView, token int64) bool
	GetCurrentView() (entities.MergedView, int64, bool)
}

// DatasetLoader defines the contract for loading the DRAP dataset from its
// external source into reference records.
type DatasetLoader interface {
	LoadDataset() ([]entities.ReferenceRecord, error)
}

// Resolver defines the contract for turning a scan candidate into a merged
// drug view. Resolve never fails: degraded sources shrink the view, they do
// not abort it.
type Resolver interface {
	Resolve(ctx context.Context, candidate entities.Candidate) entities.MergedView
}

// LabelSource defines the remote drug-label lookup consulted on a local miss.
type LabelSource interface {
	FetchLabel(ctx context.Context, name string) (LabelInfo, error)
}

// EventSource defines the remote adverse-event lookup consulted on a local miss.
type EventSource interface {
	FetchReactions(ctx context.Context, name string) ([]string, error)
}

// LabelInfo carries the remote label fields used by the resolution engine.
type LabelInfo struct {
	Uses   []string
	Dosage string
}

// ReportStore defines the contract for the append-only ADR report store.
type ReportStore interface {
	Submit(draft entities.ReportDraft) (entities.AdrReport, error)
	List() ([]entities.AdrReport, error)
	Get(id string) (entities.AdrReport, bool, error)
	Clear() error
	Export() ([]byte, error)
	SeveritySummary() (map[string]int, error)
	Close() error
}

// Scheduler defines the contract for dataset refresh scheduling and
// staleness monitoring.
type Scheduler interface {
	Start() error
	Stop()
}

// HealthChecker defines the contract for health check functionality.
type HealthChecker interface {
	HealthCheck() (status string, details map[string]any, httpStatus int)
}

// DataValidator defines the contract for validating dataset records and
// user-supplied input.
type DataValidator interface {
	ValidateRecord(rec *entities.ReferenceRecord) error
	ValidateInput(input string) error
}
