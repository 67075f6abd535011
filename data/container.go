// Package data provides thread-safe storage for the mediscan API. It holds
// the DRAP reference index with atomic snapshots for zero-downtime reloads,
// plus the latest merged view guarded by a monotonic resolution token.
package data

import (
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/mediscan/mediscan-api/drapparser/entities"
	"github.com/mediscan/mediscan-api/interfaces"
	"github.com/mediscan/mediscan-api/logging"
)

// Compile-time check to ensure DataContainer implements DataStore
var _ interfaces.DataStore = (*DataContainer)(nil)

// referenceIndex is one immutable snapshot of the loaded dataset. keys is
// kept sorted so fuzzy lookups are deterministic across reloads.
type referenceIndex struct {
	records map[string]entities.ReferenceRecord
	keys    []string
	count   int
}

// DataContainer holds the reference index and scan state with atomic
// pointers so reads never block behind a reload.
type DataContainer struct {
	index           atomic.Value // *referenceIndex
	lastLoaded      atomic.Value // time.Time
	updating        atomic.Bool
	serverStartTime atomic.Value // time.Time
	currentView     atomic.Value // *tokenedView
	resolutionToken atomic.Int64
}

type tokenedView struct {
	view  entities.MergedView
	token int64
}

// NewDataContainer creates a DataContainer with an empty index.
func NewDataContainer() *DataContainer {
	dc := &DataContainer{}
	dc.index.Store(emptyIndex())
	dc.lastLoaded.Store(time.Time{})
	dc.serverStartTime.Store(time.Time{})
	return dc
}

func emptyIndex() *referenceIndex {
	return &referenceIndex{records: make(map[string]entities.ReferenceRecord)}
}

// LoadRecords rebuilds the index from a dataset snapshot and atomically
// replaces the previous one. Every record is keyed by its lowercased name and
// each lowercased synonym; last write wins on key collisions. A nil or empty
// slice yields an empty index, not an error.
func (dc *DataContainer) LoadRecords(records []entities.ReferenceRecord) {
	idx := emptyIndex()
	for _, rec := range records {
		if rec.Name == "" {
			continue
		}
		idx.records[strings.ToLower(rec.Name)] = rec
		for _, syn := range rec.Synonyms {
			if syn != "" {
				idx.records[strings.ToLower(syn)] = rec
			}
		}
		idx.count++
	}

	idx.keys = make([]string, 0, len(idx.records))
	for k := range idx.records {
		idx.keys = append(idx.keys, k)
	}
	sort.Strings(idx.keys)

	dc.index.Store(idx)
	dc.lastLoaded.Store(time.Now())
}

func (dc *DataContainer) loadIndex() *referenceIndex {
	if v := dc.index.Load(); v != nil {
		if idx, ok := v.(*referenceIndex); ok {
			return idx
		}
	}

	logging.Warn("Reference index is empty or invalid")
	return emptyIndex()
}

// Lookup returns the record matching name exactly (case-insensitive, over
// names and synonyms).
func (dc *DataContainer) Lookup(name string) (entities.ReferenceRecord, bool) {
	rec, ok := dc.loadIndex().records[strings.ToLower(strings.TrimSpace(name))]
	return rec, ok
}

// FuzzyLookup returns the first record whose key contains the query, or whose
// joined synonym list contains it. Used only after an exact Lookup miss.
func (dc *DataContainer) FuzzyLookup(name string) (entities.ReferenceRecord, bool) {
	query := strings.ToLower(strings.TrimSpace(name))
	if query == "" {
		return entities.ReferenceRecord{}, false
	}

	idx := dc.loadIndex()
	for _, key := range idx.keys {
		rec := idx.records[key]
		if strings.Contains(key, query) {
			return rec, true
		}
		if len(rec.Synonyms) > 0 &&
			strings.Contains(strings.ToLower(strings.Join(rec.Synonyms, " ")), query) {
			return rec, true
		}
	}

	return entities.ReferenceRecord{}, false
}

// RecordCount returns the number of dataset records currently indexed
// (synonyms are not counted separately).
func (dc *DataContainer) RecordCount() int {
	return dc.loadIndex().count
}

// GetLastLoaded returns the time of the last successful dataset load.
func (dc *DataContainer) GetLastLoaded() time.Time {
	if v := dc.lastLoaded.Load(); v != nil {
		if t, ok := v.(time.Time); ok {
			return t
		}
	}

	logging.Warn("Could not get the last loaded value")
	return time.Time{}
}

// IsUpdating returns true if a dataset reload is currently in progress.
func (dc *DataContainer) IsUpdating() bool {
	return dc.updating.Load()
}

// BeginUpdate marks the start of a dataset reload. Returns false when
// another reload is already running.
func (dc *DataContainer) BeginUpdate() bool {
	return dc.updating.CompareAndSwap(false, true)
}

// EndUpdate marks the end of a dataset reload.
func (dc *DataContainer) EndUpdate() {
	dc.updating.Store(false)
}

// SetServerStartTime sets the server start time.
func (dc *DataContainer) SetServerStartTime(startTime time.Time) {
	dc.serverStartTime.Store(startTime)
}

// GetServerStartTime returns the server start time.
func (dc *DataContainer) GetServerStartTime() time.Time {
	if v := dc.serverStartTime.Load(); v != nil {
		if t, ok := v.(time.Time); ok {
			return t
		}
	}

	logging.Warn("Could not get the server start time value")
	return time.Time{}
}

// NextResolutionToken hands out the token for a new resolution. Tokens are
// strictly increasing; later scans always win over earlier ones.
func (dc *DataContainer) NextResolutionToken() int64 {
	return dc.resolutionToken.Add(1)
}

// SetCurrentView publishes a merged view as the active scan result. A view
// carrying a token older than the published one is discarded: late remote
// responses from a superseded scan must not clobber the newest result.
func (dc *DataContainer) SetCurrentView(view entities.MergedView, token int64) bool {
	for {
		prev := dc.currentView.Load()
		if prev != nil {
			if tv, ok := prev.(*tokenedView); ok && tv.token >= token {
				return false
			}
		}
		if dc.currentView.CompareAndSwap(prev, &tokenedView{view: view, token: token}) {
			return true
		}
	}
}

// GetCurrentView returns the latest published merged view with its token.
// ok is false before the first resolution.
func (dc *DataContainer) GetCurrentView() (entities.MergedView, int64, bool) {
	if v := dc.currentView.Load(); v != nil {
		if tv, ok := v.(*tokenedView); ok {
			return tv.view, tv.token, true
		}
	}
	return entities.MergedView{}, 0, false
}
