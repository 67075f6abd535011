// Package reports implements the append-only ADR report store. Reports live
// as one JSON-encoded sequence under a single keyed slot in a local SQLite
// database; every mutation is a full read-modify-write of that slot.
package reports

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mediscan/mediscan-api/drapparser/entities"
	"github.com/mediscan/mediscan-api/interfaces"
	"github.com/mediscan/mediscan-api/logging"
	"github.com/mediscan/mediscan-api/metrics"
	_ "modernc.org/sqlite" // pure go sqlite driver
)

// Compile-time check to ensure Store implements ReportStore
var _ interfaces.ReportStore = (*Store)(nil)

const reportsSlot = "reports"

// UnknownDrug is the sentinel drug name for drafts submitted without one.
const UnknownDrug = "Unknown"

// Store persists ADR reports in submission order. Submit and Clear are
// serialized by a mutex so their read-modify-write cycles never interleave,
// single-threaded runtime or not.
type Store struct {
	db        *sql.DB
	dataStore interfaces.DataStore
	mu        sync.Mutex
}

// NewStore opens (creating if needed) the SQLite-backed report store at
// path. The dataStore supplies the reference ceiling for the high-dose check
// at submission time.
func NewStore(path string, dataStore interfaces.DataStore) (*Store, error) {
	if path == "" {
		path = "mediscan_reports.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("failed to create reports directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open reports database: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS state (
		slot TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create state table: %w", err)
	}

	return &Store{db: db, dataStore: dataStore}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// readAll loads the full report sequence from the slot. A missing slot is an
// empty sequence; a corrupt payload is a persistence error, not data loss by
// silent truncation.
func (s *Store) readAll() ([]entities.AdrReport, error) {
	var payload []byte
	err := s.db.QueryRow(`SELECT payload FROM state WHERE slot = ?`, reportsSlot).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return []entities.AdrReport{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read reports slot: %w", err)
	}

	var all []entities.AdrReport
	if err := json.Unmarshal(payload, &all); err != nil {
		return nil, fmt.Errorf("failed to decode reports slot: %w", err)
	}
	return all, nil
}

// writeAll replaces the slot with the given sequence inside a transaction.
func (s *Store) writeAll(all []entities.AdrReport) (retErr error) {
	payload, err := json.Marshal(all)
	if err != nil {
		return fmt.Errorf("failed to encode reports: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.Exec(`INSERT INTO state (slot, payload) VALUES (?, ?)
		ON CONFLICT(slot) DO UPDATE SET payload = excluded.payload`, reportsSlot, payload); err != nil {
		return fmt.Errorf("failed to write reports slot: %w", err)
	}

	return tx.Commit()
}

// validate checks the required draft fields in a stable order so the first
// missing field is always the one reported.
func validate(draft *entities.ReportDraft) error {
	required := []struct {
		field string
		value string
	}{
		{"patientName", draft.PatientName},
		{"age", draft.Age},
		{"gender", draft.Gender},
		{"condition", draft.Condition},
		{"severity", draft.Severity},
		{"description", draft.Description},
	}

	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return &ValidationError{Field: r.field}
		}
	}
	return nil
}

// Submit validates a draft, computes the high-dose flag against the current
// reference index, and durably appends the resulting report. A validation or
// persistence failure leaves the stored sequence untouched.
//
// The high-dose check binds to the literal submitted drug name, looked up
// case-insensitively at submission time. The flag is computed exactly once;
// later dataset reloads never change stored reports.
func (s *Store) Submit(draft entities.ReportDraft) (entities.AdrReport, error) {
	if err := validate(&draft); err != nil {
		return entities.AdrReport{}, err
	}

	drugName := strings.TrimSpace(draft.DrugName)
	if drugName == "" {
		drugName = UnknownDrug
	}

	amountMg := draft.AmountMg
	if amountMg < 0 {
		amountMg = 0
	}

	now := time.Now().UTC()
	report := entities.AdrReport{
		ID:          fmt.Sprintf("r_%d_%s", now.UnixMilli(), uuid.NewString()[:8]),
		DrugName:    drugName,
		Batch:       strings.TrimSpace(draft.Batch),
		PatientName: strings.TrimSpace(draft.PatientName),
		Age:         strings.TrimSpace(draft.Age),
		Gender:      strings.TrimSpace(draft.Gender),
		Phone:       strings.TrimSpace(draft.Phone),
		Condition:   strings.TrimSpace(draft.Condition),
		Severity:    strings.TrimSpace(draft.Severity),
		AmountMg:    amountMg,
		Description: strings.TrimSpace(draft.Description),
		Timestamp:   now,
	}

	if rec, ok := s.dataStore.Lookup(drugName); ok {
		if rec.MaxDoseMg > 0 && amountMg > rec.MaxDoseMg {
			report.HighDose = true
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.readAll()
	if err != nil {
		return entities.AdrReport{}, err
	}

	all = append(all, report)
	if err := s.writeAll(all); err != nil {
		return entities.AdrReport{}, err
	}

	metrics.ReportsSubmitted.Inc()
	if report.HighDose {
		metrics.HighDoseFlags.Inc()
		logging.Warn("High dose reported", "drug", report.DrugName,
			"amount_mg", report.AmountMg, "max_dose_mg", mustMaxDose(s.dataStore, drugName))
	}

	return report, nil
}

func mustMaxDose(ds interfaces.DataStore, name string) float64 {
	if rec, ok := ds.Lookup(name); ok {
		return rec.MaxDoseMg
	}
	return 0
}

// List returns all reports, most recent first.
func (s *Store) List() ([]entities.AdrReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.readAll()
	if err != nil {
		return nil, err
	}

	reversed := make([]entities.AdrReport, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		reversed = append(reversed, all[i])
	}
	return reversed, nil
}

// Get returns one report by id. The middle return is false when no report
// with that id exists.
func (s *Store) Get(id string) (entities.AdrReport, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.readAll()
	if err != nil {
		return entities.AdrReport{}, false, err
	}

	for _, r := range all {
		if r.ID == id {
			return r, true, nil
		}
	}
	return entities.AdrReport{}, false, nil
}

// Clear removes every stored report.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.writeAll([]entities.AdrReport{})
}

// Export returns the full report sequence in submission order as indented
// JSON, suitable for download.
func (s *Store) Export() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.readAll()
	if err != nil {
		return nil, err
	}

	return json.MarshalIndent(all, "", "  ")
}

// SeveritySummary counts reports per severity for the Mild, Moderate and
// Severe buckets. Unrecognized severities are ignored, matching the renderer.
func (s *Store) SeveritySummary() (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.readAll()
	if err != nil {
		return nil, err
	}

	counts := map[string]int{"Mild": 0, "Moderate": 0, "Severe": 0}
	for _, r := range all {
		if _, ok := counts[r.Severity]; ok {
			counts[r.Severity]++
		}
	}
	return counts, nil
}
