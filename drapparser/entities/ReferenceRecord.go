// Package entities defines the core data types shared across the mediscan API:
// reference records loaded from the DRAP dataset, parsed scan candidates,
// merged drug views and persisted ADR reports.
package entities

import "time"

// ReferenceRecord is one authoritative drug entry from the local DRAP dataset.
// Records are immutable after loading; the index keys them by lowercased name
// and every lowercased synonym.
type ReferenceRecord struct {
	Name         string   `json:"name"`
	Synonyms     []string `json:"synonyms,omitempty"`
	Manufacturer string   `json:"manufacturer,omitempty"`
	Batch        string   `json:"batch,omitempty"`
	Expiry       string   `json:"expiry,omitempty"`
	Uses         []string `json:"uses,omitempty"`
	Adrs         []string `json:"adrs,omitempty"`
	Dosage       string   `json:"dosage,omitempty"`
	MaxDoseMg    float64  `json:"maxDoseMg,omitempty"`
}

// Candidate is the normalized result of parsing one scanned or typed payload.
// Name always carries a best-effort value (the raw input in the worst case);
// batch and expiry are opportunistic.
type Candidate struct {
	Name   string `json:"name"`
	Batch  string `json:"batch,omitempty"`
	Expiry string `json:"expiry,omitempty"`
}

// MergedView is the reconciled, render-ready drug record for a single
// resolution. Local dataset fields take precedence over candidate fields,
// which take precedence over remote fields. It is never persisted.
type MergedView struct {
	Name           string   `json:"name"`
	Manufacturer   string   `json:"manufacturer"`
	Batch          string   `json:"batch,omitempty"`
	Expiry         string   `json:"expiry,omitempty"`
	UsesLocal      []string `json:"usesLocal"`
	AdrsLocal      []string `json:"adrsLocal"`
	UsesRemote     []string `json:"usesRemote"`
	AdrsReported   []string `json:"adrsReported"`
	Dosage         string   `json:"dosage,omitempty"`
	MaxDoseMg      float64  `json:"maxDoseMg,omitempty"`
	LocalMatch     bool     `json:"localMatch"`
	NoDrugDetected bool     `json:"noDrugDetected,omitempty"`
}

// ReportDraft is the caller-supplied input for an ADR report submission.
type ReportDraft struct {
	DrugName    string  `json:"drugName"`
	Batch       string  `json:"batch"`
	PatientName string  `json:"patientName"`
	Age         string  `json:"age"`
	Gender      string  `json:"gender"`
	Phone       string  `json:"phone"`
	Condition   string  `json:"condition"`
	Severity    string  `json:"severity"`
	AmountMg    float64 `json:"amountMg"`
	Description string  `json:"description"`
}

// AdrReport is one persisted adverse-drug-reaction report. Reports are
// append-only: created through validated submission, never mutated, removed
// only by the bulk clear operation.
type AdrReport struct {
	ID          string    `json:"id"`
	DrugName    string    `json:"drugName"`
	Batch       string    `json:"batch"`
	PatientName string    `json:"patientName"`
	Age         string    `json:"age"`
	Gender      string    `json:"gender"`
	Phone       string    `json:"phone,omitempty"`
	Condition   string    `json:"condition"`
	Severity    string    `json:"severity"`
	AmountMg    float64   `json:"amountMg"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
	HighDose    bool      `json:"highDose"`
}
