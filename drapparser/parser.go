// Package drapparser loads and decodes the local DRAP drug reference
// dataset. Dataset unavailability is deliberately non-fatal: the API stays
// usable through the openFDA fallback with an empty index.
package drapparser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/mediscan/mediscan-api/drapparser/entities"
	"github.com/mediscan/mediscan-api/interfaces"
	"github.com/mediscan/mediscan-api/logging"
	"github.com/mediscan/mediscan-api/validation"
	"golang.org/x/text/encoding/charmap"
)

// Compile-time check to ensure Parser implements DatasetLoader
var _ interfaces.DatasetLoader = (*Parser)(nil)

// Parser reads the DRAP dataset from a local file, optionally refreshing it
// from a remote URL first.
type Parser struct {
	filePath  string
	sourceURL string
	validator interfaces.DataValidator
}

// NewParser creates a dataset parser. sourceURL may be empty, in which case
// only the local file is consulted.
func NewParser(filePath, sourceURL string) *Parser {
	return &Parser{
		filePath:  filePath,
		sourceURL: sourceURL,
		validator: validation.NewDataValidator(),
	}
}

// datasetRecord mirrors the external dataset schema. Decoding happens here,
// at the boundary, so internal components never branch on payload shape.
type datasetRecord struct {
	Name         string      `json:"name"`
	Synonyms     []string    `json:"synonyms"`
	Manufacturer string      `json:"manufacturer"`
	Batch        string      `json:"batch"`
	Expiry       string      `json:"expiry"`
	Uses         []string    `json:"uses"`
	Adrs         []string    `json:"adrs"`
	Dosage       string      `json:"dosage"`
	MaxDoseMg    json.Number `json:"maxDoseMg"`
}

// LoadDataset returns the decoded reference records. When the remote source
// is configured, a fresh copy is downloaded first; a failed download falls
// back to whatever local file exists. A missing or malformed dataset returns
// an error the caller absorbs into an empty index.
func (p *Parser) LoadDataset() ([]entities.ReferenceRecord, error) {
	if p.sourceURL != "" {
		if err := downloadDataset(p.sourceURL, p.filePath); err != nil {
			logging.Warn("Dataset download failed, using local copy", "url", p.sourceURL, "error", err)
		}
	}

	raw, err := os.ReadFile(filepath.Clean(p.filePath))
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset file %s: %w", p.filePath, err)
	}

	return p.decode(raw)
}

// decode transcodes non-UTF-8 input from ISO-8859-1 and unmarshals the
// record array, dropping invalid records instead of failing the load.
func (p *Parser) decode(raw []byte) ([]entities.ReferenceRecord, error) {
	if !utf8.Valid(raw) {
		decoded, err := io.ReadAll(charmap.ISO8859_1.NewDecoder().Reader(bytes.NewReader(raw)))
		if err != nil {
			return nil, fmt.Errorf("failed to transcode dataset: %w", err)
		}
		raw = decoded
	}

	var rows []datasetRecord
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode dataset: %w", err)
	}

	records := make([]entities.ReferenceRecord, 0, len(rows))
	var skipped int
	for _, row := range rows {
		rec := entities.ReferenceRecord{
			Name:         row.Name,
			Synonyms:     row.Synonyms,
			Manufacturer: row.Manufacturer,
			Batch:        row.Batch,
			Expiry:       row.Expiry,
			Uses:         row.Uses,
			Adrs:         row.Adrs,
			Dosage:       row.Dosage,
			MaxDoseMg:    parseDose(row.MaxDoseMg),
		}

		if err := p.validator.ValidateRecord(&rec); err != nil {
			logging.Warn("Skipping invalid dataset record", "name", row.Name, "error", err)
			skipped++
			continue
		}
		records = append(records, rec)
	}

	if skipped > 0 {
		logging.Warn("Dataset records skipped during load", "skipped", skipped, "kept", len(records))
	}

	return records, nil
}

// parseDose folds an absent or non-positive ceiling to zero, meaning "no
// reference ceiling".
func parseDose(n json.Number) float64 {
	if n == "" {
		return 0
	}
	v, err := n.Float64()
	if err != nil || v < 0 {
		return 0
	}
	return v
}
