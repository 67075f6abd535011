// Package validation provides dataset-record and user-input validation for
// the mediscan API.
package validation

import (
	"fmt"
	"strings"

	"github.com/mediscan/mediscan-api/drapparser/entities"
	"github.com/mediscan/mediscan-api/interfaces"
)

const (
	maxNameLength    = 200
	maxFieldLength   = 500
	maxInputLength   = 512
	maxSynonymLength = 100
)

// Dangerous substrings screened out of user-supplied queries before they
// reach the index or the remote fallback. Substring checks are cheaper than
// regex and cover the payloads that matter for a search string.
var dangerousPatterns = []string{
	"<script", "</script>", "javascript:", "onload=", "onerror=",
	"eval(", "expression(", "@import",
	"union select", "drop table", "delete from", "insert into",
	"../", "..\\", "%2e%2e", "file://",
	"$(", "${", "`",
}

// DataValidatorImpl implements the interfaces.DataValidator interface
type DataValidatorImpl struct{}

// NewDataValidator creates a new data validator
func NewDataValidator() interfaces.DataValidator {
	return &DataValidatorImpl{}
}

// ValidateRecord checks that a dataset record is usable by the index.
func (v *DataValidatorImpl) ValidateRecord(rec *entities.ReferenceRecord) error {
	if rec == nil {
		return fmt.Errorf("record is nil")
	}

	if strings.TrimSpace(rec.Name) == "" {
		return fmt.Errorf("missing drug name")
	}

	if len(rec.Name) > maxNameLength {
		return fmt.Errorf("drug name too long: %d characters", len(rec.Name))
	}

	for _, syn := range rec.Synonyms {
		if len(syn) > maxSynonymLength {
			return fmt.Errorf("synonym too long for %s: %d characters", rec.Name, len(syn))
		}
	}

	if len(rec.Manufacturer) > maxFieldLength {
		return fmt.Errorf("manufacturer too long for %s: %d characters", rec.Name, len(rec.Manufacturer))
	}

	if rec.MaxDoseMg < 0 {
		return fmt.Errorf("negative max dose for %s: %f", rec.Name, rec.MaxDoseMg)
	}

	return nil
}

// ValidateInput screens a user-supplied scan payload or search query. The
// parser itself is total, so this is purely a safety and size gate.
func (v *DataValidatorImpl) ValidateInput(input string) error {
	if strings.TrimSpace(input) == "" {
		return fmt.Errorf("input is empty")
	}

	if len(input) > maxInputLength {
		return fmt.Errorf("input too long: %d characters (max %d)", len(input), maxInputLength)
	}

	lowered := strings.ToLower(input)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lowered, pattern) {
			return fmt.Errorf("input contains disallowed sequence")
		}
	}

	return nil
}
