// Package payload normalizes raw scanned or typed input into a structured
// scan candidate. Input arrives from QR scans, gallery decodes or manual
// search and may be a JSON object, GS1 application-identifier text, or an
// arbitrary drug name.
package payload

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/mediscan/mediscan-api/drapparser/entities"
)

// GS1 application identifiers: (10) batch/lot, (17) YYMMDD expiry
var (
	batchRegex  = regexp.MustCompile(`\(10\)([A-Z0-9\-]+?)(?:\(|$)`)
	expiryRegex = regexp.MustCompile(`\(17\)(\d{6})`)
)

// structuredPayload covers the JSON key aliases emitted by known label printers.
type structuredPayload struct {
	DrugName    string `json:"drugName"`
	Name        string `json:"name"`
	ProductName string `json:"productName"`
	Batch       string `json:"batch"`
	Lot         string `json:"lot"`
	Expiry      string `json:"expiry"`
}

// Parse converts a raw payload into a Candidate. It is a total function:
// structured JSON wins when it carries a non-empty name, GS1 batch and expiry
// markers are extracted opportunistically, and the raw string itself is the
// fallback name.
func Parse(raw string) entities.Candidate {
	var out entities.Candidate

	var sp structuredPayload
	if err := json.Unmarshal([]byte(raw), &sp); err == nil {
		out.Name = firstNonEmpty(sp.DrugName, sp.Name, sp.ProductName)
		out.Batch = firstNonEmpty(sp.Batch, sp.Lot)
		out.Expiry = sp.Expiry
		if out.Name != "" {
			return out
		}
	}

	if m := batchRegex.FindStringSubmatch(raw); m != nil {
		out.Batch = m[1]
	}
	if m := expiryRegex.FindStringSubmatch(raw); m != nil {
		out.Expiry = m[1]
	}

	// Free-text fallback: the whole payload is the name, even when GS1
	// fields were found.
	if out.Name == "" {
		out.Name = raw
	}

	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// HasName reports whether a candidate carries anything resolvable.
func HasName(c entities.Candidate) bool {
	return strings.TrimSpace(c.Name) != ""
}
