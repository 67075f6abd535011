package handlers

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/mediscan/mediscan-api/drapparser/entities"
)

// flexibleAmount accepts the reported dose as a JSON number or a string,
// since form clients send both. Anything unparseable folds to 0.
type flexibleAmount float64

func (a *flexibleAmount) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*a = flexibleAmount(num)
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		if v, err := strconv.ParseFloat(strings.TrimSpace(str), 64); err == nil {
			*a = flexibleAmount(v)
			return nil
		}
	}

	*a = 0
	return nil
}

// reportDraftBody is the wire shape of a report submission.
type reportDraftBody struct {
	DrugName    string         `json:"drugName"`
	Batch       string         `json:"batch"`
	PatientName string         `json:"patientName"`
	Age         string         `json:"age"`
	Gender      string         `json:"gender"`
	Phone       string         `json:"phone"`
	Condition   string         `json:"condition"`
	Severity    string         `json:"severity"`
	AmountMg    flexibleAmount `json:"amountMg"`
	Description string         `json:"description"`
}

func (b reportDraftBody) toDraft() entities.ReportDraft {
	return entities.ReportDraft{
		DrugName:    b.DrugName,
		Batch:       b.Batch,
		PatientName: b.PatientName,
		Age:         b.Age,
		Gender:      b.Gender,
		Phone:       b.Phone,
		Condition:   b.Condition,
		Severity:    b.Severity,
		AmountMg:    float64(b.AmountMg),
		Description: b.Description,
	}
}
