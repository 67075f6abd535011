package reports

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/mediscan/mediscan-api/data"
	"github.com/mediscan/mediscan-api/drapparser/entities"
	"github.com/mediscan/mediscan-api/logging"
)

func newTestStore(t *testing.T, records ...entities.ReferenceRecord) *Store {
	t.Helper()
	logging.InitLogger("")

	dc := data.NewDataContainer()
	dc.LoadRecords(records)

	store, err := NewStore(filepath.Join(t.TempDir(), "reports.db"), dc)
	if err != nil {
		t.Fatalf("NewStore error: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store
}

func validDraft() entities.ReportDraft {
	return entities.ReportDraft{
		DrugName:    "Paracetamol",
		Batch:       "B1",
		PatientName: "Ali Khan",
		Age:         "34",
		Gender:      "male",
		Condition:   "Headache",
		Severity:    "Mild",
		AmountMg:    500,
		Description: "Mild skin rash after second dose",
	}
}

func TestSubmitValidation(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*entities.ReportDraft)
		wantField string
	}{
		{"missing patient name", func(d *entities.ReportDraft) { d.PatientName = "" }, "patientName"},
		{"whitespace age", func(d *entities.ReportDraft) { d.Age = "   " }, "age"},
		{"missing gender", func(d *entities.ReportDraft) { d.Gender = "" }, "gender"},
		{"missing condition", func(d *entities.ReportDraft) { d.Condition = "" }, "condition"},
		{"missing severity", func(d *entities.ReportDraft) { d.Severity = "" }, "severity"},
		{"missing description", func(d *entities.ReportDraft) { d.Description = "" }, "description"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(t)

			draft := validDraft()
			tt.mutate(&draft)

			_, err := store.Submit(draft)

			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("want ValidationError, got %v", err)
			}
			if vErr.Field != tt.wantField {
				t.Errorf("field = %q, want %q", vErr.Field, tt.wantField)
			}

			// A rejected submission must not change stored state
			all, err := store.List()
			if err != nil {
				t.Fatalf("List error: %v", err)
			}
			if len(all) != 0 {
				t.Errorf("store length = %d after rejected submission, want 0", len(all))
			}
		})
	}
}

func TestSubmitAppendsAndAssignsUniqueIDs(t *testing.T) {
	store := newTestStore(t)

	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		report, err := store.Submit(validDraft())
		if err != nil {
			t.Fatalf("Submit error: %v", err)
		}
		if report.ID == "" {
			t.Fatal("report should have an id")
		}
		if seen[report.ID] {
			t.Fatalf("duplicate report id %q", report.ID)
		}
		seen[report.ID] = true
		if report.Timestamp.IsZero() {
			t.Error("report should carry a creation timestamp")
		}
	}

	all, err := store.List()
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(all) != 5 {
		t.Errorf("store length = %d, want 5", len(all))
	}
}

func TestSubmitDefaultsDrugName(t *testing.T) {
	store := newTestStore(t)

	draft := validDraft()
	draft.DrugName = "  "

	report, err := store.Submit(draft)
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if report.DrugName != UnknownDrug {
		t.Errorf("drugName = %q, want %q", report.DrugName, UnknownDrug)
	}
}

func TestSubmitNegativeAmountFoldsToZero(t *testing.T) {
	store := newTestStore(t)

	draft := validDraft()
	draft.AmountMg = -50

	report, err := store.Submit(draft)
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if report.AmountMg != 0 {
		t.Errorf("amountMg = %v, want 0", report.AmountMg)
	}
}

func TestHighDoseFlag(t *testing.T) {
	ref := entities.ReferenceRecord{Name: "Dologen", MaxDoseMg: 500}

	tests := []struct {
		name     string
		drug     string
		amountMg float64
		want     bool
	}{
		{"above ceiling", "Dologen", 600, true},
		{"case-insensitive lookup above ceiling", "dOLOGEN", 600, true},
		{"below ceiling", "Dologen", 400, false},
		{"exactly at ceiling", "Dologen", 500, false},
		{"unknown drug with huge amount", "Mysterin", 1000000, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(t, ref)

			draft := validDraft()
			draft.DrugName = tt.drug
			draft.AmountMg = tt.amountMg

			report, err := store.Submit(draft)
			if err != nil {
				t.Fatalf("Submit error: %v", err)
			}
			if report.HighDose != tt.want {
				t.Errorf("highDose = %v, want %v", report.HighDose, tt.want)
			}
		})
	}
}

func TestHighDoseFlagImmutableAcrossReload(t *testing.T) {
	logging.InitLogger("")

	dc := data.NewDataContainer()
	dc.LoadRecords([]entities.ReferenceRecord{{Name: "Dologen", MaxDoseMg: 500}})

	store, err := NewStore(filepath.Join(t.TempDir(), "reports.db"), dc)
	if err != nil {
		t.Fatalf("NewStore error: %v", err)
	}
	defer store.Close()

	draft := validDraft()
	draft.DrugName = "Dologen"
	draft.AmountMg = 600

	report, err := store.Submit(draft)
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if !report.HighDose {
		t.Fatal("expected high dose flag")
	}

	// Raising the ceiling after submission must not change the stored flag
	dc.LoadRecords([]entities.ReferenceRecord{{Name: "Dologen", MaxDoseMg: 10000}})

	stored, found, err := store.Get(report.ID)
	if err != nil || !found {
		t.Fatalf("Get = %v, %v", found, err)
	}
	if !stored.HighDose {
		t.Error("stored flag must survive dataset reloads")
	}
}

func TestListMostRecentFirst(t *testing.T) {
	store := newTestStore(t)

	var ids []string
	for i := 0; i < 3; i++ {
		report, err := store.Submit(validDraft())
		if err != nil {
			t.Fatalf("Submit error: %v", err)
		}
		ids = append(ids, report.ID)
	}

	all, err := store.List()
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("length = %d, want 3", len(all))
	}
	for i := range ids {
		if all[i].ID != ids[len(ids)-1-i] {
			t.Errorf("list[%d].ID = %q, want %q (most recent first)", i, all[i].ID, ids[len(ids)-1-i])
		}
	}
}

func TestGetByID(t *testing.T) {
	store := newTestStore(t)

	report, err := store.Submit(validDraft())
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}

	got, found, err := store.Get(report.ID)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if !found || got.ID != report.ID {
		t.Errorf("Get(%q) = %+v found=%v", report.ID, got, found)
	}

	if _, found, _ := store.Get("r_does_not_exist"); found {
		t.Error("Get for unknown id should not find anything")
	}
}

func TestExportClearRoundTrip(t *testing.T) {
	store := newTestStore(t)

	var ids []string
	for i := 0; i < 4; i++ {
		report, err := store.Submit(validDraft())
		if err != nil {
			t.Fatalf("Submit error: %v", err)
		}
		ids = append(ids, report.ID)
	}

	snapshot, err := store.Export()
	if err != nil {
		t.Fatalf("Export error: %v", err)
	}

	var exported []entities.AdrReport
	if err := json.Unmarshal(snapshot, &exported); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if len(exported) != 4 {
		t.Fatalf("exported %d reports, want 4", len(exported))
	}
	// Export preserves submission order
	for i := range ids {
		if exported[i].ID != ids[i] {
			t.Errorf("exported[%d].ID = %q, want %q", i, exported[i].ID, ids[i])
		}
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("Clear error: %v", err)
	}

	all, err := store.List()
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("length after clear = %d, want 0", len(all))
	}
}

func TestPersistenceAcrossReopen(t *testing.T) {
	logging.InitLogger("")

	dc := data.NewDataContainer()
	path := filepath.Join(t.TempDir(), "reports.db")

	store, err := NewStore(path, dc)
	if err != nil {
		t.Fatalf("NewStore error: %v", err)
	}

	report, err := store.Submit(validDraft())
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}

	reopened, err := NewStore(path, dc)
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	defer reopened.Close()

	all, err := reopened.List()
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(all) != 1 || all[0].ID != report.ID {
		t.Errorf("reopened store = %+v, want the submitted report", all)
	}
}

func TestSeveritySummary(t *testing.T) {
	store := newTestStore(t)

	severities := []string{"Mild", "Mild", "Severe", "Moderate", "odd-value"}
	for _, sev := range severities {
		draft := validDraft()
		draft.Severity = sev
		if _, err := store.Submit(draft); err != nil {
			t.Fatalf("Submit error: %v", err)
		}
	}

	summary, err := store.SeveritySummary()
	if err != nil {
		t.Fatalf("SeveritySummary error: %v", err)
	}

	want := map[string]int{"Mild": 2, "Moderate": 1, "Severe": 1}
	for k, v := range want {
		if summary[k] != v {
			t.Errorf("summary[%s] = %d, want %d", k, summary[k], v)
		}
	}
	if _, ok := summary["odd-value"]; ok {
		t.Error("unrecognized severities must not create buckets")
	}
}
