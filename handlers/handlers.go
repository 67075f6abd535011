// Package handlers provides HTTP request handlers for the mediscan API
// endpoints: scan/search resolution, the current merged view, ADR report
// submission and history, export, severity summary, and health checks.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/mediscan/mediscan-api/interfaces"
	"github.com/mediscan/mediscan-api/logging"
	"github.com/mediscan/mediscan-api/payload"
	"github.com/mediscan/mediscan-api/reports"
	"github.com/mediscan/mediscan-api/validation"
)

// RespondWithJSON writes a JSON response
func RespondWithJSON(w http.ResponseWriter, code int, body interface{}) {
	data, err := json.Marshal(body)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	w.Write(data)
}

// RespondWithError writes a JSON error body with the given status
func RespondWithError(w http.ResponseWriter, code int, msg string) {
	RespondWithJSON(w, code, map[string]string{"error": msg})
}

type scanRequest struct {
	Payload string `json:"payload"`
}

// resolveAndPublish runs the full parse → resolve pipeline for one raw
// payload and publishes the result as the current view unless a newer scan
// already superseded it.
func resolveAndPublish(dataStore interfaces.DataStore, resolver interfaces.Resolver,
	r *http.Request, raw string) (any, int) {

	validator := validation.NewDataValidator()
	if err := validator.ValidateInput(raw); err != nil {
		return map[string]string{"error": "Invalid scan payload"}, http.StatusBadRequest
	}

	token := dataStore.NextResolutionToken()
	candidate := payload.Parse(raw)
	view := resolver.Resolve(r.Context(), candidate)

	if !dataStore.SetCurrentView(view, token) {
		logging.Debug("Discarded stale resolution", "token", token, "drug", view.Name)
	}

	return map[string]any{"token": token, "view": view}, http.StatusOK
}

// Scan resolves a raw scanned payload posted as {"payload": "..."} or as a
// plain text body. Camera scans, gallery decodes and manual input all funnel
// through here.
func Scan(dataStore interfaces.DataStore, resolver interfaces.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			RespondWithError(w, http.StatusBadRequest, "Could not read request body")
			return
		}

		raw := string(body)
		var req scanRequest
		if err := json.Unmarshal(body, &req); err == nil && req.Payload != "" {
			raw = req.Payload
		}

		if strings.TrimSpace(raw) == "" {
			RespondWithError(w, http.StatusBadRequest, "Missing scan payload")
			return
		}

		resp, code := resolveAndPublish(dataStore, resolver, r, raw)
		RespondWithJSON(w, code, resp)
	}
}

// Search resolves a typed drug name through the same pipeline as Scan.
func Search(dataStore interfaces.DataStore, resolver interfaces.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := chi.URLParam(r, "query")
		if query == "" {
			RespondWithError(w, http.StatusBadRequest, "Missing search term")
			return
		}

		resp, code := resolveAndPublish(dataStore, resolver, r, query)
		RespondWithJSON(w, code, resp)
	}
}

// CurrentView returns the latest published merged view and its token.
func CurrentView(dataStore interfaces.DataStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, token, ok := dataStore.GetCurrentView()
		if !ok {
			RespondWithError(w, http.StatusNotFound, "No scan performed yet")
			return
		}

		RespondWithJSON(w, http.StatusOK, map[string]any{"token": token, "view": view})
	}
}

// SubmitReport validates and stores an ADR report draft. Validation failures
// return 400 with the missing field; persistence failures return 500 so the
// client keeps the draft.
func SubmitReport(store interfaces.ReportStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var draft reportDraftBody
		if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
			RespondWithError(w, http.StatusBadRequest, "Invalid report body")
			return
		}

		report, err := store.Submit(draft.toDraft())
		if err != nil {
			var vErr *reports.ValidationError
			if errors.As(err, &vErr) {
				RespondWithJSON(w, http.StatusBadRequest, map[string]string{
					"error": "Required field missing",
					"field": vErr.Field,
				})
				return
			}

			logging.Error("Failed to persist ADR report", "error", err)
			RespondWithError(w, http.StatusInternalServerError, "Failed to save report")
			return
		}

		RespondWithJSON(w, http.StatusCreated, report)
	}
}

// ListReports returns all reports, most recent first.
func ListReports(store interfaces.ReportStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		all, err := store.List()
		if err != nil {
			logging.Error("Failed to list ADR reports", "error", err)
			RespondWithError(w, http.StatusInternalServerError, "Failed to read reports")
			return
		}

		RespondWithJSON(w, http.StatusOK, all)
	}
}

// GetReport returns one report by id.
func GetReport(store interfaces.ReportStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		report, found, err := store.Get(id)
		if err != nil {
			logging.Error("Failed to read ADR report", "id", id, "error", err)
			RespondWithError(w, http.StatusInternalServerError, "Failed to read report")
			return
		}
		if !found {
			RespondWithError(w, http.StatusNotFound, "Report not found")
			return
		}

		RespondWithJSON(w, http.StatusOK, report)
	}
}

// ClearReports removes every stored report.
func ClearReports(store interfaces.ReportStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.Clear(); err != nil {
			logging.Error("Failed to clear ADR reports", "error", err)
			RespondWithError(w, http.StatusInternalServerError, "Failed to clear reports")
			return
		}

		RespondWithJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
	}
}

// ExportReports serves the full report snapshot as a downloadable JSON file.
func ExportReports(store interfaces.ReportStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot, err := store.Export()
		if err != nil {
			logging.Error("Failed to export ADR reports", "error", err)
			RespondWithError(w, http.StatusInternalServerError, "Failed to export reports")
			return
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="mediscan_reports.json"`)
		w.WriteHeader(http.StatusOK)
		w.Write(snapshot)
	}
}

// SeveritySummary returns report counts per severity bucket.
func SeveritySummary(store interfaces.ReportStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := store.SeveritySummary()
		if err != nil {
			logging.Error("Failed to summarize ADR reports", "error", err)
			RespondWithError(w, http.StatusInternalServerError, "Failed to summarize reports")
			return
		}

		RespondWithJSON(w, http.StatusOK, summary)
	}
}

// HealthCheck returns server health information.
func HealthCheck(checker interfaces.HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, data, httpStatus := checker.HealthCheck()

		body := map[string]any{"status": status}
		for k, v := range data {
			body[k] = v
		}

		RespondWithJSON(w, httpStatus, body)
	}
}
