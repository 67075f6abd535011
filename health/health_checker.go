// Package health provides health checking functionality for the mediscan API.
package health

import (
	"math"
	"net/http"
	"time"

	"github.com/mediscan/mediscan-api/interfaces"
)

// HealthCheckerImpl implements the interfaces.HealthChecker interface
type HealthCheckerImpl struct {
	dataStore   interfaces.DataStore
	reportStore interfaces.ReportStore
}

// NewHealthChecker creates a new health checker with injected dependencies
func NewHealthChecker(dataStore interfaces.DataStore, reportStore interfaces.ReportStore) interfaces.HealthChecker {
	return &HealthCheckerImpl{
		dataStore:   dataStore,
		reportStore: reportStore,
	}
}

// HealthCheck reports overall service health. An empty reference index is
// only "degraded", never "unhealthy": the service stays usable through the
// openFDA fallback. A broken report store is unhealthy because submissions
// would fail.
func (h *HealthCheckerImpl) HealthCheck() (string, map[string]any, int) {
	recordCount := h.dataStore.RecordCount()
	lastLoaded := h.dataStore.GetLastLoaded()
	isUpdating := h.dataStore.IsUpdating()
	dataAge := time.Since(lastLoaded)

	reportCount := -1
	storeHealthy := true
	if reports, err := h.reportStore.List(); err == nil {
		reportCount = len(reports)
	} else {
		storeHealthy = false
	}

	var status string
	var httpStatus int
	switch {
	case !storeHealthy:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	case recordCount == 0:
		status = "degraded"
		httpStatus = http.StatusOK

	case dataAge > 48*time.Hour:
		status = "degraded"
		httpStatus = http.StatusOK

	default:
		status = "healthy"
		httpStatus = http.StatusOK
	}

	data := map[string]any{
		"dataset_records": recordCount,
		"last_loaded":     lastLoaded.Format(time.RFC3339),
		"data_age_hours":  math.Round(dataAge.Hours()*10) / 10,
		"is_updating":     isUpdating,
		"reports_stored":  reportCount,
		"uptime_seconds":  math.Round(time.Since(h.dataStore.GetServerStartTime()).Seconds()),
	}

	return status, data, httpStatus
}
