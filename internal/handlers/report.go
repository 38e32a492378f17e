package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-maintenance/internal/publish"
	"github.com/ukydev/fleet-maintenance/internal/report"
)

const dateLayout = "2006-01-02"

// ReportGenerator builds maintenance reports.
type ReportGenerator interface {
	Generate(ctx context.Context, req report.Request) (*report.Report, error)
}

// ReportHandler serves maintenance reports over HTTP
type ReportHandler struct {
	generator      ReportGenerator
	publisher      publish.Publisher
	publishTimeout time.Duration
}

// NewReportHandler creates a report handler. publisher may be nil.
func NewReportHandler(generator ReportGenerator, publisher publish.Publisher) *ReportHandler {
	return &ReportHandler{
		generator:      generator,
		publisher:      publisher,
		publishTimeout: 30 * time.Second,
	}
}

// MaintenanceReport handles GET /api/reports/maintenance
func (h *ReportHandler) MaintenanceReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	start, err := parseDate(q.Get("start"))
	if err != nil {
		http.Error(w, "Invalid start: "+err.Error(), http.StatusBadRequest)
		return
	}
	end, err := parseDate(q.Get("end"))
	if err != nil {
		http.Error(w, "Invalid end: "+err.Error(), http.StatusBadRequest)
		return
	}

	rep, err := h.generator.Generate(r.Context(), report.Request{
		Start:          start,
		End:            end,
		BusinessUnitID: q.Get("business_unit"),
		PlantID:        q.Get("plant"),
	})
	switch {
	case errors.Is(err, report.ErrInvalidWindow):
		http.Error(w, "end must be after start", http.StatusBadRequest)
		return
	case errors.Is(err, report.ErrStoreUnavailable):
		log.WithError(err).Error("Maintenance report failed")
		http.Error(w, "Maintenance data unavailable", http.StatusServiceUnavailable)
		return
	case err != nil:
		log.WithError(err).Error("Maintenance report failed")
		http.Error(w, "Failed to generate report", http.StatusInternalServerError)
		return
	}

	if h.publisher != nil {
		ctx, cancel := context.WithTimeout(context.Background(), h.publishTimeout)
		if err := h.publisher.PublishReport(ctx, rep); err != nil {
			log.WithError(err).WithField("report_id", rep.ID).Warn("Failed to publish report")
		}
		cancel()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(rep); err != nil {
		log.WithError(err).Error("Failed to encode report")
	}
}

// Health handles GET /health
func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// parseDate accepts a calendar date (midnight UTC) or an RFC 3339 timestamp.
func parseDate(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, errors.New("missing value")
	}
	if t, err := time.Parse(dateLayout, v); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("want YYYY-MM-DD or RFC 3339, got %q", v)
	}
	return t, nil
}
