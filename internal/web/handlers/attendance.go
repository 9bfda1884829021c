package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/kozaktomas/face-attendance/internal/ledger"
)

// Snapshotter reads the ledger. Every ledger.Ledger implements it.
type Snapshotter interface {
	Snapshot(ctx context.Context) ([]ledger.Record, error)
}

// AttendanceHandler serves the ledger report.
type AttendanceHandler struct {
	ledger Snapshotter
	logger *slog.Logger
}

// NewAttendanceHandler creates a new attendance handler.
func NewAttendanceHandler(l Snapshotter, logger *slog.Logger) *AttendanceHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AttendanceHandler{ledger: l, logger: logger}
}

// AttendanceResponse is the body of GET /api/v1/attendance.
type AttendanceResponse struct {
	Date    string          `json:"date,omitempty"`
	Count   int             `json:"count"`
	Records []ledger.Record `json:"records"`
}

// List handles GET /api/v1/attendance[?date=YYYY-MM-DD].
func (h *AttendanceHandler) List(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date != "" {
		if _, err := time.Parse(ledger.DateLayout, date); err != nil {
			respondError(w, http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
			return
		}
	}

	records, err := h.ledger.Snapshot(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to read attendance", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to read attendance")
		return
	}

	records = ledger.FilterByDate(records, date)
	if records == nil {
		records = []ledger.Record{}
	}
	respondJSON(w, http.StatusOK, AttendanceResponse{
		Date:    date,
		Count:   len(records),
		Records: records,
	})
}
