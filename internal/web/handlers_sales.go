package web

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/JonMunkholm/salesview/internal/core"
	"github.com/JonMunkholm/salesview/internal/logging"
)

// queryResponse is the body of GET /api/sales.
type queryResponse struct {
	Success    bool            `json:"success"`
	Data       []core.Record   `json:"data"`
	Pagination core.Pagination `json:"pagination"`
}

// handleQuery runs search, filter, sort and pagination over the active dataset.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	params := s.parseQueryParams(r)

	start := time.Now()
	result := s.service.Query(params)
	s.metrics.observeQuery(time.Since(start))

	writeJSON(w, http.StatusOK, queryResponse{
		Success:    true,
		Data:       result.Data,
		Pagination: result.Pagination,
	})
}

// handleFilterOptions returns the selectable filter values.
func (s *Server) handleFilterOptions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dataResponse{Success: true, Data: s.service.FilterOptions()})
}

// handleDataset describes the active dataset.
func (s *Server) handleDataset(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dataResponse{Success: true, Data: s.service.DatasetInfo()})
}

// Export formats.
const (
	exportCSV  = "csv"
	exportXLSX = "xlsx"

	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// handleExport streams every record matching the query (no pagination) as
// CSV or XLSX.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	if format == "" {
		format = exportCSV
	}
	if format != exportCSV && format != exportXLSX {
		s.respondError(w, r, fmt.Errorf("%w: %q", core.ErrUnknownExportFormat, format), http.StatusBadRequest)
		return
	}

	columns, records := s.service.Select(s.parseQueryParams(r))
	columns = core.ExportColumns(columns, records)

	filename := fmt.Sprintf("sales_%s.%s", time.Now().UTC().Format("20060102_150405"), format)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	var err error
	switch format {
	case exportXLSX:
		w.Header().Set("Content-Type", contentTypeXLSX)
		err = core.WriteXLSX(w, columns, records)
	default:
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		err = core.WriteCSV(w, columns, records)
	}

	logger := logging.FromContext(r.Context())
	if err != nil {
		// Headers are already sent; the client sees a truncated file.
		logger.Error("export failed", "format", format, "records", len(records), "error", err)
		return
	}
	logger.Info("export complete", "format", format, "records", len(records))
}
