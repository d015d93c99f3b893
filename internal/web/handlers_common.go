package web

// handlers_common.go contains helpers shared by the handlers.

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/JonMunkholm/salesview/internal/core"
)

// Query defaults.
const (
	defaultPage      = 1
	defaultSortBy    = core.SortByDate
	defaultSortOrder = core.SortDesc
)

// parseIntParam parses a positive integer query parameter. Missing,
// malformed, or non-positive values return defaultVal.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

// parseOptionalInt parses an integer query parameter; nil means absent or
// unparsable.
func parseOptionalInt(r *http.Request, name string) *int {
	val := strings.TrimSpace(r.URL.Query().Get(name))
	if val == "" {
		return nil
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return nil
	}
	return &i
}

// parseQueryParams reads the query-string parameters of the list and
// export endpoints.
func (s *Server) parseQueryParams(r *http.Request) core.QueryParams {
	q := r.URL.Query()

	pageSize := parseIntParam(r, "pageSize", s.cfg.Query.DefaultPageSize)
	if maxSize := s.cfg.Query.MaxPageSize; maxSize > 0 && pageSize > maxSize {
		pageSize = maxSize
	}

	sortBy := strings.TrimSpace(q.Get("sortBy"))
	if sortBy == "" {
		sortBy = defaultSortBy
	}
	sortOrder := defaultSortOrder
	if v := q.Get("sortOrder"); v != "" {
		sortOrder = core.ParseSortOrder(v)
	}

	return core.QueryParams{
		Search: q.Get("search"),
		Criteria: core.Criteria{
			Regions:        core.SplitList(q.Get("regions")),
			Genders:        core.SplitList(q.Get("genders")),
			Categories:     core.SplitList(q.Get("categories")),
			Tags:           core.SplitList(q.Get("tags")),
			PaymentMethods: core.SplitList(q.Get("paymentMethods")),
			AgeMin:         parseOptionalInt(r, "ageMin"),
			AgeMax:         parseOptionalInt(r, "ageMax"),
			DateStart:      core.ParseDateBound(q.Get("dateStart")),
			DateEnd:        core.ParseDateBound(q.Get("dateEnd")),
		},
		SortBy:    sortBy,
		SortOrder: sortOrder,
		Page:      parseIntParam(r, "page", defaultPage),
		PageSize:  pageSize,
	}
}

// dataResponse is the success envelope of read endpoints.
type dataResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// writeJSON encodes v as JSON with status. Encoding errors are logged since
// headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}

// handleUploadQueueStatus reports the upload limiter state so clients can
// tell whether another upload would be accepted.
func (s *Server) handleUploadQueueStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dataResponse{Success: true, Data: s.service.UploadLimiterStatus()})
}
