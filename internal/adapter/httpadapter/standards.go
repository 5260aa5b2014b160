package httpadapter

import (
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/smartfarm/flock-performance-service/internal/standard"
)

type standardsHandler struct {
	table  *standard.Table
	logger *slog.Logger
}

type standardsResponse struct {
	Count   int                       `json:"count"`
	Records []standard.WeeklyStandard `json:"records"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// list serves every record, or the records within ?from=&to= when either
// bound is given. A missing bound is open-ended.
func (h *standardsHandler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("from") == "" && q.Get("to") == "" {
		records := h.table.Records()
		writeJSON(w, http.StatusOK, standardsResponse{Count: len(records), Records: records})
		return
	}

	from, ok := intParam(w, q.Get("from"), "from", math.MinInt)
	if !ok {
		return
	}
	to, ok := intParam(w, q.Get("to"), "to", math.MaxInt)
	if !ok {
		return
	}

	records := h.table.ForWeekRange(from, to)
	writeJSON(w, http.StatusOK, standardsResponse{Count: len(records), Records: records})
}

// week serves the record for one exact week, 404 when the table has none.
func (h *standardsHandler) week(w http.ResponseWriter, r *http.Request) {
	week, err := strconv.Atoi(r.PathValue("week"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "week must be an integer"})
		return
	}

	ws, ok := h.table.ForWeek(week)
	if !ok {
		h.logger.Debug("standard week not found", "week", week)
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "no standard for week " + strconv.Itoa(week)})
		return
	}
	writeJSON(w, http.StatusOK, ws)
}

func intParam(w http.ResponseWriter, value, name string, fallback int) (int, bool) {
	if value == "" {
		return fallback, true
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: name + " must be an integer"})
		return 0, false
	}
	return n, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
