package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/leadflow/ingest-server/internal/errors"
	"github.com/leadflow/ingest-server/internal/httputil"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	httputil.WriteJSON(w, status, data)
}

func writeError(w http.ResponseWriter, err error) {
	httputil.WriteError(w, err)
}

// parseDateParam accepts YYYY-MM-DD (UTC midnight) or RFC3339. With
// endOfRange set, a bare date is moved to the start of the next day so the
// exclusive upper bound still covers the whole named day.
func parseDateParam(value string, endOfRange bool) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}

	if t, err := time.ParseInLocation(time.DateOnly, value, time.UTC); err == nil {
		if endOfRange {
			t = t.AddDate(0, 0, 1)
		}
		return &t, nil
	}

	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, fmt.Errorf("expected YYYY-MM-DD or RFC3339")
	}
	return &t, nil
}

// parseIDParam parses an optional positive integer query parameter.
func parseIDParam(r *http.Request, name string) (int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.InvalidInput(name, "must be a positive integer")
	}
	return id, nil
}

func parseDateRange(r *http.Request) (from, to *time.Time, err error) {
	from, err = parseDateParam(r.URL.Query().Get("date_from"), false)
	if err != nil {
		return nil, nil, apperrors.InvalidInput("date_from", err.Error())
	}
	to, err = parseDateParam(r.URL.Query().Get("date_to"), true)
	if err != nil {
		return nil, nil, apperrors.InvalidInput("date_to", err.Error())
	}
	return from, to, nil
}
