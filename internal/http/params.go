package http

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"bilancio/internal/core"
)

// MonthParams holds year/month values parsed from query parameters.
type MonthParams struct {
	Year  int
	Month time.Month
}

// parseMonthParams extracts year and month from the query string, defaulting
// to the current date. An out-of-range month is an error.
func parseMonthParams(query url.Values) (MonthParams, error) {
	now := time.Now()
	params := MonthParams{Year: now.Year(), Month: now.Month()}

	if v := strings.TrimSpace(query.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			return params, fmt.Errorf("invalid year %q", v)
		}
		params.Year = y
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			return params, fmt.Errorf("invalid month %q", v)
		}
		params.Month = time.Month(m)
	}

	return params, nil
}

// parsePeriodParam reads the period query parameter; empty means monthly.
func parsePeriodParam(query url.Values) (core.Period, error) {
	return core.ParsePeriod(strings.TrimSpace(query.Get("period")))
}

// pathID parses the {id} path segment as a UUID.
func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid id %q", r.PathValue("id"))
	}
	return id, nil
}
