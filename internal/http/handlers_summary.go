package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"bilancio/internal/core"
)

func summaryCacheKey(year int, month time.Month, period core.Period) string {
	return fmt.Sprintf("%04d-%02d-%s", year, int(month), period)
}

func analyticsCacheKey(year int) string {
	return fmt.Sprintf("analytics-%04d", year)
}

// invalidateSummary drops the cached summaries of one month, in every period,
// together with that year's analytics.
func (s *Server) invalidateSummary(year int, month time.Month) {
	for _, period := range core.Periods() {
		s.summaryCache.Delete(summaryCacheKey(year, month, period))
	}
	s.analyticsCache.Delete(analyticsCacheKey(year))
}

// invalidateSummaries drops the whole summary and analytics caches. Used for
// changes whose month impact is unbounded, like category or definition edits.
func (s *Server) invalidateSummaries() {
	s.summaryCache.Clear()
	s.analyticsCache.Clear()
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	params, err := parseMonthParams(r.URL.Query())
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	period, err := parsePeriodParam(r.URL.Query())
	if err != nil {
		badRequest(w, "invalid period")
		return
	}

	key := summaryCacheKey(params.Year, params.Month, period)
	if cached, found := s.summaryCache.Get(key); found {
		writeJSON(w, http.StatusOK, toSummaryJSON(cached))
		return
	}

	summary, err := s.summaries.MonthSummary(r.Context(), params.Year, params.Month, period)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.summaryCache.Set(key, summary)

	writeJSON(w, http.StatusOK, toSummaryJSON(summary))
}

func parseYearParam(r *http.Request) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get("year"))
	if v == "" {
		return time.Now().Year(), nil
	}
	return strconv.Atoi(v)
}

func (s *Server) handleAverages(w http.ResponseWriter, r *http.Request) {
	year, err := parseYearParam(r)
	if err != nil {
		badRequest(w, "invalid year")
		return
	}

	averages, err := s.analytics.MonthlyAverages(r.Context(), year, time.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]averageJSON, 0, len(averages))
	for _, a := range averages {
		out = append(out, toAverageJSON(a))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	year, err := parseYearParam(r)
	if err != nil {
		badRequest(w, "invalid year")
		return
	}

	key := analyticsCacheKey(year)
	if cached, found := s.analyticsCache.Get(key); found {
		writeJSON(w, http.StatusOK, toYearOverviewJSON(cached))
		return
	}

	overview, err := s.analytics.YearOverview(r.Context(), year, time.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.analyticsCache.Set(key, overview)

	writeJSON(w, http.StatusOK, toYearOverviewJSON(overview))
}
