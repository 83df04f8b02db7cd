package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/joshdurbin/stryd-dashboard/internal/dashboard"
	"github.com/joshdurbin/stryd-dashboard/internal/logging"
	"github.com/joshdurbin/stryd-dashboard/internal/server"
	"go.uber.org/multierr"
)

// queryList collects a list parameter given either repeated (?tags=a&tags=b)
// or comma-separated (?tags=a,b).
func queryList(r *http.Request, name string) []string {
	var out []string
	for _, v := range r.URL.Query()[name] {
		out = append(out, strings.Split(v, ",")...)
	}
	return out
}

// startDate returns the startDate query parameter, or the saved default
// when the parameter is absent. An explicit empty value clears the default.
func (h *Handler) startDate(r *http.Request) string {
	if v, ok := r.URL.Query()["startDate"]; ok {
		return v[0]
	}
	if h.prefs != nil {
		return h.prefs.Get().StartDate
	}
	return ""
}

func (h *Handler) filter(r *http.Request) (dashboard.Filter, error) {
	return dashboard.ParseFilter(queryList(r, "tags"), queryList(r, "types"), h.startDate(r))
}

func activityID(r *http.Request) (int64, error) {
	return dashboard.ParseActivityID(mux.Vars(r)["id"])
}

func (h *Handler) handleActivities(w http.ResponseWriter, r *http.Request) {
	f, err := h.filter(r)
	if err != nil {
		h.writeError(w, r, "list activities", err, "")
		return
	}

	activities, err := h.dashboard.ListActivities(r.Context(), f)
	if err != nil {
		h.writeError(w, r, "list activities", err, "")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"activities": activities,
		"count":      len(activities),
	})
}

type activityDetailResponse struct {
	*dashboard.Detail
	PartialErrors []string `json:"partialErrors,omitempty"`
}

func (h *Handler) handleActivity(w http.ResponseWriter, r *http.Request) {
	id, err := activityID(r)
	if err != nil {
		h.writeError(w, r, "get activity", err, "")
		return
	}

	detail, err := h.dashboard.ActivityDetail(r.Context(), id)
	if detail == nil {
		h.writeError(w, r, "get activity", err, "")
		return
	}

	resp := activityDetailResponse{Detail: detail}
	for _, e := range multierr.Errors(err) {
		resp.PartialErrors = append(resp.PartialErrors, e.Error())
	}
	if len(resp.PartialErrors) > 0 {
		logging.Warn("activity detail partially loaded", "id", id, "errors", len(resp.PartialErrors))
	}

	writeJSON(w, http.StatusOK, resp)
}

// selectedSamples returns the samples of an activity restricted to the laps
// named in the laps query parameter.
func (h *Handler) selectedSamples(r *http.Request, id int64) ([]dashboard.TimeseriesSample, error) {
	selected, err := dashboard.ParseLapNumbers(r.URL.Query().Get("laps"))
	if err != nil {
		return nil, err
	}

	samples, err := h.dashboard.Timeseries(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if len(selected) == 0 {
		return samples, nil
	}

	laps, err := h.dashboard.Laps(r.Context(), id)
	if err != nil {
		return nil, err
	}
	return dashboard.FilterByLaps(samples, laps, selected), nil
}

func (h *Handler) handleTimeseries(w http.ResponseWriter, r *http.Request) {
	id, err := activityID(r)
	if err != nil {
		h.writeError(w, r, "get timeseries", err, "")
		return
	}

	samples, err := h.selectedSamples(r, id)
	if err != nil {
		h.writeError(w, r, "get timeseries", err, "")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"timeseries": samples})
}

func (h *Handler) handleLaps(w http.ResponseWriter, r *http.Request) {
	id, err := activityID(r)
	if err != nil {
		h.writeError(w, r, "get laps", err, "")
		return
	}

	laps, err := h.dashboard.Laps(r.Context(), id)
	if err != nil {
		h.writeError(w, r, "get laps", err, "")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"laps": laps})
}

func (h *Handler) handleGPS(w http.ResponseWriter, r *http.Request) {
	id, err := activityID(r)
	if err != nil {
		h.writeError(w, r, "get gps", err, "")
		return
	}

	points, err := h.dashboard.GPSPoints(r.Context(), id)
	if err != nil {
		h.writeError(w, r, "get gps", err, "")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"points": points})
}

func (h *Handler) handleZones(w http.ResponseWriter, r *http.Request) {
	id, err := activityID(r)
	if err != nil {
		h.writeError(w, r, "get power zones", err, "")
		return
	}

	activity, err := h.dashboard.Activity(r.Context(), id)
	if err != nil {
		h.writeError(w, r, "get power zones", err, "")
		return
	}

	var cp float64
	if raw := r.URL.Query().Get("cp"); raw != "" {
		cp, err = strconv.ParseFloat(raw, 64)
		if err != nil || cp <= 0 {
			h.writeError(w, r, "get power zones", server.NewInvalidInputErrorWithDetails("cp must be a positive number", raw), "")
			return
		}
	} else if activity.Ftp != nil && *activity.Ftp > 0 {
		cp = *activity.Ftp
	} else {
		h.writeError(w, r, "get power zones", server.NewInvalidInputErrorWithDetails("activity has no critical power, pass cp", ""), "")
		return
	}

	samples, err := h.selectedSamples(r, id)
	if err != nil {
		h.writeError(w, r, "get power zones", err, "")
		return
	}

	zones := dashboard.PowerZones(samples, cp)
	if zones == nil {
		zones = []dashboard.PowerZone{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"activityId": id,
		"cp":         cp,
		"zones":      zones,
	})
}

func (h *Handler) handleFilters(w http.ResponseWriter, r *http.Request) {
	tags, err := h.dashboard.Tags(r.Context())
	if err != nil {
		h.writeError(w, r, "list tags", err, "")
		return
	}
	types, err := h.dashboard.Types(r.Context())
	if err != nil {
		h.writeError(w, r, "list types", err, "")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tags":  tags,
		"types": types,
	})
}

func (h *Handler) handleTrends(w http.ResponseWriter, r *http.Request) {
	f, err := dashboard.ParseFilter(nil, nil, h.startDate(r))
	if err != nil {
		h.writeError(w, r, "rolling stats", err, "")
		return
	}

	days, err := h.dashboard.RollingStats(r.Context(), f.StartDate)
	if err != nil {
		h.writeError(w, r, "rolling stats", err, "")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"days": days})
}

func (h *Handler) handleCalendar(w http.ResponseWriter, r *http.Request) {
	f, err := h.filter(r)
	if err != nil {
		h.writeError(w, r, "calendar", err, "")
		return
	}

	weeks, err := h.dashboard.Calendar(r.Context(), f)
	if err != nil {
		h.writeError(w, r, "calendar", err, "")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"weeks": weeks})
}
