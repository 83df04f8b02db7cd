// Package api serves the dashboard as a JSON API for the web client.
package api

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/joshdurbin/stryd-dashboard/internal/config"
	"github.com/joshdurbin/stryd-dashboard/internal/dashboard"
	"github.com/joshdurbin/stryd-dashboard/internal/llm"
	"github.com/joshdurbin/stryd-dashboard/internal/metrics"
	"github.com/joshdurbin/stryd-dashboard/internal/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dashboard is the read model behind the activity and trend endpoints.
type Dashboard interface {
	server.Dashboard
	GPSPoints(ctx context.Context, activityID int64) ([]dashboard.GPSPoint, error)
	Calendar(ctx context.Context, f dashboard.Filter) ([]dashboard.CalendarWeek, error)
}

type Handler struct {
	dashboard      Dashboard
	relay          *llm.Relay
	prefs          *config.PreferenceStore
	metricsManager *metrics.Manager
}

func NewHandler(
	d Dashboard,
	relay *llm.Relay,
	prefs *config.PreferenceStore,
	metricsManager *metrics.Manager,
) *Handler {
	return &Handler{
		dashboard:      d,
		relay:          relay,
		prefs:          prefs,
		metricsManager: metricsManager,
	}
}

// NewRouter registers every route of h. gatherer backs /metrics.
func NewRouter(h *Handler, gatherer prometheus.Gatherer) *mux.Router {
	r := mux.NewRouter()

	r.Use(PanicRecovery(h.metricsManager))
	r.Use(LogRequest())
	r.Use(RequestMetrics(h.metricsManager))

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/activities", h.handleActivities).Methods("GET").Name("activities")
	api.HandleFunc("/activities/{id}", h.handleActivity).Methods("GET").Name("activity")
	api.HandleFunc("/activities/{id}/timeseries", h.handleTimeseries).Methods("GET").Name("timeseries")
	api.HandleFunc("/activities/{id}/laps", h.handleLaps).Methods("GET").Name("laps")
	api.HandleFunc("/activities/{id}/gps", h.handleGPS).Methods("GET").Name("gps")
	api.HandleFunc("/activities/{id}/zones", h.handleZones).Methods("GET").Name("zones")
	api.HandleFunc("/filters", h.handleFilters).Methods("GET").Name("filters")
	api.HandleFunc("/trends", h.handleTrends).Methods("GET").Name("trends")
	api.HandleFunc("/calendar", h.handleCalendar).Methods("GET").Name("calendar")

	api.HandleFunc("/chat", h.handleChat).Methods("POST").Name("chat")
	api.HandleFunc("/models", h.handleListModels).Methods("GET").Name("models-list")
	api.HandleFunc("/models", h.handlePullModel).Methods("POST").Name("models-pull")
	api.HandleFunc("/remote-model", h.handleRemoteModel).Methods("POST").Name("remote-model")

	api.HandleFunc("/preferences", h.handleGetPreferences).Methods("GET").Name("preferences-get")
	api.HandleFunc("/preferences", h.handlePutPreferences).Methods("PUT").Name("preferences-put")
	api.HandleFunc("/i18n", h.handleI18n).Methods("GET").Name("i18n")

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods("GET").Name("metrics")
	}

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "route not found"})
	})

	return r
}
