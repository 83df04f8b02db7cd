package api

import (
	"net/http"

	"github.com/joshdurbin/stryd-dashboard/internal/i18n"
	"github.com/joshdurbin/stryd-dashboard/internal/logging"
)

func (h *Handler) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.prefs.Get())
}

// handlePutPreferences merges the body over the current preferences, so a
// client may send only the fields it changes.
func (h *Handler) handlePutPreferences(w http.ResponseWriter, r *http.Request) {
	prefs := h.prefs.Get()
	if err := decodeBody(w, r, &prefs); err != nil {
		h.writeError(w, r, "save preferences", err, "")
		return
	}

	if err := h.prefs.Update(prefs); err != nil {
		h.writeError(w, r, "save preferences", err, "")
		return
	}

	logging.Info("preferences updated", "language", prefs.Language, "model", prefs.AIModel)
	writeJSON(w, http.StatusOK, prefs)
}

func (h *Handler) handleI18n(w http.ResponseWriter, r *http.Request) {
	lang := h.lang(r)
	if requested := r.URL.Query().Get("lang"); i18n.Supported(requested) {
		lang = i18n.Lang(requested)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"lang":   lang,
		"labels": i18n.Table(lang),
	})
}
