package api

import (
	"encoding/json"
	"net/http"

	"github.com/joshdurbin/stryd-dashboard/internal/i18n"
	"github.com/joshdurbin/stryd-dashboard/internal/logging"
	"github.com/joshdurbin/stryd-dashboard/internal/server"
)

// maxBodyBytes bounds request bodies; chat histories are the largest.
const maxBodyBytes = 1 << 20

// errorResponse is the body of every failed request.
type errorResponse struct {
	Code          server.ErrorCode `json:"code"`
	Error         string           `json:"error"`
	Details       string           `json:"details,omitempty"`
	Message       string           `json:"message"`
	LLMNotRunning bool             `json:"llmNotRunning,omitempty"`
	NeedsPull     bool             `json:"needsPull,omitempty"`
	Model         string           `json:"model,omitempty"`
}

var messageKeys = map[server.ErrorCode]i18n.Key{
	server.ErrUpstreamUnreachable: i18n.ErrorLLMNotRunning,
	server.ErrModelNotFound:       i18n.ErrorNeedsPull,
	server.ErrNotFound:            i18n.ErrorNotFound,
	server.ErrDatabaseError:       i18n.ErrorStorage,
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to write response", "error", err)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return server.NewInvalidInputErrorWithDetails("malformed request body", err.Error())
	}
	return nil
}

// lang picks the response language from the saved preferences and the
// Accept-Language header.
func (h *Handler) lang(r *http.Request) i18n.Lang {
	preferred := ""
	if h.prefs != nil {
		preferred = h.prefs.Get().Language
	}
	return i18n.Negotiate(preferred, r.Header.Get("Accept-Language"))
}

// writeError classifies err and writes it with its status. model is echoed
// back when the model must be pulled.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, operation string, err error, model string) {
	te := server.Classify(operation, err)

	resp := errorResponse{
		Code:    te.Code,
		Error:   te.Message,
		Details: te.Details,
		Message: te.Message,
	}
	if key, ok := messageKeys[te.Code]; ok {
		resp.Message = i18n.Translate(h.lang(r), key)
	}

	switch te.Code {
	case server.ErrUpstreamUnreachable:
		resp.LLMNotRunning = true
	case server.ErrModelNotFound:
		resp.NeedsPull = true
		resp.Model = model
	case server.ErrDatabaseError:
		if h.metricsManager != nil {
			h.metricsManager.CounterStorageErrors.Inc()
		}
	}

	status := te.HTTPStatus()
	if status >= http.StatusInternalServerError {
		logging.Error("request failed",
			"request_id", RequestID(r.Context()),
			"operation", operation,
			"error", err)
	} else {
		logging.Debug("request rejected",
			"request_id", RequestID(r.Context()),
			"operation", operation,
			"error", err)
	}

	writeJSON(w, status, resp)
}
