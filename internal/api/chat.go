package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/joshdurbin/stryd-dashboard/internal/llm"
	"github.com/joshdurbin/stryd-dashboard/internal/server"
)

type chatRequest struct {
	Messages []llm.Message `json:"messages"`
	Model    string        `json:"model"`
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.writeError(w, r, "chat", err, "")
		return
	}

	prefs := h.prefs.Get()
	start := time.Now()
	reply, err := h.relay.Chat(r.Context(), prefs, req.Model, req.Messages)

	outcome := "ok"
	if err != nil {
		outcome = strings.ToLower(string(server.Classify("chat", err).Code))
	}
	if h.metricsManager != nil {
		h.metricsManager.CounterChatRequests.WithLabelValues(reply.Model, outcome).Inc()
		h.metricsManager.HistChatDuration.Observe(time.Since(start).Seconds())
	}

	if err != nil {
		h.writeError(w, r, "chat", err, reply.Model)
		return
	}

	writeJSON(w, http.StatusOK, reply)
}

// ollamaURL is the Ollama server model management talks to: the remote one
// when the preferences select a remote Ollama, the local one otherwise.
func (h *Handler) ollamaURL() string {
	target, _ := h.relay.TargetFor(h.prefs.Get())
	if target.Backend == llm.Ollama {
		return target.BaseURL
	}
	return h.relay.LocalURL()
}

func (h *Handler) handleListModels(w http.ResponseWriter, r *http.Request) {
	models, err := h.relay.Client().InstalledModels(r.Context(), h.ollamaURL())
	if err != nil {
		h.writeError(w, r, "list models", err, "")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"models": models})
}

type pullRequest struct {
	Model string `json:"model"`
}

func (h *Handler) handlePullModel(w http.ResponseWriter, r *http.Request) {
	var req pullRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.writeError(w, r, "pull model", err, "")
		return
	}
	if req.Model == "" {
		h.writeError(w, r, "pull model", server.NewInvalidInputError("model is required"), "")
		return
	}

	full, err := h.relay.Client().PullModel(r.Context(), h.ollamaURL(), req.Model)
	if err != nil {
		h.writeError(w, r, "pull model", err, llm.ResolveModel(req.Model))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"model":   full,
	})
}

type remoteModelRequest struct {
	URL        string `json:"url"`
	ServerType string `json:"serverType"`
}

func (h *Handler) handleRemoteModel(w http.ResponseWriter, r *http.Request) {
	var req remoteModelRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.writeError(w, r, "detect remote model", err, "")
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		h.writeError(w, r, "detect remote model", server.NewInvalidInputError("url is required"), "")
		return
	}

	backend := llm.Ollama
	if req.ServerType == string(llm.LMStudio) {
		backend = llm.LMStudio
	}

	model, err := h.relay.Client().DetectRemoteModel(r.Context(), req.URL, backend)
	if err != nil {
		h.writeError(w, r, "detect remote model", err, "")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"model": model})
}
