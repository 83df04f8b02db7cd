package llm

import (
	"context"
	"time"

	"github.com/joshdurbin/stryd-dashboard/internal/config"
	"github.com/joshdurbin/stryd-dashboard/internal/dashboard"
	"github.com/joshdurbin/stryd-dashboard/internal/logging"
)

// SnapshotSource provides the training data placed in the system prompt.
type SnapshotSource interface {
	TrainingSnapshot(ctx context.Context, now time.Time) (*dashboard.Snapshot, error)
}

// Reply is the assistant's answer to a chat.
type Reply struct {
	Message string `json:"message"`
	Model   string `json:"model"`
}

// Relay prepends training context to a conversation and forwards it to the
// model server chosen by the user's preferences.
type Relay struct {
	client    *Client
	snapshots SnapshotSource
	localURL  string
	now       func() time.Time
}

// NewRelay creates a relay. localURL is the Ollama server used when the
// preferences select a local instance.
func NewRelay(client *Client, snapshots SnapshotSource, localURL string) *Relay {
	return &Relay{
		client:    client,
		snapshots: snapshots,
		localURL:  localURL,
		now:       time.Now,
	}
}

// Client returns the underlying model server client.
func (r *Relay) Client() *Client {
	return r.client
}

// LocalURL returns the local Ollama server address.
func (r *Relay) LocalURL() string {
	return r.localURL
}

// TargetFor returns the server and model name a chat should use.
func (r *Relay) TargetFor(prefs config.Preferences) (Target, string) {
	if prefs.AIInstanceType == "remote" && prefs.AIRemoteURL != "" {
		backend := Ollama
		if prefs.RemoteServerType == string(LMStudio) {
			backend = LMStudio
		}
		model := prefs.RemoteModelName
		if model == "" {
			model = ResolveModel(prefs.AIModel)
		}
		return Target{BaseURL: prefs.AIRemoteURL, Backend: backend}, model
	}
	return Target{BaseURL: r.localURL, Backend: Ollama}, ResolveModel(prefs.AIModel)
}

// Chat answers a conversation. model overrides the preferred model when set.
// A failure to read the training data downgrades the system prompt instead
// of failing the chat.
func (r *Relay) Chat(ctx context.Context, prefs config.Preferences, model string, messages []Message) (Reply, error) {
	if len(messages) == 0 {
		return Reply{}, ErrNoMessages
	}

	if model != "" {
		prefs.AIModel = model
	}
	target, modelName := r.TargetFor(prefs)

	system := FallbackSystemPrompt
	snap, err := r.snapshots.TrainingSnapshot(ctx, r.now())
	if err != nil {
		logging.Warn("training data unavailable for chat context", "error", err)
	} else {
		system = SystemPrompt(snap)
	}

	withContext := make([]Message, 0, len(messages)+1)
	withContext = append(withContext, Message{Role: "system", Content: system})
	withContext = append(withContext, messages...)

	start := time.Now()
	text, err := r.client.Chat(ctx, target, modelName, withContext)
	if err != nil {
		logging.Warn("chat failed", "model", modelName, "backend", target.Backend, "error", err)
		return Reply{Model: modelName}, err
	}

	logging.Info("chat answered",
		"model", modelName,
		"backend", target.Backend,
		"duration", time.Since(start).Round(time.Millisecond).String())
	return Reply{Message: text, Model: modelName}, nil
}
