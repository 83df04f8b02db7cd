package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func testClient() *Client {
	return NewClient(Options{
		ChatTimeout: 2 * time.Second,
		MaxRetries:  2,
		MinWait:     time.Millisecond,
		MaxWait:     5 * time.Millisecond,
	})
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient(Options{})

	if c.chatTimeout != defaultChatTimeout {
		t.Errorf("expected chat timeout %v, got %v", defaultChatTimeout, c.chatTimeout)
	}
	if c.httpClient.RetryMax != defaultMaxRetries {
		t.Errorf("expected %d retries, got %d", defaultMaxRetries, c.httpClient.RetryMax)
	}

	noRetry := NewClient(Options{MaxRetries: -1})
	if noRetry.httpClient.RetryMax != 0 {
		t.Errorf("expected retries disabled, got %d", noRetry.httpClient.RetryMax)
	}
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"localhost:11434", "http://localhost:11434"},
		{"http://10.0.0.2:1234/", "http://10.0.0.2:1234"},
		{" https://llm.example.com ", "https://llm.example.com"},
	}
	for _, tt := range tests {
		if got := NormalizeURL(tt.in); got != tt.want {
			t.Errorf("NormalizeURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestChatOllama(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("expected /api/chat, got %s", r.URL.Path)
		}
		var req ollamaChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if req.Stream {
			t.Error("expected stream=false")
		}
		if req.Model != "mistral:latest" {
			t.Errorf("expected model mistral:latest, got %s", req.Model)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":{"role":"assistant","content":"Run easy today."}}`))
	}))
	defer server.Close()

	got, err := testClient().Chat(context.Background(), Target{BaseURL: server.URL, Backend: Ollama}, "mistral:latest", []Message{
		{Role: "system", Content: "context"},
		{Role: "user", Content: "What should I do today?"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Run easy today." {
		t.Errorf("expected reply 'Run easy today.', got %q", got)
	}
}

func TestChatOllamaStringMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message":"plain text"}`))
	}))
	defer server.Close()

	got, err := testClient().Chat(context.Background(), Target{BaseURL: server.URL, Backend: Ollama}, "phi3:latest",
		[]Message{{Role: "user", Content: "hi"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "plain text" {
		t.Errorf("expected 'plain text', got %q", got)
	}
}

func TestChatLMStudio(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("expected /v1/chat/completions, got %s", r.URL.Path)
		}
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Bonjour"}}]}`))
	}))
	defer server.Close()

	got, err := testClient().Chat(context.Background(), Target{BaseURL: server.URL, Backend: LMStudio}, "local-model",
		[]Message{{Role: "user", Content: "salut"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Bonjour" {
		t.Errorf("expected 'Bonjour', got %q", got)
	}
}

func TestChatEmptyReply(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	got, err := testClient().Chat(context.Background(), Target{BaseURL: server.URL, Backend: LMStudio}, "m",
		[]Message{{Role: "user", Content: "hi"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != noResponse {
		t.Errorf("expected %q, got %q", noResponse, got)
	}
}

func TestChatNoMessages(t *testing.T) {
	_, err := testClient().Chat(context.Background(), Target{BaseURL: "http://127.0.0.1:1"}, "m", nil)
	if !errors.Is(err, ErrNoMessages) {
		t.Errorf("expected ErrNoMessages, got %v", err)
	}
}

func TestChatModelNotFound(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"404", http.StatusNotFound, `{"error":"model missing"}`},
		{"not found body", http.StatusBadRequest, `{"error":"model 'gemma2:latest' not found, try pulling it first"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := testClient().Chat(context.Background(), Target{BaseURL: server.URL, Backend: Ollama}, "gemma2:latest",
				[]Message{{Role: "user", Content: "hi"}})
			if !errors.Is(err, ErrModelNotFound) {
				t.Errorf("expected ErrModelNotFound, got %v", err)
			}
		})
	}
}

func TestChatUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := server.URL
	server.Close()

	_, err := testClient().Chat(context.Background(), Target{BaseURL: addr, Backend: Ollama}, "mistral:latest",
		[]Message{{Role: "user", Content: "hi"}})
	if !errors.Is(err, ErrUnreachable) {
		t.Errorf("expected ErrUnreachable, got %v", err)
	}
}

func TestChatRetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"message":{"role":"assistant","content":"ok"}}`))
	}))
	defer server.Close()

	got, err := testClient().Chat(context.Background(), Target{BaseURL: server.URL, Backend: Ollama}, "mistral:latest",
		[]Message{{Role: "user", Content: "hi"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ok" {
		t.Errorf("expected 'ok', got %q", got)
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Errorf("expected 2 calls, got %d", n)
	}
}

func TestChatServerErrorExhaustsRetries(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer server.Close()

	_, err := testClient().Chat(context.Background(), Target{BaseURL: server.URL, Backend: Ollama}, "mistral:latest",
		[]Message{{Role: "user", Content: "hi"}})

	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if apiErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", apiErr.StatusCode)
	}
	if apiErr.Body != "boom" {
		t.Errorf("expected body 'boom', got %q", apiErr.Body)
	}
	if n := atomic.LoadInt32(&calls); n != 3 {
		t.Errorf("expected 3 calls, got %d", n)
	}
}

func TestChatTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := NewClient(Options{ChatTimeout: 50 * time.Millisecond, MaxRetries: -1})
	_, err := client.Chat(context.Background(), Target{BaseURL: server.URL, Backend: Ollama}, "mistral:latest",
		[]Message{{Role: "user", Content: "hi"}})
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("expected ErrTimeout, got %v", err)
	}
}

func TestInstalledModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("expected /api/tags, got %s", r.URL.Path)
		}
		w.Write([]byte(`{"models":[{"name":"phi3:latest"},{"name":"mistral:latest"},{"name":"codellama:7b"}]}`))
	}))
	defer server.Close()

	got, err := testClient().InstalledModels(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Join(got, ",") != "mistral,phi3" {
		t.Errorf("expected [mistral phi3], got %v", got)
	}
}

func TestInstalledModelsNone(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"models":[]}`))
	}))
	defer server.Close()

	got, err := testClient().InstalledModels(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil list, got %#v", got)
	}
}

func TestPullModel(t *testing.T) {
	var pulled string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/pull" {
			t.Errorf("expected /api/pull, got %s", r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		pulled = body["name"]
		w.Write([]byte("{\"status\":\"pulling manifest\"}\n{\"status\":\"success\"}\n"))
	}))
	defer server.Close()

	full, err := testClient().PullModel(context.Background(), server.URL, "llama3.1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if full != "llama3.1:latest" || pulled != "llama3.1:latest" {
		t.Errorf("expected llama3.1:latest pulled, got %q (server saw %q)", full, pulled)
	}
}

func TestPullModelUnknown(t *testing.T) {
	_, err := testClient().PullModel(context.Background(), "http://127.0.0.1:1", "gpt-4")
	if !errors.Is(err, ErrUnknownModel) {
		t.Errorf("expected ErrUnknownModel, got %v", err)
	}
}

func TestDetectRemoteModel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/models":
			w.Write([]byte(`{"data":[{"id":"qwen2.5-7b-instruct"},{"id":"other"}]}`))
		case "/api/tags":
			w.Write([]byte(`{"models":[{"name":"gemma2:latest"}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := testClient()

	got, err := client.DetectRemoteModel(context.Background(), server.URL, LMStudio)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "qwen2.5-7b-instruct" {
		t.Errorf("expected qwen2.5-7b-instruct, got %q", got)
	}

	got, err = client.DetectRemoteModel(context.Background(), server.URL, Ollama)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "gemma2:latest" {
		t.Errorf("expected gemma2:latest, got %q", got)
	}
}

func TestDetectRemoteModelEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[]}`))
	}))
	defer server.Close()

	_, err := testClient().DetectRemoteModel(context.Background(), server.URL, LMStudio)
	if !errors.Is(err, ErrNoRemoteModel) {
		t.Errorf("expected ErrNoRemoteModel, got %v", err)
	}
}

func TestResolveModel(t *testing.T) {
	tests := map[string]string{
		"mistral":  "mistral:latest",
		"qwen2.5":  "qwen2.5:latest",
		"gpt-4":    DefaultModel,
		"":         DefaultModel,
		"llama3.1": "llama3.1:latest",
	}
	for in, want := range tests {
		if got := ResolveModel(in); got != want {
			t.Errorf("ResolveModel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatHeadersRedacts(t *testing.T) {
	h := http.Header{}
	h.Set("Authorization", "Bearer secret")
	h.Set("Content-Type", "application/json")

	got := formatHeaders(h)
	if strings.Contains(got, "secret") {
		t.Errorf("expected authorization redacted, got %s", got)
	}
	if got != "{Authorization: [REDACTED], Content-Type: application/json}" {
		t.Errorf("unexpected header format: %s", got)
	}
}
