// Package llm relays chat requests to a local or remote language model
// server (Ollama or LM Studio) and manages the models installed on it.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/joshdurbin/stryd-dashboard/internal/logging"
)

// Default retry settings
const (
	defaultMaxRetries  = 2
	defaultMinWait     = 500 * time.Millisecond
	defaultMaxWait     = 5 * time.Second
	defaultChatTimeout = 2 * time.Minute
)

// Backend is the kind of model server.
type Backend string

const (
	Ollama   Backend = "ollama"
	LMStudio Backend = "lmstudio"
)

var (
	// ErrUnreachable indicates the model server refused or never accepted the connection.
	ErrUnreachable = errors.New("language model server unreachable")
	// ErrTimeout indicates the model server did not answer within the chat timeout.
	ErrTimeout = errors.New("language model server timed out")
	// ErrModelNotFound indicates the requested model is not installed.
	ErrModelNotFound = errors.New("model not found")
	// ErrUnknownModel indicates a model name outside the supported set.
	ErrUnknownModel = errors.New("unknown model")
	// ErrNoMessages indicates an empty chat request.
	ErrNoMessages = errors.New("messages are required")
	// ErrNoRemoteModel indicates a reachable remote server with no model loaded.
	ErrNoRemoteModel = errors.New("no model loaded on remote server")
)

// Error is a non-success reply from the model server.
type Error struct {
	StatusCode int
	Body       string
}

func (e *Error) Error() string {
	return fmt.Sprintf("language model server returned %d: %s", e.StatusCode, e.Body)
}

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Target is the server a request goes to.
type Target struct {
	BaseURL string
	Backend Backend
}

// Options configure a Client. Zero values take the defaults.
type Options struct {
	ChatTimeout time.Duration
	MaxRetries  int
	MinWait     time.Duration
	MaxWait     time.Duration
}

// Client talks to Ollama and LM Studio servers with retry on server errors.
type Client struct {
	httpClient  *retryablehttp.Client
	chatTimeout time.Duration
}

// NewClient creates a model server client.
func NewClient(opts Options) *Client {
	if opts.ChatTimeout <= 0 {
		opts.ChatTimeout = defaultChatTimeout
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	} else if opts.MaxRetries == 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	if opts.MinWait <= 0 {
		opts.MinWait = defaultMinWait
	}
	if opts.MaxWait <= 0 {
		opts.MaxWait = defaultMaxWait
	}

	log := logging.Logger
	client := retryablehttp.NewClient()
	client.RetryMax = opts.MaxRetries
	client.RetryWaitMin = opts.MinWait
	client.RetryWaitMax = opts.MaxWait
	client.Logger = &logging.LeveledLogger{}
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler

	// Retry on 5xx only. A refused connection means the server is not running
	// and is reported immediately.
	client.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		if err != nil {
			return false, nil
		}
		if resp.StatusCode >= 500 {
			return true, nil
		}
		return false, nil
	}

	client.Backoff = func(min, max time.Duration, attemptNum int, resp *http.Response) time.Duration {
		wait := min * time.Duration(1<<uint(attemptNum))
		if wait > max {
			wait = max
		}
		log.Info().
			Dur("wait", wait).
			Int("attempt", attemptNum).
			Dur("max_wait", max).
			Msg("backing off before retry")
		return wait
	}

	client.RequestLogHook = func(logger retryablehttp.Logger, req *http.Request, retry int) {
		if retry > 0 {
			log.Info().
				Str("url", req.URL.Path).
				Int("attempt", retry+1).
				Msg("retrying request")
		}
		if logging.IsTraceEnabled() {
			log.Debug().
				Str("method", req.Method).
				Str("url", req.URL.String()).
				Str("headers", formatHeaders(req.Header)).
				Msg("request headers")
		}
	}

	client.ResponseLogHook = func(logger retryablehttp.Logger, resp *http.Response) {
		if logging.IsTraceEnabled() {
			log.Debug().
				Int("status", resp.StatusCode).
				Str("url", resp.Request.URL.Path).
				Str("headers", formatHeaders(resp.Header)).
				Msg("response headers")
		}
	}

	return &Client{
		httpClient:  client,
		chatTimeout: opts.ChatTimeout,
	}
}

// NormalizeURL adds an http scheme to a bare host:port and strips any
// trailing slash.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	return strings.TrimRight(raw, "/")
}

// classify maps transport failures onto the package's sentinel errors.
func classify(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	case errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, syscall.ECONNREFUSED):
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	return err
}

// do sends a JSON request and decodes a JSON reply into out. Non-2xx replies
// become *Error, or ErrModelNotFound for a 404 or a "not found" body.
func (c *Client) do(ctx context.Context, method, endpoint string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return classify(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if resp.StatusCode == http.StatusNotFound || strings.Contains(strings.ToLower(string(text)), "not found") {
			return fmt.Errorf("%w: %s", ErrModelNotFound, strings.TrimSpace(string(text)))
		}
		return &Error{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(text))}
	}

	if out == nil {
		_, err := io.Copy(io.Discard, resp.Body)
		return classify(ctx, err)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return classify(ctx, fmt.Errorf("decoding response: %w", err))
	}
	return nil
}

type ollamaChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

type ollamaChatResponse struct {
	Message json.RawMessage `json:"message"`
}

type openAIChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

const noResponse = "No response"

// Chat sends a full conversation and returns the assistant's reply. The call
// is bounded by the client's chat timeout.
func (c *Client) Chat(ctx context.Context, target Target, model string, messages []Message) (string, error) {
	if len(messages) == 0 {
		return "", ErrNoMessages
	}

	ctx, cancel := context.WithTimeout(ctx, c.chatTimeout)
	defer cancel()

	base := NormalizeURL(target.BaseURL)
	logging.Debug("chat request", "backend", target.Backend, "url", base, "model", model, "messages", len(messages))

	if target.Backend == LMStudio {
		var resp openAIChatResponse
		err := c.do(ctx, http.MethodPost, base+"/v1/chat/completions",
			openAIChatRequest{Model: model, Messages: messages}, &resp)
		if err != nil {
			return "", err
		}
		if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
			return noResponse, nil
		}
		return resp.Choices[0].Message.Content, nil
	}

	var resp ollamaChatResponse
	err := c.do(ctx, http.MethodPost, base+"/api/chat",
		ollamaChatRequest{Model: model, Messages: messages, Stream: false}, &resp)
	if err != nil {
		return "", err
	}
	return ollamaContent(resp.Message), nil
}

// ollamaContent accepts both {"message": "text"} and
// {"message": {"role": ..., "content": "text"}}.
func ollamaContent(raw json.RawMessage) string {
	if len(raw) == 0 {
		return noResponse
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var m Message
	if err := json.Unmarshal(raw, &m); err == nil && m.Content != "" {
		return m.Content
	}
	return noResponse
}

type ollamaTagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

func (c *Client) ollamaTags(ctx context.Context, base string) ([]string, error) {
	var resp ollamaTagsResponse
	if err := c.do(ctx, http.MethodGet, base+"/api/tags", nil, &resp); err != nil {
		if errors.Is(err, ErrModelNotFound) {
			return nil, fmt.Errorf("%w: %s has no model API", ErrUnreachable, base)
		}
		return nil, err
	}
	names := make([]string, 0, len(resp.Models))
	for _, m := range resp.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

// InstalledModels lists the supported models installed on an Ollama server,
// by their short names, sorted.
func (c *Client) InstalledModels(ctx context.Context, baseURL string) ([]string, error) {
	installed, err := c.ollamaTags(ctx, NormalizeURL(baseURL))
	if err != nil {
		return nil, err
	}

	available := []string{}
	for short, full := range ModelMap {
		for _, name := range installed {
			if strings.HasPrefix(name, full) {
				available = append(available, short)
				break
			}
		}
	}
	sort.Strings(available)
	return available, nil
}

// PullModel asks an Ollama server to download a supported model and waits
// until the download stream ends. It returns the full model name.
func (c *Client) PullModel(ctx context.Context, baseURL, name string) (string, error) {
	full, ok := ModelMap[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownModel, name)
	}

	logging.Info("pulling model", "model", full)
	start := time.Now()
	err := c.do(ctx, http.MethodPost, NormalizeURL(baseURL)+"/api/pull", map[string]string{"name": full}, nil)
	if err != nil {
		return "", err
	}
	logging.Info("model pulled", "model", full, "duration", time.Since(start).Round(time.Millisecond).String())
	return full, nil
}

type openAIModelsResponse struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

// DetectRemoteModel returns the model loaded on a remote server: the first
// model listed by LM Studio, or the first model installed on Ollama.
func (c *Client) DetectRemoteModel(ctx context.Context, address string, backend Backend) (string, error) {
	base := NormalizeURL(address)
	if _, err := url.Parse(base); err != nil {
		return "", fmt.Errorf("parsing remote url: %w", err)
	}

	if backend == LMStudio {
		var resp openAIModelsResponse
		if err := c.do(ctx, http.MethodGet, base+"/v1/models", nil, &resp); err != nil {
			return "", err
		}
		if len(resp.Data) == 0 {
			return "", fmt.Errorf("%w: %s", ErrNoRemoteModel, base)
		}
		return resp.Data[0].ID, nil
	}

	names, err := c.ollamaTags(ctx, base)
	if err != nil {
		return "", err
	}
	if len(names) == 0 {
		return "", fmt.Errorf("%w: %s", ErrNoRemoteModel, base)
	}
	return names[0], nil
}

// formatHeaders formats HTTP headers for logging, redacting sensitive values
func formatHeaders(headers http.Header) string {
	if len(headers) == 0 {
		return "{}"
	}

	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString("{")
	for i, k := range keys {
		if i > 0 {
			sb.WriteString(", ")
		}
		value := strings.Join(headers[k], ", ")
		switch strings.ToLower(k) {
		case "authorization", "cookie", "set-cookie":
			value = "[REDACTED]"
		}
		sb.WriteString(k)
		sb.WriteString(": ")
		sb.WriteString(value)
	}
	sb.WriteString("}")
	return sb.String()
}
