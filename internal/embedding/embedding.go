// Package embedding provides the optional embedding collaborator used to
// vectorize verified dictionary entries for semantic search. It is
// intentionally small and engineered for safe use from the core services:
//
//   - No logging in the library (callers decide how/what to log)
//   - Clear, documented types and functional options (Option pattern)
//   - Never called inside a core transaction; callers invoke it best-effort
//     after the verify transition commits
//   - A Noop provider so the core never needs a nil check branch per call
//
// The HTTP provider speaks the OpenAI-compatible /v1/embeddings wire format,
// which most hosted and self-hosted embedding servers accept.
package embedding

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"
)

// Provider computes an embedding vector for a piece of text. Implementations
// must be safe for concurrent use.
type Provider interface {
	// Available reports whether the provider is configured and usable.
	Available() bool

	// Embed returns the embedding for text. It must respect ctx cancellation.
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ErrUnavailable is returned by providers that are not configured.
var ErrUnavailable = errors.New("embedding provider unavailable")

// ----------------------------------------------------------------------------
// Options

type Option func(*config)

type config struct {
	model   string
	timeout time.Duration
	client  *http.Client
}

func defaultConfig() config {
	return config{
		model:   "text-embedding-3-small",
		timeout: 10 * time.Second,
	}
}

// WithModel overrides the embedding model name sent to the server.
func WithModel(m string) Option {
	return func(c *config) {
		if m != "" {
			c.model = m
		}
	}
}

// WithTimeout caps each embedding request.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHTTPClient swaps the underlying HTTP client (tests, custom transports).
func WithHTTPClient(h *http.Client) Option {
	return func(c *config) {
		if h != nil {
			c.client = h
		}
	}
}

// ----------------------------------------------------------------------------
// HTTP provider

// Client calls an OpenAI-compatible embeddings endpoint.
type Client struct {
	endpoint string
	apiKey   string
	cfg      config
	http     *http.Client
}

// NewClient builds an HTTP embedding provider. An empty endpoint yields a
// provider that reports unavailable.
func NewClient(endpoint, apiKey string, opts ...Option) *Client {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	h := cfg.client
	if h == nil {
		h = &http.Client{Timeout: cfg.timeout}
	}
	return &Client{endpoint: endpoint, apiKey: apiKey, cfg: cfg, http: h}
}

// Available reports whether the client has an endpoint to talk to.
func (c *Client) Available() bool { return c != nil && c.endpoint != "" }

type embedRequest struct {
	Input string `json:"input"`
	Model string `json:"model"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed requests one embedding vector for text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if !c.Available() {
		return nil, ErrUnavailable
	}

	body, err := json.Marshal(embedRequest{Input: text, Model: c.cfg.model})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("embedding server returned %d: %s", resp.StatusCode, string(b))
	}

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if len(out.Data) == 0 || len(out.Data[0].Embedding) == 0 {
		return nil, errors.New("embedding server returned no vectors")
	}
	return out.Data[0].Embedding, nil
}

// ----------------------------------------------------------------------------
// Noop provider

// Noop is a disabled provider; Available always reports false.
type Noop struct{}

// Available implements Provider.
func (Noop) Available() bool { return false }

// Embed implements Provider.
func (Noop) Embed(context.Context, string) ([]float32, error) { return nil, ErrUnavailable }

// ----------------------------------------------------------------------------
// Vector codec

// EncodeVector packs a float32 vector into a little-endian byte blob for
// storage in a BLOB column.
func EncodeVector(v []float32) []byte {
	out := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(f))
	}
	return out
}

// DecodeVector unpacks a blob written by EncodeVector.
func DecodeVector(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, errors.New("malformed vector blob")
	}
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out, nil
}
