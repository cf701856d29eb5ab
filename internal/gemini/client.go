// Package gemini provides the concrete analysis models backed by the
// Gemini API: a vision detector and a reasoning stage, plus an offline
// heuristic detector used as the vision fallback. All network access and
// prompt construction lives here, behind the capability contract.
package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"github.com/askiada/go-analysis/internal/config"
)

type client struct {
	http    *http.Client
	baseURL string
	cfg     config.GeminiConfig
}

// Option configures a model's transport, mainly for tests.
type Option func(*client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *client) {
		c.http = httpClient
	}
}

// WithBaseURL replaces the API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *client) {
		c.baseURL = baseURL
	}
}

func newClient(cfg config.GeminiConfig, opts ...Option) *client {
	cli := &client{
		http:    &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.BaseURL,
		cfg:     cfg,
	}
	for _, opt := range opts {
		opt(cli)
	}

	return cli
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// generate performs one generateContent call and returns the concatenated
// text of the first candidate.
func (c *client) generate(ctx context.Context, modelName string, parts []part) (string, error) {
	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: parts}},
	})
	if err != nil {
		return "", errors.Wrap(err, "unable to marshal request")
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, modelName, c.cfg.ResolveAPIKey())
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "unable to build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "unable to call gemini")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))

		return "", errors.Errorf("gemini returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var decoded generateResponse
	err = json.NewDecoder(resp.Body).Decode(&decoded)
	if err != nil {
		return "", errors.Wrap(err, "unable to decode response")
	}
	if len(decoded.Candidates) == 0 {
		return "", errors.New("gemini returned no candidates")
	}

	var texts []string
	for _, prt := range decoded.Candidates[0].Content.Parts {
		if prt.Text != "" {
			texts = append(texts, prt.Text)
		}
	}

	return strings.Join(texts, "\n"), nil
}

// healthy probes the models listing endpoint. Ordinary unavailability is
// reported as false without an error.
func (c *client) healthy(ctx context.Context) bool {
	url := fmt.Sprintf("%s/v1beta/models?key=%s", c.baseURL, c.cfg.ResolveAPIKey())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

// inputParts converts the opaque input artifact into request parts. Raw
// bytes are treated as an image payload, strings as text.
func inputParts(input any) []part {
	switch in := input.(type) {
	case []byte:
		return []part{{InlineData: &inlineData{
			MimeType: "image/jpeg",
			Data:     base64.StdEncoding.EncodeToString(in),
		}}}
	case string:
		return []part{{Text: in}}
	default:
		return []part{{Text: fmt.Sprintf("%v", in)}}
	}
}
