package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	DefaultModel   = "gemini-1.5-flash"
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1"
)

// Sentinel reply strings returned when the API answers successfully but the
// response carries no usable text. These are replies, not errors.
const (
	NoResponseSentinel    = "No response received from API"
	EmptyResponseSentinel = "Empty response received"
)

// ErrMissingAPIKey is returned when a request is attempted without a key.
var ErrMissingAPIKey = errors.New("API key required")

// Part is one element of a request content block: either text or an inline
// binary payload.
type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inline_data,omitempty"`
}

// InlineData carries a base64-encoded payload and its media type.
type InlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type Content struct {
	Parts []Part `json:"parts"`
}

// Request represents the generateContent request payload.
type Request struct {
	Contents []Content `json:"contents"`
}

// Response represents the generateContent response payload. Only the reply
// text path is decoded.
type Response struct {
	Candidates []Candidate `json:"candidates"`
}

type Candidate struct {
	Content ResponseContent `json:"content"`
}

type ResponseContent struct {
	Parts []ResponsePart `json:"parts"`
}

type ResponsePart struct {
	Text string `json:"text"`
}

// APIError is returned when the API answers with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error: %d", e.StatusCode)
}

// Client is a generateContent API client. The API key is passed per call
// because it is owned by the conversation manager and can change at
// runtime.
type Client struct {
	httpClient *http.Client
	baseURL    string
	model      string
}

type ClientOption func(*Client)

func WithModel(model string) ClientOption {
	return func(c *Client) {
		c.model = model
	}
}

func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient initializes and returns a new API client.
func NewClient(options ...ClientOption) *Client {
	ret := &Client{
		httpClient: &http.Client{},
		baseURL:    DefaultBaseURL,
		model:      DefaultModel,
	}

	for _, option := range options {
		option(ret)
	}

	return ret
}

// GenerateContent sends a text-only prompt and returns the reply text.
func (c *Client) GenerateContent(ctx context.Context, apiKey string, prompt string) (string, error) {
	return c.generate(ctx, apiKey, Request{
		Contents: []Content{
			{Parts: []Part{{Text: prompt}}},
		},
	})
}

// GenerateContentWithFile sends a prompt together with a base64-encoded
// payload and returns the reply text.
func (c *Client) GenerateContentWithFile(ctx context.Context, apiKey string, prompt string, mimeType string, base64Data string) (string, error) {
	return c.generate(ctx, apiKey, Request{
		Contents: []Content{
			{Parts: []Part{
				{Text: prompt},
				{InlineData: &InlineData{
					MimeType: mimeType,
					Data:     base64Data,
				}},
			}},
		},
	})
}

func (c *Client) generate(ctx context.Context, apiKey string, request Request) (string, error) {
	if apiKey == "" {
		return "", ErrMissingAPIKey
	}

	body, err := json.Marshal(request)
	if err != nil {
		return "", errors.Wrap(err, "failed to encode request")
	}

	requestURL := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		c.baseURL, c.model, url.QueryEscape(apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, requestURL, bytes.NewBuffer(body))
	if err != nil {
		return "", errors.Wrap(err, "failed to build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "request failed")
	}
	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, "failed to read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Debug().
			Int("status", resp.StatusCode).
			Str("model", c.model).
			Msg("generateContent returned an error status")
		return "", &APIError{
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}
	}

	var response Response
	if err := json.Unmarshal(respBody, &response); err != nil {
		return "", errors.Wrap(err, "failed to decode response")
	}

	if len(response.Candidates) == 0 || len(response.Candidates[0].Content.Parts) == 0 {
		return NoResponseSentinel, nil
	}

	text := response.Candidates[0].Content.Parts[0].Text
	if text == "" {
		return EmptyResponseSentinel, nil
	}

	return text, nil
}
