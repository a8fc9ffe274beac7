package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const (
	// GeminiAPIEndpoint is the Gemini REST API base.
	GeminiAPIEndpoint = "https://generativelanguage.googleapis.com/v1beta"
	// GeminiModel is the default model.
	GeminiModel = "gemini-3-flash-preview"
	// DefaultTimeout bounds a single HTTP exchange.
	DefaultTimeout = 120 * time.Second
)

// searchTools enables the Google Search grounding tool.
const searchTools = `[{"googleSearch":{}}]`

// Client represents a Gemini API client.
type Client struct {
	apiKey     string
	model      string
	httpClient *http.Client
	endpoint   string
	retryOnce  bool
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithEndpoint points the client at a different API base, e.g. a proxy.
func WithEndpoint(endpoint string) (opt ClientOption) {
	opt = func(c *Client) {
		if endpoint != "" {
			c.endpoint = strings.TrimRight(endpoint, "/")
		}
	}
	return opt
}

// WithTimeout sets the HTTP timeout.
func WithTimeout(timeout time.Duration) (opt ClientOption) {
	opt = func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
	return opt
}

// WithRetryOnce retries a call once after a transport error, 429 or 5xx.
func WithRetryOnce(retry bool) (opt ClientOption) {
	opt = func(c *Client) {
		c.retryOnce = retry
	}
	return opt
}

// NewClient creates a new Gemini API client.
func NewClient(apiKey, model string, opts ...ClientOption) (client *Client) {
	if model == "" {
		model = GeminiModel
	}
	client = &Client{
		apiKey:   apiKey,
		model:    model,
		endpoint: GeminiAPIEndpoint,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// GenerateStructured sends a schema-constrained generateContent request.
func (c *Client) GenerateStructured(ctx context.Context, req StructuredRequest) (resp StructuredResponse, err error) {
	var reqBody []byte
	reqBody, err = c.buildRequestBody(req)
	if err != nil {
		return resp, err
	}

	attempts := 1
	if c.retryOnce {
		attempts = 2
	}

	var respBody []byte
	for attempt := 1; attempt <= attempts; attempt++ {
		var retryable bool
		respBody, retryable, err = c.sendRequest(ctx, reqBody)
		if err == nil || !retryable || ctx.Err() != nil {
			break
		}
	}
	if err != nil {
		return resp, err
	}

	resp, err = parseResponse(respBody)
	return resp, err
}

// buildRequestBody marshals the request and attaches the search tool when asked for.
func (c *Client) buildRequestBody(req StructuredRequest) (body []byte, err error) {
	genReq := GenerateContentRequest{
		Contents: []Content{
			{
				Role:  "user",
				Parts: []Part{{Text: req.Prompt}},
			},
		},
		GenerationConfig: GenerationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   req.Schema,
		},
	}
	if req.SystemInstruction != "" {
		genReq.SystemInstruction = &Content{Parts: []Part{{Text: req.SystemInstruction}}}
	}

	body, err = json.Marshal(genReq)
	if err != nil {
		err = errors.Wrap(err, "failed to marshal request")
		return body, err
	}

	if req.Search {
		body, err = sjson.SetRawBytes(body, "tools", []byte(searchTools))
		if err != nil {
			err = errors.Wrap(err, "failed to attach search tool")
			return body, err
		}
	}

	return body, err
}

// sendRequest posts one request. retryable reports whether a second attempt could succeed.
func (c *Client) sendRequest(ctx context.Context, reqBody []byte) (respBody []byte, retryable bool, err error) {
	url := c.endpoint + "/models/" + c.model + ":generateContent"

	var httpReq *http.Request
	httpReq, err = http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		err = errors.Wrap(err, "failed to create HTTP request")
		return respBody, retryable, err
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Goog-Api-Key", c.apiKey)

	var resp *http.Response
	resp, err = c.httpClient.Do(httpReq)
	if err != nil {
		err = errors.Wrap(err, "HTTP request failed")
		retryable = true
		return respBody, retryable, err
	}
	defer resp.Body.Close()

	respBody, err = io.ReadAll(resp.Body)
	if err != nil {
		err = errors.Wrap(err, "failed to read response body")
		retryable = true
		return respBody, retryable, err
	}

	if resp.StatusCode != http.StatusOK {
		message := gjson.GetBytes(respBody, "error.message").String()
		if message == "" {
			message = string(respBody)
		}
		err = errors.Errorf("API request failed with status %d: %s", resp.StatusCode, message)
		retryable = resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError
		return respBody, retryable, err
	}

	return respBody, retryable, err
}

// parseResponse pulls the text parts and grounding chunks out of a generateContent response.
func parseResponse(body []byte) (resp StructuredResponse, err error) {
	if !gjson.ValidBytes(body) {
		err = errors.Errorf("failed to parse Gemini response: %s", string(body))
		return resp, err
	}

	parsed := gjson.ParseBytes(body)

	candidate := parsed.Get("candidates.0")
	if !candidate.Exists() {
		reason := parsed.Get("promptFeedback.blockReason").String()
		if reason != "" {
			err = errors.Errorf("no candidates in Gemini response (blocked: %s)", reason)
			return resp, err
		}
		err = errors.New("no candidates in Gemini response")
		return resp, err
	}

	var text strings.Builder
	candidate.Get("content.parts").ForEach(func(_, part gjson.Result) bool {
		if part.Get("thought").Bool() {
			return true
		}
		text.WriteString(part.Get("text").String())
		return true
	})

	// A candidate with no text is not an error here; callers decide what blank output means
	resp.Text = text.String()
	resp.FinishReason = candidate.Get("finishReason").String()

	candidate.Get("groundingMetadata.groundingChunks").ForEach(func(_, chunk gjson.Result) bool {
		web := chunk.Get("web")
		if !web.Exists() {
			return true
		}
		resp.Citations = append(resp.Citations, Citation{
			URI:   web.Get("uri").String(),
			Title: web.Get("title").String(),
		})
		return true
	})

	return resp, err
}

// stripMarkdownCodeFences removes a ```json (or bare ```) fence around a JSON payload.
func stripMarkdownCodeFences(text string) (cleaned string) {
	cleaned = strings.TrimSpace(text)

	if !strings.HasPrefix(cleaned, "```") {
		return cleaned
	}

	// Drop the opening fence line, language tag included
	newline := strings.IndexByte(cleaned, '\n')
	if newline == -1 {
		cleaned = strings.Trim(cleaned, "`")
		return cleaned
	}
	cleaned = cleaned[newline+1:]

	cleaned = strings.TrimRight(cleaned, " \r\n")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimRight(cleaned, " \r\n")

	return cleaned
}
