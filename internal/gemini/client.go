// Package gemini implements remote.Inference against the Gemini
// generateContent REST API. Calls are single-attempt; the pipeline's
// retry policy decides whether to call again.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"call-qa-go/internal/logger"
	"call-qa-go/internal/remote"
	"call-qa-go/internal/types"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com"

type Client struct {
	apiKey          string
	baseURL         string
	transcribeModel string
	analysisModel   string
	prompt          string
	httpClient      *http.Client
	log             *logger.Logger
}

// Options configures a Client. Zero values fall back to the public API
// endpoint, the default models and the built-in rubric prompt.
type Options struct {
	APIKey          string
	BaseURL         string
	TranscribeModel string
	AnalysisModel   string
	Prompt          string
	Timeout         time.Duration
	Log             *logger.Logger
}

func New(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.TranscribeModel == "" {
		opts.TranscribeModel = "gemini-2.0-flash"
	}
	if opts.AnalysisModel == "" {
		opts.AnalysisModel = "gemini-1.5-flash"
	}
	if opts.Prompt == "" {
		opts.Prompt = QAPromptTemplate
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 120 * time.Second
	}
	if opts.Log == nil {
		opts.Log = logger.Quiet()
	}
	return &Client{
		apiKey:          opts.APIKey,
		baseURL:         strings.TrimRight(opts.BaseURL, "/"),
		transcribeModel: opts.TranscribeModel,
		analysisModel:   opts.AnalysisModel,
		prompt:          opts.Prompt,
		httpClient:      &http.Client{Timeout: opts.Timeout},
		log:             opts.Log.WithModule("gemini"),
	}
}

// --- generateContent wire types ---

type contentPart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     []byte `json:"data"` // base64 on the wire
}

type content struct {
	Parts []contentPart `json:"parts"`
}

type generationConfig struct {
	ResponseMimeType string `json:"responseMimeType,omitempty"`
}

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Transcribe uploads the audio inline and returns the verbatim
// transcript text.
func (c *Client) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	const op = "transcribe"
	req := generateRequest{
		Contents: []content{{Parts: []contentPart{
			{Text: "Please provide only the verbatim transcription of this call, without timestamps or metadata."},
			{InlineData: &inlineData{MimeType: mimeType, Data: audio}},
		}}},
	}
	text, err := c.generate(ctx, op, c.transcribeModel, req)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", remote.Permanent(op, errors.New("model returned empty transcript"))
	}
	return text, nil
}

// Analyze evaluates the transcript against the rubric prompt and parses
// the strict-JSON response into a QAResult.
func (c *Client) Analyze(ctx context.Context, transcript string) (types.QAResult, error) {
	const op = "analyze"
	prompt := strings.ReplaceAll(c.prompt, "{transcript}", transcript)
	req := generateRequest{
		Contents:         []content{{Parts: []contentPart{{Text: prompt}}}},
		GenerationConfig: &generationConfig{ResponseMimeType: "application/json"},
	}
	text, err := c.generate(ctx, op, c.analysisModel, req)
	if err != nil {
		return types.QAResult{}, err
	}
	if strings.TrimSpace(text) == "" {
		return types.QAResult{}, remote.Permanent(op, errors.New("no response text from analysis model"))
	}
	return ParseQAResponse(text)
}

// generate performs one generateContent call and returns the first
// candidate's text.
func (c *Client) generate(ctx context.Context, op, model string, body generateRequest) (string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", remote.Permanent(op, fmt.Errorf("encode request: %w", err))
	}

	c.log.WithField("operation", op).WithField("model", model).Debug("calling generateContent")

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", remote.Permanent(op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", remote.Transient(op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", remote.Transient(op, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return "", remote.Transient(op, fmt.Errorf("status %d: %s", resp.StatusCode, truncate(raw, 300)))
	}
	if resp.StatusCode != http.StatusOK {
		return "", remote.Permanent(op, fmt.Errorf("status %d: %s", resp.StatusCode, truncate(raw, 300)))
	}

	var out generateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", remote.Permanent(op, fmt.Errorf("decode response: %w body=%s", err, truncate(raw, 300)))
	}
	if out.Error != nil {
		return "", remote.Permanent(op, fmt.Errorf("api error %d: %s", out.Error.Code, out.Error.Message))
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", remote.Permanent(op, errors.New("no candidates in response"))
	}

	var sb strings.Builder
	for _, p := range out.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String(), nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
