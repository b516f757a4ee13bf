package summary

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// DefaultModel is the Gemini model used for summarization.
const DefaultModel = "gemini-2.5-flash"

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

const summaryPrompt = "Summarize the following email for key action items and main topic. " +
	"Respond only with a concise, easy-to-read paragraph. Email content: \n\n%s"

const repliesPrompt = "Based on the following email, generate exactly 3 short, helpful, and professional " +
	"reply options (max 10 words each). " +
	"Return the response ONLY as a JSON array of strings. " +
	"Example: [\"Sounds good!\", \"I'll check and let you know.\", \"Can we reschedule?\"] " +
	"Email content: \n\n%s"

// Gemini implements Summarizer using the Gemini generateContent REST API.
type Gemini struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// GeminiOption configures the Gemini client.
type GeminiOption func(*Gemini)

// WithModel overrides the model name.
func WithModel(model string) GeminiOption {
	return func(g *Gemini) {
		if model != "" {
			g.model = model
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) GeminiOption {
	return func(g *Gemini) {
		if c != nil {
			g.client = c
		}
	}
}

// WithBaseURL overrides the API endpoint, for testing.
func WithBaseURL(url string) GeminiOption {
	return func(g *Gemini) {
		if url != "" {
			g.baseURL = strings.TrimSuffix(url, "/")
		}
	}
}

// WithGeminiLogger sets a custom logger.
func WithGeminiLogger(l *slog.Logger) GeminiOption {
	return func(g *Gemini) {
		if l != nil {
			g.logger = l
		}
	}
}

// NewGemini creates a Gemini-backed summarizer.
func NewGemini(apiKey string, opts ...GeminiOption) *Gemini {
	g := &Gemini{
		apiKey:  apiKey,
		model:   DefaultModel,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Request/response shapes for the generateContent endpoint.
type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// generate calls the model with a single text prompt and returns the first
// candidate's text.
func (g *Gemini) generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, g.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call model: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("model returned status %d", resp.StatusCode)
	}

	var gr generateResponse
	if err := json.Unmarshal(data, &gr); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return "", nil
	}

	return strings.TrimSpace(gr.Candidates[0].Content.Parts[0].Text), nil
}

// Summarize returns a concise paragraph for the mail content.
func (g *Gemini) Summarize(ctx context.Context, mailContent string) (string, error) {
	text, err := g.generate(ctx, fmt.Sprintf(summaryPrompt, mailContent))
	if err != nil {
		g.logger.Error("gemini summarize failed", "error", err)
		return "", err
	}
	if text == "" {
		return EmptySummary, nil
	}
	return text, nil
}

// SmartReplies returns three short reply options for the mail content.
func (g *Gemini) SmartReplies(ctx context.Context, mailContent string) ([]string, error) {
	text, err := g.generate(ctx, fmt.Sprintf(repliesPrompt, mailContent))
	if err != nil {
		g.logger.Error("gemini smart replies failed", "error", err)
		return nil, err
	}

	// The model occasionally wraps its answer in a fenced code block.
	clean := strings.TrimSpace(strings.NewReplacer("```json", "", "```", "").Replace(text))

	var replies []string
	if err := json.Unmarshal([]byte(clean), &replies); err != nil {
		return nil, fmt.Errorf("decode replies: %w", err)
	}
	if len(replies) == 0 {
		return nil, fmt.Errorf("model returned no replies")
	}

	return replies, nil
}
