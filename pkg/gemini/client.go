// Package gemini wraps the Google Generative AI API as the optional label
// analysis collaborator. Its answers are advisory: the pipeline applies them
// as fill-only overrides and treats every failure as a warning.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	"github.com/sealcheck/lmscan/internal/resilience"
)

// ModelCandidates are tried in order until one accepts the request. Access
// to specific model versions varies per API key.
var ModelCandidates = []string{
	"gemini-1.5-flash",
	"gemini-1.5-pro",
	"gemini-1.0-pro",
	"gemini-pro",
}

// Analysis is the structured verdict extracted from a model response.
type Analysis struct {
	// Fields maps taxonomy field keys to values the model read off the
	// label. Empty and "null" values are dropped during parsing.
	Fields map[string]string `json:"recommended_fields"`
	// Level is the model's own compliance-level label, kept for display
	// next to the computed level, never in place of it.
	Level string   `json:"compliance_level"`
	Notes []string `json:"notes,omitempty"`
}

// Analyzer is the collaborator surface the pipeline depends on.
type Analyzer interface {
	Analyze(ctx context.Context, text string) (*Analysis, error)
}

// Client is the live Gemini-backed Analyzer.
type Client struct {
	genai   *genai.Client
	models  []string
	limiter *rate.Limiter
	retry   resilience.RetryConfig
	log     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithModels replaces the model candidate list.
func WithModels(models ...string) Option {
	return func(c *Client) { c.models = models }
}

// WithRateLimit caps requests per second.
func WithRateLimit(rps float64) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(rps), 1) }
}

// WithRetry replaces the per-model retry policy.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *Client) { c.retry = cfg }
}

// NewClient dials the Generative AI API with the given key.
func NewClient(ctx context.Context, apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, eris.New("gemini: api key is empty")
	}
	gc, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, eris.Wrap(err, "gemini: new client")
	}
	c := &Client{
		genai:   gc,
		models:  ModelCandidates,
		limiter: rate.NewLimiter(rate.Limit(1), 1),
		retry:   resilience.DefaultRetryConfig(),
		log:     zap.L().Named("gemini"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Close releases the underlying API client.
func (c *Client) Close() error {
	return c.genai.Close()
}

// Analyze sends the label text to the first available model candidate and
// parses its JSON verdict.
func (c *Client) Analyze(ctx context.Context, text string) (*Analysis, error) {
	if strings.TrimSpace(text) == "" {
		return nil, eris.New("gemini: empty label text")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "gemini: rate limit wait")
	}

	prompt := buildPrompt(text)
	var lastErr error
	for _, name := range c.models {
		raw, err := c.generate(ctx, name, prompt)
		if err != nil {
			c.log.Debug("model candidate failed", zap.String("model", name), zap.Error(err))
			lastErr = err
			continue
		}
		analysis, err := parseAnalysis(raw)
		if err != nil {
			c.log.Debug("unparseable model response", zap.String("model", name), zap.Error(err))
			lastErr = err
			continue
		}
		return analysis, nil
	}
	return nil, eris.Wrap(lastErr, "gemini: all model candidates failed")
}

func (c *Client) generate(ctx context.Context, model, prompt string) (string, error) {
	resp, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) (*genai.GenerateContentResponse, error) {
		return c.genai.GenerativeModel(model).GenerateContent(ctx, genai.Text(prompt))
	})
	if err != nil {
		return "", eris.Wrapf(err, "gemini: generate with %s", model)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", eris.Errorf("gemini: %s returned no candidates", model)
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	if b.Len() == 0 {
		return "", eris.Errorf("gemini: %s returned no text parts", model)
	}
	return b.String(), nil
}

func buildPrompt(text string) string {
	return fmt.Sprintf(`You are an expert in Indian Legal Metrology Rules (2011) labeling.
Read this raw product label text and extract the declared fields.

LABEL TEXT:
%q

Respond with ONLY a JSON object of this exact shape:
{
  "recommended_fields": {
    "mrp": "value or null",
    "quantity": "value or null",
    "manufacturer": "value or null",
    "origin": "value or null",
    "support": "value or null",
    "dates": "value or null",
    "batch": "value or null",
    "license": "value or null",
    "barcode": "value or null"
  },
  "compliance_level": "excellent|good|fair|poor",
  "notes": ["short observations"]
}

Look for MRP, NET WEIGHT/QUANTITY, MARKETED BY/MANUFACTURED BY, country of
origin, consumer care contacts, mfg/expiry dates, batch numbers, FSSAI
license numbers (usually 14 digits) and barcodes. Use null when a field is
not on the label.`, text)
}
