package image

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"portraitstudio/internal/infra"
)

const defaultGeminiModel = "gemini-2.5-flash-image"

type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiOptions configures the Gemini image generator.
type GeminiOptions struct {
	APIKey string
	Model  string
	Logger *infra.Logger
}

// GeminiGenerator renders portraits with Gemini image models. Inline image
// parts are returned as data: URLs so callers can treat them like any
// other location.
type GeminiGenerator struct {
	models contentGenerator
	model  string
	logger *infra.Logger
}

// NewGeminiGenerator creates a genai client for the Gemini API backend.
func NewGeminiGenerator(ctx context.Context, opts GeminiOptions) (*GeminiGenerator, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini: api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return newGeminiGenerator(client.Models, opts.Model, opts.Logger), nil
}

func newGeminiGenerator(models contentGenerator, model string, logger *infra.Logger) *GeminiGenerator {
	model = strings.TrimSpace(model)
	if model == "" {
		model = defaultGeminiModel
	}
	if logger == nil {
		l := infra.Logger(zerolog.New(io.Discard))
		logger = &l
	}
	return &GeminiGenerator{models: models, model: model, logger: logger}
}

// Model returns the configured model identifier.
func (g *GeminiGenerator) Model() string {
	return g.model
}

// GenerateImage asks the model for req.N images, one call each.
func (g *GeminiGenerator) GenerateImage(ctx context.Context, req Request) (*Response, error) {
	n := req.N
	if n <= 0 {
		n = 1
	}
	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE"},
		ImageConfig: &genai.ImageConfig{
			AspectRatio: AspectRatioForSize(req.Size),
		},
	}
	out := &Response{}
	for i := 0; i < n; i++ {
		content := &genai.Content{
			Role:  "user",
			Parts: []*genai.Part{genai.NewPartFromText(req.Prompt)},
		}
		result, err := g.models.GenerateContent(ctx, g.model, []*genai.Content{content}, config)
		if err != nil {
			return nil, fmt.Errorf("gemini: generate content: %w", err)
		}
		if url := firstInlineImage(result); url != "" {
			out.Data = append(out.Data, Datum{URL: url})
		}
	}
	g.logger.Debug().
		Str("model", g.model).
		Int("images", len(out.Data)).
		Msg("gemini: image generation completed")
	return out, nil
}

func firstInlineImage(result *genai.GenerateContentResponse) string {
	if result == nil {
		return ""
	}
	for _, candidate := range result.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}
			mime := strings.TrimSpace(part.InlineData.MIMEType)
			if mime == "" {
				mime = "image/png"
			}
			return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(part.InlineData.Data)
		}
	}
	return ""
}

var _ Generator = (*GeminiGenerator)(nil)
