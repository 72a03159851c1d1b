package image

import (
	"context"
	"fmt"

	"portraitstudio/internal/infra"
)

// New selects and builds the generator named by cfg.ImageProvider.
func New(ctx context.Context, cfg *infra.Config, logger *infra.Logger) (Generator, error) {
	switch cfg.ImageProvider {
	case "", "openai":
		return NewOpenAIClient(OpenAIOptions{
			APIKey:         cfg.OpenAIAPIKey,
			BaseURL:        cfg.OpenAIBaseURL,
			Model:          cfg.OpenAIImageModel,
			Organization:   cfg.OpenAIOrg,
			Logger:         logger,
			RequestTimeout: cfg.GenerateTimeout,
		})
	case "gemini":
		return NewGeminiGenerator(ctx, GeminiOptions{
			APIKey: cfg.GeminiAPIKey,
			Model:  cfg.GeminiImageModel,
			Logger: logger,
		})
	default:
		return nil, fmt.Errorf("image: unsupported provider %q", cfg.ImageProvider)
	}
}
