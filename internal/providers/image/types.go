package image

import (
	"context"
	"strings"
)

// Request is the normalized payload passed to any image generator.
type Request struct {
	Prompt string
	Size   string
	N      int
}

// Datum is a single generated image location. URL may be an http(s) or a
// data: URL.
type Datum struct {
	URL string `json:"url"`
}

// Response mirrors the {data: [{url}]} shape returned by generators.
type Response struct {
	Data []Datum `json:"data"`
}

// First returns the first entry carrying a usable location.
func (r *Response) First() (Datum, bool) {
	if r == nil || len(r.Data) == 0 {
		return Datum{}, false
	}
	first := r.Data[0]
	if strings.TrimSpace(first.URL) == "" {
		return Datum{}, false
	}
	return first, true
}

// Generator is the contract implemented by all image providers.
type Generator interface {
	GenerateImage(ctx context.Context, req Request) (*Response, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, req Request) (*Response, error)

// GenerateImage calls f.
func (f GeneratorFunc) GenerateImage(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}

// AspectRatioForSize maps a WxH size token onto the closest supported aspect ratio.
func AspectRatioForSize(size string) string {
	switch strings.TrimSpace(strings.ToLower(size)) {
	case "1792x1024", "1664x928":
		return "16:9"
	case "1024x1792", "928x1664":
		return "9:16"
	case "1472x1104":
		return "4:3"
	case "1104x1472":
		return "3:4"
	default:
		return "1:1"
	}
}
