package portrait

import (
	"fmt"

	"portraitstudio/internal/domain"
	"portraitstudio/internal/providers/image"
)

const promptTemplate = "A beautiful Japanese woman, 30 years old, %s, %s. She is wearing %s and white opaque pantyhose with flat mary jane shoes. %s portrait, peaceful and playful setting, soft lighting, high quality, detailed, professional photography"

// BuildPrompt interpolates the selection into the fixed portrait sentence.
// Values are inserted verbatim.
func BuildPrompt(s domain.Selection) string {
	return fmt.Sprintf(promptTemplate, s.Expression, s.Pose, s.Clothing, s.Style)
}

// BuildRequest derives the generation request for s.
func BuildRequest(s domain.Selection) image.Request {
	return image.Request{
		Prompt: BuildPrompt(s),
		Size:   domain.GenerationSize,
		N:      domain.GenerationCount,
	}
}
