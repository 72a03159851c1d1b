package domain

// Phase is the generation lifecycle of a studio.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseGenerating Phase = "generating"
)

// Result references the most recent successfully generated image.
type Result struct {
	URL string `json:"url"`
}

// Outcome reports how a generation attempt settled.
type Outcome string

const (
	OutcomeSucceeded       Outcome = "succeeded"
	OutcomeEmpty           Outcome = "empty"
	OutcomeFailed          Outcome = "failed"
	OutcomeUnauthenticated Outcome = "unauthenticated"
	OutcomeBusy            Outcome = "busy"
)

const (
	// GenerationSize is the image dimension requested from the generator.
	GenerationSize = "1024x1024"
	// GenerationCount is the number of images requested per generation.
	GenerationCount = 1
)
