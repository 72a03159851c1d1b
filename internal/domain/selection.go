package domain

import (
	"fmt"
	"strings"
)

// Field identifies one of the four configurable portrait attributes.
type Field string

const (
	FieldClothing   Field = "clothing"
	FieldPose       Field = "pose"
	FieldExpression Field = "expression"
	FieldStyle      Field = "style"
)

// Fields lists the selection fields in display order.
var Fields = []Field{FieldClothing, FieldPose, FieldExpression, FieldStyle}

// ParseField maps free-form input onto a known field.
func ParseField(raw string) (Field, error) {
	switch Field(strings.ToLower(strings.TrimSpace(raw))) {
	case FieldClothing:
		return FieldClothing, nil
	case FieldPose:
		return FieldPose, nil
	case FieldExpression:
		return FieldExpression, nil
	case FieldStyle:
		return FieldStyle, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownField, raw)
	}
}

// Option is a selectable value together with its display label.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

var fieldOptions = map[Field][]Option{
	FieldClothing: {
		{Value: "white tank top and white miniskirt", Label: "White Tank Top & Miniskirt"},
		{Value: "casual summer dress", Label: "Casual Summer Dress"},
		{Value: "elegant blouse and skirt", Label: "Elegant Blouse & Skirt"},
		{Value: "cute sweater and pleated skirt", Label: "Cute Sweater & Pleated Skirt"},
		{Value: "traditional kimono", Label: "Traditional Kimono"},
		{Value: "modern school uniform", Label: "Modern School Uniform"},
	},
	FieldPose: {
		{Value: "sitting on ground playing with toys", Label: "Playing with Toys on Ground"},
		{Value: "sitting in a peaceful garden", Label: "Sitting in Peaceful Garden"},
		{Value: "reading a book under cherry blossoms", Label: "Reading Under Cherry Blossoms"},
		{Value: "having a picnic in the park", Label: "Having a Picnic"},
		{Value: "feeding birds by a pond", Label: "Feeding Birds by Pond"},
		{Value: "meditating in a zen garden", Label: "Meditating in Zen Garden"},
	},
	FieldExpression: {
		{Value: "calm and smiling", Label: "Calm & Smiling"},
		{Value: "peaceful and serene", Label: "Peaceful & Serene"},
		{Value: "joyful and playful", Label: "Joyful & Playful"},
		{Value: "gentle and thoughtful", Label: "Gentle & Thoughtful"},
		{Value: "cheerful and bright", Label: "Cheerful & Bright"},
		{Value: "content and relaxed", Label: "Content & Relaxed"},
	},
	FieldStyle: {
		{Value: "photorealistic", Label: "Photorealistic"},
		{Value: "anime-style", Label: "Anime Style"},
		{Value: "soft portrait painting", Label: "Soft Portrait Painting"},
		{Value: "cinematic photography", Label: "Cinematic Photography"},
		{Value: "watercolor illustration", Label: "Watercolor Illustration"},
		{Value: "studio portrait", Label: "Studio Portrait"},
	},
}

// Options returns a copy of the option list for field.
func Options(field Field) []Option {
	opts := fieldOptions[field]
	out := make([]Option, len(opts))
	copy(out, opts)
	return out
}

// ValidOption reports whether value is one of the enumerated options of field.
func ValidOption(field Field, value string) bool {
	for _, opt := range fieldOptions[field] {
		if opt.Value == value {
			return true
		}
	}
	return false
}

// Selection holds the user's current choice for every field.
type Selection struct {
	Clothing   string `json:"clothing"`
	Pose       string `json:"pose"`
	Expression string `json:"expression"`
	Style      string `json:"style"`
}

// DefaultSelection is the selection a fresh studio starts with.
func DefaultSelection() Selection {
	return Selection{
		Clothing:   "white tank top and white miniskirt",
		Pose:       "sitting on ground playing with toys",
		Expression: "calm and smiling",
		Style:      "photorealistic",
	}
}

// With returns a copy of s with field set to value.
func (s Selection) With(field Field, value string) (Selection, error) {
	switch field {
	case FieldClothing:
		s.Clothing = value
	case FieldPose:
		s.Pose = value
	case FieldExpression:
		s.Expression = value
	case FieldStyle:
		s.Style = value
	default:
		return s, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return s, nil
}

// Value returns the current value of field.
func (s Selection) Value(field Field) string {
	switch field {
	case FieldClothing:
		return s.Clothing
	case FieldPose:
		return s.Pose
	case FieldExpression:
		return s.Expression
	case FieldStyle:
		return s.Style
	default:
		return ""
	}
}
