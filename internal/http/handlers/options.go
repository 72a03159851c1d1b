package handlers

import (
	"net/http"

	"portraitstudio/internal/domain"
)

type fieldOptions struct {
	Field   domain.Field    `json:"field"`
	Default string          `json:"default"`
	Options []domain.Option `json:"options"`
}

// Options publishes the option catalogue for every field.
func (a *App) Options(w http.ResponseWriter, r *http.Request) {
	defaults := domain.DefaultSelection()
	out := make([]fieldOptions, 0, len(domain.Fields))
	for _, f := range domain.Fields {
		out = append(out, fieldOptions{Field: f, Default: defaults.Value(f), Options: domain.Options(f)})
	}
	a.json(w, http.StatusOK, map[string]any{"fields": out})
}
