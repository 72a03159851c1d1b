package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"portraitstudio/internal/domain"
	"portraitstudio/internal/portrait"
)

type selectionUpdate struct {
	Value *string `json:"value"`
}

type generateResponse struct {
	Outcome domain.Outcome    `json:"outcome"`
	Studio  portrait.Snapshot `json:"studio"`
}

func (a *App) StudioState(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, a.Studio.Snapshot())
}

func (a *App) UpdateSelection(w http.ResponseWriter, r *http.Request) {
	field, err := domain.ParseField(chi.URLParam(r, "field"))
	if err != nil {
		a.error(w, http.StatusNotFound, "unknown_field", err.Error())
		return
	}
	var req selectionUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Value == nil {
		a.error(w, http.StatusBadRequest, "bad_request", "value required")
		return
	}
	if err := a.Studio.UpdateField(field, *req.Value); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	a.json(w, http.StatusOK, a.Studio.Snapshot())
}

// Generate runs the generation detached from the request so a dropped client
// does not cancel it; the outcome still goes back on this response.
func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	ctx := context.WithoutCancel(r.Context())
	if a.GenerateTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.GenerateTimeout)
		defer cancel()
	}

	outcome := a.Studio.Generate(ctx)
	switch outcome {
	case domain.OutcomeUnauthenticated:
		a.error(w, http.StatusUnauthorized, "unauthorized", "sign in to generate portraits")
	case domain.OutcomeBusy:
		a.error(w, http.StatusConflict, "busy", "a portrait is already being generated")
	case domain.OutcomeFailed:
		a.error(w, http.StatusBadGateway, "generation_failed", "image generation failed")
	default:
		a.json(w, http.StatusOK, generateResponse{Outcome: outcome, Studio: a.Studio.Snapshot()})
	}
}

func (a *App) Download(w http.ResponseWriter, r *http.Request) {
	dl, err := a.Studio.DownloadResult(r.Context())
	switch {
	case errors.Is(err, domain.ErrNoResult):
		a.error(w, http.StatusNotFound, "no_result", "nothing to download yet")
	case err != nil:
		a.error(w, http.StatusBadGateway, "download_failed", "failed to download image")
	default:
		a.json(w, http.StatusOK, dl)
	}
}
