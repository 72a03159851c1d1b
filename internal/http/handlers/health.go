package handlers

import (
	"net/http"

	"portraitstudio/internal/domain"
)

type healthResponse struct {
	Status    string       `json:"status"`
	Phase     domain.Phase `json:"phase"`
	SignedIn  bool         `json:"signed_in"`
	HasResult bool         `json:"has_result"`
}

// Health reports liveness together with a coarse view of the studio.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	snap := a.Studio.Snapshot()
	a.json(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Phase:     snap.Phase,
		SignedIn:  snap.User != nil,
		HasResult: snap.Result != nil,
	})
}
