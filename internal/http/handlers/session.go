package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"portraitstudio/internal/auth"
)

func (a *App) SessionState(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, a.Auth.Session().State())
}

func (a *App) SessionLogin(w http.ResponseWriter, r *http.Request) {
	var creds auth.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	id, err := a.Auth.Login(r.Context(), creds)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			a.error(w, http.StatusBadRequest, "bad_request", err.Error())
			return
		}
		a.error(w, http.StatusUnauthorized, "unauthorized", "invalid email or password")
		return
	}
	a.json(w, http.StatusOK, id)
}

func (a *App) SessionLogout(w http.ResponseWriter, r *http.Request) {
	a.Auth.Logout()
	w.WriteHeader(http.StatusNoContent)
}
