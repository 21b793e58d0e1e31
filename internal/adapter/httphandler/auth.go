package httphandler

import (
	"log/slog"
	"net/http"

	"github.com/niksmo/prime-house/internal/core/port"
)

// POST v1/auth/login JSON {"email", "password"} (200 OK, 400 Bad request, 401 Unauthorized)

type AuthHandler struct {
	auth port.Authenticator
}

func RegisterAuth(mux *http.ServeMux, auth port.Authenticator) {
	h := AuthHandler{auth}
	mux.HandleFunc("POST /v1/auth/login", h.PostLogin)
}

func (h AuthHandler) PostLogin(w http.ResponseWriter, r *http.Request) {
	const op = "AuthHandler.PostLogin"
	log := slog.With("op", op)

	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, log, err, http.StatusBadRequest)
		return
	}

	s, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, log, err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, log, http.StatusOK, LoginResponse{
		Token:     s.Token,
		Email:     s.Email,
		Admin:     s.Admin,
		ExpiresAt: s.ExpiresAt,
	})
	log.Info("signed in", "email", s.Email, "admin", s.Admin)
}
