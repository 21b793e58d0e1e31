package httphandler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/niksmo/prime-house/internal/core/domain"
	"github.com/niksmo/prime-house/internal/core/port"
)

// Headers Authorization Bearer is required for every route.
// POST v1/admin/properties JSON PropertyForm (202 Accepted)
// PUT v1/admin/properties/{id} JSON PropertyForm (202 Accepted)
// DELETE v1/admin/properties/{id} (202 Accepted)
// DELETE v1/admin/properties/{id}/gallery (202 Accepted)
// Failures: 400, 401, 403, 404, 413, 503 when the command is not accepted.

type AdminHandler struct {
	editor       port.PropertiesEditor
	maxBodyBytes int64
}

// RegisterAdmin expects the mux to be served behind WithIdentity.
func RegisterAdmin(
	mux *http.ServeMux, editor port.PropertiesEditor, maxBodyBytes int64,
) {
	h := AdminHandler{editor, maxBodyBytes}
	mux.HandleFunc("POST /v1/admin/properties", h.PostProperty)
	mux.HandleFunc("PUT /v1/admin/properties/{id}", h.PutProperty)
	mux.HandleFunc("DELETE /v1/admin/properties/{id}", h.DeleteProperty)
	mux.HandleFunc("DELETE /v1/admin/properties/{id}/gallery", h.DeleteGallery)
}

func (h AdminHandler) PostProperty(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, "AdminHandler.PostProperty", "")
}

func (h AdminHandler) PutProperty(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, "AdminHandler.PutProperty", r.PathValue("id"))
}

func (h AdminHandler) DeleteProperty(w http.ResponseWriter, r *http.Request) {
	const op = "AdminHandler.DeleteProperty"
	h.command(w, r, op, h.editor.DeleteProperty)
}

func (h AdminHandler) DeleteGallery(w http.ResponseWriter, r *http.Request) {
	const op = "AdminHandler.DeleteGallery"
	h.command(w, r, op, h.editor.ClearGallery)
}

func (h AdminHandler) save(
	w http.ResponseWriter, r *http.Request, op, id string,
) {
	log := slog.With("op", op)

	who, err := requireIdentity(r)
	if err != nil {
		writeError(w, log, err, http.StatusUnauthorized)
		return
	}

	if h.maxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	}

	var form PropertyForm
	if err := decodeJSON(r, &form); err != nil {
		writeError(w, log, err, http.StatusBadRequest)
		return
	}

	id, err = h.editor.SaveProperty(r.Context(), who, form.toDomain(id))
	if err != nil {
		writeError(w, log, err, http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, log, http.StatusAccepted, IDResponse{id})
	log.Info("accepted", "id", id, "by", who.Email)
}

func (h AdminHandler) command(
	w http.ResponseWriter,
	r *http.Request,
	op string,
	fn func(ctx context.Context, who domain.Identity, id string) error,
) {
	log := slog.With("op", op)

	who, err := requireIdentity(r)
	if err != nil {
		writeError(w, log, err, http.StatusUnauthorized)
		return
	}

	id := r.PathValue("id")
	if err := fn(r.Context(), who, id); err != nil {
		writeError(w, log, err, http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, log, http.StatusAccepted, IDResponse{id})
	log.Info("accepted", "id", id, "by", who.Email)
}

func requireIdentity(r *http.Request) (domain.Identity, error) {
	who := identityFrom(r.Context())
	if who.Email == "" {
		return who, fmt.Errorf("requireIdentity: %w", domain.ErrUnauthenticated)
	}
	return who, nil
}
