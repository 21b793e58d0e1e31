package httphandler

import (
	"log/slog"
	"net/http"

	"github.com/niksmo/prime-house/internal/core/port"
)

// GET v1/properties?type=sale|rent|all&q=text (200 OK)
// GET v1/properties/{id} (200 OK, 404 Not found)
// GET v1/status (200 OK)

type PropertiesHandler struct {
	reader port.PropertiesReader
}

func RegisterProperties(mux *http.ServeMux, reader port.PropertiesReader) {
	h := PropertiesHandler{reader}
	mux.HandleFunc("GET /v1/properties", h.GetProperties)
	mux.HandleFunc("GET /v1/properties/{id}", h.GetProperty)
	mux.HandleFunc("GET /v1/status", h.GetStatus)
}

func (h PropertiesHandler) GetProperties(w http.ResponseWriter, r *http.Request) {
	const op = "PropertiesHandler.GetProperties"
	log := slog.With("op", op)

	q := r.URL.Query()
	view, err := h.reader.ListProperties(r.Context(), q.Get("type"), q.Get("q"))
	if err != nil {
		writeError(w, log, err, http.StatusInternalServerError)
		return
	}

	data := propertiesFromDomain(view.Properties)
	writeJSON(w, log, http.StatusOK, PropertiesResponse{
		Loading: view.Loading,
		Count:   len(data),
		Data:    data,
	})
}

func (h PropertiesHandler) GetProperty(w http.ResponseWriter, r *http.Request) {
	const op = "PropertiesHandler.GetProperty"
	log := slog.With("op", op)

	p, err := h.reader.Property(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, log, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, log, http.StatusOK, propertyFromDomain(p))
}

func (h PropertiesHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	const op = "PropertiesHandler.GetStatus"
	log := slog.With("op", op)

	s := h.reader.Status()
	writeJSON(w, log, http.StatusOK, StatusResponse{
		Loading:   s.Loading,
		Count:     s.Count,
		LastError: s.LastError,
	})
}
