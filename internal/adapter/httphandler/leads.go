package httphandler

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"slices"
	"strings"

	"github.com/niksmo/prime-house/internal/core/domain"
	"github.com/niksmo/prime-house/internal/core/port"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// GET api (200 OK)
// POST api/leads JSON LeadRequest (201 Created, 400 Bad request)
// GET api/leads Headers Authorization Bearer admin (200 OK, 401, 403)
// Anything else under api/ is 404 with the same envelope.
// Served with OwnMediaTypeOpt(LeadsPattern): a non JSON body is 415 with the envelope.

// LeadsPattern covers every leads route.
const LeadsPattern = "/api/"

const (
	leadSchemaURL    = "lead.json"
	maxLeadBodyBytes = 64 << 10
)

const (
	msgOnline         = "Backend Prime House conectado e operando!"
	msgLeadCreated    = "Lead cadastrado com sucesso!"
	msgRequiredFields = "Campos obrigatórios: Nome, Email e Telefone."
	msgInvalidJSON    = "JSON inválido no corpo da requisição."
	msgMediaType      = "Content-Type deve ser application/json."
	msgInvalidFields  = "Campos com formato inválido:"
	msgNotFound       = "Rota não encontrada"
	msgInternal       = "Erro interno do servidor."
	msgUnauthorized   = "Autenticação necessária."
	msgForbidden      = "Acesso restrito ao administrador."
)

//go:embed schemas/lead.json
var leadSchemaText []byte

type LeadsHandler struct {
	creator port.LeadsCreator
	lister  port.LeadsLister
	schema  *jsonschema.Schema
}

// RegisterLeads expects the mux to be served behind WithIdentity.
func RegisterLeads(
	mux *http.ServeMux, creator port.LeadsCreator, lister port.LeadsLister,
) error {
	schema, err := compileLeadSchema()
	if err != nil {
		return err
	}

	h := LeadsHandler{creator, lister, schema}
	mux.HandleFunc("GET /api", h.GetStatus)
	mux.HandleFunc("GET /api/{$}", h.GetStatus)
	mux.HandleFunc("POST /api/leads", h.PostLead)
	mux.HandleFunc("POST /api/leads/{$}", h.PostLead)
	mux.HandleFunc("GET /api/leads", h.GetLeads)
	mux.HandleFunc("GET /api/leads/{$}", h.GetLeads)
	mux.HandleFunc("/api/", h.NotFound)
	return nil
}

func compileLeadSchema() (*jsonschema.Schema, error) {
	const op = "compileLeadSchema"

	c := jsonschema.NewCompiler()
	err := c.AddResource(leadSchemaURL, bytes.NewReader(leadSchemaText))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	schema, err := c.Compile(leadSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return schema, nil
}

func (h LeadsHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	const op = "LeadsHandler.GetStatus"
	writeJSON(w, slog.With("op", op), http.StatusOK, APIStatus{
		Status:  "online",
		Message: msgOnline,
	})
}

func (h LeadsHandler) PostLead(w http.ResponseWriter, r *http.Request) {
	const op = "LeadsHandler.PostLead"
	log := slog.With("op", op)

	if !hasJSONBody(r) {
		h.fail(w, log, http.StatusUnsupportedMediaType, msgMediaType)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxLeadBodyBytes))
	if err != nil {
		log.Warn("failed to read body", "err", err)
		h.fail(w, log, http.StatusBadRequest, msgInvalidJSON)
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		body = []byte("{}")
	}

	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		log.Warn("failed to parse JSON", "err", err)
		h.fail(w, log, http.StatusBadRequest, msgInvalidJSON)
		return
	}

	if err := h.schema.Validate(doc); err != nil {
		log.Warn("lead rejected by schema", "err", err)
		h.fail(w, log, http.StatusBadRequest, schemaMessage(err))
		return
	}

	var req LeadRequest
	if err := json.Unmarshal(body, &req); err != nil {
		log.Warn("failed to parse lead", "err", err)
		h.fail(w, log, http.StatusBadRequest, msgInvalidJSON)
		return
	}

	lead, err := h.creator.CreateLead(r.Context(), req.toDomain())
	if err != nil {
		if errors.Is(err, domain.ErrLeadRequiredFields) {
			h.fail(w, log, http.StatusBadRequest, msgRequiredFields)
			return
		}
		log.Error("failed to create lead", "err", err)
		h.fail(w, log, http.StatusInternalServerError, msgInternal)
		return
	}

	data := leadFromDomain(lead)
	writeJSON(w, log, http.StatusCreated, APIResponse{
		Success: true,
		Message: msgLeadCreated,
		Data:    &data,
	})
	log.Info("lead created", "id", lead.ID)
}

func (h LeadsHandler) GetLeads(w http.ResponseWriter, r *http.Request) {
	const op = "LeadsHandler.GetLeads"
	log := slog.With("op", op)

	who, err := requireIdentity(r)
	if err != nil {
		h.fail(w, log, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	leads, err := h.lister.ListLeads(r.Context(), who)
	if err != nil {
		if errors.Is(err, domain.ErrAccessDenied) {
			h.fail(w, log, http.StatusForbidden, msgForbidden)
			return
		}
		log.Error("failed to list leads", "err", err)
		h.fail(w, log, http.StatusInternalServerError, msgInternal)
		return
	}

	data := make([]Lead, 0, len(leads))
	for _, l := range leads {
		data = append(data, leadFromDomain(l))
	}
	writeJSON(w, log, http.StatusOK, LeadsResponse{
		Success: true,
		Count:   len(data),
		Data:    data,
	})
}

// schemaMessage tells a missing or empty required field from a field of
// the wrong type.
func schemaMessage(err error) string {
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return msgRequiredFields
	}

	var fields []string
	missing := false
	var walk func(*jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) != 0 {
			for _, c := range e.Causes {
				walk(c)
			}
			return
		}
		switch path.Base(e.KeywordLocation) {
		case "required", "minLength":
			missing = true
		default:
			if f := strings.TrimPrefix(e.InstanceLocation, "/"); f != "" {
				fields = append(fields, f)
			}
		}
	}
	walk(verr)

	if missing || len(fields) == 0 {
		return msgRequiredFields
	}
	slices.Sort(fields)
	return msgInvalidFields + " " + strings.Join(slices.Compact(fields), ", ") + "."
}

func (h LeadsHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	const op = "LeadsHandler.NotFound"
	h.fail(w, slog.With("op", op), http.StatusNotFound, msgNotFound)
}

func (LeadsHandler) fail(
	w http.ResponseWriter, log *slog.Logger, status int, msg string,
) {
	writeJSON(w, log, status, APIResponse{Success: false, Message: msg})
}
