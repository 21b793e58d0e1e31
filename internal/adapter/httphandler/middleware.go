package httphandler

import (
	"context"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/niksmo/prime-house/internal/core/domain"
	"github.com/niksmo/prime-house/internal/core/port"
)

func AllowJSON(next http.Handler) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		if !hasJSONBody(r) {
			http.Error(w, "invalid media type", http.StatusUnsupportedMediaType)
			return
		}
		next.ServeHTTP(w, r)
	}
	return http.HandlerFunc(hf)
}

// hasJSONBody reports whether the request has no body or a JSON one.
func hasJSONBody(r *http.Request) bool {
	if r.ContentLength == 0 {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}

// CORS allows any origin when origins is empty.
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	})
}

func AccessLog(next http.Handler) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		slog.Info("request",
			"reqID", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
		)
	}
	return http.HandlerFunc(hf)
}

type identityKey struct{}

// WithIdentity resolves a Bearer token into a domain.Identity. Requests
// without a token pass through as guests, an invalid token is rejected.
func WithIdentity(auth port.Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hf := func(w http.ResponseWriter, r *http.Request) {
			const op = "WithIdentity"

			tkn, ok := bearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			who, err := auth.Authenticate(r.Context(), tkn)
			if err != nil {
				writeError(w, slog.With("op", op), err, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), identityKey{}, who)
			next.ServeHTTP(w, r.WithContext(ctx))
		}
		return http.HandlerFunc(hf)
	}
}

func identityFrom(ctx context.Context) domain.Identity {
	who, _ := ctx.Value(identityKey{}).(domain.Identity)
	return who
}

func bearerToken(r *http.Request) (string, bool) {
	v := r.Header.Get("Authorization")
	if v == "" {
		return "", false
	}
	scheme, tkn, found := strings.Cut(v, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", true
	}
	return strings.TrimSpace(tkn), true
}
