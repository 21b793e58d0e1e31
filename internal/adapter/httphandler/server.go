package httphandler

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

const requestTimeout = 5 * time.Second

type HTTPServer struct {
	httpServer *http.Server
}

type serverOpts struct {
	streams  map[string]http.Handler
	ownTyped []string
	origins  []string
	baseCtx  context.Context
}

type ServerOpt func(*serverOpts)

// StreamOpt registers a long lived handler (websocket) that bypasses the
// request timeout.
func StreamOpt(pattern string, h http.Handler) ServerOpt {
	return func(o *serverOpts) {
		o.streams[pattern] = h
	}
}

// OwnMediaTypeOpt serves pattern without the AllowJSON check, the handlers
// behind it answer a wrong media type in their own response format.
func OwnMediaTypeOpt(pattern string) ServerOpt {
	return func(o *serverOpts) {
		o.ownTyped = append(o.ownTyped, pattern)
	}
}

func CORSOpt(origins []string) ServerOpt {
	return func(o *serverOpts) {
		o.origins = origins
	}
}

// BaseContextOpt parents every request context, hijacked connections
// included, so cancelling ctx ends live streams on shutdown.
func BaseContextOpt(ctx context.Context) ServerOpt {
	return func(o *serverOpts) {
		o.baseCtx = ctx
	}
}

func NewHTTPServer(
	addr string, handler http.Handler, opts ...ServerOpt,
) HTTPServer {
	o := serverOpts{streams: make(map[string]http.Handler)}
	for _, opt := range opts {
		opt(&o)
	}

	mux := http.NewServeMux()
	for pattern, h := range o.streams {
		mux.Handle(pattern, h)
	}
	for _, pattern := range o.ownTyped {
		mux.Handle(pattern, http.TimeoutHandler(
			handler, requestTimeout, "unavailable",
		))
	}
	mux.Handle("/", http.TimeoutHandler(
		AllowJSON(handler), requestTimeout, "unavailable",
	))

	var root http.Handler = mux
	root = CORS(o.origins)(root)
	root = AccessLog(root)
	root = middleware.Recoverer(root)
	root = middleware.RealIP(root)
	root = middleware.RequestID(root)

	s := &http.Server{
		Addr:              addr,
		Handler:           root,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       2 * time.Second,
	}
	if o.baseCtx != nil {
		s.BaseContext = func(net.Listener) context.Context {
			return o.baseCtx
		}
	}
	return HTTPServer{s}
}

func (s HTTPServer) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s HTTPServer) Run(stopFn context.CancelFunc) {
	const op = "HTTPServer.Run"
	log := slog.With("op", op)

	defer stopFn()
	log.Info("http server is listening", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			return
		}
		log.Error("unexpected servers shutdown", "err", err)
	}
}

func (s HTTPServer) Close(ctx context.Context) {
	const op = "HTTPServer.Close"
	log := slog.With("op", op)

	log.Info("closing http server...")

	err := s.httpServer.Shutdown(ctx)
	if err != nil {
		log.Error("failed to shutdown gracefully", "err", err)
	}
	log.Info("http server is closed")
}
