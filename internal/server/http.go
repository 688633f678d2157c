package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/HendryAvila/devctx/internal/access"
)

const (
	mcpEndpoint     = "/mcp"
	shutdownTimeout = 5 * time.Second
)

// KeyStore authenticates HTTP callers. *access.Store satisfies it.
type KeyStore interface {
	Lookup(ctx context.Context, key string) (*access.Key, error)
	TouchAsync(id int64)
}

type ctxKey int

const keyCtxKey ctxKey = iota

// KeyFromContext returns the API key that authenticated the request.
func KeyFromContext(ctx context.Context) (*access.Key, bool) {
	k, ok := ctx.Value(keyCtxKey).(*access.Key)
	return k, ok
}

// Handler returns the HTTP handler serving MCP over the streamable HTTP
// transport at /mcp, guarded by API keys, plus an unauthenticated
// /healthz.
func (a *App) Handler(keys KeyStore) http.Handler {
	return newHTTPHandler(a.MCP, keys, a.log)
}

func newHTTPHandler(s *server.MCPServer, keys KeyStore, log *zap.Logger) http.Handler {
	streamable := server.NewStreamableHTTPServer(s,
		server.WithEndpointPath(mcpEndpoint),
		server.WithHTTPContextFunc(func(ctx context.Context, r *http.Request) context.Context {
			if k, ok := KeyFromContext(r.Context()); ok {
				return context.WithValue(ctx, keyCtxKey, k)
			}
			return ctx
		}),
	)

	mux := http.NewServeMux()
	mux.Handle(mcpEndpoint, authMiddleware(keys, log, streamable))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	return mux
}

// authMiddleware accepts an "x-api-key" header or an "Authorization:
// Bearer" token. Unknown or revoked keys get 401.
func authMiddleware(keys KeyStore, log *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		w.Header().Set("X-Request-Id", reqID)

		plaintext := r.Header.Get("x-api-key")
		if plaintext == "" {
			if bearer, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
				plaintext = strings.TrimSpace(bearer)
			}
		}

		key, err := keys.Lookup(r.Context(), plaintext)
		if err != nil {
			if !errors.Is(err, access.ErrNotFound) {
				log.Warn("WARNING: http: key lookup failed", zap.String("request_id", reqID), zap.Error(err))
			}
			w.Header().Set("WWW-Authenticate", `Bearer realm="devctx"`)
			http.Error(w, "unauthorized: provide a valid API key via x-api-key or Authorization: Bearer", http.StatusUnauthorized)
			return
		}

		keys.TouchAsync(key.ID)
		log.Debug("request authenticated",
			zap.String("request_id", reqID), zap.String("key", key.Name), zap.String("method", r.Method))
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), keyCtxKey, key)))
	})
}

// ServeHTTP serves the HTTP transport on addr until ctx is done, then
// shuts down gracefully.
func (a *App) ServeHTTP(ctx context.Context, addr string, keys KeyStore) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           a.Handler(keys),
		ReadHeaderTimeout: 15 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("http transport listening", zap.String("addr", addr), zap.String("endpoint", mcpEndpoint))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
