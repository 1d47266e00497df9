package auth

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/garagemon/garagemon/internal/config"
)

// QueryParam carries the key for clients that cannot set headers, such as
// browser websockets.
const QueryParam = "api_key"

// Guard checks API keys.
type Guard struct {
	enabled bool
	header  string
	key     []byte
}

// New builds a Guard from cfg, resolving the key from the environment.
func New(cfg config.AuthConfig) *Guard {
	key := cfg.Key()
	return &Guard{
		enabled: cfg.Mode == "apikey" && key != "",
		header:  strings.ToLower(cfg.EffectiveHeader()),
		key:     []byte(key),
	}
}

// Enabled reports whether keys are enforced.
func (g *Guard) Enabled() bool { return g.enabled }

func (g *Guard) valid(candidate string) bool {
	return candidate != "" && subtle.ConstantTimeCompare([]byte(candidate), g.key) == 1
}

// Middleware rejects HTTP requests without a valid key. The key is read from
// the configured header, then an "Authorization: Bearer" header, then the
// api_key query parameter.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	if !g.enabled {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.valid(httpKey(r, g.header)) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"invalid api key"}` + "\n")) //nolint:errcheck
			return
		}
		next.ServeHTTP(w, r)
	})
}

func httpKey(r *http.Request, header string) string {
	if v := r.Header.Get(header); v != "" {
		return v
	}
	if v, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(v)
	}
	return r.URL.Query().Get(QueryParam)
}

// UnaryInterceptor enforces the key on unary gRPC calls.
func (g *Guard) UnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if err := g.checkMetadata(ctx); err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

// StreamInterceptor enforces the key on streaming gRPC calls.
func (g *Guard) StreamInterceptor() grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, _ *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if err := g.checkMetadata(ss.Context()); err != nil {
			return err
		}
		return handler(srv, ss)
	}
}

func (g *Guard) checkMetadata(ctx context.Context) error {
	if !g.enabled {
		return nil
	}
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return status.Error(codes.Unauthenticated, "missing metadata")
	}
	vals := md.Get(g.header)
	if len(vals) == 0 || !g.valid(vals[0]) {
		return status.Error(codes.Unauthenticated, "invalid api key")
	}
	return nil
}
