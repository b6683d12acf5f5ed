package context

import (
	"context"
	"net"
	"strings"

	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"

	"github.com/dtroode/authd/internal/model"
)

const (
	authorizationKey = "authorization"
	userAgentKey     = "user-agent"
	bearerPrefix     = "bearer "
)

type tokenKey struct{}

// Manager keeps the caller's session token on the request context.
type Manager struct{}

// NewManager creates a new gRPC context manager instance.
func NewManager() *Manager {
	return &Manager{}
}

// SetTokenToContext returns a context carrying the session token.
func (m *Manager) SetTokenToContext(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// GetTokenFromContext returns the token stored by SetTokenToContext.
func (m *Manager) GetTokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenKey{}).(string)
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

// BearerToken extracts the token from the incoming authorization header.
// The scheme is matched case-insensitively.
func BearerToken(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}

	values := md.Get(authorizationKey)
	if len(values) == 0 {
		return ""
	}

	header := strings.TrimSpace(values[0])
	if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(header[len(bearerPrefix):])
}

// ClientInfo describes the caller from request metadata and the peer address.
func ClientInfo(ctx context.Context) model.ClientInfo {
	var info model.ClientInfo

	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if ua := md.Get(userAgentKey); len(ua) > 0 {
			info.UserAgent = ua[0]
		}
	}

	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		info.IPAddress = hostOnly(p.Addr.String())
	}

	return info
}

func hostOnly(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}

var _ model.ContextManager = (*Manager)(nil)
