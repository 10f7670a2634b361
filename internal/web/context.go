package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/bulksend/internal/core"
)

// WithRequestMetadata adds IP and User-Agent to context for dispatch logs.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ip := r.RemoteAddr // Already processed by TrustedRealIP
	ua := r.Header.Get("User-Agent")
	ctx = core.ContextWithIPAddress(ctx, ip)
	ctx = core.ContextWithUserAgent(ctx, ua)
	return ctx
}
