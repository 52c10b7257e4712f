package metadata

import (
	"context"
	"net/http"
	"strings"

	"github.com/mssola/useragent"
)

// Context keys for client metadata.
type contextKeyClientIP struct{}
type contextKeyUserAgent struct{}
type contextKeyBrowser struct{}

// ClientMetadata extracts the client IP address, raw User-Agent, and a parsed
// browser summary from the request and adds them to the context for handlers,
// audit events, and logging. Apply early in the chain.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := ClientIPFromRequest(r)
		rawUA := r.Header.Get("User-Agent")

		ctx := r.Context()
		ctx = context.WithValue(ctx, contextKeyClientIP{}, ip)
		ctx = context.WithValue(ctx, contextKeyUserAgent{}, rawUA)
		ctx = context.WithValue(ctx, contextKeyBrowser{}, summarizeBrowser(rawUA))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetClientIP retrieves the client IP address from the context.
func GetClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(contextKeyClientIP{}).(string); ok {
		return ip
	}
	return ""
}

// GetUserAgent retrieves the raw User-Agent from the context.
func GetUserAgent(ctx context.Context) string {
	if ua, ok := ctx.Value(contextKeyUserAgent{}).(string); ok {
		return ua
	}
	return ""
}

// GetBrowser retrieves the parsed browser summary ("Firefox/131.0",
// "bot/Googlebot", or "unknown") from the context.
func GetBrowser(ctx context.Context) string {
	if b, ok := ctx.Value(contextKeyBrowser{}).(string); ok {
		return b
	}
	return ""
}

// WithClientMetadata injects client metadata into a context. Useful for
// service unit tests that don't run the full HTTP middleware chain.
func WithClientMetadata(ctx context.Context, clientIP, rawUA string) context.Context {
	ctx = context.WithValue(ctx, contextKeyClientIP{}, clientIP)
	ctx = context.WithValue(ctx, contextKeyUserAgent{}, rawUA)
	ctx = context.WithValue(ctx, contextKeyBrowser{}, summarizeBrowser(rawUA))
	return ctx
}

func summarizeBrowser(rawUA string) string {
	if rawUA == "" {
		return "unknown"
	}
	ua := useragent.New(rawUA)
	if ua.Bot() {
		return "bot"
	}
	name, version := ua.Browser()
	if name == "" {
		return "unknown"
	}
	if version == "" {
		return name
	}
	return name + "/" + version
}

// AnonymizeIP truncates an IP for logs: IPv4 keeps the first three octets,
// IPv6 keeps the first two groups.
func AnonymizeIP(ip string) string {
	if ip == "" {
		return ""
	}
	if strings.Contains(ip, ":") {
		parts := strings.Split(ip, ":")
		if len(parts) >= 2 {
			return parts[0] + ":" + parts[1] + "::/32"
		}
		return ip
	}
	if idx := strings.LastIndex(ip, "."); idx != -1 {
		return ip[:idx] + ".x"
	}
	return ip
}

// ClientIPFromRequest extracts the real client IP, handling proxies and
// load balancers.
func ClientIPFromRequest(r *http.Request) string {
	// X-Forwarded-For can contain multiple IPs (client, proxy1, proxy2, ...);
	// the first entry is the original client.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	// RemoteAddr is "ip:port" ("[::1]:port" for IPv6).
	if addr := r.RemoteAddr; addr != "" {
		if idx := strings.LastIndex(addr, ":"); idx != -1 {
			return strings.Trim(addr[:idx], "[]")
		}
		return addr
	}

	return "unknown"
}
