// Package auditcontext carries per-request metadata (request id, client ip,
// user agent) used to stamp audit entries. Values live on the context so the
// engine stays free of global request state.
package auditcontext

import "context"

type requestIDKey struct{}
type ipAddressKey struct{}
type userAgentKey struct{}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(requestIDKey{}).(string)
	return v
}

func WithIPAddress(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ipAddressKey{}, ip)
}

func IPAddressFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(ipAddressKey{}).(string)
	return v
}

func WithUserAgent(ctx context.Context, ua string) context.Context {
	return context.WithValue(ctx, userAgentKey{}, ua)
}

func UserAgentFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(userAgentKey{}).(string)
	return v
}
