package logging

import (
	"context"
	"log/slog"
	"strings"
)

// RequestInfo is the per-request metadata attached to audit and error
// entries. ActorID is empty until authentication has identified the caller.
type RequestInfo struct {
	RequestID string
	ClientIP  string
	Route     string
	ActorID   string
}

type requestInfoKey struct{}

// WithRequestContext stores request metadata in ctx. Handlers further down
// share the same record, so SetActor is visible to the outer access log.
func WithRequestContext(ctx context.Context, requestID, clientIP, route string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	info := &RequestInfo{
		RequestID: strings.TrimSpace(requestID),
		ClientIP:  strings.TrimSpace(clientIP),
		Route:     strings.TrimSpace(route),
	}
	return context.WithValue(ctx, requestInfoKey{}, info)
}

// SetActor records the authenticated user for the rest of the request. It
// does nothing when ctx carries no request metadata.
func SetActor(ctx context.Context, actorID string) {
	if ctx == nil {
		return
	}
	if info, ok := ctx.Value(requestInfoKey{}).(*RequestInfo); ok {
		info.ActorID = actorID
	}
}

func RequestInfoFrom(ctx context.Context) (RequestInfo, bool) {
	if ctx == nil {
		return RequestInfo{}, false
	}
	info, ok := ctx.Value(requestInfoKey{}).(*RequestInfo)
	if !ok {
		return RequestInfo{}, false
	}
	return *info, true
}

// RequestAttrs returns slog attributes for request metadata.
func RequestAttrs(ctx context.Context) []slog.Attr {
	info, ok := RequestInfoFrom(ctx)
	if !ok {
		return nil
	}
	attrs := make([]slog.Attr, 0, 4)
	if info.RequestID != "" {
		attrs = append(attrs, slog.String("request_id", info.RequestID))
	}
	if info.ClientIP != "" {
		attrs = append(attrs, slog.String("client_ip", info.ClientIP))
	}
	if info.Route != "" {
		attrs = append(attrs, slog.String("route", info.Route))
	}
	if info.ActorID != "" {
		attrs = append(attrs, slog.String("actor_id", info.ActorID))
	}
	return attrs
}
