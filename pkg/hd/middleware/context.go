package middleware

import (
	"context"
)

type contextKey string

// ClientAddressKey is the context key for the originating client address.
const ClientAddressKey = contextKey("client_address")

// WithClientAddress returns a copy of ctx carrying addr.
func WithClientAddress(ctx context.Context, addr string) context.Context {
	return context.WithValue(ctx, ClientAddressKey, addr)
}

// GetClientAddress extracts the client address from the context.
func GetClientAddress(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if addr, ok := ctx.Value(ClientAddressKey).(string); ok {
		return addr
	}
	return ""
}
