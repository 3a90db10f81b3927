package mcp

import (
	"context"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// readyMiddleware holds tool calls until ready is closed, so an agent that
// connects during the initial load does not see an empty workspace. Protocol
// methods pass through.
func readyMiddleware(ready <-chan struct{}) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			if ready == nil || !strings.HasPrefix(method, "tools/call") {
				return next(ctx, method, req)
			}
			select {
			case <-ready:
				return next(ctx, method, req)
			case <-ctx.Done():
				return nil, ErrNotReady
			}
		}
	}
}
