package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// maxLoggedPayload caps each logged params or result body.
const maxLoggedPayload = 2048

// Argument keys whose values never reach the log.
var redactedKeys = map[string]bool{
	"password":     true,
	"token":        true,
	"access_token": true,
}

// trafficLoggingMiddleware logs each message at debug level with the tool
// name for tool calls and the handling time.
func trafficLoggingMiddleware(logger *slog.Logger, direction string) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			if logger == nil || !logger.Enabled(ctx, slog.LevelDebug) {
				return next(ctx, method, req)
			}

			params := payloadMap(safeParams(req))
			attrs := []any{"direction", direction, "method", method, "session_id", safeSessionID(req)}
			if name, ok := params["name"].(string); ok && method == "tools/call" {
				attrs = append(attrs, "tool", name)
			}
			logger.Debug("mcp request", append(attrs, "params", formatPayload(redact(params)))...)

			start := time.Now()
			result, err := next(ctx, method, req)
			if strings.HasPrefix(method, "notifications/") {
				return result, err
			}
			attrs = append(attrs, "elapsed", time.Since(start).Round(time.Millisecond))
			if err != nil {
				logger.Debug("mcp response", append(attrs, "error", err)...)
			} else {
				logger.Debug("mcp response", append(attrs, "result", formatPayload(result))...)
			}
			return result, err
		}
	}
}

// The SDK panics on some request types when the session is not yet bound.
func safeSessionID(req sdkmcp.Request) (id string) {
	if req == nil {
		return ""
	}
	defer func() {
		if recover() != nil {
			id = ""
		}
	}()
	if session := req.GetSession(); session != nil {
		return session.ID()
	}
	return ""
}

func safeParams(req sdkmcp.Request) (params any) {
	if req == nil {
		return nil
	}
	defer func() {
		if recover() != nil {
			params = nil
		}
	}()
	return req.GetParams()
}

// payloadMap renders params as a generic JSON object, or nil when they do
// not encode to one.
func payloadMap(payload any) map[string]any {
	if payload == nil {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	var m map[string]any
	if json.Unmarshal(data, &m) != nil {
		return nil
	}
	return m
}

// redact masks secrets at the top level and inside tool arguments.
func redact(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		switch {
		case redactedKeys[k]:
			out[k] = "[redacted]"
		case k == "arguments":
			if args, ok := v.(map[string]any); ok {
				out[k] = redact(args)
			} else {
				out[k] = v
			}
		default:
			out[k] = v
		}
	}
	return out
}

func formatPayload(payload any) string {
	if payload == nil {
		return "<nil>"
	}
	if m, ok := payload.(map[string]any); ok && m == nil {
		return "<nil>"
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf("%T", payload)
	}
	if len(data) > maxLoggedPayload {
		return string(data[:maxLoggedPayload]) + "…"
	}
	return string(data)
}
