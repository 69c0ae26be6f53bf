package mcp

import (
	"context"
	"log/slog"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// LoggingMiddleware returns middleware that logs all incoming method calls.
// Tool calls, resource reads and prompt requests also log what they target.
// Tool handlers report failures inside the result, so those log at warn.
func LoggingMiddleware() sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			start := time.Now()

			result, err := next(ctx, method, req)

			attrs := []slog.Attr{
				slog.String("method", method),
				slog.Int64("duration_ms", time.Since(start).Milliseconds()),
			}
			switch r := req.(type) {
			case *sdkmcp.CallToolRequest:
				if r.Params != nil {
					attrs = append(attrs, slog.String("tool", r.Params.Name))
				}
			case *sdkmcp.ReadResourceRequest:
				if r.Params != nil {
					attrs = append(attrs, slog.String("uri", r.Params.URI))
				}
			case *sdkmcp.GetPromptRequest:
				if r.Params != nil {
					attrs = append(attrs, slog.String("prompt", r.Params.Name))
				}
			}

			switch {
			case err != nil:
				attrs = append(attrs, slog.String("error", err.Error()))
				slog.LogAttrs(ctx, slog.LevelError, "method call failed", attrs...)
			case toolFailed(result):
				slog.LogAttrs(ctx, slog.LevelWarn, "tool returned an error", attrs...)
			default:
				slog.LogAttrs(ctx, slog.LevelInfo, "method call completed", attrs...)
			}

			return result, err
		}
	}
}

func toolFailed(result sdkmcp.Result) bool {
	r, ok := result.(*sdkmcp.CallToolResult)
	return ok && r != nil && r.IsError
}
