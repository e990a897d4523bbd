package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"
)

// LoggingInterceptor writes one log line per billing RPC. Client errors such
// as invalid months or unknown bills are logged at WARN with their connect
// code; anything that is not a connect error is an ERROR.
func LoggingInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			resp, err := next(ctx, req)

			attrs := []any{
				"procedure", req.Spec().Procedure,
				"caller", GetUserID(ctx),
				"role", GetRole(ctx),
				"elapsed", time.Since(start),
			}
			var connectErr *connect.Error
			switch {
			case err == nil:
				slog.InfoContext(ctx, "Billing RPC handled", attrs...)
			case errors.As(err, &connectErr):
				attrs = append(attrs, "code", connectErr.Code().String(), "error", connectErr.Message())
				slog.WarnContext(ctx, "Billing RPC rejected", attrs...)
			default:
				attrs = append(attrs, "error", err)
				slog.ErrorContext(ctx, "Billing RPC failed", attrs...)
			}
			return resp, err
		}
	}
}
