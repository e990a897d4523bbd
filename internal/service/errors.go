package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"connectrpc.com/connect"
	"github.com/go-playground/validator/v10"

	"github.com/dharun-Siva/Tutor-App-sub002/internal/auth"
	"github.com/dharun-Siva/Tutor-App-sub002/internal/billing"
	"github.com/dharun-Siva/Tutor-App-sub002/internal/currency"
	"github.com/dharun-Siva/Tutor-App-sub002/internal/middleware"
	"github.com/dharun-Siva/Tutor-App-sub002/internal/storage"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// toConnectError maps a domain error onto a connect status code.
func toConnectError(op string, err error) error {
	var validationErrs validator.ValidationErrors
	switch {
	case errors.As(err, &validationErrs),
		errors.Is(err, billing.ErrInvalidInput),
		errors.Is(err, currency.ErrUnknownCurrency):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, storage.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, storage.ErrAlreadyExists):
		return connect.NewError(connect.CodeAlreadyExists, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	}
	slog.Error(op+" failed", "error", err)
	return connect.NewError(connect.CodeInternal, fmt.Errorf("%s failed", op))
}

// requireAdmin allows only administrators through.
func requireAdmin(ctx context.Context) error {
	if middleware.GetUserID(ctx) == "" {
		return connect.NewError(connect.CodeUnauthenticated, fmt.Errorf("authentication required"))
	}
	if middleware.GetRole(ctx) != auth.RoleAdmin {
		return connect.NewError(connect.CodePermissionDenied, fmt.Errorf("admin role required"))
	}
	return nil
}

// requireParentAccess allows administrators and the parent themselves.
func requireParentAccess(ctx context.Context, parentID string) error {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return connect.NewError(connect.CodeUnauthenticated, fmt.Errorf("authentication required"))
	}
	switch middleware.GetRole(ctx) {
	case auth.RoleAdmin:
		return nil
	case auth.RoleParent:
		if parentID == userID {
			return nil
		}
	}
	return connect.NewError(connect.CodePermissionDenied, fmt.Errorf("you may only view your own bills"))
}
