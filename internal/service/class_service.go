package service

import (
	"context"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/dharun-Siva/Tutor-App-sub002/internal/billing"
	"github.com/dharun-Siva/Tutor-App-sub002/internal/storage"
	"github.com/dharun-Siva/Tutor-App-sub002/pkg/api"
	"github.com/dharun-Siva/Tutor-App-sub002/pkg/api/billingconnect"
)

// ClassService implements billingconnect.ClassServiceHandler.
// Creating or deleting a class updates the affected bills right away.
type ClassService struct {
	store   storage.Store
	billing *billing.Service
}

var _ billingconnect.ClassServiceHandler = (*ClassService)(nil)

// NewClassService creates a ClassService with the given storage backend.
func NewClassService(store storage.Store, engine *billing.Service) *ClassService {
	return &ClassService{store: store, billing: engine}
}

// CreateClass validates and stores a class, then bills it immediately.
// The class is kept even if billing some students fails; those failures
// are logged and the next regeneration picks them up.
func (s *ClassService) CreateClass(ctx context.Context, req *connect.Request[api.CreateClassRequest]) (*connect.Response[api.CreateClassResponse], error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}

	msg := req.Msg
	msg.Currency = strings.ToUpper(strings.TrimSpace(msg.Currency))
	for i, day := range msg.RecurringDays {
		msg.RecurringDays[i] = strings.ToLower(strings.TrimSpace(day))
	}
	if err := validate.Struct(msg); err != nil {
		return nil, toConnectError("CreateClass", err)
	}
	class, err := classFromRequest(msg)
	if err != nil {
		return nil, toConnectError("CreateClass", err)
	}

	if err := s.store.CreateClass(ctx, class); err != nil {
		return nil, toConnectError("CreateClass", err)
	}
	slog.Info("Class created",
		"class_id", class.ID,
		"schedule_type", class.ScheduleType,
		"students", len(class.Students),
	)

	bills, err := s.billing.GenerateImmediateBillingForClass(ctx, class)
	if err != nil {
		slog.Error("Failed to bill new class", "class_id", class.ID, "error", err)
	}
	return connect.NewResponse(&api.CreateClassResponse{
		Class: classToAPI(class),
		Bills: billsToAPI(bills),
	}), nil
}

// DeleteClass removes a class and reconciles every bill that listed it.
func (s *ClassService) DeleteClass(ctx context.Context, req *connect.Request[api.DeleteClassRequest]) (*connect.Response[api.ReconciliationResponse], error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	if err := validate.Struct(req.Msg); err != nil {
		return nil, toConnectError("DeleteClass", err)
	}

	if err := s.store.DeleteClass(ctx, req.Msg.ClassID); err != nil {
		return nil, toConnectError("DeleteClass", err)
	}
	slog.Info("Class deleted", "class_id", req.Msg.ClassID)

	summary, err := s.billing.HandleClassDeletion(ctx, req.Msg.ClassID)
	if err != nil {
		return nil, toConnectError("DeleteClass", err)
	}
	return connect.NewResponse(reconciliationToAPI(summary)), nil
}
