// Package service implements the connect RPC handlers of the billing server.
package service

import (
	"context"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/dharun-Siva/Tutor-App-sub002/internal/billing"
	"github.com/dharun-Siva/Tutor-App-sub002/internal/middleware"
	"github.com/dharun-Siva/Tutor-App-sub002/internal/models"
	"github.com/dharun-Siva/Tutor-App-sub002/internal/storage"
	"github.com/dharun-Siva/Tutor-App-sub002/pkg/api"
	"github.com/dharun-Siva/Tutor-App-sub002/pkg/api/billingconnect"
)

// BillingService implements billingconnect.BillingServiceHandler.
type BillingService struct {
	billing *billing.Service
	classes storage.ClassCatalog
}

var _ billingconnect.BillingServiceHandler = (*BillingService)(nil)

// NewBillingService creates a BillingService over the billing engine.
func NewBillingService(engine *billing.Service, classes storage.ClassCatalog) *BillingService {
	return &BillingService{billing: engine, classes: classes}
}

// GenerateBill computes and stores one student's bill for a month.
func (s *BillingService) GenerateBill(ctx context.Context, req *connect.Request[api.GenerateBillRequest]) (*connect.Response[api.GenerateBillResponse], error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	slog.Info("GenerateBill request received",
		"student_id", req.Msg.StudentID,
		"parent_id", req.Msg.ParentID,
		"month", req.Msg.MonthYear,
	)

	bill, err := s.billing.GenerateOrUpdateBill(ctx, req.Msg.StudentID, req.Msg.ParentID, req.Msg.MonthYear)
	if err != nil {
		return nil, toConnectError("GenerateBill", err)
	}
	return connect.NewResponse(&api.GenerateBillResponse{Bill: billToAPI(bill)}), nil
}

// AutoGenerateBills runs the monthly batch for one month.
// Per-student failures are reported in the summary, not as an error.
func (s *BillingService) AutoGenerateBills(ctx context.Context, req *connect.Request[api.AutoGenerateBillsRequest]) (*connect.Response[api.AutoGenerateBillsResponse], error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	slog.Info("AutoGenerateBills request received", "month", req.Msg.MonthYear)

	summary, err := s.billing.AutoGenerateBillsForMonth(ctx, req.Msg.MonthYear)
	if err != nil {
		return nil, toConnectError("AutoGenerateBills", err)
	}
	return connect.NewResponse(&api.AutoGenerateBillsResponse{Summary: summaryToAPI(summary)}), nil
}

// GetParentBills lists a parent's bills, optionally for one month.
func (s *BillingService) GetParentBills(ctx context.Context, req *connect.Request[api.GetParentBillsRequest]) (*connect.Response[api.GetParentBillsResponse], error) {
	if err := requireParentAccess(ctx, req.Msg.ParentID); err != nil {
		return nil, err
	}

	bills, err := s.billing.GetParentBills(ctx, req.Msg.ParentID, req.Msg.MonthYear)
	if err != nil {
		return nil, toConnectError("GetParentBills", err)
	}
	return s.parentBillsResponse(ctx, bills, req.Msg.Currency)
}

// GetParentCurrentMonthBills lists a parent's bills for the current month.
func (s *BillingService) GetParentCurrentMonthBills(ctx context.Context, req *connect.Request[api.GetParentCurrentMonthBillsRequest]) (*connect.Response[api.GetParentBillsResponse], error) {
	if err := requireParentAccess(ctx, req.Msg.ParentID); err != nil {
		return nil, err
	}

	bills, err := s.billing.GetParentCurrentMonthBills(ctx, req.Msg.ParentID)
	if err != nil {
		return nil, toConnectError("GetParentCurrentMonthBills", err)
	}
	return s.parentBillsResponse(ctx, bills, req.Msg.Currency)
}

func (s *BillingService) parentBillsResponse(ctx context.Context, bills []*models.Bill, target string) (*connect.Response[api.GetParentBillsResponse], error) {
	target = strings.ToUpper(strings.TrimSpace(target))
	if target == "" {
		target = s.billing.DefaultCurrency()
	}
	total, err := s.billing.ParentBillsTotal(ctx, bills, target)
	if err != nil {
		return nil, toConnectError("ParentBillsTotal", err)
	}
	return connect.NewResponse(&api.GetParentBillsResponse{
		Bills:            billsToAPI(bills),
		OutstandingTotal: total.StringFixed(2),
		Currency:         target,
	}), nil
}

// HandleClassDeletion reconciles the bills of a class deleted elsewhere.
func (s *BillingService) HandleClassDeletion(ctx context.Context, req *connect.Request[api.HandleClassDeletionRequest]) (*connect.Response[api.ReconciliationResponse], error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	slog.Info("HandleClassDeletion request received", "class_id", req.Msg.ClassID)

	summary, err := s.billing.HandleClassDeletion(ctx, req.Msg.ClassID)
	if err != nil {
		return nil, toConnectError("HandleClassDeletion", err)
	}
	return connect.NewResponse(reconciliationToAPI(summary)), nil
}

// GenerateImmediateBilling bills an existing class as if it had just been created.
func (s *BillingService) GenerateImmediateBilling(ctx context.Context, req *connect.Request[api.GenerateImmediateBillingRequest]) (*connect.Response[api.GenerateImmediateBillingResponse], error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	slog.Info("GenerateImmediateBilling request received", "class_id", req.Msg.ClassID)

	if req.Msg.ClassID == "" {
		return nil, toConnectError("GenerateImmediateBilling", billing.ErrInvalidInput)
	}
	class, err := s.classes.GetClass(ctx, req.Msg.ClassID)
	if err != nil {
		return nil, toConnectError("GenerateImmediateBilling", err)
	}

	bills, err := s.billing.GenerateImmediateBillingForClass(ctx, class)
	if err != nil && bills == nil {
		return nil, toConnectError("GenerateImmediateBilling", err)
	}
	return connect.NewResponse(&api.GenerateImmediateBillingResponse{
		Bills:  billsToAPI(bills),
		Errors: joinedErrors(err),
	}), nil
}

// UpdateBillStatus changes a bill's payment status.
func (s *BillingService) UpdateBillStatus(ctx context.Context, req *connect.Request[api.UpdateBillStatusRequest]) (*connect.Response[api.BillResponse], error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	slog.Info("UpdateBillStatus request received",
		"bill_id", req.Msg.BillID,
		"status", req.Msg.Status,
		"user_id", middleware.GetUserID(ctx),
	)

	bill, err := s.billing.UpdateBillStatus(ctx, req.Msg.BillID, models.BillStatus(req.Msg.Status), req.Msg.Note)
	if err != nil {
		return nil, toConnectError("UpdateBillStatus", err)
	}
	return connect.NewResponse(&api.BillResponse{Bill: billToAPI(bill)}), nil
}

// AppendBillNote adds a line to a bill's notes.
func (s *BillingService) AppendBillNote(ctx context.Context, req *connect.Request[api.AppendBillNoteRequest]) (*connect.Response[api.BillResponse], error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}

	bill, err := s.billing.AppendBillNote(ctx, req.Msg.BillID, req.Msg.Note)
	if err != nil {
		return nil, toConnectError("AppendBillNote", err)
	}
	return connect.NewResponse(&api.BillResponse{Bill: billToAPI(bill)}), nil
}
