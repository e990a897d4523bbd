package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dharun-Siva/Tutor-App-sub002/internal/calculator"
	"github.com/dharun-Siva/Tutor-App-sub002/internal/models"
	"github.com/dharun-Siva/Tutor-App-sub002/internal/storage"
)

// HandleClassDeletion removes a deleted class from every bill that lists it
// and recomputes those bills from their remaining classes. Paid bills whose
// amount drops are flagged for a manual refund in their notes.
// Failures on individual bills are recorded in the summary.
func (s *Service) HandleClassDeletion(ctx context.Context, classID string) (*models.ReconciliationSummary, error) {
	if classID == "" {
		return nil, fmt.Errorf("%w: class_id is required", ErrInvalidInput)
	}

	bills, err := s.store.ListBillsByClass(ctx, classID)
	if err != nil {
		return nil, persistErr("list bills by class", err)
	}

	summary := &models.ReconciliationSummary{
		ClassID: classID,
		Bills:   []*models.Bill{},
		Errors:  []string{},
	}
	for _, bill := range bills {
		if err := s.reconcileBill(ctx, bill, classID); err != nil {
			summary.ErrorCount++
			summary.Errors = append(summary.Errors, fmt.Sprintf("bill %s: %v", bill.ID, err))
			slog.Error("Failed to reconcile bill",
				"bill_id", bill.ID,
				"class_id", classID,
				"error", err,
			)
			continue
		}
		summary.Bills = append(summary.Bills, bill)
	}

	slog.Info("Class deletion reconciled",
		"class_id", classID,
		"bills", len(summary.Bills),
		"failed", summary.ErrorCount,
	)
	return summary, nil
}

// reconcileBill drops classID from bill and recomputes it over its month.
// Remaining classes are counted over the same window they were billed for,
// and classes that no longer exist contribute nothing.
func (s *Service) reconcileBill(ctx context.Context, bill *models.Bill, classID string) error {
	month, err := calculator.ParseMonthYear(bill.MonthYear)
	if err != nil {
		return err
	}

	remaining := make([]string, 0, len(bill.ClassIDs))
	classes := make([]*models.Class, 0, len(bill.ClassIDs))
	for _, id := range bill.ClassIDs {
		if id == classID {
			continue
		}
		remaining = append(remaining, id)
		class, err := s.store.GetClass(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			slog.Debug("Class on bill no longer exists", "bill_id", bill.ID, "class_id", id)
			continue
		}
		if err != nil {
			return persistErr("get class", err)
		}
		classes = append(classes, class)
	}

	c, err := s.tally(classes, month, bill.BilledFrom)
	if err != nil {
		return err
	}

	oldCount, oldAmount := bill.TotalClassesCount, bill.Amount
	bill.ClassIDs = remaining
	bill.TotalClassesCount = c.sessions
	bill.Amount = c.amount
	bill.BilledFrom = c.billedFrom
	bill.AppendNote(s.note("Class %s deleted: sessions %d -> %d, amount %s -> %s %s",
		classID, oldCount, c.sessions, oldAmount.StringFixed(2), c.amount.StringFixed(2), bill.Currency))

	// A reopened bill may hold a payment larger than what it now charges.
	paid := bill.AmountPaid
	if bill.Status == models.BillPaid {
		paid = oldAmount
	}
	refund := bill.Status != models.BillCancelled && paid.GreaterThan(c.amount)
	if refund {
		diff := paid.Sub(c.amount)
		bill.AmountPaid = c.amount
		bill.AppendNote(s.note("REFUND REQUIRED: %s %s", diff.StringFixed(2), bill.Currency))
	}

	if err := s.store.UpdateBill(ctx, bill); err != nil {
		return persistErr("update bill", err)
	}
	s.metrics.BillsWritten.WithLabelValues("reconcile", "update").Inc()
	if refund {
		s.metrics.RefundsFlagged.Inc()
		slog.Warn("Paid bill needs a refund",
			"bill_id", bill.ID,
			"class_id", classID,
			"paid", paid.StringFixed(2),
			"new_amount", c.amount.StringFixed(2),
			"currency", bill.Currency,
		)
	}
	return nil
}
