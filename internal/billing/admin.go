package billing

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dharun-Siva/Tutor-App-sub002/internal/models"
)

// UpdateBillStatus changes a bill's payment status and records the change,
// with an optional reason, in its notes. Marking a bill paid records its
// full amount as received; moving a paid bill back to unpaid clears that.
func (s *Service) UpdateBillStatus(ctx context.Context, billID string, status models.BillStatus, reason string) (*models.Bill, error) {
	if billID == "" {
		return nil, fmt.Errorf("%w: bill_id is required", ErrInvalidInput)
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown bill status %q", ErrInvalidInput, status)
	}

	bill, err := s.store.GetBill(ctx, billID)
	if err != nil {
		return nil, persistErr("get bill", err)
	}
	if bill.Status == status {
		return bill, nil
	}

	line := fmt.Sprintf("Status changed from %s to %s", bill.Status, status)
	if reason = strings.TrimSpace(reason); reason != "" {
		line += ": " + reason
	}
	old := bill.Status
	bill.Status = status
	switch {
	case status == models.BillPaid:
		bill.AmountPaid = bill.Amount
	case old == models.BillPaid && status == models.BillUnpaid:
		bill.AmountPaid = decimal.Zero
	}
	bill.AppendNote(s.note("%s", line))
	if err := s.store.UpdateBill(ctx, bill); err != nil {
		return nil, persistErr("update bill", err)
	}
	s.metrics.BillsWritten.WithLabelValues("admin", "update").Inc()
	slog.Info("Bill status changed", "bill_id", billID, "from", old, "to", status)
	return bill, nil
}

// AppendBillNote adds a timestamped line to a bill's notes.
func (s *Service) AppendBillNote(ctx context.Context, billID, note string) (*models.Bill, error) {
	note = strings.TrimSpace(note)
	if billID == "" || note == "" {
		return nil, fmt.Errorf("%w: bill_id and note are required", ErrInvalidInput)
	}

	bill, err := s.store.GetBill(ctx, billID)
	if err != nil {
		return nil, persistErr("get bill", err)
	}
	bill.AppendNote(s.note("%s", note))
	if err := s.store.UpdateBill(ctx, bill); err != nil {
		return nil, persistErr("update bill", err)
	}
	s.metrics.BillsWritten.WithLabelValues("admin", "update").Inc()
	slog.Info("Bill note added", "bill_id", billID)
	return bill, nil
}
