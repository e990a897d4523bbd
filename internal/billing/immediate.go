package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dharun-Siva/Tutor-App-sub002/internal/calculator"
	"github.com/dharun-Siva/Tutor-App-sub002/internal/models"
	"github.com/dharun-Siva/Tutor-App-sub002/internal/storage"
)

// GenerateImmediateBillingForClass bills a newly created class right away.
//
// Each enrolled student is charged for the class's remaining sessions this
// month: a one-time class dated anywhere in the month counts once, a
// recurring class counts its sessions from today to month end. From the
// ahead-billing cutover on, recurring classes are also charged for the whole
// of next month.
//
// Charges are merged into the student's bill for that month, creating it if
// needed. A class already on a bill is not charged twice, and a bill that
// was already paid or cancelled is reopened for the new charge. Students
// whose parent cannot be found are skipped. Failures for individual students are
// joined into the returned error alongside the bills that were written.
func (s *Service) GenerateImmediateBillingForClass(ctx context.Context, class *models.Class) ([]*models.Bill, error) {
	if class == nil || class.ID == "" {
		return nil, fmt.Errorf("%w: class is required", ErrInvalidInput)
	}
	if !class.Billable() {
		slog.Info("Skipping immediate billing for demo class", "class_id", class.ID)
		return []*models.Bill{}, nil
	}
	if class.Status != "" && class.Status != models.ClassScheduled {
		slog.Info("Skipping immediate billing for inactive class",
			"class_id", class.ID,
			"status", class.Status,
		)
		return []*models.Bill{}, nil
	}

	today := s.today()
	current := calculator.MonthOf(today)
	schedule := calculator.ScheduleOf(class)

	currentSessions := 0
	var currentFrom time.Time
	if class.IsRecurring() {
		if today.After(current.Start()) {
			currentFrom = today
		}
		currentSessions = len(calculator.OccurrencesFrom(schedule, current, today))
	} else if current.Contains(class.ClassDate) {
		currentSessions = 1
	}

	next := current.Next()
	nextSessions := 0
	if ShouldGenerateAheadBilling(today) && class.IsRecurring() {
		nextSessions = calculator.CountOccurrences(schedule, next)
	}

	bills := []*models.Bill{}
	if currentSessions == 0 && nextSessions == 0 {
		slog.Info("No sessions to bill for new class",
			"class_id", class.ID,
			"month", current.String(),
		)
		return bills, nil
	}

	resolver, err := newParentResolver(ctx, s.store)
	if err != nil {
		return nil, err
	}

	var errs []error
	seen := make(map[string]bool, len(class.Students))
	for _, studentID := range class.Students {
		if seen[studentID] {
			continue
		}
		seen[studentID] = true
		parentID, err := resolver.resolve(ctx, studentID)
		if err != nil {
			slog.Warn("Skipping immediate billing for student without parent",
				"class_id", class.ID,
				"student_id", studentID,
				"error", err,
			)
			continue
		}
		for _, target := range []struct {
			month    calculator.MonthYear
			sessions int
			from     time.Time
		}{
			{current, currentSessions, currentFrom},
			{next, nextSessions, time.Time{}},
		} {
			if target.sessions == 0 {
				continue
			}
			bill, err := s.mergeClassCharge(ctx, studentID, parentID, target.month, class, target.sessions, target.from)
			if err != nil {
				slog.Error("Failed to bill new class",
					"class_id", class.ID,
					"student_id", studentID,
					"month", target.month.String(),
					"error", err,
				)
				errs = append(errs, fmt.Errorf("student %s month %s: %w", studentID, target.month, err))
				continue
			}
			bills = append(bills, bill)
		}
	}
	return bills, errors.Join(errs...)
}

// mergeClassCharge adds sessions of class to the natural-key bill for the
// student, parent and month, creating the bill if it does not exist. A
// non-zero from records that the class was billed only from that date.
func (s *Service) mergeClassCharge(ctx context.Context, studentID, parentID string, month calculator.MonthYear, class *models.Class, sessions int, from time.Time) (*models.Bill, error) {
	sub, err := calculator.Subtotal(class.Amount, sessions)
	if err != nil {
		return nil, fmt.Errorf("class %s: %w", class.ID, err)
	}
	var billedFrom map[string]time.Time
	if !from.IsZero() {
		billedFrom = map[string]time.Time{class.ID: from}
	}

	bill, err := s.store.FindBill(ctx, studentID, parentID, month.String())
	if errors.Is(err, storage.ErrNotFound) {
		currency := class.Currency
		if currency == "" {
			currency = s.defaultCurrency
		}
		amount := sub.Round(2)
		bill = &models.Bill{
			StudentID:         studentID,
			ParentID:          parentID,
			MonthYear:         month.String(),
			TotalClassesCount: sessions,
			Amount:            amount,
			Currency:          currency,
			Status:            models.BillUnpaid,
			DueDate:           month.DueDate(BillDueDay),
			ClassIDs:          []string{class.ID},
			BilledFrom:        billedFrom,
			Notes: s.note("Bill created for new class %q (%s): %d sessions, %s %s",
				class.Title, class.ID, sessions, amount.StringFixed(2), currency),
		}
		err = s.store.CreateBill(ctx, bill)
		if err == nil {
			s.metrics.BillsWritten.WithLabelValues("immediate", "create").Inc()
			slog.Info("Bill created for new class",
				"bill_id", bill.ID,
				"class_id", class.ID,
				"student_id", studentID,
				"month", month.String(),
				"sessions", sessions,
			)
			return bill, nil
		}
		if !errors.Is(err, storage.ErrAlreadyExists) {
			return nil, persistErr("create bill", err)
		}
		bill, err = s.store.FindBill(ctx, studentID, parentID, month.String())
	}
	if err != nil {
		return nil, persistErr("find bill", err)
	}

	if bill.HasClass(class.ID) {
		slog.Debug("Class already on bill",
			"bill_id", bill.ID,
			"class_id", class.ID,
		)
		return bill, nil
	}
	if class.Currency != "" && bill.Currency != "" && class.Currency != bill.Currency {
		slog.Warn("Mixed currencies on one bill, keeping the bill's",
			"bill_id", bill.ID,
			"class_id", class.ID,
			"class_currency", class.Currency,
			"bill_currency", bill.Currency,
		)
	}

	before := bill.Amount
	bill.ClassIDs = append(bill.ClassIDs, class.ID)
	if billedFrom != nil {
		if bill.BilledFrom == nil {
			bill.BilledFrom = make(map[string]time.Time)
		}
		bill.BilledFrom[class.ID] = from
	}
	bill.TotalClassesCount += sessions
	bill.Amount = before.Add(sub).Round(2)
	bill.AppendNote(s.note("Added new class %q (%s): %d sessions, %s %s",
		class.Title, class.ID, sessions, sub.Round(2).StringFixed(2), bill.Currency))
	s.reopenForCharge(bill, before)
	if err := s.store.UpdateBill(ctx, bill); err != nil {
		return nil, persistErr("update bill", err)
	}
	s.metrics.BillsWritten.WithLabelValues("immediate", "update").Inc()
	slog.Info("Class added to bill",
		"bill_id", bill.ID,
		"class_id", class.ID,
		"student_id", studentID,
		"month", month.String(),
		"sessions", sessions,
		"status", bill.Status,
	)
	return bill, nil
}

// RunScheduledBilling runs the daily ahead-billing pass: nothing before the
// cutover day, next month from the cutover on, and the month after next as
// well until the window closes. Every month is attempted; errors are joined.
func (s *Service) RunScheduledBilling(ctx context.Context) ([]*models.RunSummary, error) {
	today := s.today()
	months := AheadBillingMonths(today)
	if len(months) == 0 {
		slog.Debug("Before ahead-billing cutover, nothing to bill", "today", today.Format("2006-01-02"))
		return nil, nil
	}

	var (
		summaries []*models.RunSummary
		errs      []error
	)
	for _, month := range months {
		summary, err := s.AutoGenerateBillsForMonth(ctx, month.String())
		if err != nil {
			slog.Error("Failed to run monthly billing", "month", month.String(), "error", err)
			errs = append(errs, fmt.Errorf("month %s: %w", month, err))
			continue
		}
		summaries = append(summaries, summary)
	}
	return summaries, errors.Join(errs...)
}

// CompleteExpiredClasses marks scheduled classes whose last session was
// before today as completed.
func (s *Service) CompleteExpiredClasses(ctx context.Context) (int64, error) {
	n, err := s.store.CompleteExpiredClasses(ctx, s.today())
	if err != nil {
		return 0, persistErr("complete expired classes", err)
	}
	s.metrics.ClassesCompleted.Add(float64(n))
	if n > 0 {
		slog.Info("Expired classes completed", "count", n)
	}
	return n, nil
}
