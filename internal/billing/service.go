// Package billing computes and maintains monthly bills for tutoring classes.
//
// Bills are keyed by (student, parent, month). Every operation here is a
// read-compute-write over single bill rows, so repeated or overlapping runs
// converge on the same result.
package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/dharun-Siva/Tutor-App-sub002/internal/calculator"
	"github.com/dharun-Siva/Tutor-App-sub002/internal/currency"
	"github.com/dharun-Siva/Tutor-App-sub002/internal/metrics"
	"github.com/dharun-Siva/Tutor-App-sub002/internal/models"
	"github.com/dharun-Siva/Tutor-App-sub002/internal/storage"
)

const defaultCurrency = "USD"

// Service is the billing engine.
type Service struct {
	store           storage.Store
	clock           func() time.Time
	location        *time.Location
	defaultCurrency string
	rates           *currency.Cache
	metrics         *metrics.Metrics
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the source of "now". Defaults to time.Now.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) { s.clock = clock }
}

// WithLocation sets the time zone used to decide what "today" is.
// Defaults to UTC.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.location = loc }
}

// WithDefaultCurrency sets the currency of bills no class contributes to.
func WithDefaultCurrency(code string) Option {
	return func(s *Service) { s.defaultCurrency = code }
}

// WithRates sets the exchange-rate cache used by ParentBillsTotal.
func WithRates(rates *currency.Cache) Option {
	return func(s *Service) { s.rates = rates }
}

// WithMetrics sets the collectors the service records into.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService creates a billing Service over the given storage backend.
func NewService(store storage.Store, opts ...Option) *Service {
	s := &Service{
		store:           store,
		clock:           time.Now,
		location:        time.UTC,
		defaultCurrency: defaultCurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = metrics.New(prometheus.NewRegistry())
	}
	return s
}

// DefaultCurrency returns the currency used when no class decides one.
func (s *Service) DefaultCurrency() string {
	return s.defaultCurrency
}

// today returns the current civil date in the service's time zone.
func (s *Service) today() time.Time {
	return calculator.DateOf(s.clock().In(s.location))
}

// note formats an audit line stamped with the current time.
func (s *Service) note(format string, args ...any) string {
	return fmt.Sprintf("[%s] ", s.clock().UTC().Format(time.RFC3339)) + fmt.Sprintf(format, args...)
}

// charge is the billable total of a set of classes over one month.
type charge struct {
	sessions   int
	amount     decimal.Decimal
	classIDs   []string
	billedFrom map[string]time.Time
	currency   string
}

// tally sums sessions and amounts of the given classes over month.
// Demo classes and classes without sessions in the month are skipped.
// A recurring class listed in from is only counted from that date on.
// The amount is rounded once, after summing. The first contributing class
// decides the currency.
func (s *Service) tally(classes []*models.Class, month calculator.MonthYear, from map[string]time.Time) (charge, error) {
	c := charge{amount: decimal.Zero, classIDs: []string{}}
	for _, class := range classes {
		if !class.Billable() {
			continue
		}
		schedule := calculator.ScheduleOf(class)
		start, partial := from[class.ID]
		partial = partial && class.IsRecurring()
		var n int
		if partial {
			n = len(calculator.OccurrencesFrom(schedule, month, start))
		} else {
			n = calculator.CountOccurrences(schedule, month)
		}
		if n == 0 {
			continue
		}
		sub, err := calculator.Subtotal(class.Amount, n)
		if err != nil {
			return charge{}, fmt.Errorf("class %s: %w", class.ID, err)
		}
		c.sessions += n
		c.amount = c.amount.Add(sub)
		c.classIDs = append(c.classIDs, class.ID)
		if partial {
			if c.billedFrom == nil {
				c.billedFrom = make(map[string]time.Time)
			}
			c.billedFrom[class.ID] = start
		}

		switch {
		case c.currency == "":
			c.currency = class.Currency
		case class.Currency != "" && class.Currency != c.currency:
			slog.Warn("Mixed currencies on one bill, keeping the first",
				"class_id", class.ID,
				"class_currency", class.Currency,
				"bill_currency", c.currency,
				"month", month.String(),
			)
		}
	}
	c.amount = c.amount.Round(2)
	if c.currency == "" {
		c.currency = s.defaultCurrency
	}
	return c, nil
}

// reopenForCharge puts a settled bill whose amount grew above before back to
// unpaid and records the additional charge in its notes. A paid bill keeps
// what was received in AmountPaid, so only the difference is outstanding.
func (s *Service) reopenForCharge(bill *models.Bill, before decimal.Decimal) {
	if bill.Status == models.BillUnpaid || !bill.Amount.GreaterThan(before) {
		return
	}
	if bill.Status == models.BillPaid && bill.AmountPaid.IsZero() {
		bill.AmountPaid = before
	}
	old := bill.Status
	added := bill.Amount.Sub(before)
	bill.Status = models.BillUnpaid
	bill.AppendNote(s.note("ADDITIONAL CHARGE: %s %s, bill reopened from %s",
		added.StringFixed(2), bill.Currency, old))
	slog.Warn("Settled bill reopened for an additional charge",
		"bill_id", bill.ID,
		"previous_status", old,
		"added", added.StringFixed(2),
		"currency", bill.Currency,
	)
}

// GenerateOrUpdateBill computes the bill for one student, parent and month
// from the student's scheduled classes and persists it. An existing bill for
// the same key is overwritten in place, keeping its notes and status, and
// classes it charged for part of the month keep that window. A paid bill
// that grows is reopened for the difference.
// Bills with zero sessions are still persisted.
func (s *Service) GenerateOrUpdateBill(ctx context.Context, studentID, parentID, monthYear string) (*models.Bill, error) {
	month, err := calculator.ParseMonthYear(monthYear)
	if err != nil {
		return nil, err
	}
	if studentID == "" || parentID == "" {
		return nil, fmt.Errorf("%w: student_id and parent_id are required", ErrInvalidInput)
	}

	classes, err := s.store.ListClasses(ctx, storage.ClassFilter{
		Status:    models.ClassScheduled,
		StudentID: studentID,
	})
	if err != nil {
		return nil, persistErr("list classes", err)
	}

	bill, err := s.store.FindBill(ctx, studentID, parentID, month.String())
	if errors.Is(err, storage.ErrNotFound) {
		c, err := s.tally(classes, month, nil)
		if err != nil {
			return nil, err
		}
		bill = &models.Bill{
			StudentID:         studentID,
			ParentID:          parentID,
			MonthYear:         month.String(),
			TotalClassesCount: c.sessions,
			Amount:            c.amount,
			Currency:          c.currency,
			Status:            models.BillUnpaid,
			DueDate:           month.DueDate(BillDueDay),
			ClassIDs:          c.classIDs,
			Notes:             s.note("Auto-generated bill for %s", month),
		}
		err = s.store.CreateBill(ctx, bill)
		if err == nil {
			s.metrics.BillsWritten.WithLabelValues("generate", "create").Inc()
			slog.Info("Bill created",
				"bill_id", bill.ID,
				"student_id", studentID,
				"parent_id", parentID,
				"month", month.String(),
				"sessions", c.sessions,
				"amount", c.amount.StringFixed(2),
			)
			return bill, nil
		}
		if !errors.Is(err, storage.ErrAlreadyExists) {
			return nil, persistErr("create bill", err)
		}
		// A concurrent run created the row first; overwrite it instead.
		bill, err = s.store.FindBill(ctx, studentID, parentID, month.String())
		if err != nil {
			return nil, persistErr("find bill", err)
		}
	} else if err != nil {
		return nil, persistErr("find bill", err)
	}

	c, err := s.tally(classes, month, bill.BilledFrom)
	if err != nil {
		return nil, err
	}
	before := bill.Amount
	bill.TotalClassesCount = c.sessions
	bill.Amount = c.amount
	bill.Currency = c.currency
	bill.ClassIDs = c.classIDs
	bill.BilledFrom = c.billedFrom
	bill.DueDate = month.DueDate(BillDueDay)
	if bill.Status == models.BillPaid {
		s.reopenForCharge(bill, before)
	}
	if err := s.store.UpdateBill(ctx, bill); err != nil {
		return nil, persistErr("update bill", err)
	}
	s.metrics.BillsWritten.WithLabelValues("generate", "update").Inc()
	slog.Info("Bill updated",
		"bill_id", bill.ID,
		"student_id", studentID,
		"parent_id", parentID,
		"month", month.String(),
		"sessions", c.sessions,
		"amount", c.amount.StringFixed(2),
	)
	return bill, nil
}

// GetParentBills returns a parent's bills, newest month first.
// An empty monthYear returns every month.
func (s *Service) GetParentBills(ctx context.Context, parentID, monthYear string) ([]*models.Bill, error) {
	if parentID == "" {
		return nil, fmt.Errorf("%w: parent_id is required", ErrInvalidInput)
	}
	filter := storage.BillFilter{ParentID: parentID}
	if monthYear != "" {
		month, err := calculator.ParseMonthYear(monthYear)
		if err != nil {
			return nil, err
		}
		filter.MonthYear = month.String()
	}
	bills, err := s.store.ListBills(ctx, filter)
	if err != nil {
		return nil, persistErr("list bills", err)
	}
	return bills, nil
}

// GetParentCurrentMonthBills returns a parent's bills for the current month.
func (s *Service) GetParentCurrentMonthBills(ctx context.Context, parentID string) ([]*models.Bill, error) {
	return s.GetParentBills(ctx, parentID, calculator.MonthOf(s.today()).String())
}

// ParentBillsTotal sums what is still outstanding on bills in the target
// currency. Bills in other currencies are converted through the rate cache.
func (s *Service) ParentBillsTotal(ctx context.Context, bills []*models.Bill, target string) (decimal.Decimal, error) {
	if target == "" {
		target = s.defaultCurrency
	}
	total := decimal.Zero
	for _, bill := range bills {
		amount := bill.Outstanding()
		if amount.IsZero() {
			continue
		}
		if bill.Currency != "" && bill.Currency != target {
			if s.rates == nil {
				return decimal.Zero, fmt.Errorf("%w: no exchange rates configured to convert %s to %s",
					ErrInvalidInput, bill.Currency, target)
			}
			converted, err := s.rates.Convert(ctx, amount, bill.Currency, target)
			if err != nil {
				return decimal.Zero, fmt.Errorf("failed to convert bill %s: %w", bill.ID, err)
			}
			amount = converted
		}
		total = total.Add(amount)
	}
	return total.Round(2), nil
}
