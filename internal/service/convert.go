package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dharun-Siva/Tutor-App-sub002/internal/billing"
	"github.com/dharun-Siva/Tutor-App-sub002/internal/models"
	"github.com/dharun-Siva/Tutor-App-sub002/pkg/api"
)

const dateLayout = "2006-01-02"

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func parseDate(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be formatted as YYYY-MM-DD", billing.ErrInvalidInput, field)
	}
	return t, nil
}

func billToAPI(b *models.Bill) *api.Bill {
	classIDs := b.ClassIDs
	if classIDs == nil {
		classIDs = []string{}
	}
	return &api.Bill{
		ID:                   b.ID,
		StudentID:            b.StudentID,
		ParentID:             b.ParentID,
		MonthYear:            b.MonthYear,
		TotalClassesCount:    b.TotalClassesCount,
		Amount:               b.Amount.StringFixed(2),
		AmountPaid:           b.AmountPaid.StringFixed(2),
		Outstanding:          b.Outstanding().StringFixed(2),
		Currency:             b.Currency,
		Status:               string(b.Status),
		BillingGeneratedDate: formatTime(b.BillingGeneratedDate),
		DueDate:              formatDate(b.DueDate),
		ClassIDs:             classIDs,
		Notes:                b.Notes,
		UpdatedAt:            formatTime(b.UpdatedAt),
	}
}

func billsToAPI(bills []*models.Bill) []*api.Bill {
	out := make([]*api.Bill, len(bills))
	for i, b := range bills {
		out[i] = billToAPI(b)
	}
	return out
}

func summaryToAPI(s *models.RunSummary) *api.RunSummary {
	errs := s.Errors
	if errs == nil {
		errs = []string{}
	}
	return &api.RunSummary{
		MonthYear:       s.MonthYear,
		TotalStudents:   s.TotalStudents,
		SuccessCount:    s.SuccessCount,
		ErrorCount:      s.ErrorCount,
		Errors:          errs,
		DurationSeconds: s.DurationSeconds,
	}
}

func reconciliationToAPI(s *models.ReconciliationSummary) *api.ReconciliationResponse {
	errs := s.Errors
	if errs == nil {
		errs = []string{}
	}
	return &api.ReconciliationResponse{
		ClassID:    s.ClassID,
		Bills:      billsToAPI(s.Bills),
		ErrorCount: s.ErrorCount,
		Errors:     errs,
	}
}

func classToAPI(c *models.Class) *api.Class {
	return &api.Class{
		ID:            c.ID,
		Title:         c.Title,
		ScheduleType:  string(c.ScheduleType),
		ClassDate:     formatDate(c.ClassDate),
		StartDate:     formatDate(c.StartDate),
		EndDate:       formatDate(c.EndDate),
		RecurringDays: c.RecurringDays,
		Amount:        c.Amount.StringFixed(2),
		Currency:      c.Currency,
		Students:      c.Students,
		PaymentStatus: string(c.PaymentStatus),
		Status:        string(c.Status),
		CreatedAt:     c.CreatedAt,
	}
}

// classFromRequest builds a class from an already validated request.
func classFromRequest(req *api.CreateClassRequest) (*models.Class, error) {
	class := &models.Class{
		Title:         strings.TrimSpace(req.Title),
		ScheduleType:  models.ScheduleType(req.ScheduleType),
		RecurringDays: req.RecurringDays,
		Currency:      req.Currency,
		Students:      req.Students,
		PaymentStatus: models.ClassPaymentStatus(req.PaymentStatus),
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || amount.IsNegative() {
		return nil, fmt.Errorf("%w: amount must be a non-negative decimal", billing.ErrInvalidInput)
	}
	class.Amount = amount

	if class.ClassDate, err = parseDate("class_date", req.ClassDate); err != nil {
		return nil, err
	}
	if class.StartDate, err = parseDate("start_date", req.StartDate); err != nil {
		return nil, err
	}
	if class.EndDate, err = parseDate("end_date", req.EndDate); err != nil {
		return nil, err
	}

	if class.IsRecurring() {
		if len(class.RecurringDays) == 0 {
			return nil, fmt.Errorf("%w: recurring_days is required for weekly-recurring classes", billing.ErrInvalidInput)
		}
		if class.EndDate.Before(class.StartDate) {
			return nil, fmt.Errorf("%w: end_date must not be before start_date", billing.ErrInvalidInput)
		}
	}
	return class, nil
}

// joinedErrors flattens an errors.Join result into messages.
func joinedErrors(err error) []string {
	if err == nil {
		return []string{}
	}
	var multi interface{ Unwrap() []error }
	if errors.As(err, &multi) {
		msgs := []string{}
		for _, e := range multi.Unwrap() {
			msgs = append(msgs, e.Error())
		}
		return msgs
	}
	return []string{err.Error()}
}
