package billing

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/dharun-Siva/Tutor-App-sub002/internal/calculator"
	"github.com/dharun-Siva/Tutor-App-sub002/internal/models"
	"github.com/dharun-Siva/Tutor-App-sub002/internal/storage"
)

// AutoGenerateBillsForMonth bills every student enrolled in a scheduled class
// with at least one session in the month. Per-student failures are recorded
// in the summary and do not stop the run; only failing to discover the
// students or parents returns an error.
func (s *Service) AutoGenerateBillsForMonth(ctx context.Context, monthYear string) (*models.RunSummary, error) {
	start := time.Now()

	month, err := calculator.ParseMonthYear(monthYear)
	if err != nil {
		return nil, err
	}

	classes, err := s.store.ListClasses(ctx, storage.ClassFilter{Status: models.ClassScheduled})
	if err != nil {
		return nil, persistErr("list classes", err)
	}

	enrolled := make(map[string][]string)
	for _, class := range classes {
		if !class.Billable() {
			continue
		}
		if calculator.CountOccurrences(calculator.ScheduleOf(class), month) == 0 {
			continue
		}
		for _, studentID := range class.Students {
			enrolled[studentID] = append(enrolled[studentID], class.ID)
		}
	}

	studentIDs := make([]string, 0, len(enrolled))
	for id := range enrolled {
		studentIDs = append(studentIDs, id)
	}
	sort.Strings(studentIDs)

	resolver, err := newParentResolver(ctx, s.store)
	if err != nil {
		return nil, err
	}

	s.metrics.BatchRuns.Inc()
	slog.Info("Monthly billing run started",
		"month", month.String(),
		"students", len(studentIDs),
	)

	summary := &models.RunSummary{
		MonthYear:     month.String(),
		TotalStudents: len(studentIDs),
		Errors:        []string{},
	}
	fail := func(studentID string, err error) {
		summary.ErrorCount++
		summary.Errors = append(summary.Errors, fmt.Sprintf("student %s: %v", studentID, err))
		s.metrics.BatchStudents.WithLabelValues("error").Inc()
		slog.Error("Failed to bill student",
			"student_id", studentID,
			"month", month.String(),
			"classes", enrolled[studentID],
			"error", err,
		)
	}

	for _, studentID := range studentIDs {
		parentID, err := resolver.resolve(ctx, studentID)
		if err != nil {
			fail(studentID, err)
			continue
		}
		if _, err := s.GenerateOrUpdateBill(ctx, studentID, parentID, month.String()); err != nil {
			fail(studentID, err)
			continue
		}
		summary.SuccessCount++
		s.metrics.BatchStudents.WithLabelValues("success").Inc()
	}

	elapsed := time.Since(start)
	summary.DurationSeconds = elapsed.Seconds()
	s.metrics.BatchDuration.Observe(elapsed.Seconds())

	slog.Info("Monthly billing run complete",
		"month", summary.MonthYear,
		"students", summary.TotalStudents,
		"succeeded", summary.SuccessCount,
		"failed", summary.ErrorCount,
		"duration", elapsed,
	)
	return summary, nil
}
