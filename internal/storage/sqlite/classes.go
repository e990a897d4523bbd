package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dharun-Siva/Tutor-App-sub002/internal/models"
	"github.com/dharun-Siva/Tutor-App-sub002/internal/storage"
)

const classColumns = `id, title, schedule_type, class_date, start_date, end_date, amount, currency,
	payment_status, status, created_at`

// CreateClass persists a new class with its recurring days and enrolled students.
func (s *SQLiteStore) CreateClass(ctx context.Context, class *models.Class) error {
	// Generate ID if not set
	if class.ID == "" {
		class.ID = uuid.New().String()
	}
	if class.CreatedAt == 0 {
		class.CreatedAt = s.now().Unix()
	}
	if class.Status == "" {
		class.Status = models.ClassScheduled
	}
	if class.PaymentStatus == "" {
		class.PaymentStatus = models.ClassUnpaid
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO classes (`+classColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		class.ID, class.Title, string(class.ScheduleType),
		formatDate(class.ClassDate), formatDate(class.StartDate), formatDate(class.EndDate),
		class.Amount.String(), class.Currency, string(class.PaymentStatus), string(class.Status),
		class.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("class %s %w", class.ID, storage.ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("failed to insert class: %w", err)
	}

	for _, day := range class.RecurringDays {
		_, err = tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO class_recurring_days (class_id, day) VALUES (?, ?)",
			class.ID, strings.ToLower(strings.TrimSpace(day)),
		)
		if err != nil {
			return fmt.Errorf("failed to insert recurring day: %w", err)
		}
	}

	for _, studentID := range class.Students {
		_, err = tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO class_students (class_id, student_id) VALUES (?, ?)",
			class.ID, studentID,
		)
		if err != nil {
			return fmt.Errorf("failed to insert class student: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetClass retrieves a class by ID.
func (s *SQLiteStore) GetClass(ctx context.Context, classID string) (*models.Class, error) {
	classes, err := s.queryClasses(ctx, "SELECT "+classColumns+" FROM classes WHERE id = ?", classID)
	if err != nil {
		return nil, err
	}
	if len(classes) == 0 {
		return nil, notFound("class", classID)
	}
	return classes[0], nil
}

// ListClasses retrieves classes matching the filter.
func (s *SQLiteStore) ListClasses(ctx context.Context, filter storage.ClassFilter) ([]*models.Class, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.StudentID != "" {
		where = append(where, "id IN (SELECT class_id FROM class_students WHERE student_id = ?)")
		args = append(args, filter.StudentID)
	}

	query := "SELECT " + classColumns + " FROM classes"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at, id"

	return s.queryClasses(ctx, query, args...)
}

// DeleteClass removes a class; recurring days and enrollments cascade.
func (s *SQLiteStore) DeleteClass(ctx context.Context, classID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM classes WHERE id = ?", classID)
	if err != nil {
		return fmt.Errorf("failed to delete class: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if n == 0 {
		return notFound("class", classID)
	}
	return nil
}

// CompleteExpiredClasses marks scheduled classes that ended before the given date as completed.
func (s *SQLiteStore) CompleteExpiredClasses(ctx context.Context, before time.Time) (int64, error) {
	cutoff := before.Format(dateLayout)
	res, err := s.db.ExecContext(ctx,
		`UPDATE classes SET status = ?
		 WHERE status = ?
		   AND ((schedule_type = ? AND class_date < ?) OR (schedule_type = ? AND end_date < ?))`,
		string(models.ClassCompleted), string(models.ClassScheduled),
		string(models.ScheduleOneTime), cutoff,
		string(models.ScheduleWeeklyRecurring), cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to complete expired classes: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check completed rows: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) queryClasses(ctx context.Context, query string, args ...interface{}) ([]*models.Class, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query classes: %w", err)
	}
	defer rows.Close()

	var classes []*models.Class
	for rows.Next() {
		class := &models.Class{}
		var (
			scheduleType, paymentStatus, status string
			classDate, startDate, endDate       sql.NullString
		)
		if err := rows.Scan(&class.ID, &class.Title, &scheduleType, &classDate, &startDate, &endDate,
			&class.Amount, &class.Currency, &paymentStatus, &status, &class.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan class: %w", err)
		}
		class.ScheduleType = models.ScheduleType(scheduleType)
		class.PaymentStatus = models.ClassPaymentStatus(paymentStatus)
		class.Status = models.ClassStatus(status)
		if class.ClassDate, err = parseDate(classDate); err != nil {
			return nil, err
		}
		if class.StartDate, err = parseDate(startDate); err != nil {
			return nil, err
		}
		if class.EndDate, err = parseDate(endDate); err != nil {
			return nil, err
		}
		classes = append(classes, class)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate classes: %w", err)
	}
	rows.Close()

	for _, class := range classes {
		if class.RecurringDays, err = s.stringColumn(ctx,
			"SELECT day FROM class_recurring_days WHERE class_id = ? ORDER BY day", class.ID); err != nil {
			return nil, err
		}
		if class.Students, err = s.stringColumn(ctx,
			"SELECT student_id FROM class_students WHERE class_id = ? ORDER BY student_id", class.ID); err != nil {
			return nil, err
		}
	}
	return classes, nil
}

// stringColumn collects a single-column string result.
func (s *SQLiteStore) stringColumn(ctx context.Context, query string, args ...interface{}) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	defer rows.Close()

	values := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan value: %w", err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate values: %w", err)
	}
	return values, nil
}
