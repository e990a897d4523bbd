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

const billColumns = `id, student_id, parent_id, month_year, total_classes_count, amount, amount_paid,
	currency, status, billing_generated_date, due_date, notes, updated_at`

// CreateBill persists a new bill and its class list in one transaction.
func (s *SQLiteStore) CreateBill(ctx context.Context, bill *models.Bill) error {
	// Generate ID and timestamps if not set
	if bill.ID == "" {
		bill.ID = uuid.New().String()
	}
	now := s.now().UTC().Truncate(time.Second)
	if bill.BillingGeneratedDate.IsZero() {
		bill.BillingGeneratedDate = now
	}
	if bill.Status == "" {
		bill.Status = models.BillUnpaid
	}
	bill.UpdatedAt = now

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO bills (`+billColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		bill.ID, bill.StudentID, bill.ParentID, bill.MonthYear, bill.TotalClassesCount,
		bill.Amount.String(), bill.AmountPaid.String(), bill.Currency, string(bill.Status),
		bill.BillingGeneratedDate.Unix(), bill.DueDate.Format(dateLayout), bill.Notes,
		bill.UpdatedAt.Unix(),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("bill for student %s, parent %s, month %s %w",
			bill.StudentID, bill.ParentID, bill.MonthYear, storage.ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("failed to insert bill: %w", err)
	}

	if err := insertBillClasses(ctx, tx, bill); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// UpdateBill overwrites the bill row and replaces its class list.
func (s *SQLiteStore) UpdateBill(ctx context.Context, bill *models.Bill) error {
	bill.UpdatedAt = s.now().UTC().Truncate(time.Second)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE bills SET total_classes_count = ?, amount = ?, amount_paid = ?, currency = ?,
			status = ?, due_date = ?, notes = ?, updated_at = ?
		 WHERE id = ?`,
		bill.TotalClassesCount, bill.Amount.String(), bill.AmountPaid.String(), bill.Currency, string(bill.Status),
		bill.DueDate.Format(dateLayout), bill.Notes, bill.UpdatedAt.Unix(), bill.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update bill: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("failed to check updated rows: %w", err)
	} else if n == 0 {
		return notFound("bill", bill.ID)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM bill_classes WHERE bill_id = ?", bill.ID); err != nil {
		return fmt.Errorf("failed to clear bill classes: %w", err)
	}
	if err := insertBillClasses(ctx, tx, bill); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func insertBillClasses(ctx context.Context, tx *sql.Tx, bill *models.Bill) error {
	for i, classID := range bill.ClassIDs {
		_, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO bill_classes (bill_id, class_id, position, billed_from) VALUES (?, ?, ?, ?)",
			bill.ID, classID, i, formatDate(bill.BilledFrom[classID]),
		)
		if err != nil {
			return fmt.Errorf("failed to insert bill class: %w", err)
		}
	}
	return nil
}

// GetBill retrieves a bill by ID, including its class list.
func (s *SQLiteStore) GetBill(ctx context.Context, billID string) (*models.Bill, error) {
	bills, err := s.queryBills(ctx, "SELECT "+billColumns+" FROM bills WHERE id = ?", billID)
	if err != nil {
		return nil, err
	}
	if len(bills) == 0 {
		return nil, notFound("bill", billID)
	}
	return bills[0], nil
}

// FindBill retrieves the bill for a natural key.
func (s *SQLiteStore) FindBill(ctx context.Context, studentID, parentID, monthYear string) (*models.Bill, error) {
	bills, err := s.queryBills(ctx,
		"SELECT "+billColumns+" FROM bills WHERE student_id = ? AND parent_id = ? AND month_year = ?",
		studentID, parentID, monthYear,
	)
	if err != nil {
		return nil, err
	}
	if len(bills) == 0 {
		return nil, notFound("bill", studentID+"/"+parentID+"/"+monthYear)
	}
	return bills[0], nil
}

// ListBills retrieves bills matching the filter, newest month first.
func (s *SQLiteStore) ListBills(ctx context.Context, filter storage.BillFilter) ([]*models.Bill, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.ParentID != "" {
		where = append(where, "parent_id = ?")
		args = append(args, filter.ParentID)
	}
	if filter.StudentID != "" {
		where = append(where, "student_id = ?")
		args = append(args, filter.StudentID)
	}
	if filter.MonthYear != "" {
		where = append(where, "month_year = ?")
		args = append(args, filter.MonthYear)
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}

	query := "SELECT " + billColumns + " FROM bills"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY month_year DESC, student_id"

	return s.queryBills(ctx, query, args...)
}

// ListBillsByClass retrieves every bill that references classID.
func (s *SQLiteStore) ListBillsByClass(ctx context.Context, classID string) ([]*models.Bill, error) {
	return s.queryBills(ctx,
		`SELECT `+billColumns+` FROM bills
		 WHERE id IN (SELECT bill_id FROM bill_classes WHERE class_id = ?)
		 ORDER BY month_year, student_id`,
		classID,
	)
}

// queryBills runs a bill query and attaches each bill's class list.
// Rows are fully read before the class lists are loaded.
func (s *SQLiteStore) queryBills(ctx context.Context, query string, args ...interface{}) ([]*models.Bill, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bills: %w", err)
	}
	defer rows.Close()

	var bills []*models.Bill
	for rows.Next() {
		bill := &models.Bill{}
		var (
			status    string
			generated int64
			updated   int64
			dueDate   sql.NullString
		)
		if err := rows.Scan(&bill.ID, &bill.StudentID, &bill.ParentID, &bill.MonthYear,
			&bill.TotalClassesCount, &bill.Amount, &bill.AmountPaid, &bill.Currency, &status,
			&generated, &dueDate, &bill.Notes, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan bill: %w", err)
		}
		bill.Status = models.BillStatus(status)
		bill.BillingGeneratedDate = time.Unix(generated, 0).UTC()
		bill.UpdatedAt = time.Unix(updated, 0).UTC()
		if bill.DueDate, err = parseDate(dueDate); err != nil {
			return nil, err
		}
		bills = append(bills, bill)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bills: %w", err)
	}
	rows.Close()

	for _, bill := range bills {
		if bill.ClassIDs, bill.BilledFrom, err = s.billClasses(ctx, bill.ID); err != nil {
			return nil, err
		}
	}
	return bills, nil
}

// billClasses loads a bill's class list in billing order, with the partial
// month start of each class that has one.
func (s *SQLiteStore) billClasses(ctx context.Context, billID string) ([]string, map[string]time.Time, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT class_id, billed_from FROM bill_classes WHERE bill_id = ? ORDER BY position",
		billID,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get bill classes: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	var from map[string]time.Time
	for rows.Next() {
		var (
			id     string
			billed sql.NullString
		)
		if err := rows.Scan(&id, &billed); err != nil {
			return nil, nil, fmt.Errorf("failed to scan bill class: %w", err)
		}
		ids = append(ids, id)
		start, err := parseDate(billed)
		if err != nil {
			return nil, nil, err
		}
		if !start.IsZero() {
			if from == nil {
				from = make(map[string]time.Time)
			}
			from[id] = start
		}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to iterate bill classes: %w", err)
	}
	return ids, from, nil
}
