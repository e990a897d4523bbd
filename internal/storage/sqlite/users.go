package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/dharun-Siva/Tutor-App-sub002/internal/models"
	"github.com/dharun-Siva/Tutor-App-sub002/internal/storage"
)

// CreateStudent inserts a new student profile.
func (s *SQLiteStore) CreateStudent(ctx context.Context, student *models.StudentProfile) error {
	if student.ID == "" {
		student.ID = uuid.New().String()
	}
	if student.CreatedAt == 0 {
		student.CreatedAt = s.now().Unix()
	}

	var parentID interface{}
	if student.ParentID != nil && *student.ParentID != "" {
		parentID = *student.ParentID
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO students (id, name, parent_id, created_at) VALUES (?, ?, ?, ?)",
		student.ID, student.Name, parentID, student.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("student %s %w", student.ID, storage.ErrAlreadyExists)
	}
	if isForeignKeyViolation(err) {
		return notFound("parent", *student.ParentID)
	}
	if err != nil {
		return fmt.Errorf("failed to create student: %w", err)
	}
	return nil
}

// GetStudent retrieves a student profile by ID.
func (s *SQLiteStore) GetStudent(ctx context.Context, studentID string) (*models.StudentProfile, error) {
	student := &models.StudentProfile{}
	var parentID sql.NullString

	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, parent_id, created_at FROM students WHERE id = ?",
		studentID,
	).Scan(&student.ID, &student.Name, &parentID, &student.CreatedAt)
	if isNoRows(err) {
		return nil, notFound("student", studentID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get student: %w", err)
	}

	if parentID.Valid && parentID.String != "" {
		student.ParentID = &parentID.String
	}
	return student, nil
}

// CreateParent inserts a new parent and its child list in one transaction.
func (s *SQLiteStore) CreateParent(ctx context.Context, parent *models.ParentProfile) error {
	if parent.ID == "" {
		parent.ID = uuid.New().String()
	}
	if parent.CreatedAt == 0 {
		parent.CreatedAt = s.now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO parents (id, name, email, created_at) VALUES (?, ?, ?, ?)",
		parent.ID, parent.Name, parent.Email, parent.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("parent %s %w", parent.ID, storage.ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("failed to create parent: %w", err)
	}

	for _, childID := range parent.ChildIDs {
		_, err = tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO parent_children (parent_id, student_id) VALUES (?, ?)",
			parent.ID, childID,
		)
		if err != nil {
			return fmt.Errorf("failed to insert parent child: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListParents retrieves every parent with its child list.
func (s *SQLiteStore) ListParents(ctx context.Context) ([]*models.ParentProfile, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, email, created_at FROM parents ORDER BY created_at, id",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list parents: %w", err)
	}
	defer rows.Close()

	var parents []*models.ParentProfile
	byID := make(map[string]*models.ParentProfile)
	for rows.Next() {
		p := &models.ParentProfile{ChildIDs: []string{}}
		if err := rows.Scan(&p.ID, &p.Name, &p.Email, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan parent: %w", err)
		}
		parents = append(parents, p)
		byID[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating parents: %w", err)
	}
	rows.Close()

	childRows, err := s.db.QueryContext(ctx,
		"SELECT parent_id, student_id FROM parent_children ORDER BY parent_id, student_id",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list parent children: %w", err)
	}
	defer childRows.Close()

	for childRows.Next() {
		var parentID, studentID string
		if err := childRows.Scan(&parentID, &studentID); err != nil {
			return nil, fmt.Errorf("failed to scan parent child: %w", err)
		}
		if p, ok := byID[parentID]; ok {
			p.ChildIDs = append(p.ChildIDs, studentID)
		}
	}
	if err := childRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating parent children: %w", err)
	}

	return parents, nil
}
