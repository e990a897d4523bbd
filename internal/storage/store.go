// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/dharun-Siva/Tutor-App-sub002/internal/models"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned when a create would violate a unique key,
	// such as a second bill for the same student, parent and month.
	ErrAlreadyExists = errors.New("already exists")
)

// BillFilter narrows ListBills. Empty fields match everything.
type BillFilter struct {
	ParentID  string
	StudentID string
	MonthYear string
	Status    models.BillStatus
}

// BillStore defines the persistence operations for monthly bills.
// Every write is a single-row atomic operation; no method spans several bills.
type BillStore interface {
	// CreateBill persists a new bill. The bill.ID field will be populated by the store.
	// Returns ErrAlreadyExists if a bill with the same natural key exists.
	CreateBill(ctx context.Context, bill *models.Bill) error

	// GetBill retrieves a bill by its ID. Returns ErrNotFound if missing.
	GetBill(ctx context.Context, billID string) (*models.Bill, error)

	// FindBill retrieves the bill for the (student, parent, month) natural key.
	// Returns ErrNotFound if there is none.
	FindBill(ctx context.Context, studentID, parentID, monthYear string) (*models.Bill, error)

	// UpdateBill overwrites every mutable field of an existing bill, including
	// its class list. Returns ErrNotFound if the bill does not exist.
	UpdateBill(ctx context.Context, bill *models.Bill) error

	// ListBills returns bills matching the filter, newest month first.
	ListBills(ctx context.Context, filter BillFilter) ([]*models.Bill, error)

	// ListBillsByClass returns every bill whose class list contains classID.
	ListBillsByClass(ctx context.Context, classID string) ([]*models.Bill, error)
}

// ClassFilter narrows ListClasses. Empty fields match everything.
type ClassFilter struct {
	Status    models.ClassStatus
	StudentID string
}

// ClassCatalog is read access to the class catalog.
type ClassCatalog interface {
	// GetClass retrieves a class by ID. Returns ErrNotFound if missing.
	GetClass(ctx context.Context, classID string) (*models.Class, error)

	// ListClasses returns classes matching the filter.
	ListClasses(ctx context.Context, filter ClassFilter) ([]*models.Class, error)
}

// ClassWriter mutates the class catalog.
type ClassWriter interface {
	// CreateClass persists a new class. The class.ID field will be populated by the store.
	CreateClass(ctx context.Context, class *models.Class) error

	// DeleteClass removes a class. Returns ErrNotFound if missing.
	// Bills keep referencing the class until they are reconciled.
	DeleteClass(ctx context.Context, classID string) error

	// CompleteExpiredClasses marks scheduled classes whose last session is
	// before the given date as completed, returning how many changed.
	CompleteExpiredClasses(ctx context.Context, before time.Time) (int64, error)
}

// Directory is access to student and parent profiles.
type Directory interface {
	// GetStudent retrieves a student profile. Returns ErrNotFound if missing.
	GetStudent(ctx context.Context, studentID string) (*models.StudentProfile, error)

	// ListParents returns every parent profile with its child list.
	ListParents(ctx context.Context) ([]*models.ParentProfile, error)

	// CreateStudent persists a new student. The student.ID field will be populated by the store.
	CreateStudent(ctx context.Context, student *models.StudentProfile) error

	// CreateParent persists a new parent and its child list.
	CreateParent(ctx context.Context, parent *models.ParentProfile) error
}

// Store combines every storage capability behind one backend.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	BillStore
	ClassCatalog
	ClassWriter
	Directory

	// Close releases any resources held by the store.
	Close() error
}
