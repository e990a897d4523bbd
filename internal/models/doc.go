// Package models defines the core domain models for tutoring-center billing.
//
// # Models
//
//   - Class: a scheduled class (one-time or weekly-recurring) with a per-session price
//   - Bill: one student's bill for one calendar month
//   - StudentProfile / ParentProfile: the slice of the user directory billing needs
//   - RunSummary / ReconciliationSummary: fail-soft reports for multi-bill operations
//
// # Conventions
//
//  1. Relationships are ID strings, never pointers between models.
//  2. Calendar dates (ClassDate, StartDate, EndDate, DueDate) are time.Time values at
//     UTC midnight; only the year, month and day are meaningful.
//  3. Money is decimal.Decimal, never float64.
//  4. A Bill is keyed by (StudentID, ParentID, MonthYear); storage enforces uniqueness.
package models
