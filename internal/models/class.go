package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ScheduleType describes how a class repeats.
type ScheduleType string

const (
	ScheduleOneTime         ScheduleType = "one-time"
	ScheduleWeeklyRecurring ScheduleType = "weekly-recurring"
)

// ClassPaymentStatus is the billing state of a class.
// Demo classes are never billed.
type ClassPaymentStatus string

const (
	ClassUnpaid    ClassPaymentStatus = "unpaid"
	ClassPaid      ClassPaymentStatus = "paid"
	ClassDemoClass ClassPaymentStatus = "democlass"
)

// ClassStatus is the lifecycle state of a class.
type ClassStatus string

const (
	ClassScheduled ClassStatus = "scheduled"
	ClassCompleted ClassStatus = "completed"
	ClassCancelled ClassStatus = "cancelled"
)

// Class is a tutoring class as seen by billing.
// The class catalog owns it; billing only reads it.
type Class struct {
	// ID is the unique identifier for the class (UUID format).
	ID string

	// Title is the display name of the class (e.g., "Algebra II").
	Title string

	// ScheduleType selects which of the date fields below apply.
	ScheduleType ScheduleType

	// ClassDate is the single session date of a one-time class.
	ClassDate time.Time

	// StartDate and EndDate bound a recurring class, both inclusive.
	StartDate time.Time
	EndDate   time.Time

	// RecurringDays are lowercase English weekday names ("monday".."sunday").
	RecurringDays []string

	// Amount is the price charged per session.
	Amount decimal.Decimal

	// Currency is the currency code of Amount (e.g., "USD").
	Currency string

	// Students are the IDs of enrolled students.
	Students []string

	PaymentStatus ClassPaymentStatus
	Status        ClassStatus

	// CreatedAt is the Unix timestamp when the class was created.
	CreatedAt int64
}

// Billable reports whether the class may contribute sessions to a bill.
func (c *Class) Billable() bool {
	return c.PaymentStatus != ClassDemoClass
}

// IsRecurring reports whether the class repeats weekly.
func (c *Class) IsRecurring() bool {
	return c.ScheduleType == ScheduleWeeklyRecurring
}

// LastDate returns the date of the final session of the class.
func (c *Class) LastDate() time.Time {
	if c.IsRecurring() {
		return c.EndDate
	}
	return c.ClassDate
}

// HasStudent reports whether studentID is enrolled in the class.
func (c *Class) HasStudent(studentID string) bool {
	for _, s := range c.Students {
		if s == studentID {
			return true
		}
	}
	return false
}
