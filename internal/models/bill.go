package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BillStatus is the payment state of a monthly bill.
type BillStatus string

const (
	BillUnpaid    BillStatus = "unpaid"
	BillPaid      BillStatus = "paid"
	BillCancelled BillStatus = "cancelled"
)

// Valid reports whether s is a known bill status.
func (s BillStatus) Valid() bool {
	switch s {
	case BillUnpaid, BillPaid, BillCancelled:
		return true
	}
	return false
}

// Bill is one student's bill for one calendar month.
// At most one Bill exists per (StudentID, ParentID, MonthYear).
type Bill struct {
	// ID is the unique identifier for the bill (UUID format).
	ID string

	StudentID string
	ParentID  string

	// MonthYear is the billed month formatted as YYYY-MM.
	MonthYear string

	// TotalClassesCount is the number of sessions billed for the month.
	TotalClassesCount int

	// Amount is the gross amount owed, independent of Status.
	Amount decimal.Decimal

	// AmountPaid is what was received for the bill. It survives the bill
	// being reopened by a later charge.
	AmountPaid decimal.Decimal

	Currency string
	Status   BillStatus

	// BillingGeneratedDate is when the bill row was first created.
	BillingGeneratedDate time.Time

	// DueDate is the 25th of the billed month.
	DueDate time.Time

	// ClassIDs are the classes that contributed sessions to this bill.
	ClassIDs []string

	// BilledFrom holds the first billed date of classes charged for only
	// part of the month. Classes not listed are charged for the whole month.
	BilledFrom map[string]time.Time

	// Notes is an append-only audit trail, one entry per line.
	Notes string

	// UpdatedAt is the last time the bill row was written.
	UpdatedAt time.Time
}

// HasClass reports whether classID contributed to the bill.
func (b *Bill) HasClass(classID string) bool {
	for _, id := range b.ClassIDs {
		if id == classID {
			return true
		}
	}
	return false
}

// AppendNote adds a line to the bill's notes without touching earlier entries.
func (b *Bill) AppendNote(note string) {
	if b.Notes == "" {
		b.Notes = note
		return
	}
	b.Notes += "\n" + note
}

// Outstanding is what remains to be collected. Only unpaid bills owe anything.
func (b *Bill) Outstanding() decimal.Decimal {
	if b.Status != BillUnpaid {
		return decimal.Zero
	}
	due := b.Amount.Sub(b.AmountPaid)
	if due.IsNegative() {
		return decimal.Zero
	}
	return due
}
