package billing

import (
	"time"

	"github.com/dharun-Siva/Tutor-App-sub002/internal/calculator"
)

const (
	// AheadBillingCutoverDay is the first day of the month on which next
	// month's bills are generated.
	AheadBillingCutoverDay = 25

	// AheadBillingWindowEndDay is the last day on which the daily run also
	// bills the month after next.
	AheadBillingWindowEndDay = 28

	// BillDueDay is the day of the billed month a bill falls due.
	BillDueDay = 25
)

// ShouldGenerateAheadBilling reports whether today is on or after the
// cutover day, when bills for next month are produced.
func ShouldGenerateAheadBilling(today time.Time) bool {
	return today.Day() >= AheadBillingCutoverDay
}

// AheadBillingMonths returns the months the daily run should bill.
// Before the cutover nothing is billed. From the cutover next month is
// billed, and during the window up to AheadBillingWindowEndDay the month
// after next is billed as well.
func AheadBillingMonths(today time.Time) []calculator.MonthYear {
	if !ShouldGenerateAheadBilling(today) {
		return nil
	}
	current := calculator.MonthOf(today)
	months := []calculator.MonthYear{current.Next()}
	if today.Day() <= AheadBillingWindowEndDay {
		months = append(months, current.AddMonths(2))
	}
	return months
}
