package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharun-Siva/Tutor-App-sub002/internal/models"
	"github.com/dharun-Siva/Tutor-App-sub002/internal/storage"
)

func TestGenerateImmediateBillingForClass(t *testing.T) {
	t.Run("bills remaining sessions of the current month", func(t *testing.T) {
		f := newFixture(t, time.Date(2025, 11, 24, 10, 0, 0, 0, time.UTC))
		f.addParent("parent-1")
		f.addStudent("student-1", "parent-1")
		class := f.addClass(monWed("new", "25.00", "student-1"))

		bills, err := f.svc.GenerateImmediateBillingForClass(f.ctx, class)
		require.NoError(t, err)
		require.Len(t, bills, 1)

		bill := bills[0]
		assert.Equal(t, "2025-11", bill.MonthYear)
		assert.Equal(t, 2, bill.TotalClassesCount)
		assert.Equal(t, "50.00", bill.Amount.StringFixed(2))
		assert.Equal(t, []string{"new"}, bill.ClassIDs)
		assert.Contains(t, bill.Notes, `Bill created for new class "Algebra new" (new): 2 sessions`)

		_, err = f.store.FindBill(f.ctx, "student-1", "parent-1", "2025-12")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("merges into an existing bill once", func(t *testing.T) {
		f := newFixture(t, time.Date(2025, 11, 24, 10, 0, 0, 0, time.UTC))
		f.addParent("parent-1")
		f.addStudent("student-1", "parent-1")
		f.addClass(oneTime("existing", "40.00", day(2025, 11, 28), "student-1"))
		first, err := f.svc.GenerateOrUpdateBill(f.ctx, "student-1", "parent-1", "2025-11")
		require.NoError(t, err)

		class := f.addClass(monWed("new", "25.00", "student-1"))
		bills, err := f.svc.GenerateImmediateBillingForClass(f.ctx, class)
		require.NoError(t, err)
		require.Len(t, bills, 1)

		merged := bills[0]
		assert.Equal(t, first.ID, merged.ID)
		assert.Equal(t, 3, merged.TotalClassesCount)
		assert.Equal(t, "90.00", merged.Amount.StringFixed(2))
		assert.Equal(t, []string{"existing", "new"}, merged.ClassIDs)
		assert.Contains(t, merged.Notes, "Added new class")

		again, err := f.svc.GenerateImmediateBillingForClass(f.ctx, class)
		require.NoError(t, err)
		require.Len(t, again, 1)
		assert.Equal(t, 3, again[0].TotalClassesCount)
		assert.Equal(t, "90.00", again[0].Amount.StringFixed(2))

		all, err := f.store.ListBills(f.ctx, storage.BillFilter{StudentID: "student-1"})
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("reopens a paid bill for the new charge", func(t *testing.T) {
		f := newFixture(t, time.Date(2025, 11, 10, 10, 0, 0, 0, time.UTC))
		f.addParent("parent-1")
		f.addStudent("student-1", "parent-1")
		f.addClass(oneTime("workshop", "40.00", day(2025, 11, 15), "student-1"))
		first, err := f.svc.GenerateOrUpdateBill(f.ctx, "student-1", "parent-1", "2025-11")
		require.NoError(t, err)
		_, err = f.svc.UpdateBillStatus(f.ctx, first.ID, models.BillPaid, "cash")
		require.NoError(t, err)

		class := f.addClass(monWed("new", "25.00", "student-1"))
		bills, err := f.svc.GenerateImmediateBillingForClass(f.ctx, class)
		require.NoError(t, err)
		require.Len(t, bills, 1)

		bill, err := f.store.GetBill(f.ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, models.BillUnpaid, bill.Status)
		assert.Equal(t, 7, bill.TotalClassesCount)
		assert.Equal(t, "190.00", bill.Amount.StringFixed(2))
		assert.Equal(t, "40.00", bill.AmountPaid.StringFixed(2))
		assert.Equal(t, "150.00", bill.Outstanding().StringFixed(2))
		assert.Contains(t, bill.Notes, "ADDITIONAL CHARGE: 150.00 USD, bill reopened from paid")

		total, err := f.svc.ParentBillsTotal(f.ctx, []*models.Bill{bill}, "USD")
		require.NoError(t, err)
		assert.Equal(t, "150.00", total.StringFixed(2))

		all, err := f.store.ListBills(f.ctx, storage.BillFilter{StudentID: "student-1"})
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("reopens a cancelled bill for the new charge", func(t *testing.T) {
		f := newFixture(t, time.Date(2025, 11, 24, 10, 0, 0, 0, time.UTC))
		f.addParent("parent-1")
		f.addStudent("student-1", "parent-1")
		f.addClass(oneTime("workshop", "40.00", day(2025, 11, 28), "student-1"))
		first, err := f.svc.GenerateOrUpdateBill(f.ctx, "student-1", "parent-1", "2025-11")
		require.NoError(t, err)
		_, err = f.svc.UpdateBillStatus(f.ctx, first.ID, models.BillCancelled, "")
		require.NoError(t, err)

		class := f.addClass(monWed("new", "25.00", "student-1"))
		bills, err := f.svc.GenerateImmediateBillingForClass(f.ctx, class)
		require.NoError(t, err)
		require.Len(t, bills, 1)

		bill := bills[0]
		assert.Equal(t, models.BillUnpaid, bill.Status)
		assert.Equal(t, "90.00", bill.Amount.StringFixed(2))
		assert.True(t, bill.AmountPaid.IsZero())
		assert.Contains(t, bill.Notes, "ADDITIONAL CHARGE: 50.00 USD, bill reopened from cancelled")
	})

	t.Run("bills a repeated student once", func(t *testing.T) {
		f := newFixture(t, time.Date(2025, 11, 24, 10, 0, 0, 0, time.UTC))
		f.addParent("parent-1")
		f.addStudent("student-1", "parent-1")
		class := monWed("new", "25.00", "student-1", "student-1")

		bills, err := f.svc.GenerateImmediateBillingForClass(f.ctx, class)
		require.NoError(t, err)
		require.Len(t, bills, 1)
		assert.Equal(t, 2, bills[0].TotalClassesCount)
	})

	t.Run("bills next month from the cutover day", func(t *testing.T) {
		f := newFixture(t, time.Date(2025, 11, 25, 10, 0, 0, 0, time.UTC))
		f.addParent("parent-1")
		f.addStudent("student-1", "parent-1")
		class := f.addClass(monWed("new", "25.00", "student-1"))

		bills, err := f.svc.GenerateImmediateBillingForClass(f.ctx, class)
		require.NoError(t, err)
		require.Len(t, bills, 2)

		assert.Equal(t, "2025-11", bills[0].MonthYear)
		assert.Equal(t, 1, bills[0].TotalClassesCount)
		assert.Equal(t, "2025-12", bills[1].MonthYear)
		assert.Equal(t, 10, bills[1].TotalClassesCount)
		assert.Equal(t, "250.00", bills[1].Amount.StringFixed(2))
		assert.Equal(t, day(2025, 12, 25), bills[1].DueDate)
	})

	t.Run("one-time class counts anywhere in the current month", func(t *testing.T) {
		f := newFixture(t, time.Date(2025, 11, 26, 10, 0, 0, 0, time.UTC))
		f.addParent("parent-1")
		f.addStudent("student-1", "parent-1")

		past := f.addClass(oneTime("past", "40.00", day(2025, 11, 3), "student-1"))
		bills, err := f.svc.GenerateImmediateBillingForClass(f.ctx, past)
		require.NoError(t, err)
		require.Len(t, bills, 1)
		assert.Equal(t, 1, bills[0].TotalClassesCount)

		nextMonth := f.addClass(oneTime("next", "40.00", day(2025, 12, 3), "student-1"))
		bills, err = f.svc.GenerateImmediateBillingForClass(f.ctx, nextMonth)
		require.NoError(t, err)
		assert.Empty(t, bills)
	})

	t.Run("demo classes produce no bills", func(t *testing.T) {
		f := newFixture(t, time.Date(2025, 11, 26, 10, 0, 0, 0, time.UTC))
		f.addParent("parent-1")
		f.addStudent("student-1", "parent-1")
		demo := monWed("demo", "25.00", "student-1")
		demo.PaymentStatus = models.ClassDemoClass
		f.addClass(demo)

		bills, err := f.svc.GenerateImmediateBillingForClass(f.ctx, demo)
		require.NoError(t, err)
		assert.Empty(t, bills)

		stored, err := f.store.ListBills(f.ctx, storage.BillFilter{})
		require.NoError(t, err)
		assert.Empty(t, stored)
	})

	t.Run("skips students without a parent", func(t *testing.T) {
		f := newFixture(t, time.Date(2025, 11, 24, 10, 0, 0, 0, time.UTC))
		f.addParent("parent-1")
		f.addStudent("student-1", "parent-1")
		class := f.addClass(monWed("new", "25.00", "student-1", "orphan"))

		bills, err := f.svc.GenerateImmediateBillingForClass(f.ctx, class)
		require.NoError(t, err)
		require.Len(t, bills, 1)
		assert.Equal(t, "student-1", bills[0].StudentID)
	})

	t.Run("rejects a missing class", func(t *testing.T) {
		f := newFixture(t, day(2025, 11, 24))
		_, err := f.svc.GenerateImmediateBillingForClass(f.ctx, nil)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}
