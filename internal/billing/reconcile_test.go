package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharun-Siva/Tutor-App-sub002/internal/models"
	"github.com/dharun-Siva/Tutor-App-sub002/internal/storage"
)

// updateFailingStore fails bill updates for selected students.
type updateFailingStore struct {
	storage.Store
	failFor map[string]bool
}

func (s *updateFailingStore) UpdateBill(ctx context.Context, bill *models.Bill) error {
	if s.failFor[bill.StudentID] {
		return errors.New("database is locked")
	}
	return s.Store.UpdateBill(ctx, bill)
}

func TestHandleClassDeletion(t *testing.T) {
	f := newFixture(t, time.Date(2025, 11, 10, 9, 0, 0, 0, time.UTC))
	f.addParent("parent-1")
	f.addStudent("student-1", "parent-1")
	f.addStudent("student-2", "parent-1")
	f.addClass(monWed("recurring", "25.00", "student-1"))
	f.addClass(oneTime("workshop", "40.00", day(2025, 11, 15), "student-1", "student-2"))

	paid, err := f.svc.GenerateOrUpdateBill(f.ctx, "student-1", "parent-1", "2025-11")
	require.NoError(t, err)
	require.Equal(t, "240.00", paid.Amount.StringFixed(2))
	_, err = f.svc.UpdateBillStatus(f.ctx, paid.ID, models.BillPaid, "")
	require.NoError(t, err)

	unpaid, err := f.svc.GenerateOrUpdateBill(f.ctx, "student-2", "parent-1", "2025-11")
	require.NoError(t, err)
	require.Equal(t, "40.00", unpaid.Amount.StringFixed(2))

	require.NoError(t, f.store.DeleteClass(f.ctx, "workshop"))
	summary, err := f.svc.HandleClassDeletion(f.ctx, "workshop")
	require.NoError(t, err)
	assert.Equal(t, "workshop", summary.ClassID)
	assert.Equal(t, 0, summary.ErrorCount)
	assert.Len(t, summary.Bills, 2)

	t.Run("paid bill is recomputed and flagged for refund", func(t *testing.T) {
		bill, err := f.store.GetBill(f.ctx, paid.ID)
		require.NoError(t, err)
		assert.Equal(t, 8, bill.TotalClassesCount)
		assert.Equal(t, "200.00", bill.Amount.StringFixed(2))
		assert.Equal(t, []string{"recurring"}, bill.ClassIDs)
		assert.Equal(t, models.BillPaid, bill.Status)
		assert.Contains(t, bill.Notes, "Class workshop deleted: sessions 9 -> 8, amount 240.00 -> 200.00 USD")
		assert.Contains(t, bill.Notes, "REFUND REQUIRED: 40.00 USD")
		assert.True(t, bill.Amount.LessThanOrEqual(paid.Amount))
	})

	t.Run("unpaid bill is not flagged", func(t *testing.T) {
		bill, err := f.store.GetBill(f.ctx, unpaid.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, bill.TotalClassesCount)
		assert.True(t, bill.Amount.IsZero())
		assert.Empty(t, bill.ClassIDs)
		assert.NotContains(t, bill.Notes, "REFUND REQUIRED")
	})

	t.Run("bills no longer reference the class", func(t *testing.T) {
		bills, err := f.store.ListBillsByClass(f.ctx, "workshop")
		require.NoError(t, err)
		assert.Empty(t, bills)

		again, err := f.svc.HandleClassDeletion(f.ctx, "workshop")
		require.NoError(t, err)
		assert.Empty(t, again.Bills)
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.RefundsFlagged))
}

func TestHandleClassDeletionIgnoresMissingClasses(t *testing.T) {
	f := newFixture(t, time.Date(2025, 11, 10, 9, 0, 0, 0, time.UTC))
	f.addParent("parent-1")
	f.addStudent("student-1", "parent-1")
	f.addClass(monWed("a", "25.00", "student-1"))
	f.addClass(monWed("b", "10.00", "student-1"))

	bill, err := f.svc.GenerateOrUpdateBill(f.ctx, "student-1", "parent-1", "2025-11")
	require.NoError(t, err)
	require.Equal(t, "280.00", bill.Amount.StringFixed(2))

	// "a" disappears without being reconciled; only "b" may still count.
	require.NoError(t, f.store.DeleteClass(f.ctx, "a"))
	require.NoError(t, f.store.DeleteClass(f.ctx, "b"))

	summary, err := f.svc.HandleClassDeletion(f.ctx, "b")
	require.NoError(t, err)
	require.Len(t, summary.Bills, 1)
	assert.Equal(t, 0, summary.Bills[0].TotalClassesCount)
	assert.True(t, summary.Bills[0].Amount.IsZero())
	assert.Equal(t, []string{"a"}, summary.Bills[0].ClassIDs)
}

func TestHandleClassDeletionFailSoft(t *testing.T) {
	f := newFixture(t, time.Date(2025, 11, 10, 9, 0, 0, 0, time.UTC))
	f.addParent("parent-1")
	f.addStudent("student-1", "parent-1")
	f.addStudent("student-2", "parent-1")
	f.addClass(monWed("a", "25.00", "student-1", "student-2"))

	for _, student := range []string{"student-1", "student-2"} {
		_, err := f.svc.GenerateOrUpdateBill(f.ctx, student, "parent-1", "2025-11")
		require.NoError(t, err)
	}

	f.useStore(&updateFailingStore{Store: f.store, failFor: map[string]bool{"student-1": true}})
	summary, err := f.svc.HandleClassDeletion(f.ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.ErrorCount)
	require.Len(t, summary.Errors, 1)
	assert.Contains(t, summary.Errors[0], "database is locked")
	require.Len(t, summary.Bills, 1)
	assert.Equal(t, "student-2", summary.Bills[0].StudentID)

	_, err = f.svc.HandleClassDeletion(f.ctx, "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestHandleClassDeletionKeepsBilledWindow(t *testing.T) {
	f := newFixture(t, time.Date(2025, 11, 24, 10, 0, 0, 0, time.UTC))
	f.addParent("parent-1")
	f.addStudent("student-1", "parent-1")
	f.addClass(oneTime("other", "40.00", day(2025, 11, 28), "student-1"))
	_, err := f.svc.GenerateOrUpdateBill(f.ctx, "student-1", "parent-1", "2025-11")
	require.NoError(t, err)

	class := f.addClass(monWed("new", "25.00", "student-1"))
	bills, err := f.svc.GenerateImmediateBillingForClass(f.ctx, class)
	require.NoError(t, err)
	require.Len(t, bills, 1)
	merged := bills[0]
	require.Equal(t, 3, merged.TotalClassesCount)
	require.Equal(t, "90.00", merged.Amount.StringFixed(2))

	t.Run("regeneration keeps the partial month", func(t *testing.T) {
		again, err := f.svc.GenerateOrUpdateBill(f.ctx, "student-1", "parent-1", "2025-11")
		require.NoError(t, err)
		assert.Equal(t, 3, again.TotalClassesCount)
		assert.Equal(t, "90.00", again.Amount.StringFixed(2))
		assert.Equal(t, day(2025, 11, 24), again.BilledFrom["new"])
	})

	t.Run("deletion never raises the bill", func(t *testing.T) {
		require.NoError(t, f.store.DeleteClass(f.ctx, "other"))
		summary, err := f.svc.HandleClassDeletion(f.ctx, "other")
		require.NoError(t, err)
		require.Len(t, summary.Bills, 1)

		bill, err := f.store.GetBill(f.ctx, merged.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, bill.TotalClassesCount)
		assert.Equal(t, "50.00", bill.Amount.StringFixed(2))
		assert.True(t, bill.Amount.LessThanOrEqual(merged.Amount))
		assert.Equal(t, []string{"new"}, bill.ClassIDs)
		assert.Equal(t, day(2025, 11, 24), bill.BilledFrom["new"])
		assert.NotContains(t, bill.Notes, "REFUND REQUIRED")
	})
}

func TestHandleClassDeletionOnReopenedBill(t *testing.T) {
	f := newFixture(t, time.Date(2025, 11, 10, 10, 0, 0, 0, time.UTC))
	f.addParent("parent-1")
	f.addStudent("student-1", "parent-1")
	f.addClass(oneTime("workshop", "40.00", day(2025, 11, 15), "student-1"))
	bill, err := f.svc.GenerateOrUpdateBill(f.ctx, "student-1", "parent-1", "2025-11")
	require.NoError(t, err)
	_, err = f.svc.UpdateBillStatus(f.ctx, bill.ID, models.BillPaid, "")
	require.NoError(t, err)

	class := f.addClass(monWed("new", "25.00", "student-1"))
	_, err = f.svc.GenerateImmediateBillingForClass(f.ctx, class)
	require.NoError(t, err)

	t.Run("charge still above the payment", func(t *testing.T) {
		require.NoError(t, f.store.DeleteClass(f.ctx, "workshop"))
		_, err := f.svc.HandleClassDeletion(f.ctx, "workshop")
		require.NoError(t, err)

		got, err := f.store.GetBill(f.ctx, bill.ID)
		require.NoError(t, err)
		assert.Equal(t, "150.00", got.Amount.StringFixed(2))
		assert.Equal(t, "110.00", got.Outstanding().StringFixed(2))
		assert.NotContains(t, got.Notes, "REFUND REQUIRED")
	})

	t.Run("payment above the charge is refunded", func(t *testing.T) {
		require.NoError(t, f.store.DeleteClass(f.ctx, "new"))
		_, err := f.svc.HandleClassDeletion(f.ctx, "new")
		require.NoError(t, err)

		got, err := f.store.GetBill(f.ctx, bill.ID)
		require.NoError(t, err)
		assert.True(t, got.Amount.IsZero())
		assert.True(t, got.Outstanding().IsZero())
		assert.Contains(t, got.Notes, "REFUND REQUIRED: 40.00 USD")
		assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.RefundsFlagged))
	})
}
