package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharun-Siva/Tutor-App-sub002/internal/auth"
	"github.com/dharun-Siva/Tutor-App-sub002/internal/billing"
	"github.com/dharun-Siva/Tutor-App-sub002/internal/metrics"
	"github.com/dharun-Siva/Tutor-App-sub002/internal/middleware"
	"github.com/dharun-Siva/Tutor-App-sub002/internal/storage/sqlite"
	"github.com/dharun-Siva/Tutor-App-sub002/pkg/api"
	"github.com/dharun-Siva/Tutor-App-sub002/pkg/api/billingconnect"
)

const testSecret = "test-secret"

type testServer struct {
	billing   billingconnect.BillingServiceClient
	classes   billingconnect.ClassServiceClient
	directory billingconnect.DirectoryServiceClient
	metrics   *metrics.Metrics
	jwt       *auth.JWTManager
}

// setupTestServer creates a test server over a temp SQLite database with
// the clock fixed at now.
func setupTestServer(t *testing.T, now time.Time) *testServer {
	t.Helper()

	// Create temp database
	tmpFile, err := os.CreateTemp("", "test-*.db")
	require.NoError(t, err)
	tmpFile.Close()

	store, err := sqlite.New(tmpFile.Name())
	if err != nil {
		os.Remove(tmpFile.Name())
		t.Fatalf("failed to create store: %v", err)
	}

	m := metrics.New(prometheus.NewRegistry())
	engine := billing.NewService(store,
		billing.WithClock(func() time.Time { return now }),
		billing.WithMetrics(m),
	)
	jwtManager := auth.NewJWTManager(testSecret, time.Hour)
	interceptors := connect.WithInterceptors(
		middleware.MetricsInterceptor(m),
		middleware.RequireAuth(jwtManager),
		middleware.LoggingInterceptor(),
	)

	mux := http.NewServeMux()
	mux.Handle(billingconnect.NewBillingServiceHandler(NewBillingService(engine, store), interceptors))
	mux.Handle(billingconnect.NewClassServiceHandler(NewClassService(store, engine), interceptors))
	mux.Handle(billingconnect.NewDirectoryServiceHandler(NewDirectoryService(store), interceptors))
	server := httptest.NewServer(mux)

	t.Cleanup(func() {
		server.Close()
		store.Close()
		os.Remove(tmpFile.Name())
	})

	return &testServer{
		billing:   billingconnect.NewBillingServiceClient(http.DefaultClient, server.URL),
		classes:   billingconnect.NewClassServiceClient(http.DefaultClient, server.URL),
		directory: billingconnect.NewDirectoryServiceClient(http.DefaultClient, server.URL),
		metrics:   m,
		jwt:       jwtManager,
	}
}

func (s *testServer) token(t *testing.T, userID string, role auth.Role) string {
	t.Helper()
	token, err := s.jwt.Generate(userID, role)
	require.NoError(t, err)
	return token
}

// as wraps msg in a request carrying a bearer token.
func as[T any](token string, msg *T) *connect.Request[T] {
	req := connect.NewRequest(msg)
	if token != "" {
		req.Header().Set("Authorization", "Bearer "+token)
	}
	return req
}

func assertCode(t *testing.T, err error, want connect.Code) {
	t.Helper()
	require.Error(t, err)
	var connectErr *connect.Error
	require.True(t, errors.As(err, &connectErr), "expected connect error, got %v", err)
	assert.Equal(t, want, connectErr.Code(), connectErr.Message())
}

// seedFamily creates a parent with one linked student.
func seedFamily(t *testing.T, s *testServer, admin string) (parentID, studentID string) {
	t.Helper()
	ctx := context.Background()

	parent, err := s.directory.CreateParent(ctx, as(admin, &api.CreateParentRequest{
		Name:  "Pat Parent",
		Email: "pat@example.com",
	}))
	require.NoError(t, err)

	student, err := s.directory.CreateStudent(ctx, as(admin, &api.CreateStudentRequest{
		Name:     "Sam Student",
		ParentID: parent.Msg.Parent.ID,
	}))
	require.NoError(t, err)
	return parent.Msg.Parent.ID, student.Msg.Student.ID
}

func recurringClass(studentID string) *api.CreateClassRequest {
	return &api.CreateClassRequest{
		Title:         "Algebra II",
		ScheduleType:  "weekly-recurring",
		StartDate:     "2025-11-01",
		EndDate:       "2025-12-31",
		RecurringDays: []string{"Monday", " wednesday "},
		Amount:        "25.00",
		Currency:      "usd",
		Students:      []string{studentID},
	}
}

func TestClassLifecycle(t *testing.T) {
	s := setupTestServer(t, time.Date(2025, 11, 25, 10, 0, 0, 0, time.UTC))
	ctx := context.Background()
	admin := s.token(t, "admin-1", auth.RoleAdmin)
	parentID, studentID := seedFamily(t, s, admin)
	parent := s.token(t, parentID, auth.RoleParent)

	created, err := s.classes.CreateClass(ctx, as(admin, recurringClass(studentID)))
	require.NoError(t, err)
	class := created.Msg.Class
	assert.NotEmpty(t, class.ID)
	assert.Equal(t, []string{"monday", "wednesday"}, class.RecurringDays)
	assert.Equal(t, "USD", class.Currency)
	assert.Equal(t, "scheduled", class.Status)

	t.Run("creation bills the current and next month", func(t *testing.T) {
		require.Len(t, created.Msg.Bills, 2)
		assert.Equal(t, "2025-11", created.Msg.Bills[0].MonthYear)
		assert.Equal(t, 1, created.Msg.Bills[0].TotalClassesCount)
		assert.Equal(t, "25.00", created.Msg.Bills[0].Amount)
		assert.Equal(t, "2025-12", created.Msg.Bills[1].MonthYear)
		assert.Equal(t, 10, created.Msg.Bills[1].TotalClassesCount)
		assert.Equal(t, "2025-12-25", created.Msg.Bills[1].DueDate)
	})

	t.Run("parent reads their current month", func(t *testing.T) {
		resp, err := s.billing.GetParentCurrentMonthBills(ctx, as(parent, &api.GetParentCurrentMonthBillsRequest{
			ParentID: parentID,
		}))
		require.NoError(t, err)
		require.Len(t, resp.Msg.Bills, 1)
		assert.Equal(t, "25.00", resp.Msg.OutstandingTotal)
		assert.Equal(t, "USD", resp.Msg.Currency)

		all, err := s.billing.GetParentBills(ctx, as(parent, &api.GetParentBillsRequest{ParentID: parentID}))
		require.NoError(t, err)
		require.Len(t, all.Msg.Bills, 2)
		assert.Equal(t, "2025-12", all.Msg.Bills[0].MonthYear)
		assert.Equal(t, "275.00", all.Msg.OutstandingTotal)

		_, err = s.billing.GetParentBills(ctx, as(parent, &api.GetParentBillsRequest{
			ParentID: parentID,
			Currency: "eur",
		}))
		assertCode(t, err, connect.CodeInvalidArgument)
	})

	t.Run("batch run is idempotent with immediate billing", func(t *testing.T) {
		resp, err := s.billing.AutoGenerateBills(ctx, as(admin, &api.AutoGenerateBillsRequest{MonthYear: "2025-12"}))
		require.NoError(t, err)
		assert.Equal(t, 1, resp.Msg.Summary.TotalStudents)
		assert.Equal(t, 1, resp.Msg.Summary.SuccessCount)
		assert.Equal(t, 0, resp.Msg.Summary.ErrorCount)

		all, err := s.billing.GetParentBills(ctx, as(admin, &api.GetParentBillsRequest{
			ParentID:  parentID,
			MonthYear: "2025-12",
		}))
		require.NoError(t, err)
		require.Len(t, all.Msg.Bills, 1)
		assert.Equal(t, 10, all.Msg.Bills[0].TotalClassesCount)
	})

	t.Run("deleting a paid class flags a refund", func(t *testing.T) {
		dec := created.Msg.Bills[1]
		paid, err := s.billing.UpdateBillStatus(ctx, as(admin, &api.UpdateBillStatusRequest{
			BillID: dec.ID,
			Status: "paid",
			Note:   "bank transfer",
		}))
		require.NoError(t, err)
		assert.Equal(t, "paid", paid.Msg.Bill.Status)
		assert.Equal(t, "250.00", paid.Msg.Bill.AmountPaid)
		assert.Equal(t, "0.00", paid.Msg.Bill.Outstanding)

		resp, err := s.classes.DeleteClass(ctx, as(admin, &api.DeleteClassRequest{ClassID: class.ID}))
		require.NoError(t, err)
		assert.Equal(t, 0, resp.Msg.ErrorCount)
		require.Len(t, resp.Msg.Bills, 2)

		var refunded *api.Bill
		for _, b := range resp.Msg.Bills {
			assert.Equal(t, "0.00", b.Amount)
			assert.Empty(t, b.ClassIDs)
			if b.ID == dec.ID {
				refunded = b
			}
		}
		require.NotNil(t, refunded)
		assert.Contains(t, refunded.Notes, "REFUND REQUIRED: 250.00 USD")

		_, err = s.classes.DeleteClass(ctx, as(admin, &api.DeleteClassRequest{ClassID: class.ID}))
		assertCode(t, err, connect.CodeNotFound)
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.RPCs.WithLabelValues(
		billingconnect.ClassServiceCreateClassProcedure, "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.RPCs.WithLabelValues(
		billingconnect.ClassServiceDeleteClassProcedure, "not_found")))
}

func TestAuthorization(t *testing.T) {
	s := setupTestServer(t, time.Date(2025, 11, 10, 10, 0, 0, 0, time.UTC))
	ctx := context.Background()
	admin := s.token(t, "admin-1", auth.RoleAdmin)
	parentID, _ := seedFamily(t, s, admin)
	parent := s.token(t, parentID, auth.RoleParent)
	otherParent := s.token(t, "someone-else", auth.RoleParent)

	t.Run("missing token", func(t *testing.T) {
		_, err := s.billing.GetParentBills(ctx, as("", &api.GetParentBillsRequest{ParentID: parentID}))
		assertCode(t, err, connect.CodeUnauthenticated)
	})

	t.Run("malformed header", func(t *testing.T) {
		req := connect.NewRequest(&api.GetParentBillsRequest{ParentID: parentID})
		req.Header().Set("Authorization", "Token "+parent)
		_, err := s.billing.GetParentBills(ctx, req)
		assertCode(t, err, connect.CodeUnauthenticated)
	})

	t.Run("forged token", func(t *testing.T) {
		forged, err := auth.NewJWTManager("wrong", time.Hour).Generate("admin-1", auth.RoleAdmin)
		require.NoError(t, err)
		_, err = s.billing.AutoGenerateBills(ctx, as(forged, &api.AutoGenerateBillsRequest{MonthYear: "2025-11"}))
		assertCode(t, err, connect.CodeUnauthenticated)
	})

	t.Run("parent cannot read another parent's bills", func(t *testing.T) {
		_, err := s.billing.GetParentBills(ctx, as(otherParent, &api.GetParentBillsRequest{ParentID: parentID}))
		assertCode(t, err, connect.CodePermissionDenied)
	})

	t.Run("parent cannot run admin procedures", func(t *testing.T) {
		_, err := s.billing.AutoGenerateBills(ctx, as(parent, &api.AutoGenerateBillsRequest{MonthYear: "2025-11"}))
		assertCode(t, err, connect.CodePermissionDenied)

		_, err = s.classes.CreateClass(ctx, as(parent, recurringClass("student")))
		assertCode(t, err, connect.CodePermissionDenied)

		_, err = s.directory.CreateStudent(ctx, as(parent, &api.CreateStudentRequest{Name: "x"}))
		assertCode(t, err, connect.CodePermissionDenied)
	})

	t.Run("parent reads own bills", func(t *testing.T) {
		resp, err := s.billing.GetParentBills(ctx, as(parent, &api.GetParentBillsRequest{ParentID: parentID}))
		require.NoError(t, err)
		assert.Empty(t, resp.Msg.Bills)
		assert.Equal(t, "0.00", resp.Msg.OutstandingTotal)
	})
}

func TestErrorMapping(t *testing.T) {
	s := setupTestServer(t, time.Date(2025, 11, 10, 10, 0, 0, 0, time.UTC))
	ctx := context.Background()
	admin := s.token(t, "admin-1", auth.RoleAdmin)
	parentID, studentID := seedFamily(t, s, admin)

	tests := []struct {
		name string
		call func() error
		want connect.Code
	}{
		{
			name: "invalid month",
			call: func() error {
				_, err := s.billing.GenerateBill(ctx, as(admin, &api.GenerateBillRequest{
					StudentID: studentID, ParentID: parentID, MonthYear: "2025-13",
				}))
				return err
			},
			want: connect.CodeInvalidArgument,
		},
		{
			name: "unknown bill",
			call: func() error {
				_, err := s.billing.UpdateBillStatus(ctx, as(admin, &api.UpdateBillStatusRequest{
					BillID: "missing", Status: "paid",
				}))
				return err
			},
			want: connect.CodeNotFound,
		},
		{
			name: "unknown bill status",
			call: func() error {
				_, err := s.billing.UpdateBillStatus(ctx, as(admin, &api.UpdateBillStatusRequest{
					BillID: "missing", Status: "refunded",
				}))
				return err
			},
			want: connect.CodeInvalidArgument,
		},
		{
			name: "unknown class for immediate billing",
			call: func() error {
				_, err := s.billing.GenerateImmediateBilling(ctx, as(admin, &api.GenerateImmediateBillingRequest{
					ClassID: "missing",
				}))
				return err
			},
			want: connect.CodeNotFound,
		},
		{
			name: "recurring class without start date",
			call: func() error {
				req := recurringClass(studentID)
				req.StartDate = ""
				_, err := s.classes.CreateClass(ctx, as(admin, req))
				return err
			},
			want: connect.CodeInvalidArgument,
		},
		{
			name: "recurring class without days",
			call: func() error {
				req := recurringClass(studentID)
				req.RecurringDays = nil
				_, err := s.classes.CreateClass(ctx, as(admin, req))
				return err
			},
			want: connect.CodeInvalidArgument,
		},
		{
			name: "unknown weekday",
			call: func() error {
				req := recurringClass(studentID)
				req.RecurringDays = []string{"funday"}
				_, err := s.classes.CreateClass(ctx, as(admin, req))
				return err
			},
			want: connect.CodeInvalidArgument,
		},
		{
			name: "negative amount",
			call: func() error {
				req := recurringClass(studentID)
				req.Amount = "-5"
				_, err := s.classes.CreateClass(ctx, as(admin, req))
				return err
			},
			want: connect.CodeInvalidArgument,
		},
		{
			name: "repeated student",
			call: func() error {
				req := recurringClass(studentID)
				req.Students = []string{studentID, studentID}
				_, err := s.classes.CreateClass(ctx, as(admin, req))
				return err
			},
			want: connect.CodeInvalidArgument,
		},
		{
			name: "inverted date range",
			call: func() error {
				req := recurringClass(studentID)
				req.StartDate, req.EndDate = req.EndDate, req.StartDate
				_, err := s.classes.CreateClass(ctx, as(admin, req))
				return err
			},
			want: connect.CodeInvalidArgument,
		},
		{
			name: "one-time class without date",
			call: func() error {
				_, err := s.classes.CreateClass(ctx, as(admin, &api.CreateClassRequest{
					Title: "Workshop", ScheduleType: "one-time", Amount: "10", Currency: "USD",
				}))
				return err
			},
			want: connect.CodeInvalidArgument,
		},
		{
			name: "bad parent email",
			call: func() error {
				_, err := s.directory.CreateParent(ctx, as(admin, &api.CreateParentRequest{
					Name: "P", Email: "not-an-email",
				}))
				return err
			},
			want: connect.CodeInvalidArgument,
		},
		{
			name: "student with unknown parent",
			call: func() error {
				_, err := s.directory.CreateStudent(ctx, as(admin, &api.CreateStudentRequest{
					Name: "S", ParentID: "missing",
				}))
				return err
			},
			want: connect.CodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertCode(t, tt.call(), tt.want)
		})
	}
}

func TestGenerateBillAndNotes(t *testing.T) {
	s := setupTestServer(t, time.Date(2025, 11, 10, 10, 0, 0, 0, time.UTC))
	ctx := context.Background()
	admin := s.token(t, "admin-1", auth.RoleAdmin)
	parentID, studentID := seedFamily(t, s, admin)

	_, err := s.classes.CreateClass(ctx, as(admin, &api.CreateClassRequest{
		Title:        "Chemistry workshop",
		ScheduleType: "one-time",
		ClassDate:    "2025-11-20",
		Amount:       "40",
		Currency:     "USD",
		Students:     []string{studentID},
	}))
	require.NoError(t, err)

	resp, err := s.billing.GenerateBill(ctx, as(admin, &api.GenerateBillRequest{
		StudentID: studentID,
		ParentID:  parentID,
		MonthYear: "2025-11",
	}))
	require.NoError(t, err)
	bill := resp.Msg.Bill
	assert.Equal(t, 1, bill.TotalClassesCount)
	assert.Equal(t, "40.00", bill.Amount)
	assert.Equal(t, "unpaid", bill.Status)

	noted, err := s.billing.AppendBillNote(ctx, as(admin, &api.AppendBillNoteRequest{
		BillID: bill.ID,
		Note:   "Reminder sent",
	}))
	require.NoError(t, err)
	lines := strings.Split(noted.Msg.Bill.Notes, "\n")
	assert.True(t, strings.HasSuffix(lines[len(lines)-1], "Reminder sent"))
	assert.Equal(t, bill.Notes, strings.Join(lines[:len(lines)-1], "\n"))

	immediate, err := s.billing.GenerateImmediateBilling(ctx, as(admin, &api.GenerateImmediateBillingRequest{
		ClassID: bill.ClassIDs[0],
	}))
	require.NoError(t, err)
	require.Len(t, immediate.Msg.Bills, 1)
	assert.Equal(t, bill.ID, immediate.Msg.Bills[0].ID)
	assert.Equal(t, 1, immediate.Msg.Bills[0].TotalClassesCount, "class already on the bill is not charged twice")
	assert.Empty(t, immediate.Msg.Errors)
}
