package api

// Class is a tutoring class in the catalog.
type Class struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	ScheduleType  string   `json:"schedule_type"`
	ClassDate     string   `json:"class_date,omitempty"`
	StartDate     string   `json:"start_date,omitempty"`
	EndDate       string   `json:"end_date,omitempty"`
	RecurringDays []string `json:"recurring_days,omitempty"`
	Amount        string   `json:"amount"`
	Currency      string   `json:"currency"`
	Students      []string `json:"students"`
	PaymentStatus string   `json:"payment_status"`
	Status        string   `json:"status"`
	CreatedAt     int64    `json:"created_at"`
}

// CreateClassRequest adds a class to the catalog and bills it immediately.
type CreateClassRequest struct {
	Title         string   `json:"title" validate:"required,max=200"`
	ScheduleType  string   `json:"schedule_type" validate:"required,oneof=one-time weekly-recurring"`
	ClassDate     string   `json:"class_date" validate:"required_if=ScheduleType one-time,omitempty,datetime=2006-01-02"`
	StartDate     string   `json:"start_date" validate:"required_if=ScheduleType weekly-recurring,omitempty,datetime=2006-01-02"`
	EndDate       string   `json:"end_date" validate:"required_if=ScheduleType weekly-recurring,omitempty,datetime=2006-01-02"`
	RecurringDays []string `json:"recurring_days" validate:"dive,oneof=monday tuesday wednesday thursday friday saturday sunday"`
	Amount        string   `json:"amount" validate:"required,numeric"`
	Currency      string   `json:"currency" validate:"required,len=3,alpha"`
	Students      []string `json:"students" validate:"unique,dive,required"`
	PaymentStatus string   `json:"payment_status" validate:"omitempty,oneof=unpaid paid democlass"`
}

type CreateClassResponse struct {
	Class *Class `json:"class"`
	// Bills are the bills written by immediate billing.
	Bills []*Bill `json:"bills"`
}

type DeleteClassRequest struct {
	ClassID string `json:"class_id" validate:"required"`
}
