package api

// Bill is one student's bill for one month.
type Bill struct {
	ID                   string   `json:"id"`
	StudentID            string   `json:"student_id"`
	ParentID             string   `json:"parent_id"`
	MonthYear            string   `json:"month_year"`
	TotalClassesCount    int      `json:"total_classes_count"`
	Amount               string   `json:"amount"`
	AmountPaid           string   `json:"amount_paid"`
	Outstanding          string   `json:"outstanding"`
	Currency             string   `json:"currency"`
	Status               string   `json:"status"`
	BillingGeneratedDate string   `json:"billing_generated_date"`
	DueDate              string   `json:"due_date"`
	ClassIDs             []string `json:"class_ids"`
	Notes                string   `json:"notes"`
	UpdatedAt            string   `json:"updated_at"`
}

// RunSummary reports the outcome of a monthly batch run.
type RunSummary struct {
	MonthYear       string   `json:"month_year"`
	TotalStudents   int      `json:"total_students"`
	SuccessCount    int      `json:"success_count"`
	ErrorCount      int      `json:"error_count"`
	Errors          []string `json:"errors"`
	DurationSeconds float64  `json:"duration_seconds"`
}

type GenerateBillRequest struct {
	StudentID string `json:"student_id"`
	ParentID  string `json:"parent_id"`
	MonthYear string `json:"month_year"`
}

type GenerateBillResponse struct {
	Bill *Bill `json:"bill"`
}

type AutoGenerateBillsRequest struct {
	MonthYear string `json:"month_year"`
}

type AutoGenerateBillsResponse struct {
	Summary *RunSummary `json:"summary"`
}

// GetParentBillsRequest lists a parent's bills. MonthYear is optional.
// Currency selects the currency of OutstandingTotal in the response.
type GetParentBillsRequest struct {
	ParentID  string `json:"parent_id"`
	MonthYear string `json:"month_year,omitempty"`
	Currency  string `json:"currency,omitempty"`
}

type GetParentCurrentMonthBillsRequest struct {
	ParentID string `json:"parent_id"`
	Currency string `json:"currency,omitempty"`
}

// GetParentBillsResponse is shared by both parent-bill reads.
// OutstandingTotal sums the unpaid bills in Currency.
type GetParentBillsResponse struct {
	Bills            []*Bill `json:"bills"`
	OutstandingTotal string  `json:"outstanding_total"`
	Currency         string  `json:"currency"`
}

type HandleClassDeletionRequest struct {
	ClassID string `json:"class_id"`
}

// ReconciliationResponse lists the bills rewritten after a class deletion.
type ReconciliationResponse struct {
	ClassID    string   `json:"class_id"`
	Bills      []*Bill  `json:"bills"`
	ErrorCount int      `json:"error_count"`
	Errors     []string `json:"errors"`
}

type GenerateImmediateBillingRequest struct {
	ClassID string `json:"class_id"`
}

type GenerateImmediateBillingResponse struct {
	Bills []*Bill `json:"bills"`
	// Errors lists students whose bills could not be written.
	Errors []string `json:"errors"`
}

type UpdateBillStatusRequest struct {
	BillID string `json:"bill_id"`
	Status string `json:"status"`
	Note   string `json:"note,omitempty"`
}

type AppendBillNoteRequest struct {
	BillID string `json:"bill_id"`
	Note   string `json:"note"`
}

// BillResponse returns a single bill after an administrative change.
type BillResponse struct {
	Bill *Bill `json:"bill"`
}
