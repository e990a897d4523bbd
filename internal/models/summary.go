package models

// RunSummary reports the outcome of a monthly batch run.
// Per-student failures are counted here instead of failing the run.
type RunSummary struct {
	MonthYear       string
	TotalStudents   int
	SuccessCount    int
	ErrorCount      int
	Errors          []string
	DurationSeconds float64
}

// ReconciliationSummary reports the bills touched by a class deletion.
type ReconciliationSummary struct {
	ClassID    string
	Bills      []*Bill
	ErrorCount int
	Errors     []string
}
