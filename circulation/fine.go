package circulation

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultDailyFineRate is the fine accrued per whole day a copy is late.
var DefaultDailyFineRate = decimal.New(25, -2) // 0.25

// Fine is the single fine row attached to a loan. The amount is recomputed
// while unpaid and frozen once paid.
type Fine struct {
	LoanID int64
	Amount decimal.Decimal
	Paid   bool
}

// FineOutcome tags what RefreshFines did with one loan's fine row.
type FineOutcome int

const (
	// FineInserted means no fine row existed and one was created.
	FineInserted FineOutcome = iota + 1
	// FineUpdated means an unpaid fine row existed and its amount was recomputed.
	FineUpdated
	// FineSkippedPaid means a paid fine row existed and was left untouched.
	FineSkippedPaid
)

// String returns the outcome tag for logs and CLI output.
func (o FineOutcome) String() string {
	switch o {
	case FineInserted:
		return "inserted"
	case FineUpdated:
		return "updated"
	case FineSkippedPaid:
		return "skipped-paid"
	default:
		return "unknown"
	}
}

// FineChange reports the outcome of recomputing one loan's fine.
type FineChange struct {
	LoanID  int64
	Outcome FineOutcome
	Amount  decimal.Decimal
}

// OutstandingFine aggregates a borrower's unpaid fine amounts.
type OutstandingFine struct {
	CardID int64
	Name   string
	Total  decimal.Decimal
}

// DaysLate returns the number of whole days between the due date and the
// end of the accrual window. Zero or negative means the copy came back on time.
func DaysLate(dueDate, endDate time.Time) int {
	return int(endDate.Sub(dueDate) / (24 * time.Hour))
}

// AssessFine computes the fine owed for a loan whose accrual window ended
// at endDate: whole days late times the per-day rate, rounded to two
// decimals. Returns zero when the loan was not late.
func AssessFine(dueDate, endDate time.Time, dailyRate decimal.Decimal) decimal.Decimal {
	daysLate := DaysLate(dueDate, endDate)
	if daysLate <= 0 {
		return decimal.Zero
	}

	return dailyRate.Mul(decimal.NewFromInt(int64(daysLate))).Round(2)
}
