package circulation

import (
	"strings"
	"time"
)

// DefaultLoanPeriodDays is the lending period added to the checkout date
// to compute the due date.
const DefaultLoanPeriodDays = 14

// DefaultLoanLimit is the maximum number of simultaneously open loans
// allowed per borrower.
const DefaultLoanLimit = 3

// Loan records custody of a book copy. A loan with a zero DateIn is open:
// the copy has not been returned. Loans are closed on checkin, never deleted.
type Loan struct {
	LoanID  int64
	ISBN    string
	CardID  int64
	DateOut time.Time
	DueDate time.Time
	DateIn  time.Time // zero while the loan is open
}

// Open reports whether the copy is still out.
func (l Loan) Open() bool {
	return l.DateIn.IsZero()
}

// OpenLoan is the joined row returned by open-loan searches.
type OpenLoan struct {
	LoanID       int64
	ISBN         string
	Title        string
	CardID       int64
	BorrowerName string
	DateOut      time.Time
	DueDate      time.Time
}

// LoanFilter selects open loans by ISBN (case-insensitive exact match),
// card id (exact), or borrower name (case-insensitive substring).
// At least one criterion is mandatory so a search can never return the
// entire open-loan set unintentionally.
type LoanFilter struct {
	ISBN         string
	CardID       int64
	BorrowerName string
}

// Normalize trims the string criteria and returns the result.
func (f LoanFilter) Normalize() LoanFilter {
	return LoanFilter{
		ISBN:         strings.TrimSpace(f.ISBN),
		CardID:       f.CardID,
		BorrowerName: strings.TrimSpace(f.BorrowerName),
	}
}

// Validate fails when no criterion is set after trimming.
func (f LoanFilter) Validate() error {
	t := f.Normalize()
	if t.ISBN == "" && t.CardID == 0 && t.BorrowerName == "" {
		return ErrNoSearchCriteria
	}

	return nil
}
