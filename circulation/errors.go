package circulation

import (
	"errors"
	"fmt"
)

// Kind sentinels. Every business error raised by the engine wraps exactly
// one of these, so callers can branch on the kind without inspecting text.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrDuplicate  = errors.New("duplicate")
	ErrPolicy     = errors.New("policy violation")
	ErrConflict   = errors.New("conflict")
	ErrStorage    = errors.New("storage failure")
)

// Specific conditions, matchable directly or through their kind.
var (
	ErrMissingBorrowerFields = fmt.Errorf("%w: ssn, name, and address are required", ErrValidation)
	ErrBlankISBN             = fmt.Errorf("%w: isbn is required", ErrValidation)
	ErrNoSearchCriteria      = fmt.Errorf("%w: provide at least one search criterion", ErrValidation)
	ErrBlankSearchQuery      = fmt.Errorf("%w: search query is required", ErrValidation)

	ErrDuplicateSSN = fmt.Errorf("%w: borrower with this ssn already exists", ErrDuplicate)

	ErrBookNotFound     = fmt.Errorf("%w: book", ErrNotFound)
	ErrBorrowerNotFound = fmt.Errorf("%w: borrower", ErrNotFound)
	ErrLoanNotFound     = fmt.Errorf("%w: loan", ErrNotFound)

	ErrLoanLimitReached = fmt.Errorf("%w: borrower already has the maximum number of books checked out", ErrPolicy)
	ErrUnpaidFines      = fmt.Errorf("%w: borrower has unpaid fines", ErrPolicy)
	ErrBookAlreadyOut   = fmt.Errorf("%w: book is currently checked out", ErrPolicy)
	ErrOpenLoanWithFine = fmt.Errorf("%w: borrower still has fined books checked out", ErrPolicy)
	ErrNothingToPay     = fmt.Errorf("%w: no unpaid fines for this borrower", ErrPolicy)
	ErrBorrowerHasLoans = fmt.Errorf("%w: borrower has loans on record", ErrPolicy)

	ErrLoanAlreadyClosed = fmt.Errorf("%w: loan already closed", ErrConflict)

	// ErrTxConflict marks a serialization or locking failure inside the
	// storage layer. The transaction was rolled back cleanly and the
	// operation may be retried, e.g. with RetryWithBackoff.
	ErrTxConflict = fmt.Errorf("%w: transaction conflict, safe to retry", ErrStorage)
)

// Construction errors.
var (
	ErrNilDatabaseConnection = errors.New("database connection must not be nil")
	ErrUnknownDialect        = errors.New("unknown SQL dialect")
)
