// Package circulation provides the core types and rules for tracking
// physical book circulation in a library.
//
// This package defines the domain rows (borrowers, books, loans, fines),
// the typed business errors raised by circulation operations, the filter
// for searching open loans, and the pure fine assessment arithmetic.
// It has no storage dependency; the sqlengine subpackage implements the
// operations against a relational database.
//
// Key types:
//   - Borrower / NewBorrower: a registered library card holder
//   - OpenLoan: a joined view of a loan whose copy is still out
//   - FineChange: the outcome of recomputing one loan's fine
//   - LoanFilter: criteria for searching open loans
//
// Errors are sentinel values grouped under kind sentinels (ErrValidation,
// ErrNotFound, ErrDuplicate, ErrPolicy, ErrConflict, ErrStorage) so callers
// can match either the exact condition or the whole kind with errors.Is:
//
//	_, err := engine.Checkout(ctx, isbn, cardID)
//	if errors.Is(err, circulation.ErrPolicy) {
//		// business rule rejected the checkout
//	}
package circulation
