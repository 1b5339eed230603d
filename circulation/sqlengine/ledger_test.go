package sqlengine_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/niravrohra/library-circulation/circulation"
	. "github.com/niravrohra/library-circulation/testutil/helper"
)

func Test_Checkout_OpensALoan_DueInFourteenDays(t *testing.T) {
	// setup
	clock := NewFakeClock("2026-03-02")
	engine, db := SetupEngine(t, clock)

	// arrange
	GivenBookInCatalog(t, db, "0451524934", "1984", "George Orwell")
	cardID := GivenRegisteredBorrower(t, engine, "123-45-6789", "Avery Reed")

	// act
	loanID, err := engine.Checkout(context.Background(), "0451524934", cardID)

	// assert
	assert.NoError(t, err, "error checking out the book")

	dueDate, dateIn := QueryLoanDates(t, db, loanID)
	AssertSameDate(t, Day("2026-03-16"), dueDate, "the due date should be fourteen days out")
	assert.False(t, dateIn.Valid, "a fresh loan should be open")
}

func Test_Checkout_When_TheISBN_IsBlank(t *testing.T) {
	// setup
	clock := NewFakeClock("2026-03-02")
	engine, _ := SetupEngine(t, clock)

	// act
	_, err := engine.Checkout(context.Background(), "   ", 1)

	// assert
	assert.ErrorIs(t, err, circulation.ErrBlankISBN)
}

func Test_Checkout_When_TheBook_IsUnknown(t *testing.T) {
	// setup
	clock := NewFakeClock("2026-03-02")
	engine, _ := SetupEngine(t, clock)

	// arrange
	cardID := GivenRegisteredBorrower(t, engine, "123-45-6789", "Avery Reed")

	// act
	_, err := engine.Checkout(context.Background(), "0000000000", cardID)

	// assert
	assert.ErrorIs(t, err, circulation.ErrBookNotFound)
}

func Test_Checkout_When_TheBorrower_IsUnknown(t *testing.T) {
	// setup
	clock := NewFakeClock("2026-03-02")
	engine, db := SetupEngine(t, clock)

	// arrange
	GivenBookInCatalog(t, db, "0451524934", "1984", "George Orwell")

	// act
	_, err := engine.Checkout(context.Background(), "0451524934", 42)

	// assert
	assert.ErrorIs(t, err, circulation.ErrBorrowerNotFound)
}

func Test_Checkout_When_TheLoanLimit_IsReached(t *testing.T) {
	// setup
	clock := NewFakeClock("2026-03-02")
	engine, db := SetupEngine(t, clock)

	// arrange
	cardID := GivenRegisteredBorrower(t, engine, "123-45-6789", "Avery Reed")
	for i := 0; i < circulation.DefaultLoanLimit; i++ {
		isbn := fmt.Sprintf("045152493%d", i)
		GivenBookInCatalog(t, db, isbn, fmt.Sprintf("Volume %d", i))
		GivenOpenLoan(t, engine, isbn, cardID)
	}
	GivenBookInCatalog(t, db, "0747532699", "Harry Potter and the Philosopher's Stone")

	// act
	_, err := engine.Checkout(context.Background(), "0747532699", cardID)

	// assert
	assert.ErrorIs(t, err, circulation.ErrLoanLimitReached)
	assert.ErrorIs(t, err, circulation.ErrPolicy)
}

func Test_Checkout_When_TheBorrower_HasUnpaidFines(t *testing.T) {
	// setup
	clock := NewFakeClock("2026-03-02")
	engine, db := SetupEngine(t, clock)

	// arrange
	GivenBookInCatalog(t, db, "0451524934", "1984")
	GivenBookInCatalog(t, db, "0747532699", "Harry Potter and the Philosopher's Stone")
	cardID := GivenRegisteredBorrower(t, engine, "123-45-6789", "Avery Reed")
	loanID := GivenOpenLoan(t, engine, "0451524934", cardID)
	clock.AdvanceDays(20) // six days past the due date
	assert.NoError(t, engine.Checkin(context.Background(), loanID), "error returning the late book in test setup")

	// act
	_, err := engine.Checkout(context.Background(), "0747532699", cardID)

	// assert
	assert.ErrorIs(t, err, circulation.ErrUnpaidFines)
}

func Test_Checkout_When_TheCopy_IsAlreadyOut(t *testing.T) {
	// setup
	clock := NewFakeClock("2026-03-02")
	engine, db := SetupEngine(t, clock)

	// arrange
	GivenBookInCatalog(t, db, "0451524934", "1984")
	firstCardID := GivenRegisteredBorrower(t, engine, "123-45-6789", "Avery Reed")
	secondCardID := GivenRegisteredBorrower(t, engine, "987-65-4321", "Morgan Cole")
	GivenOpenLoan(t, engine, "0451524934", firstCardID)

	// act
	_, err := engine.Checkout(context.Background(), "0451524934", secondCardID)

	// assert
	assert.ErrorIs(t, err, circulation.ErrBookAlreadyOut)
}

func Test_Checkout_AfterCheckin_LendsTheCopyAgain(t *testing.T) {
	// setup
	clock := NewFakeClock("2026-03-02")
	engine, db := SetupEngine(t, clock)

	// arrange
	GivenBookInCatalog(t, db, "0451524934", "1984")
	firstCardID := GivenRegisteredBorrower(t, engine, "123-45-6789", "Avery Reed")
	secondCardID := GivenRegisteredBorrower(t, engine, "987-65-4321", "Morgan Cole")
	loanID := GivenOpenLoan(t, engine, "0451524934", firstCardID)
	clock.AdvanceDays(7)
	assert.NoError(t, engine.Checkin(context.Background(), loanID), "error returning the book in test setup")

	// act
	secondLoanID, err := engine.Checkout(context.Background(), "0451524934", secondCardID)

	// assert
	assert.NoError(t, err, "error checking out the returned copy")
	assert.Greater(t, secondLoanID, loanID, "the new loan should get a fresh id")
}

func Test_FindOpenLoans_ByCardID(t *testing.T) {
	// setup
	clock := NewFakeClock("2026-03-02")
	engine, db := SetupEngine(t, clock)

	// arrange
	GivenBookInCatalog(t, db, "0451524934", "1984")
	GivenBookInCatalog(t, db, "0747532699", "Harry Potter and the Philosopher's Stone")
	cardID := GivenRegisteredBorrower(t, engine, "123-45-6789", "Avery Reed")
	otherCardID := GivenRegisteredBorrower(t, engine, "987-65-4321", "Morgan Cole")
	loanID := GivenOpenLoan(t, engine, "0451524934", cardID)
	GivenOpenLoan(t, engine, "0747532699", otherCardID)

	// act
	loans, err := engine.FindOpenLoans(context.Background(), circulation.LoanFilter{CardID: cardID})

	// assert
	assert.NoError(t, err, "error searching open loans")
	assert.Len(t, loans, 1, "only the borrower's own loan should match")
	assert.Equal(t, loanID, loans[0].LoanID)
	assert.Equal(t, "1984", loans[0].Title)
	assert.Equal(t, "Avery Reed", loans[0].BorrowerName)
}

func Test_FindOpenLoans_ByBorrowerNameSubstring_IsCaseInsensitive(t *testing.T) {
	// setup
	clock := NewFakeClock("2026-03-02")
	engine, db := SetupEngine(t, clock)

	// arrange
	GivenBookInCatalog(t, db, "0451524934", "1984")
	cardID := GivenRegisteredBorrower(t, engine, "123-45-6789", "Avery Reed")
	GivenOpenLoan(t, engine, "0451524934", cardID)

	// act
	loans, err := engine.FindOpenLoans(context.Background(), circulation.LoanFilter{BorrowerName: "REED"})

	// assert
	assert.NoError(t, err, "error searching open loans")
	assert.Len(t, loans, 1)
	assert.Equal(t, cardID, loans[0].CardID)
}

func Test_FindOpenLoans_ExcludesClosedLoans(t *testing.T) {
	// setup
	clock := NewFakeClock("2026-03-02")
	engine, db := SetupEngine(t, clock)

	// arrange
	GivenBookInCatalog(t, db, "0451524934", "1984")
	cardID := GivenRegisteredBorrower(t, engine, "123-45-6789", "Avery Reed")
	loanID := GivenOpenLoan(t, engine, "0451524934", cardID)
	assert.NoError(t, engine.Checkin(context.Background(), loanID), "error returning the book in test setup")

	// act
	loans, err := engine.FindOpenLoans(context.Background(), circulation.LoanFilter{CardID: cardID})

	// assert
	assert.NoError(t, err, "error searching open loans")
	assert.Empty(t, loans, "a returned book should no longer show up")
}

func Test_FindOpenLoans_When_NoCriterion_IsGiven(t *testing.T) {
	// setup
	clock := NewFakeClock("2026-03-02")
	engine, _ := SetupEngine(t, clock)

	// act
	_, err := engine.FindOpenLoans(context.Background(), circulation.LoanFilter{ISBN: "  "})

	// assert
	assert.ErrorIs(t, err, circulation.ErrNoSearchCriteria)
}

func Test_Checkin_ClosesTheLoan(t *testing.T) {
	// setup
	clock := NewFakeClock("2026-03-02")
	engine, db := SetupEngine(t, clock)

	// arrange
	GivenBookInCatalog(t, db, "0451524934", "1984")
	cardID := GivenRegisteredBorrower(t, engine, "123-45-6789", "Avery Reed")
	loanID := GivenOpenLoan(t, engine, "0451524934", cardID)
	clock.AdvanceDays(7)

	// act
	err := engine.Checkin(context.Background(), loanID)

	// assert
	assert.NoError(t, err, "error checking the book in")

	_, dateIn := QueryLoanDates(t, db, loanID)
	assert.True(t, dateIn.Valid, "the loan should be closed")
	AssertSameDate(t, Day("2026-03-09"), dateIn.Time, "the return date should be the checkin date")

	_, _, fineFound := QueryFineRow(t, db, loanID)
	assert.False(t, fineFound, "an on-time return should not be fined")
}

func Test_Checkin_When_TheLoan_IsOverdue_AssessesAFine(t *testing.T) {
	// setup
	clock := NewFakeClock("2026-03-02")
	engine, db := SetupEngine(t, clock)

	// arrange
	GivenBookInCatalog(t, db, "0451524934", "1984")
	cardID := GivenRegisteredBorrower(t, engine, "123-45-6789", "Avery Reed")
	loanID := GivenOpenLoan(t, engine, "0451524934", cardID)
	clock.AdvanceDays(19) // due 2026-03-16, returned 2026-03-21

	// act
	err := engine.Checkin(context.Background(), loanID)

	// assert
	assert.NoError(t, err, "error checking the book in")

	amount, paid, found := QueryFineRow(t, db, loanID)
	assert.True(t, found, "a late return should be fined in the same operation")
	assert.InDelta(t, 1.25, amount, 0.001, "five days late at 0.25 per day")
	assert.False(t, paid)
}

func Test_Checkin_When_TheLoan_IsUnknown(t *testing.T) {
	// setup
	clock := NewFakeClock("2026-03-02")
	engine, _ := SetupEngine(t, clock)

	// act
	err := engine.Checkin(context.Background(), 42)

	// assert
	assert.ErrorIs(t, err, circulation.ErrLoanNotFound)
}

func Test_Checkin_When_TheLoan_IsAlreadyClosed(t *testing.T) {
	// setup
	clock := NewFakeClock("2026-03-02")
	engine, db := SetupEngine(t, clock)

	// arrange
	GivenBookInCatalog(t, db, "0451524934", "1984")
	cardID := GivenRegisteredBorrower(t, engine, "123-45-6789", "Avery Reed")
	loanID := GivenOpenLoan(t, engine, "0451524934", cardID)
	assert.NoError(t, engine.Checkin(context.Background(), loanID), "error returning the book in test setup")

	// act
	err := engine.Checkin(context.Background(), loanID)

	// assert
	assert.ErrorIs(t, err, circulation.ErrLoanAlreadyClosed)
	assert.ErrorIs(t, err, circulation.ErrConflict)
}

func Test_CheckinAll_StopsAtTheFirstFailure(t *testing.T) {
	// setup
	clock := NewFakeClock("2026-03-02")
	engine, db := SetupEngine(t, clock)

	// arrange
	GivenBookInCatalog(t, db, "0451524934", "1984")
	GivenBookInCatalog(t, db, "0747532699", "Harry Potter and the Philosopher's Stone")
	cardID := GivenRegisteredBorrower(t, engine, "123-45-6789", "Avery Reed")
	firstLoanID := GivenOpenLoan(t, engine, "0451524934", cardID)
	secondLoanID := GivenOpenLoan(t, engine, "0747532699", cardID)

	// act
	err := engine.CheckinAll(context.Background(), []int64{firstLoanID, 4242, secondLoanID})

	// assert
	assert.ErrorIs(t, err, circulation.ErrLoanNotFound, "the unknown loan should fail the batch")

	_, firstDateIn := QueryLoanDates(t, db, firstLoanID)
	assert.True(t, firstDateIn.Valid, "the loan closed before the failure stays closed")

	_, secondDateIn := QueryLoanDates(t, db, secondLoanID)
	assert.False(t, secondDateIn.Valid, "the loan after the failure stays open")
}
