package circulation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/niravrohra/library-circulation/circulation"
)

func Test_LoanFilter_Validate_RejectsEmptyFilter(t *testing.T) {
	// arrange
	filter := circulation.LoanFilter{}

	// act
	err := filter.Validate()

	// assert
	assert.ErrorIs(t, err, circulation.ErrNoSearchCriteria)
	assert.ErrorIs(t, err, circulation.ErrValidation)
}

func Test_LoanFilter_Validate_RejectsBlankCriteria(t *testing.T) {
	// arrange
	filter := circulation.LoanFilter{ISBN: "   ", BorrowerName: "\t"}

	// act
	err := filter.Validate()

	// assert
	assert.ErrorIs(t, err, circulation.ErrNoSearchCriteria)
}

func Test_LoanFilter_Validate_AcceptsSingleCriterion(t *testing.T) {
	assert.NoError(t, circulation.LoanFilter{ISBN: "0000000001"}.Validate())
	assert.NoError(t, circulation.LoanFilter{CardID: 7}.Validate())
	assert.NoError(t, circulation.LoanFilter{BorrowerName: "doe"}.Validate())
}

func Test_Loan_Open(t *testing.T) {
	// arrange
	open := circulation.Loan{LoanID: 1}
	closed := circulation.Loan{LoanID: 2, DateIn: day("2024-01-06")}

	// assert
	assert.True(t, open.Open())
	assert.False(t, closed.Open())
}

func Test_NewBorrower_Validate(t *testing.T) {
	// arrange
	complete := circulation.NewBorrower{SSN: "111-22-3333", Name: "Jane Doe", Address: "1 Main St"}
	blankName := circulation.NewBorrower{SSN: "111-22-3333", Name: "   ", Address: "1 Main St"}
	missingSSN := circulation.NewBorrower{Name: "Jane Doe", Address: "1 Main St"}

	// assert
	assert.NoError(t, complete.Validate())
	assert.ErrorIs(t, blankName.Validate(), circulation.ErrMissingBorrowerFields)
	assert.ErrorIs(t, missingSSN.Validate(), circulation.ErrValidation)
}

func Test_NewBorrower_Normalize_TrimsAllFields(t *testing.T) {
	// arrange
	raw := circulation.NewBorrower{SSN: " 111 ", Name: " Jane Doe ", Address: " 1 Main St ", Phone: " 555-0100 "}

	// act
	trimmed := raw.Normalize()

	// assert
	assert.Equal(t, "111", trimmed.SSN)
	assert.Equal(t, "Jane Doe", trimmed.Name)
	assert.Equal(t, "1 Main St", trimmed.Address)
	assert.Equal(t, "555-0100", trimmed.Phone)
}
