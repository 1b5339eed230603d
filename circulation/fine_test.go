package circulation_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/niravrohra/library-circulation/circulation"
)

func day(value string) time.Time {
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}

	return parsed
}

func Test_AssessFine_FiveDaysLate(t *testing.T) {
	// arrange
	due := day("2024-01-01")
	returned := day("2024-01-06")

	// act
	amount := circulation.AssessFine(due, returned, circulation.DefaultDailyFineRate)

	// assert
	assert.True(t, amount.Equal(decimal.RequireFromString("1.25")), "expected 1.25, got %s", amount)
}

func Test_AssessFine_TenDaysLate_StillOpen(t *testing.T) {
	// arrange
	due := day("2024-01-01")
	today := day("2024-01-11")

	// act
	amount := circulation.AssessFine(due, today, circulation.DefaultDailyFineRate)

	// assert
	assert.True(t, amount.Equal(decimal.RequireFromString("2.50")), "expected 2.50, got %s", amount)
}

func Test_AssessFine_ReturnedOnTime_IsZero(t *testing.T) {
	// arrange
	due := day("2024-01-01")

	// act + assert
	assert.True(t, circulation.AssessFine(due, due, circulation.DefaultDailyFineRate).IsZero())
	assert.True(t, circulation.AssessFine(due, day("2023-12-30"), circulation.DefaultDailyFineRate).IsZero())
}

func Test_AssessFine_IsDeterministic(t *testing.T) {
	// arrange
	due := day("2024-01-01")
	returned := day("2024-01-06")

	// act
	first := circulation.AssessFine(due, returned, circulation.DefaultDailyFineRate)
	second := circulation.AssessFine(due, returned, circulation.DefaultDailyFineRate)

	// assert
	assert.True(t, first.Equal(second))
}

func Test_DaysLate_WholeDaysOnly(t *testing.T) {
	// arrange
	due := day("2024-01-01")

	// assert
	assert.Equal(t, 5, circulation.DaysLate(due, day("2024-01-06")))
	assert.Equal(t, 0, circulation.DaysLate(due, due))
	assert.Equal(t, -2, circulation.DaysLate(due, day("2023-12-30")))
}

func Test_FineOutcome_String(t *testing.T) {
	assert.Equal(t, "inserted", circulation.FineInserted.String())
	assert.Equal(t, "updated", circulation.FineUpdated.String())
	assert.Equal(t, "skipped-paid", circulation.FineSkippedPaid.String())
}
