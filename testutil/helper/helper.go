package helper

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/niravrohra/library-circulation/circulation"
	"github.com/niravrohra/library-circulation/circulation/sqlengine"
	"github.com/niravrohra/library-circulation/testutil/config"
)

// FakeClock is a mutable time source so tests control checkout, checkin,
// and fine accrual dates.
type FakeClock struct {
	Current time.Time
}

func NewFakeClock(date string) *FakeClock {
	return &FakeClock{Current: Day(date)}
}

func (c *FakeClock) Now() time.Time {
	return c.Current
}

func (c *FakeClock) AdvanceDays(days int) {
	c.Current = c.Current.AddDate(0, 0, days)
}

// Day parses a YYYY-MM-DD string into a UTC date.
func Day(value string) time.Time {
	date, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}

	return date.UTC()
}

// SetupEngine opens an in-memory SQLite database, builds an Engine on it,
// and creates the schema.
func SetupEngine(t testing.TB, clock *FakeClock, options ...sqlengine.Option) (sqlengine.Engine, *sql.DB) {
	t.Helper()

	db := config.SQLiteMemoryDB(t)

	engineOptions := append([]sqlengine.Option{
		sqlengine.WithDialect(sqlengine.DialectSQLite),
		sqlengine.WithClock(clock.Now),
	}, options...)

	engine, err := sqlengine.NewFromSQLDB(db, engineOptions...)
	require.NoError(t, err, "creating the engine failed")

	require.NoError(t, engine.CreateSchema(context.Background()), "creating the schema failed")

	return engine, db
}

// GivenBookInCatalog seeds one book with its authors.
func GivenBookInCatalog(t testing.TB, db *sql.DB, isbn, title string, authors ...string) {
	t.Helper()

	_, err := db.Exec("INSERT INTO books (isbn, title) VALUES (?, ?)", isbn, title)
	require.NoError(t, err, "error seeding book in test setup")

	for _, author := range authors {
		result, insertErr := db.Exec("INSERT INTO authors (name) VALUES (?)", author)
		require.NoError(t, insertErr, "error seeding author in test setup")

		authorID, idErr := result.LastInsertId()
		require.NoError(t, idErr, "error reading author id in test setup")

		_, linkErr := db.Exec("INSERT INTO book_authors (isbn, author_id) VALUES (?, ?)", isbn, authorID)
		require.NoError(t, linkErr, "error seeding book author link in test setup")
	}
}

// GivenRegisteredBorrower registers a borrower and returns the card id.
func GivenRegisteredBorrower(t testing.TB, engine sqlengine.Engine, ssn, name string) int64 {
	t.Helper()

	cardID, err := engine.CreateBorrower(context.Background(), circulation.NewBorrower{
		SSN:     ssn,
		Name:    name,
		Address: "12 Main St, Springfield",
		Phone:   "555-0100",
	})
	require.NoError(t, err, "error registering borrower in test setup")

	return cardID
}

// GivenOpenLoan checks a book out for a borrower and returns the loan id.
func GivenOpenLoan(t testing.TB, engine sqlengine.Engine, isbn string, cardID int64) int64 {
	t.Helper()

	loanID, err := engine.Checkout(context.Background(), isbn, cardID)
	require.NoError(t, err, "error checking out book in test setup")

	return loanID
}

// QueryLoanDates reads the stored dates of one loan for assertions.
func QueryLoanDates(t testing.TB, db *sql.DB, loanID int64) (dueDate time.Time, dateIn sql.NullTime) {
	t.Helper()

	row := db.QueryRow("SELECT due_date, date_in FROM loans WHERE loan_id = ?", loanID)
	require.NoError(t, row.Scan(&dueDate, &dateIn), "error reading loan dates in test")

	return dueDate, dateIn
}

// QueryFineRow reads the stored fine of one loan for assertions.
func QueryFineRow(t testing.TB, db *sql.DB, loanID int64) (amount float64, paid bool, found bool) {
	t.Helper()

	row := db.QueryRow("SELECT amount, paid FROM fines WHERE loan_id = ?", loanID)

	scanErr := row.Scan(&amount, &paid)
	if scanErr == sql.ErrNoRows {
		return 0, false, false
	}
	require.NoError(t, scanErr, "error reading fine row in test")

	return amount, paid, true
}

// AssertSameDate compares two timestamps at day resolution.
func AssertSameDate(t testing.TB, expected, actual time.Time, msgAndArgs ...any) {
	t.Helper()

	assert.Equal(t, expected.Format("2006-01-02"), actual.UTC().Format("2006-01-02"), msgAndArgs...)
}
