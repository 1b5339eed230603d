package sqlengine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/niravrohra/library-circulation/circulation"
	. "github.com/niravrohra/library-circulation/testutil/helper"
)

func Test_SearchBooks_ByExactISBN(t *testing.T) {
	// setup
	clock := NewFakeClock("2026-03-02")
	engine, db := SetupEngine(t, clock)

	// arrange
	GivenBookInCatalog(t, db, "0451524934", "1984", "George Orwell")
	GivenBookInCatalog(t, db, "0451526341", "Animal Farm", "George Orwell")

	// act
	results, err := engine.SearchBooks(context.Background(), "0451524934")

	// assert
	assert.NoError(t, err, "error searching books")
	require.Len(t, results, 1, "a ten character query matches the ISBN exactly")
	assert.Equal(t, "1984", results[0].Title)
	assert.Equal(t, "George Orwell", results[0].Authors)
}

func Test_SearchBooks_ByTitleSubstring_IsCaseInsensitive(t *testing.T) {
	// setup
	clock := NewFakeClock("2026-03-02")
	engine, db := SetupEngine(t, clock)

	// arrange
	GivenBookInCatalog(t, db, "0747532699", "Harry Potter and the Philosopher's Stone", "J.K. Rowling")
	GivenBookInCatalog(t, db, "0451524934", "1984", "George Orwell")

	// act
	results, err := engine.SearchBooks(context.Background(), "POTTER")

	// assert
	assert.NoError(t, err, "error searching books")
	require.Len(t, results, 1)
	assert.Equal(t, "0747532699", results[0].ISBN)
}

func Test_SearchBooks_ByAuthorSubstring(t *testing.T) {
	// setup
	clock := NewFakeClock("2026-03-02")
	engine, db := SetupEngine(t, clock)

	// arrange
	GivenBookInCatalog(t, db, "0451524934", "1984", "George Orwell")
	GivenBookInCatalog(t, db, "0451526341", "Animal Farm", "George Orwell")
	GivenBookInCatalog(t, db, "0747532699", "Harry Potter and the Philosopher's Stone", "J.K. Rowling")

	// act
	results, err := engine.SearchBooks(context.Background(), "orwell")

	// assert
	assert.NoError(t, err, "error searching books")
	require.Len(t, results, 2)
	assert.Equal(t, "1984", results[0].Title, "results are ordered by title")
	assert.Equal(t, "Animal Farm", results[1].Title)
}

func Test_SearchBooks_TenCharacterQuery_IsAnISBNLookup(t *testing.T) {
	// setup
	clock := NewFakeClock("2026-03-02")
	engine, db := SetupEngine(t, clock)

	// arrange
	GivenBookInCatalog(t, db, "032157351X", "Algorithms", "Robert Sedgewick")

	// act
	results, err := engine.SearchBooks(context.Background(), "algorithms")

	// assert
	assert.NoError(t, err, "error searching books")
	assert.Empty(t, results, "ten alphanumeric characters only ever match an ISBN, never a title")
}

func Test_SearchBooks_JoinsMultipleAuthors(t *testing.T) {
	// setup
	clock := NewFakeClock("2026-03-02")
	engine, db := SetupEngine(t, clock)

	// arrange
	GivenBookInCatalog(t, db, "0262033844", "Introduction to Algorithms",
		"Charles E. Leiserson", "Clifford Stein", "Ronald L. Rivest", "Thomas H. Cormen")

	// act
	results, err := engine.SearchBooks(context.Background(), "introduction")

	// assert
	assert.NoError(t, err, "error searching books")
	require.Len(t, results, 1, "one book, not one row per author")
	assert.Equal(t,
		"Charles E. Leiserson, Clifford Stein, Ronald L. Rivest, Thomas H. Cormen",
		results[0].Authors,
		"authors are joined in name order")
}

func Test_SearchBooks_MatchingOneAuthor_ReturnsAllAuthors(t *testing.T) {
	// setup
	clock := NewFakeClock("2026-03-02")
	engine, db := SetupEngine(t, clock)

	// arrange
	GivenBookInCatalog(t, db, "0262033844", "Introduction to Algorithms",
		"Charles E. Leiserson", "Clifford Stein", "Ronald L. Rivest", "Thomas H. Cormen")

	// act
	results, err := engine.SearchBooks(context.Background(), "rivest")

	// assert
	assert.NoError(t, err, "error searching books")
	require.Len(t, results, 1)
	assert.Equal(t,
		"Charles E. Leiserson, Clifford Stein, Ronald L. Rivest, Thomas H. Cormen",
		results[0].Authors,
		"a hit on one author still lists every author")
}

func Test_SearchBooks_ReportsAvailability(t *testing.T) {
	// setup
	clock := NewFakeClock("2026-03-02")
	engine, db := SetupEngine(t, clock)

	// arrange
	GivenBookInCatalog(t, db, "0451524934", "1984", "George Orwell")
	GivenBookInCatalog(t, db, "0451526341", "Animal Farm", "George Orwell")
	cardID := GivenRegisteredBorrower(t, engine, "123-45-6789", "Avery Reed")
	GivenOpenLoan(t, engine, "0451524934", cardID)

	// act
	results, err := engine.SearchBooks(context.Background(), "orwell")

	// assert
	assert.NoError(t, err, "error searching books")
	require.Len(t, results, 2)
	assert.Equal(t, circulation.StatusOut, results[0].Status, "the lent copy shows as out")
	assert.Equal(t, circulation.StatusIn, results[1].Status, "the shelved copy shows as in")
}

func Test_SearchBooks_WithoutAuthors(t *testing.T) {
	// setup
	clock := NewFakeClock("2026-03-02")
	engine, db := SetupEngine(t, clock)

	// arrange
	GivenBookInCatalog(t, db, "0000000001", "Anonymous Pamphlet")

	// act
	results, err := engine.SearchBooks(context.Background(), "pamphlet")

	// assert
	assert.NoError(t, err, "error searching books")
	require.Len(t, results, 1)
	assert.Empty(t, results[0].Authors)
	assert.Equal(t, circulation.StatusIn, results[0].Status)
}

func Test_SearchBooks_When_NothingMatches(t *testing.T) {
	// setup
	clock := NewFakeClock("2026-03-02")
	engine, db := SetupEngine(t, clock)

	// arrange
	GivenBookInCatalog(t, db, "0451524934", "1984", "George Orwell")

	// act
	results, err := engine.SearchBooks(context.Background(), "dostoevsky")

	// assert
	assert.NoError(t, err, "error searching books")
	assert.Empty(t, results)
}

func Test_SearchBooks_When_TheQuery_IsBlank(t *testing.T) {
	// setup
	clock := NewFakeClock("2026-03-02")
	engine, _ := SetupEngine(t, clock)

	// act
	_, err := engine.SearchBooks(context.Background(), "   ")

	// assert
	assert.ErrorIs(t, err, circulation.ErrBlankSearchQuery)
}
