package importer_test

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/niravrohra/library-circulation/circulation"
	"github.com/niravrohra/library-circulation/circulation/sqlengine"
	. "github.com/niravrohra/library-circulation/importer"
	"github.com/niravrohra/library-circulation/testutil/config"
)

func newBorrower(ssn, name string) circulation.NewBorrower {
	return circulation.NewBorrower{SSN: ssn, Name: name, Address: "1 Test Way"}
}

func setupLoader(t *testing.T) (Loader, sqlengine.Engine, *sqlx.DB) {
	t.Helper()

	db := config.SQLiteMemorySQLX(t)

	engine, err := sqlengine.NewFromSQLX(db, sqlengine.WithDialect(sqlengine.DialectSQLite))
	require.NoError(t, err, "creating the engine failed")

	loader, err := NewLoader(db, engine)
	require.NoError(t, err, "creating the loader failed")

	return loader, engine, db
}

func sampleCatalog() Catalog {
	return Catalog{
		Books: []BookRow{
			{ISBN: "0451524934", Title: "Nineteen Eighty-four"},
			{ISBN: "0451526341", Title: "Animal Farm"},
		},
		Authors: []AuthorRow{
			{AuthorID: 1, Name: "George Orwell"},
		},
		BookAuthors: []BookAuthorRow{
			{ISBN: "0451524934", AuthorID: 1},
			{ISBN: "0451526341", AuthorID: 1},
		},
	}
}

func sampleBorrowers() []BorrowerRow {
	return []BorrowerRow{
		{CardID: 323, SSN: "123-45-6789", Name: "Avery Reed", Address: "4 Oak Lane, Denton, TX", Phone: "555-0100"},
		{CardID: 500, SSN: "987-65-4321", Name: "Morgan Cole", Address: "9 Elm Street, Plano, TX"},
	}
}

func Test_Load_WritesTheFullDataset(t *testing.T) {
	// setup
	loader, _, db := setupLoader(t)

	// act
	report, err := loader.Load(context.Background(), sampleCatalog(), sampleBorrowers())

	// assert
	require.NoError(t, err, "error loading the dataset")
	assert.Equal(t, Report{Books: 2, Authors: 1, BookAuthors: 2, Borrowers: 2}, report)

	var bookCount, borrowerCount int64
	require.NoError(t, db.Get(&bookCount, "SELECT COUNT(*) FROM books"))
	require.NoError(t, db.Get(&borrowerCount, "SELECT COUNT(*) FROM borrowers"))
	assert.Equal(t, int64(2), bookCount)
	assert.Equal(t, int64(2), borrowerCount)
}

func Test_Load_PreservesLegacyCardIDs(t *testing.T) {
	// setup
	loader, engine, db := setupLoader(t)

	// act
	_, err := loader.Load(context.Background(), sampleCatalog(), sampleBorrowers())

	// assert
	require.NoError(t, err, "error loading the dataset")

	var name string
	require.NoError(t, db.Get(&name, "SELECT name FROM borrowers WHERE card_id = ?", 323))
	assert.Equal(t, "Avery Reed", name)

	// a fresh registration continues past the imported ids
	cardID, createErr := engine.CreateBorrower(context.Background(), newBorrower("111-22-3333", "Riley Chen"))
	require.NoError(t, createErr, "error registering a borrower after the load")
	assert.Greater(t, cardID, int64(500), "new card ids continue past the imported range")
}

func Test_Load_ReplacesAnEarlierDataset(t *testing.T) {
	// setup
	loader, _, db := setupLoader(t)

	_, err := loader.Load(context.Background(), sampleCatalog(), sampleBorrowers())
	require.NoError(t, err, "error loading the first dataset")

	// act
	smaller := Catalog{Books: []BookRow{{ISBN: "0747532699", Title: "Harry Potter and the Philosopher's Stone"}}}
	report, reloadErr := loader.Load(context.Background(), smaller, nil)

	// assert
	require.NoError(t, reloadErr, "error reloading")
	assert.Equal(t, Report{Books: 1}, report)

	var bookCount int64
	require.NoError(t, db.Get(&bookCount, "SELECT COUNT(*) FROM books"))
	assert.Equal(t, int64(1), bookCount, "a reload fully replaces the previous dataset")
}

func Test_Load_RejectsLinksToUnknownBooks(t *testing.T) {
	// setup
	loader, _, _ := setupLoader(t)

	broken := Catalog{
		Authors:     []AuthorRow{{AuthorID: 1, Name: "George Orwell"}},
		BookAuthors: []BookAuthorRow{{ISBN: "0000000000", AuthorID: 1}},
	}

	// act
	_, err := loader.Load(context.Background(), broken, nil)

	// assert
	assert.Error(t, err, "a junction row without its book should fail the load")
}
