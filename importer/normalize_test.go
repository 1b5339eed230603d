package importer_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/niravrohra/library-circulation/circulation"
	. "github.com/niravrohra/library-circulation/importer"
)

func Test_NormalizeBorrowers_FoldsNameAndAddress(t *testing.T) {
	// arrange
	raw := strings.Join([]string{
		"ID0000id,ssn,first_name,last_name,email,address,city,state,phone",
		"ID000323,123-45-6789,avery,REED,a@example.com,4 Oak Lane,Denton,TX,555-0100",
	}, "\n")

	// act
	borrowers, err := NormalizeBorrowers(strings.NewReader(raw))

	// assert
	require.NoError(t, err, "error normalizing borrowers")
	require.Len(t, borrowers, 1)
	assert.Equal(t, int64(323), borrowers[0].CardID, "the card id keeps only its digits")
	assert.Equal(t, "123-45-6789", borrowers[0].SSN)
	assert.Equal(t, "Avery Reed", borrowers[0].Name, "names are title-cased and joined")
	assert.Equal(t, "4 Oak Lane, Denton, TX", borrowers[0].Address)
	assert.Equal(t, "555-0100", borrowers[0].Phone)
}

func Test_NormalizeBorrowers_AcceptsHeaderAliases(t *testing.T) {
	// arrange
	raw := strings.Join([]string{
		"card_id,social_security_number,firstname,lastname,street,town,province,telephone",
		"42,987-65-4321,morgan,cole,9 Elm Street,Plano,TX,555-0101",
	}, "\n")

	// act
	borrowers, err := NormalizeBorrowers(strings.NewReader(raw))

	// assert
	require.NoError(t, err, "error normalizing borrowers")
	require.Len(t, borrowers, 1)
	assert.Equal(t, int64(42), borrowers[0].CardID)
	assert.Equal(t, "Morgan Cole", borrowers[0].Name)
}

func Test_NormalizeBorrowers_DropsRowsWithoutCardOrSSN(t *testing.T) {
	// arrange
	raw := strings.Join([]string{
		"id,ssn,first_name,last_name,address,city,state,phone",
		"1,111-11-1111,Avery,Reed,4 Oak Lane,Denton,TX,",
		",222-22-2222,No,Card,5 Oak Lane,Denton,TX,",
		"3,,No,SSN,6 Oak Lane,Denton,TX,",
	}, "\n")

	// act
	borrowers, err := NormalizeBorrowers(strings.NewReader(raw))

	// assert
	require.NoError(t, err, "error normalizing borrowers")
	assert.Len(t, borrowers, 1, "rows without a card id or ssn are dropped")
}

func Test_NormalizeBorrowers_When_EssentialColumns_AreMissing(t *testing.T) {
	// arrange
	raw := "first_name,last_name,address\nAvery,Reed,4 Oak Lane"

	// act
	_, err := NormalizeBorrowers(strings.NewReader(raw))

	// assert
	assert.ErrorIs(t, err, circulation.ErrValidation)
}

func Test_NormalizeBooks_DeduplicatesBooksAndAuthors(t *testing.T) {
	// arrange
	raw := strings.Join([]string{
		"ISBN10\ttitle\tauthor\tpages",
		"0451524934\tnineteen eighty-four\tGeorge Orwell\t328",
		"0451524934\tnineteen eighty-four\tGeorge Orwell\t328",
		"0451526341\tanimal farm\tgeorge  orwell\t112",
	}, "\n")

	// act
	catalog, err := NormalizeBooks(strings.NewReader(raw))

	// assert
	require.NoError(t, err, "error normalizing books")
	require.Len(t, catalog.Books, 2, "repeated ISBNs collapse to one book")
	assert.Equal(t, "Nineteen Eighty-four", catalog.Books[0].Title, "titles are title-cased")

	require.Len(t, catalog.Authors, 1, "case and spacing do not split an author")
	assert.Equal(t, int64(1), catalog.Authors[0].AuthorID)
	assert.Equal(t, "George Orwell", catalog.Authors[0].Name)

	assert.Len(t, catalog.BookAuthors, 2, "one junction row per book and author")
}

func Test_NormalizeBooks_SplitsMultipleAuthors(t *testing.T) {
	// arrange
	raw := strings.Join([]string{
		"ISBN10\ttitle\tauthor",
		"0262033844\tintroduction to algorithms\tThomas H. Cormen, Charles E. Leiserson, Ronald L. Rivest",
	}, "\n")

	// act
	catalog, err := NormalizeBooks(strings.NewReader(raw))

	// assert
	require.NoError(t, err, "error normalizing books")
	require.Len(t, catalog.Authors, 3, "the author cell splits on commas")
	assert.Equal(t, "Thomas H. Cormen", catalog.Authors[0].Name)
	assert.Equal(t, int64(3), catalog.Authors[2].AuthorID, "author ids are sequential in first-seen order")
	assert.Len(t, catalog.BookAuthors, 3)
}

func Test_NormalizeBooks_FallsBackToISBN13(t *testing.T) {
	// arrange
	raw := strings.Join([]string{
		"isbn13\ttitle\tauthor",
		"9780451524935\tnineteen eighty-four\tGeorge Orwell",
	}, "\n")

	// act
	catalog, err := NormalizeBooks(strings.NewReader(raw))

	// assert
	require.NoError(t, err, "error normalizing books")
	require.Len(t, catalog.Books, 1)
	assert.Equal(t, "9780451524935", catalog.Books[0].ISBN)
}

func Test_NormalizeBooks_When_NoISBNColumn_Exists(t *testing.T) {
	// arrange
	raw := "title\tauthor\nsome book\tsomeone"

	// act
	_, err := NormalizeBooks(strings.NewReader(raw))

	// assert
	assert.ErrorIs(t, err, circulation.ErrValidation)
}
