package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/niravrohra/library-circulation/circulation"
)

// BorrowerRow is one normalized patron record, ready for loading.
// Legacy card ids from the source system are preserved.
type BorrowerRow struct {
	CardID  int64  `db:"card_id"`
	SSN     string `db:"ssn"`
	Name    string `db:"name"`
	Address string `db:"address"`
	Phone   string `db:"phone"`
}

// BookRow is one deduplicated catalog entry.
type BookRow struct {
	ISBN  string `db:"isbn"`
	Title string `db:"title"`
}

// AuthorRow is one deduplicated author with a sequential id.
type AuthorRow struct {
	AuthorID int64  `db:"author_id"`
	Name     string `db:"name"`
}

// BookAuthorRow links a book to one of its authors.
type BookAuthorRow struct {
	ISBN     string `db:"isbn"`
	AuthorID int64  `db:"author_id"`
}

// Catalog is the normalized output of a raw book export.
type Catalog struct {
	Books       []BookRow
	Authors     []AuthorRow
	BookAuthors []BookAuthorRow
}

// Header aliases accepted in raw borrower exports.
var (
	cardAliases      = []string{"id", "card_id", "cardid", "id0000id"}
	ssnAliases       = []string{"ssn", "social_security_number", "social_security"}
	firstNameAliases = []string{"first_name", "firstname", "first"}
	lastNameAliases  = []string{"last_name", "lastname", "last"}
	addressAliases   = []string{"address", "addr", "street"}
	cityAliases      = []string{"city", "town"}
	stateAliases     = []string{"state", "province"}
	phoneAliases     = []string{"phone", "phone_number", "telephone"}
)

// NormalizeBorrowers reads a raw comma-separated patron export and
// produces clean borrower rows: first and last name title-cased and
// joined, street/city/state folded into one address, card ids stripped
// to their digits. Rows without a card id or SSN are dropped.
func NormalizeBorrowers(r io.Reader) ([]BorrowerRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: reading borrower header: %w", circulation.ErrValidation, err)
	}

	cardCol := findColumn(header, cardAliases)
	ssnCol := findColumn(header, ssnAliases)
	if cardCol < 0 || ssnCol < 0 {
		return nil, fmt.Errorf("%w: borrower export is missing a card id or ssn column", circulation.ErrValidation)
	}

	firstCol := findColumn(header, firstNameAliases)
	lastCol := findColumn(header, lastNameAliases)
	addressCol := findColumn(header, addressAliases)
	cityCol := findColumn(header, cityAliases)
	stateCol := findColumn(header, stateAliases)
	phoneCol := findColumn(header, phoneAliases)

	var borrowers []BorrowerRow

	for {
		record, readErr := reader.Read()
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return nil, fmt.Errorf("%w: reading borrower row: %w", circulation.ErrValidation, readErr)
		}

		rawCard := field(record, cardCol)
		ssn := strings.TrimSpace(field(record, ssnCol))
		if rawCard == "" || ssn == "" {
			continue
		}

		cardID, cardErr := digitsToID(rawCard)
		if cardErr != nil {
			return nil, fmt.Errorf("%w: card id %q: %w", circulation.ErrValidation, rawCard, cardErr)
		}

		name := strings.TrimSpace(titleCase(field(record, firstCol)) + " " + titleCase(field(record, lastCol)))
		address := joinNonEmpty(", ",
			strings.TrimSpace(field(record, addressCol)),
			strings.TrimSpace(field(record, cityCol)),
			strings.TrimSpace(field(record, stateCol)),
		)

		borrowers = append(borrowers, BorrowerRow{
			CardID:  cardID,
			SSN:     ssn,
			Name:    name,
			Address: address,
			Phone:   strings.TrimSpace(field(record, phoneCol)),
		})
	}

	return borrowers, nil
}

// NormalizeBooks reads a raw tab-separated catalog export and produces
// deduplicated books, authors, and their junction rows. The ISBN10 column
// is preferred, isbn13 accepted as fallback. Author cells are split on
// commas; author identity ignores case and repeated whitespace, ids are
// assigned sequentially in first-seen order.
func NormalizeBooks(r io.Reader) (Catalog, error) {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return Catalog{}, fmt.Errorf("%w: reading catalog header: %w", circulation.ErrValidation, err)
	}

	isbnCol := findColumn(header, []string{"isbn10"})
	if isbnCol < 0 {
		isbnCol = findColumn(header, []string{"isbn13"})
	}
	titleCol := findColumn(header, []string{"title"})
	authorCol := findColumn(header, []string{"author"})
	if isbnCol < 0 || titleCol < 0 {
		return Catalog{}, fmt.Errorf("%w: catalog export is missing an isbn or title column", circulation.ErrValidation)
	}

	var catalog Catalog

	seenISBNs := make(map[string]bool)
	authorIDs := make(map[string]int64) // keyed by normalized author name
	seenLinks := make(map[BookAuthorRow]bool)

	for {
		record, readErr := reader.Read()
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return Catalog{}, fmt.Errorf("%w: reading catalog row: %w", circulation.ErrValidation, readErr)
		}

		isbn := strings.TrimSpace(field(record, isbnCol))
		title := titleCase(field(record, titleCol))
		if isbn == "" || title == "" {
			continue
		}

		if !seenISBNs[isbn] {
			seenISBNs[isbn] = true
			catalog.Books = append(catalog.Books, BookRow{ISBN: isbn, Title: title})
		}

		for _, rawAuthor := range strings.Split(field(record, authorCol), ",") {
			key := normalizeAuthorName(rawAuthor)
			if key == "" {
				continue
			}

			authorID, known := authorIDs[key]
			if !known {
				authorID = int64(len(catalog.Authors) + 1)
				authorIDs[key] = authorID
				catalog.Authors = append(catalog.Authors, AuthorRow{
					AuthorID: authorID,
					Name:     titleCase(rawAuthor),
				})
			}

			link := BookAuthorRow{ISBN: isbn, AuthorID: authorID}
			if !seenLinks[link] {
				seenLinks[link] = true
				catalog.BookAuthors = append(catalog.BookAuthors, link)
			}
		}
	}

	sort.Slice(catalog.BookAuthors, func(i, j int) bool {
		if catalog.BookAuthors[i].ISBN != catalog.BookAuthors[j].ISBN {
			return catalog.BookAuthors[i].ISBN < catalog.BookAuthors[j].ISBN
		}

		return catalog.BookAuthors[i].AuthorID < catalog.BookAuthors[j].AuthorID
	})

	return catalog, nil
}

// findColumn returns the index of the first header matching one of the
// aliases, case-insensitively, or -1.
func findColumn(header []string, aliases []string) int {
	for _, alias := range aliases {
		for i, column := range header {
			if strings.EqualFold(strings.TrimSpace(column), alias) {
				return i
			}
		}
	}

	return -1
}

// field returns the record value at index, tolerating short rows and
// missing columns.
func field(record []string, index int) string {
	if index < 0 || index >= len(record) {
		return ""
	}

	return record[index]
}

// digitsToID strips everything but digits and parses the remainder.
func digitsToID(value string) (int64, error) {
	var digits strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}

	if digits.Len() == 0 {
		return 0, fmt.Errorf("no digits")
	}

	return strconv.ParseInt(digits.String(), 10, 64)
}

// normalizeAuthorName lowercases and collapses whitespace, giving the
// identity key for author deduplication.
func normalizeAuthorName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// titleCase uppercases the first letter of each whitespace-separated word
// and lowercases the rest.
func titleCase(value string) string {
	words := strings.Fields(value)
	for i, word := range words {
		lower := strings.ToLower(word)
		runes := []rune(lower)
		runes[0] = []rune(strings.ToUpper(string(runes[0])))[0]
		words[i] = string(runes)
	}

	return strings.Join(words, " ")
}

// joinNonEmpty joins the non-blank parts with the separator.
func joinNonEmpty(sep string, parts ...string) string {
	var kept []string
	for _, part := range parts {
		if part != "" {
			kept = append(kept, part)
		}
	}

	return strings.Join(kept, sep)
}
