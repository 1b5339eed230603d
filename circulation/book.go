package circulation

// Availability of a book copy in search results.
const (
	StatusIn  = "IN"
	StatusOut = "OUT"
)

// Book is a title in the catalog, keyed by ISBN.
// The catalog is populated by the importer and read-only to the engine.
type Book struct {
	ISBN  string
	Title string
}

// Author is a catalog author row.
type Author struct {
	AuthorID int64
	Name     string
}

// BookSummary is one search result row: the book, its aggregated author
// list, and whether the single physical copy is currently out.
type BookSummary struct {
	ISBN    string
	Title   string
	Authors string // comma-joined, empty when unknown
	Status  string // StatusIn or StatusOut
}
