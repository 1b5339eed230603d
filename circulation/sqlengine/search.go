package sqlengine

import (
	"context"
	"database/sql"
	"strings"

	"github.com/doug-martin/goqu/v9"

	"github.com/niravrohra/library-circulation/circulation"
	"github.com/niravrohra/library-circulation/circulation/sqlengine/internal/adapters"
)

// SearchBooks finds books matching the query against ISBN, title, or author
// name. A ten character alphanumeric query is treated as an exact ISBN;
// anything else matches case-insensitive substrings. Results carry all
// authors of each book and whether a copy is currently out.
func (e Engine) SearchBooks(ctx context.Context, query string) ([]circulation.BookSummary, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, circulation.ErrBlankSearchQuery
	}

	var summaries []circulation.BookSummary

	txErr := e.withinTx(ctx, func(tx adapters.DBTx) error {
		matched, err := e.queryMatchingBooks(ctx, tx, query)
		if err != nil {
			return err
		}

		if len(matched) == 0 {
			return nil
		}

		isbns := make([]string, 0, len(matched))
		for _, summary := range matched {
			isbns = append(isbns, summary.ISBN)
		}

		openISBNs, err := e.queryOpenISBNs(ctx, tx, isbns)
		if err != nil {
			return err
		}

		for i := range matched {
			if openISBNs[matched[i].ISBN] {
				matched[i].Status = circulation.StatusOut
			} else {
				matched[i].Status = circulation.StatusIn
			}
		}

		summaries = matched

		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	return summaries, nil
}

// isExactISBN reports whether the query looks like a full ISBN-10.
func isExactISBN(query string) bool {
	if len(query) != 10 {
		return false
	}

	for _, r := range query {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		default:
			return false
		}
	}

	return true
}

// queryMatchingBooks loads the matching books joined with their complete
// author lists, folding author rows into one summary per ISBN. The match
// runs in a subquery so a hit on one author still returns all authors of
// the book. Author names are concatenated in Go rather than SQL so both
// dialects take the same query.
func (e Engine) queryMatchingBooks(
	ctx context.Context,
	tx adapters.DBTx,
	query string,
) ([]circulation.BookSummary, error) {

	matching := e.builder().
		From(goqu.T(tableBooks).As("mb")).
		LeftJoin(goqu.T(tableBookAuthors).As("mba"), goqu.On(goqu.I("mb.isbn").Eq(goqu.I("mba.isbn")))).
		LeftJoin(goqu.T(tableAuthors).As("ma"), goqu.On(goqu.I("mba.author_id").Eq(goqu.I("ma.author_id")))).
		SelectDistinct(goqu.I("mb.isbn"))

	if isExactISBN(query) {
		matching = matching.Where(goqu.I("mb.isbn").Eq(query))
	} else {
		pattern := "%" + strings.ToLower(query) + "%"
		matching = matching.Where(goqu.Or(
			goqu.Func("LOWER", goqu.I("mb.isbn")).Like(pattern),
			goqu.Func("LOWER", goqu.I("mb.title")).Like(pattern),
			goqu.Func("LOWER", goqu.I("ma.name")).Like(pattern),
		))
	}

	ds := e.builder().
		From(goqu.T(tableBooks).As("b")).
		LeftJoin(goqu.T(tableBookAuthors).As("ba"), goqu.On(goqu.I("b.isbn").Eq(goqu.I("ba.isbn")))).
		LeftJoin(goqu.T(tableAuthors).As("a"), goqu.On(goqu.I("ba.author_id").Eq(goqu.I("a.author_id")))).
		Select(goqu.I("b.isbn"), goqu.I("b.title"), goqu.I("a.name")).
		Where(goqu.I("b.isbn").In(matching)).
		Order(goqu.I("b.title").Asc(), goqu.I("b.isbn").Asc(), goqu.I("a.name").Asc())

	sqlQuery, args, err := e.toSQL(ds.Prepared(true))
	if err != nil {
		return nil, err
	}

	rows, queryErr := tx.Query(ctx, sqlQuery, args...)
	if queryErr != nil {
		if e.logger != nil {
			e.logger.Error(logMsgDBQueryFailed, logAttrError, queryErr.Error())
		}

		return nil, queryErr
	}
	defer e.closeRows(rows)

	var summaries []circulation.BookSummary
	index := make(map[string]int)

	for rows.Next() {
		var (
			isbn   string
			title  string
			author sql.NullString
		)

		if scanErr := rows.Scan(&isbn, &title, &author); scanErr != nil {
			if e.logger != nil {
				e.logger.Error(logMsgScanRowFailed, logAttrError, scanErr.Error())
			}

			return nil, scanErr
		}

		pos, seen := index[isbn]
		if !seen {
			pos = len(summaries)
			index[isbn] = pos
			summaries = append(summaries, circulation.BookSummary{ISBN: isbn, Title: title})
		}

		if author.Valid {
			if summaries[pos].Authors != "" {
				summaries[pos].Authors += ", "
			}

			summaries[pos].Authors += author.String
		}
	}

	return summaries, nil
}

// queryOpenISBNs reports which of the given ISBNs have an open loan.
func (e Engine) queryOpenISBNs(
	ctx context.Context,
	tx adapters.DBTx,
	isbns []string,
) (map[string]bool, error) {

	ds := e.builder().
		From(tableLoans).
		SelectDistinct(colISBN).
		Where(
			goqu.C(colISBN).In(isbns),
			goqu.C(colDateIn).IsNull(),
		)

	query, args, err := e.toSQL(ds.Prepared(true))
	if err != nil {
		return nil, err
	}

	rows, queryErr := tx.Query(ctx, query, args...)
	if queryErr != nil {
		if e.logger != nil {
			e.logger.Error(logMsgDBQueryFailed, logAttrError, queryErr.Error())
		}

		return nil, queryErr
	}
	defer e.closeRows(rows)

	open := make(map[string]bool)

	for rows.Next() {
		var isbn string
		if scanErr := rows.Scan(&isbn); scanErr != nil {
			if e.logger != nil {
				e.logger.Error(logMsgScanRowFailed, logAttrError, scanErr.Error())
			}

			return nil, scanErr
		}

		open[isbn] = true
	}

	return open, nil
}
