package sqlengine

import (
	"context"
	"database/sql"
	"strings"

	"github.com/doug-martin/goqu/v9"

	"github.com/niravrohra/library-circulation/circulation"
	"github.com/niravrohra/library-circulation/circulation/sqlengine/internal/adapters"
)

// Checkout lends the single copy of a book to a borrower and returns the
// new loan id. The preconditions are checked in order, each with its own
// error: blank ISBN, unknown book, unknown borrower, loan limit reached,
// unpaid fines on the account, copy already out. All checks and the insert
// are one transaction, so two concurrent checkouts of the same ISBN cannot
// both succeed.
func (e Engine) Checkout(ctx context.Context, isbn string, cardID int64) (int64, error) {
	isbn = strings.TrimSpace(isbn)
	if isbn == "" {
		return 0, circulation.ErrBlankISBN
	}

	dateOut := e.today()
	dueDate := dateOut.AddDate(0, 0, e.loanPeriod)

	var loanID int64

	txErr := e.withinTx(ctx, func(tx adapters.DBTx) error {
		bookExists, err := e.queryExists(ctx, tx, e.builder().
			From(tableBooks).
			Select(goqu.V(1)).
			Where(goqu.C(colISBN).Eq(isbn)))
		if err != nil {
			return err
		}
		if !bookExists {
			return circulation.ErrBookNotFound
		}

		borrowerExists, err := e.queryExists(ctx, tx, e.builder().
			From(tableBorrowers).
			Select(goqu.V(1)).
			Where(goqu.C(colCardID).Eq(cardID)))
		if err != nil {
			return err
		}
		if !borrowerExists {
			return circulation.ErrBorrowerNotFound
		}

		openLoans, err := e.queryCount(ctx, tx, e.builder().
			From(tableLoans).
			Select(goqu.COUNT(goqu.Star())).
			Where(goqu.C(colCardID).Eq(cardID), goqu.C(colDateIn).IsNull()))
		if err != nil {
			return err
		}
		if openLoans >= int64(e.loanLimit) {
			return circulation.ErrLoanLimitReached
		}

		unpaidFines, err := e.queryCount(ctx, tx, e.builder().
			From(goqu.T(tableFines).As("f")).
			Join(goqu.T(tableLoans).As("l"), goqu.On(goqu.I("f.loan_id").Eq(goqu.I("l.loan_id")))).
			Select(goqu.COUNT(goqu.Star())).
			Where(goqu.I("l.card_id").Eq(cardID), goqu.I("f.paid").Eq(false)))
		if err != nil {
			return err
		}
		if unpaidFines > 0 {
			return circulation.ErrUnpaidFines
		}

		copyOut, err := e.queryExists(ctx, tx, e.builder().
			From(tableLoans).
			Select(goqu.V(1)).
			Where(goqu.C(colISBN).Eq(isbn), goqu.C(colDateIn).IsNull()))
		if err != nil {
			return err
		}
		if copyOut {
			return circulation.ErrBookAlreadyOut
		}

		id, insertErr := e.insertReturningID(ctx, tx, e.builder().
			Insert(tableLoans).
			Rows(goqu.Record{
				colISBN:    isbn,
				colCardID:  cardID,
				colDateOut: dateOut,
				colDueDate: dueDate,
				colDateIn:  nil,
			}), colLoanID)
		if insertErr != nil {
			return insertErr
		}

		loanID = id

		return nil
	})
	if txErr != nil {
		return 0, txErr
	}

	e.logOperation("book checked out", logAttrISBN, isbn, logAttrCardID, cardID, logAttrLoanID, loanID)

	return loanID, nil
}

// FindOpenLoans returns the open loans matching the filter, joined with
// book title and borrower name, soonest due first. At least one filter
// criterion is required.
func (e Engine) FindOpenLoans(ctx context.Context, filter circulation.LoanFilter) ([]circulation.OpenLoan, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	filter = filter.Normalize()

	ds := e.builder().
		From(goqu.T(tableLoans).As("l")).
		Join(goqu.T(tableBooks).As("b"), goqu.On(goqu.I("l.isbn").Eq(goqu.I("b.isbn")))).
		Join(goqu.T(tableBorrowers).As("br"), goqu.On(goqu.I("l.card_id").Eq(goqu.I("br.card_id")))).
		Select(
			goqu.I("l.loan_id"),
			goqu.I("l.isbn"),
			goqu.I("b.title"),
			goqu.I("l.card_id"),
			goqu.I("br.name"),
			goqu.I("l.date_out"),
			goqu.I("l.due_date"),
		).
		Where(goqu.I("l.date_in").IsNull()).
		Order(goqu.I("l.due_date").Asc())

	if filter.ISBN != "" {
		ds = ds.Where(goqu.Func("LOWER", goqu.I("l.isbn")).Eq(strings.ToLower(filter.ISBN)))
	}
	if filter.CardID != 0 {
		ds = ds.Where(goqu.I("l.card_id").Eq(filter.CardID))
	}
	if filter.BorrowerName != "" {
		ds = ds.Where(goqu.Func("LOWER", goqu.I("br.name")).Like("%" + strings.ToLower(filter.BorrowerName) + "%"))
	}

	var loans []circulation.OpenLoan

	txErr := e.withinTx(ctx, func(tx adapters.DBTx) error {
		query, args, err := e.toSQL(ds.Prepared(true))
		if err != nil {
			return err
		}

		rows, queryErr := tx.Query(ctx, query, args...)
		if queryErr != nil {
			if e.logger != nil {
				e.logger.Error(logMsgDBQueryFailed, logAttrError, queryErr.Error())
			}

			return queryErr
		}
		defer e.closeRows(rows)

		for rows.Next() {
			var loan circulation.OpenLoan
			if scanErr := rows.Scan(
				&loan.LoanID,
				&loan.ISBN,
				&loan.Title,
				&loan.CardID,
				&loan.BorrowerName,
				&loan.DateOut,
				&loan.DueDate,
			); scanErr != nil {
				if e.logger != nil {
					e.logger.Error(logMsgScanRowFailed, logAttrError, scanErr.Error())
				}

				return scanErr
			}

			loans = append(loans, loan)
		}

		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	return loans, nil
}

// Checkin closes an open loan: sets the return date to today and
// recomputes the fine for this loan inside the same transaction, so a
// checkin that creates or updates a fine is atomic with the close.
func (e Engine) Checkin(ctx context.Context, loanID int64) error {
	today := e.today()

	txErr := e.withinTx(ctx, func(tx adapters.DBTx) error {
		dateIn, found, err := e.queryLoanDateIn(ctx, tx, loanID)
		if err != nil {
			return err
		}
		if !found {
			return circulation.ErrLoanNotFound
		}
		if dateIn.Valid {
			return circulation.ErrLoanAlreadyClosed
		}

		query, args, err := e.toSQL(e.builder().
			Update(tableLoans).
			Set(goqu.Record{colDateIn: today}).
			Where(goqu.C(colLoanID).Eq(loanID)).
			Prepared(true))
		if err != nil {
			return err
		}

		if _, execErr := tx.Exec(ctx, query, args...); execErr != nil {
			if e.logger != nil {
				e.logger.Error(logMsgDBExecFailed, logAttrError, execErr.Error())
			}

			return execErr
		}

		_, refreshErr := e.refreshLoanFines(ctx, tx, today, loanID)

		return refreshErr
	})
	if txErr != nil {
		return txErr
	}

	e.logOperation("book checked in", logAttrLoanID, loanID)

	return nil
}

// CheckinAll checks in each loan id in order and stops at the first
// failure. Every checkin is its own transaction; loans already closed by
// the time a later participant fails stay closed.
func (e Engine) CheckinAll(ctx context.Context, loanIDs []int64) error {
	for _, loanID := range loanIDs {
		if err := e.Checkin(ctx, loanID); err != nil {
			return err
		}
	}

	return nil
}

// queryLoanDateIn fetches the return date of one loan, reporting whether
// the loan exists at all.
func (e Engine) queryLoanDateIn(ctx context.Context, tx adapters.DBTx, loanID int64) (sql.NullTime, bool, error) {
	var dateIn sql.NullTime

	query, args, err := e.toSQL(e.builder().
		From(tableLoans).
		Select(colDateIn).
		Where(goqu.C(colLoanID).Eq(loanID)).
		Prepared(true))
	if err != nil {
		return dateIn, false, err
	}

	rows, queryErr := tx.Query(ctx, query, args...)
	if queryErr != nil {
		if e.logger != nil {
			e.logger.Error(logMsgDBQueryFailed, logAttrError, queryErr.Error())
		}

		return dateIn, false, queryErr
	}
	defer e.closeRows(rows)

	if !rows.Next() {
		return dateIn, false, nil
	}

	if scanErr := rows.Scan(&dateIn); scanErr != nil {
		if e.logger != nil {
			e.logger.Error(logMsgScanRowFailed, logAttrError, scanErr.Error())
		}

		return dateIn, false, scanErr
	}

	return dateIn, true, nil
}
