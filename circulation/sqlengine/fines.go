package sqlengine

import (
	"context"
	"database/sql"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/shopspring/decimal"

	"github.com/niravrohra/library-circulation/circulation"
	"github.com/niravrohra/library-circulation/circulation/sqlengine/internal/adapters"
)

// refreshConfig holds the optional scope of a fine refresh.
type refreshConfig struct {
	asOf   time.Time
	loanID int64
}

// RefreshOption narrows the scope of RefreshFines.
type RefreshOption func(*refreshConfig)

// AsOf sets the accrual cutoff date instead of today. Only the date part
// is significant.
func AsOf(date time.Time) RefreshOption {
	return func(cfg *refreshConfig) {
		utc := date.UTC()
		cfg.asOf = time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC)
	}
}

// ScopedToLoan restricts the refresh to a single loan.
func ScopedToLoan(loanID int64) RefreshOption {
	return func(cfg *refreshConfig) {
		cfg.loanID = loanID
	}
}

// RefreshFines recomputes fines for overdue loans: loans past due that are
// either still open or were returned late. A missing fine row is inserted,
// an unpaid one has its amount recomputed, a paid one is never touched.
// Re-running with the same cutoff and loan state converges to the same
// stored amounts. Returns the outcome for every assessed loan.
func (e Engine) RefreshFines(ctx context.Context, options ...RefreshOption) ([]circulation.FineChange, error) {
	cfg := refreshConfig{asOf: e.today()}
	for _, option := range options {
		option(&cfg)
	}

	var changes []circulation.FineChange

	txErr := e.withinTx(ctx, func(tx adapters.DBTx) error {
		refreshed, err := e.refreshLoanFines(ctx, tx, cfg.asOf, cfg.loanID)
		if err != nil {
			return err
		}

		changes = refreshed

		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	e.logOperation("fines refreshed", logAttrFineCount, len(changes))

	return changes, nil
}

// overdueLoan is one row of the refresh scan.
type overdueLoan struct {
	loanID  int64
	dueDate time.Time
	dateIn  sql.NullTime
}

// refreshLoanFines performs the fine recomputation inside an existing
// transaction. loanID zero means all overdue loans.
func (e Engine) refreshLoanFines(
	ctx context.Context,
	tx adapters.DBTx,
	asOf time.Time,
	loanID int64,
) ([]circulation.FineChange, error) {

	overdue, err := e.scanOverdueLoans(ctx, tx, asOf, loanID)
	if err != nil {
		return nil, err
	}

	var changes []circulation.FineChange

	for _, loan := range overdue {
		endDate := asOf
		if loan.dateIn.Valid {
			endDate = loan.dateIn.Time
		}

		// The scan's second disjunct can match a loan returned on its
		// due date; days late guards against a zero fine.
		if circulation.DaysLate(loan.dueDate, endDate) <= 0 {
			continue
		}

		amount := circulation.AssessFine(loan.dueDate, endDate, e.dailyRate)

		change, applyErr := e.applyFine(ctx, tx, loan.loanID, amount)
		if applyErr != nil {
			return nil, applyErr
		}

		changes = append(changes, change)
	}

	return changes, nil
}

// scanOverdueLoans loads the loans whose due date passed before asOf and
// that are either still out or came back after the due date. Rows are
// buffered so the transaction can issue further statements.
func (e Engine) scanOverdueLoans(
	ctx context.Context,
	tx adapters.DBTx,
	asOf time.Time,
	loanID int64,
) ([]overdueLoan, error) {

	ds := e.builder().
		From(tableLoans).
		Select(colLoanID, colDueDate, colDateIn).
		Where(
			goqu.C(colDueDate).Lt(asOf),
			goqu.Or(
				goqu.C(colDateIn).IsNull(),
				goqu.C(colDateIn).Gt(goqu.C(colDueDate)),
			),
		).
		Order(goqu.C(colLoanID).Asc())

	if loanID != 0 {
		ds = ds.Where(goqu.C(colLoanID).Eq(loanID))
	}

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

	var overdue []overdueLoan

	for rows.Next() {
		var loan overdueLoan
		if scanErr := rows.Scan(&loan.loanID, &loan.dueDate, &loan.dateIn); scanErr != nil {
			if e.logger != nil {
				e.logger.Error(logMsgScanRowFailed, logAttrError, scanErr.Error())
			}

			return nil, scanErr
		}

		overdue = append(overdue, loan)
	}

	return overdue, nil
}

// applyFine inserts or updates the fine row for one loan, leaving paid
// fines untouched.
func (e Engine) applyFine(
	ctx context.Context,
	tx adapters.DBTx,
	loanID int64,
	amount decimal.Decimal,
) (circulation.FineChange, error) {

	change := circulation.FineChange{LoanID: loanID, Amount: amount}

	paid, found, err := e.queryFinePaid(ctx, tx, loanID)
	if err != nil {
		return change, err
	}

	switch {
	case !found:
		query, args, buildErr := e.toSQL(e.builder().
			Insert(tableFines).
			Rows(goqu.Record{colLoanID: loanID, colAmount: amount, colPaid: false}).
			Prepared(true))
		if buildErr != nil {
			return change, buildErr
		}

		if _, execErr := tx.Exec(ctx, query, args...); execErr != nil {
			if e.logger != nil {
				e.logger.Error(logMsgDBExecFailed, logAttrError, execErr.Error())
			}

			return change, execErr
		}

		change.Outcome = circulation.FineInserted

	case paid:
		// Paid fines are frozen.
		change.Outcome = circulation.FineSkippedPaid

	default:
		query, args, buildErr := e.toSQL(e.builder().
			Update(tableFines).
			Set(goqu.Record{colAmount: amount}).
			Where(goqu.C(colLoanID).Eq(loanID), goqu.C(colPaid).Eq(false)).
			Prepared(true))
		if buildErr != nil {
			return change, buildErr
		}

		if _, execErr := tx.Exec(ctx, query, args...); execErr != nil {
			if e.logger != nil {
				e.logger.Error(logMsgDBExecFailed, logAttrError, execErr.Error())
			}

			return change, execErr
		}

		change.Outcome = circulation.FineUpdated
	}

	return change, nil
}

// queryFinePaid fetches the paid flag of a loan's fine row, reporting
// whether the row exists.
func (e Engine) queryFinePaid(ctx context.Context, tx adapters.DBTx, loanID int64) (bool, bool, error) {
	query, args, err := e.toSQL(e.builder().
		From(tableFines).
		Select(colPaid).
		Where(goqu.C(colLoanID).Eq(loanID)).
		Prepared(true))
	if err != nil {
		return false, false, err
	}

	rows, queryErr := tx.Query(ctx, query, args...)
	if queryErr != nil {
		if e.logger != nil {
			e.logger.Error(logMsgDBQueryFailed, logAttrError, queryErr.Error())
		}

		return false, false, queryErr
	}
	defer e.closeRows(rows)

	if !rows.Next() {
		return false, false, nil
	}

	var paid bool
	if scanErr := rows.Scan(&paid); scanErr != nil {
		if e.logger != nil {
			e.logger.Error(logMsgScanRowFailed, logAttrError, scanErr.Error())
		}

		return false, false, scanErr
	}

	return paid, true, nil
}

// ListOutstandingFines aggregates unpaid fine amounts per borrower,
// ordered by borrower name.
func (e Engine) ListOutstandingFines(ctx context.Context) ([]circulation.OutstandingFine, error) {
	ds := e.builder().
		From(goqu.T(tableFines).As("f")).
		Join(goqu.T(tableLoans).As("l"), goqu.On(goqu.I("f.loan_id").Eq(goqu.I("l.loan_id")))).
		Join(goqu.T(tableBorrowers).As("br"), goqu.On(goqu.I("l.card_id").Eq(goqu.I("br.card_id")))).
		Select(goqu.I("br.card_id"), goqu.I("br.name"), goqu.SUM(goqu.I("f.amount"))).
		Where(goqu.I("f.paid").Eq(false)).
		GroupBy(goqu.I("br.card_id"), goqu.I("br.name")).
		Order(goqu.I("br.name").Asc())

	var outstanding []circulation.OutstandingFine

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
			var row circulation.OutstandingFine
			if scanErr := rows.Scan(&row.CardID, &row.Name, &row.Total); scanErr != nil {
				if e.logger != nil {
					e.logger.Error(logMsgScanRowFailed, logAttrError, scanErr.Error())
				}

				return scanErr
			}

			outstanding = append(outstanding, row)
		}

		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	return outstanding, nil
}

// PayFines settles every unpaid fine of a borrower. Settlement is refused
// while any unpaid fine is attached to a loan that is still open - the
// book has to come back first. Paying with nothing owed is a caller error,
// not a silent no-op.
func (e Engine) PayFines(ctx context.Context, cardID int64) error {
	var settled int64

	txErr := e.withinTx(ctx, func(tx adapters.DBTx) error {
		blocking, err := e.queryCount(ctx, tx, e.builder().
			From(goqu.T(tableFines).As("f")).
			Join(goqu.T(tableLoans).As("l"), goqu.On(goqu.I("f.loan_id").Eq(goqu.I("l.loan_id")))).
			Select(goqu.COUNT(goqu.Star())).
			Where(
				goqu.I("l.card_id").Eq(cardID),
				goqu.I("f.paid").Eq(false),
				goqu.I("l.date_in").IsNull(),
			))
		if err != nil {
			return err
		}
		if blocking > 0 {
			return circulation.ErrOpenLoanWithFine
		}

		query, args, err := e.toSQL(e.builder().
			Update(tableFines).
			Set(goqu.Record{colPaid: true}).
			Where(
				goqu.C(colPaid).Eq(false),
				goqu.C(colLoanID).In(e.builder().
					From(tableLoans).
					Select(colLoanID).
					Where(goqu.C(colCardID).Eq(cardID))),
			).
			Prepared(true))
		if err != nil {
			return err
		}

		result, execErr := tx.Exec(ctx, query, args...)
		if execErr != nil {
			if e.logger != nil {
				e.logger.Error(logMsgDBExecFailed, logAttrError, execErr.Error())
			}

			return execErr
		}

		affected, affectedErr := result.RowsAffected()
		if affectedErr != nil {
			return affectedErr
		}
		if affected == 0 {
			return circulation.ErrNothingToPay
		}

		settled = affected

		return nil
	})
	if txErr != nil {
		return txErr
	}

	e.logOperation("fines settled", logAttrCardID, cardID, logAttrRowsAffected, settled)

	return nil
}
