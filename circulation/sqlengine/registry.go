package sqlengine

import (
	"context"

	"github.com/doug-martin/goqu/v9"

	"github.com/niravrohra/library-circulation/circulation"
	"github.com/niravrohra/library-circulation/circulation/sqlengine/internal/adapters"
)

// CreateBorrower registers a new borrower and returns the card id assigned
// by the storage layer. The SSN uniqueness check and the id assignment run
// inside one transaction, so concurrent registrations can neither share an
// SSN nor collide on a card id.
func (e Engine) CreateBorrower(ctx context.Context, input circulation.NewBorrower) (int64, error) {
	if err := input.Validate(); err != nil {
		return 0, err
	}

	borrower := input.Normalize()

	var cardID int64

	txErr := e.withinTx(ctx, func(tx adapters.DBTx) error {
		exists, err := e.queryExists(ctx, tx, e.builder().
			From(tableBorrowers).
			Select(goqu.V(1)).
			Where(goqu.C(colSSN).Eq(borrower.SSN)))
		if err != nil {
			return err
		}
		if exists {
			return circulation.ErrDuplicateSSN
		}

		record := goqu.Record{
			colSSN:     borrower.SSN,
			colName:    borrower.Name,
			colAddress: borrower.Address,
			colPhone:   nil,
		}
		if borrower.Phone != "" {
			record[colPhone] = borrower.Phone
		}

		id, insertErr := e.insertReturningID(ctx, tx, e.builder().Insert(tableBorrowers).Rows(record), colCardID)
		if insertErr != nil {
			return insertErr
		}

		cardID = id

		return nil
	})
	if txErr != nil {
		return 0, txErr
	}

	e.logOperation("borrower created", logAttrCardID, cardID)

	return cardID, nil
}

// RemoveBorrower deletes a borrower. Removal is refused while any loan
// references the card, open or closed - loan rows are the circulation
// history and are never deleted.
func (e Engine) RemoveBorrower(ctx context.Context, cardID int64) error {
	txErr := e.withinTx(ctx, func(tx adapters.DBTx) error {
		exists, err := e.queryExists(ctx, tx, e.builder().
			From(tableBorrowers).
			Select(goqu.V(1)).
			Where(goqu.C(colCardID).Eq(cardID)))
		if err != nil {
			return err
		}
		if !exists {
			return circulation.ErrBorrowerNotFound
		}

		loanCount, err := e.queryCount(ctx, tx, e.builder().
			From(tableLoans).
			Select(goqu.COUNT(goqu.Star())).
			Where(goqu.C(colCardID).Eq(cardID)))
		if err != nil {
			return err
		}
		if loanCount > 0 {
			return circulation.ErrBorrowerHasLoans
		}

		query, args, err := e.toSQL(e.builder().
			Delete(tableBorrowers).
			Where(goqu.C(colCardID).Eq(cardID)).
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

		return nil
	})
	if txErr != nil {
		return txErr
	}

	e.logOperation("borrower removed", logAttrCardID, cardID)

	return nil
}
