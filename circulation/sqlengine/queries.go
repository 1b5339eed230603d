package sqlengine

import (
	"context"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/niravrohra/library-circulation/circulation"
	"github.com/niravrohra/library-circulation/circulation/sqlengine/internal/adapters"
)

// toSQL renders a dataset to prepared SQL plus its argument list.
func (e Engine) toSQL(ds interface {
	ToSQL() (string, []interface{}, error)
}) (string, []any, error) {

	query, args, err := ds.ToSQL()
	if err != nil {
		if e.logger != nil {
			e.logger.Error(logMsgBuildQueryFailed, logAttrError, err.Error())
		}

		return "", nil, errors.Join(circulation.ErrStorage, err)
	}

	return query, args, nil
}

// queryExists runs a prepared select and reports whether it returned any row.
func (e Engine) queryExists(ctx context.Context, tx adapters.DBTx, ds *goqu.SelectDataset) (bool, error) {
	query, args, err := e.toSQL(ds.Prepared(true))
	if err != nil {
		return false, err
	}

	rows, queryErr := tx.Query(ctx, query, args...)
	if queryErr != nil {
		if e.logger != nil {
			e.logger.Error(logMsgDBQueryFailed, logAttrError, queryErr.Error())
		}

		return false, queryErr
	}
	defer e.closeRows(rows)

	return rows.Next(), nil
}

// queryCount runs a prepared single-value count select.
func (e Engine) queryCount(ctx context.Context, tx adapters.DBTx, ds *goqu.SelectDataset) (int64, error) {
	query, args, err := e.toSQL(ds.Prepared(true))
	if err != nil {
		return 0, err
	}

	rows, queryErr := tx.Query(ctx, query, args...)
	if queryErr != nil {
		if e.logger != nil {
			e.logger.Error(logMsgDBQueryFailed, logAttrError, queryErr.Error())
		}

		return 0, queryErr
	}
	defer e.closeRows(rows)

	var count int64
	if rows.Next() {
		if scanErr := rows.Scan(&count); scanErr != nil {
			if e.logger != nil {
				e.logger.Error(logMsgScanRowFailed, logAttrError, scanErr.Error())
			}

			return 0, scanErr
		}
	}

	return count, nil
}

// insertReturningID executes an insert and returns the id generated by the
// storage layer for idCol. Postgres supports RETURNING directly; SQLite
// exposes the generated rowid through last_insert_rowid() within the same
// transaction. Both close the max+1 assignment race: the id is minted by
// the database, inside the transaction holding the uniqueness checks.
func (e Engine) insertReturningID(
	ctx context.Context,
	tx adapters.DBTx,
	ds *goqu.InsertDataset,
	idCol string,
) (int64, error) {

	query, args, err := e.toSQL(ds.Prepared(true))
	if err != nil {
		return 0, err
	}

	if e.dialect == DialectPostgres {
		return e.queryGeneratedID(ctx, tx, fmt.Sprintf("%s RETURNING %s", query, idCol), args)
	}

	if _, execErr := tx.Exec(ctx, query, args...); execErr != nil {
		if e.logger != nil {
			e.logger.Error(logMsgDBExecFailed, logAttrError, execErr.Error())
		}

		return 0, execErr
	}

	return e.queryGeneratedID(ctx, tx, "SELECT last_insert_rowid()", nil)
}

// queryGeneratedID runs a query expected to yield exactly one integer id.
func (e Engine) queryGeneratedID(ctx context.Context, tx adapters.DBTx, query string, args []any) (int64, error) {
	rows, queryErr := tx.Query(ctx, query, args...)
	if queryErr != nil {
		if e.logger != nil {
			e.logger.Error(logMsgDBQueryFailed, logAttrError, queryErr.Error())
		}

		return 0, queryErr
	}
	defer e.closeRows(rows)

	if !rows.Next() {
		return 0, errors.Join(circulation.ErrStorage, errors.New("insert returned no generated id"))
	}

	var id int64
	if scanErr := rows.Scan(&id); scanErr != nil {
		if e.logger != nil {
			e.logger.Error(logMsgScanRowFailed, logAttrError, scanErr.Error())
		}

		return 0, scanErr
	}

	return id, nil
}
