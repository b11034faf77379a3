package sql

import (
	"context"
	"database/sql"

	"github.com/filez-project/filez/pkg/errtypes"
	"github.com/filez-project/filez/pkg/model"
)

// mustAffect turns a zero-row UPDATE/DELETE into errtypes.NotFound, the
// same contract every Get* method uses for a missing row.
func mustAffect(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errtypes.NotFound("no matching row")
	}
	return nil
}

func listBounds(req model.ListRequest) (limit, offset int) {
	limit = req.Limit
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	offset = req.FromIndex
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func orderDir(req model.ListRequest) string {
	if req.SortOrder == model.SortDescending {
		return "DESC"
	}
	return "ASC"
}

func (db *DB) countRows(ctx context.Context, table string) (int, error) {
	var n int
	// table is always a compile-time constant passed by callers in this
	// package, never request-derived, so string concatenation here is safe.
	err := db.q(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&n)
	return n, err
}
