package sql

// dialect hides the handful of places MySQL and SQLite disagree: bind
// placeholders, SKIP LOCKED support, and the current-timestamp expression. Both backing
// drivers are wired in (go-sql-driver/mysql for production, the
// SKIP LOCKED-capable primary; mattn/go-sqlite3 for dev and tests).
type dialect interface {
	name() string
	placeholder(n int) string
	skipLocked() bool
	nowFunc() string
}

type mysqlDialect struct{}

func (mysqlDialect) name() string           { return "mysql" }
func (mysqlDialect) placeholder(int) string { return "?" }
func (mysqlDialect) skipLocked() bool       { return true }
func (mysqlDialect) nowFunc() string        { return "UTC_TIMESTAMP(6)" }

type sqliteDialect struct{}

func (sqliteDialect) name() string           { return "sqlite3" }
func (sqliteDialect) placeholder(int) string { return "?" }
func (sqliteDialect) skipLocked() bool       { return false }
func (sqliteDialect) nowFunc() string        { return "STRFTIME('%Y-%m-%d %H:%M:%f', 'now')" }

func dialectFor(driverName string) dialect {
	if driverName == "mysql" {
		return mysqlDialect{}
	}
	return sqliteDialect{}
}
