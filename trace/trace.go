// Package trace provides transparent SQL tracing for modernc.org/sqlite.
//
// It registers a "sqlite-trace" driver that wraps the standard "sqlite" driver,
// intercepting every Exec and Query at the database/sql/driver level. No
// application code changes are needed beyond switching the driver name:
//
//	import _ "github.com/hazyhaar/domkey/trace"  // registers "sqlite-trace"
//
//	db, _ := sql.Open("sqlite-trace", "domkey.db")
//
// Every statement is logged via slog with adaptive levels (Debug, Warn >100ms,
// Error on failure). The request ID and serving transport are read from the
// context via the kit package for request correlation.
package trace

import (
	"database/sql"

	sqlite "modernc.org/sqlite"
)

func init() {
	sql.Register("sqlite-trace", &TracingDriver{
		Driver: &sqlite.Driver{},
	})
}
