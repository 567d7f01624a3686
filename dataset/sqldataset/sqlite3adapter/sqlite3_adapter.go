/*
Package sqlite3adapter provides an implementation of the
Adapter interface in the sqldataset package that works
over a SQLite3 database file.
*/
package sqlite3adapter

import (
	"database/sql"

	"github.com/pbanos/pollard/dataset/sqldataset"

	// Import of SQLite3 driver
	_ "github.com/mattn/go-sqlite3"
)

/*
New takes the path to a SQLite3 database file and a maximum number of open
connections and returns an Adapter that works on the database or an error
if it cannot be opened. A maxConns of 0 or less leaves the number of
connections unlimited.
*/
func New(path string, maxConns int) (sqldataset.Adapter, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if maxConns > 0 {
		db.SetMaxOpenConns(maxConns)
	}
	return sqldataset.NewAdapter(db, sqldataset.SQLite3), nil
}
