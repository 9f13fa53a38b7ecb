package storage

import (
	_ "modernc.org/sqlite"
)

func init() {
	Register("modernc", func(path string) Conn {
		return &sqlConn{
			driver: "sqlite",
			dsn:    path,
			pragmas: []string{
				"PRAGMA busy_timeout = 5000",
				"PRAGMA journal_mode=WAL",
			},
		}
	})
}
