package storage

import (
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

const ncrucesPragmas = "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"

func init() {
	Register("ncruces", func(path string) Conn {
		return &sqlConn{driver: "sqlite3", dsn: "file:" + path + "?" + ncrucesPragmas}
	})
}
