package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrUnknownEngine is returned by NewConn for an unregistered engine name.
	ErrUnknownEngine = errors.New("unknown storage engine")
	// ErrNotConnected is returned when a Conn is used before Connect.
	ErrNotConnected = errors.New("storage connection not open")
)

// Row is one result row keyed by column name. Integer columns surface as
// int64 and text columns as string.
type Row map[string]any

// ResultSet is an ordered list of rows.
type ResultSet []Row

// Conn is the store capability the query layer depends on. A Conn is one
// physical database handle and must not be used by two goroutines at once.
type Conn interface {
	Connect(ctx context.Context) error

	// Execute runs query with positional args. A statement starting with
	// SELECT returns its rows; any other statement runs in its own
	// transaction and returns a single row {"affected_rows": n}.
	Execute(ctx context.Context, query string, args ...any) (ResultSet, error)

	// ExecuteBatch runs stmts in order inside one transaction and returns
	// one {"affected_rows": n} row per statement. If any statement fails,
	// none of them take effect.
	ExecuteBatch(ctx context.Context, stmts []Statement) (ResultSet, error)

	Close() error
}

// Statement is one mutating statement with its bind arguments.
type Statement struct {
	Query string
	Args  []any
}

// Opener constructs an unconnected Conn for the database at path.
type Opener func(path string) Conn

var (
	registryMu sync.RWMutex
	registry   = map[string]Opener{}
)

// Register makes an engine available to NewConn under name.
func Register(name string, open Opener) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if open == nil {
		panic("storage: Register opener is nil")
	}
	registry[name] = open
}

// Engines returns the registered engine names in sorted order.
func Engines() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewConn returns an unconnected Conn for engine. Pass ":memory:" as path for
// a private in-memory database.
func NewConn(engine, path string) (Conn, error) {
	registryMu.RLock()
	open, ok := registry[engine]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %q (registered: %s)", ErrUnknownEngine, engine, strings.Join(Engines(), ", "))
	}
	return open(path), nil
}

// sqlConn implements Conn over database/sql, pinned to one connection.
// mu guards db, so Close waits for an in-flight call to finish.
type sqlConn struct {
	driver  string
	dsn     string
	pragmas []string

	mu sync.Mutex
	db *sql.DB
}

func (c *sqlConn) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db != nil {
		return nil
	}
	db, err := sql.Open(c.driver, c.dsn)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}

	// One Conn is exactly one physical handle.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("pinging database: %w", err)
	}
	for _, p := range c.pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return fmt.Errorf("applying %q: %w", p, err)
		}
	}
	c.db = db
	return nil
}

func (c *sqlConn) Execute(ctx context.Context, query string, args ...any) (ResultSet, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db == nil {
		return nil, ErrNotConnected
	}
	if isSelect(query) {
		return c.query(ctx, query, args...)
	}
	return c.exec(ctx, []Statement{{Query: query, Args: args}})
}

func (c *sqlConn) ExecuteBatch(ctx context.Context, stmts []Statement) (ResultSet, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db == nil {
		return nil, ErrNotConnected
	}
	return c.exec(ctx, stmts)
}

func (c *sqlConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}

func (c *sqlConn) query(ctx context.Context, query string, args ...any) (ResultSet, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("running query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns: %w", err)
	}

	result := ResultSet{}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		row := make(Row, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = values[i]
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return result, nil
}

// exec runs stmts in one transaction. The caller holds mu.
func (c *sqlConn) exec(ctx context.Context, stmts []Statement) (ResultSet, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	result := make(ResultSet, 0, len(stmts))
	for i, st := range stmts {
		res, err := tx.ExecContext(ctx, st.Query, st.Args...)
		if err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("executing statement %d: %w", i, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("reading affected rows: %w", err)
		}
		result = append(result, Row{"affected_rows": n})
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}
	return result, nil
}

func isSelect(query string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(query)), "SELECT")
}
