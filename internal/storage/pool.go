package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// ErrPoolClosed is returned by Acquire once the pool has been closed.
var ErrPoolClosed = errors.New("storage pool closed")

// Pool hands out a fixed set of Conns, one worker at a time per handle.
type Pool struct {
	free   chan Conn
	all    []Conn
	done   chan struct{}
	once   sync.Once
	closed error
}

// NewPool wraps already-connected conns.
func NewPool(conns ...Conn) *Pool {
	p := &Pool{
		free: make(chan Conn, len(conns)),
		all:  conns,
		done: make(chan struct{}),
	}
	for _, c := range conns {
		p.free <- c
	}
	return p
}

// OpenPool connects size handles to the database at path using engine.
// An in-memory database is private to its handle, so ":memory:" always
// yields a pool of one.
func OpenPool(ctx context.Context, engine, path string, size int) (*Pool, error) {
	if size < 1 {
		return nil, fmt.Errorf("invalid pool size %d", size)
	}
	if path == ":memory:" && size > 1 {
		slog.Debug("in-memory database, using a single handle", "requested", size)
		size = 1
	}

	conns := make([]Conn, 0, size)
	for range size {
		c, err := NewConn(engine, path)
		if err != nil {
			closeAll(conns)
			return nil, err
		}
		if err := c.Connect(ctx); err != nil {
			closeAll(conns)
			return nil, err
		}
		conns = append(conns, c)
	}
	return NewPool(conns...), nil
}

// Open opens a pool on askorg.db inside dataDir and applies pending
// migrations. Pass ":memory:" as dataDir for an in-memory database.
func Open(ctx context.Context, engine, dataDir string, size int) (*Pool, error) {
	path := ":memory:"
	if dataDir != ":memory:" {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		path = filepath.Join(dataDir, "askorg.db")
	}

	p, err := OpenPool(ctx, engine, path, size)
	if err != nil {
		return nil, err
	}
	if err := p.Do(ctx, func(c Conn) error { return Migrate(ctx, c) }); err != nil {
		p.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return p, nil
}

// Size returns the number of handles owned by the pool.
func (p *Pool) Size() int { return len(p.all) }

// Acquire blocks until a handle is free, ctx ends or the pool is closed.
// The caller owns the handle exclusively until Release.
func (p *Pool) Acquire(ctx context.Context) (Conn, error) {
	select {
	case <-p.done:
		return nil, ErrPoolClosed
	default:
	}
	select {
	case c := <-p.free:
		return c, nil
	case <-p.done:
		return nil, ErrPoolClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release returns a handle obtained from Acquire.
func (p *Pool) Release(c Conn) {
	select {
	case p.free <- c:
	default:
	}
}

// Do runs fn with an exclusively held handle.
func (p *Pool) Do(ctx context.Context, fn func(Conn) error) error {
	c, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer p.Release(c)
	return fn(c)
}

// Close stops new acquisitions, waits until every held handle has been
// released and then closes all handles. A caller that never releases its
// handle blocks Close.
func (p *Pool) Close() error {
	p.once.Do(func() {
		close(p.done)
		for range p.all {
			<-p.free
		}
		p.closed = closeAll(p.all)
	})
	return p.closed
}

func closeAll(conns []Conn) error {
	var errs []error
	for _, c := range conns {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
