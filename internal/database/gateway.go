package database

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// Gateway is the single owner of backend connection state. All persisted
// reads and writes flow through Query, Get and Run; callers never hold raw
// connection handles. Schema initialisation starts at construction and every
// operation waits for it to finish.
type Gateway struct {
	backend Backend
	log     *logrus.Entry

	ready chan struct{}

	closeOnce sync.Once
	closeErr  error
}

// New wraps the backend and kicks off idempotent schema creation in the
// background. Use Ready to wait for bring-up explicitly.
func New(backend Backend, logger *logrus.Logger) *Gateway {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	g := &Gateway{
		backend: backend,
		log:     logger.WithField("component", "gateway"),
		ready:   make(chan struct{}),
	}
	go g.initSchema()
	return g
}

// Kind reports which backend variant is active.
func (g *Gateway) Kind() Kind { return g.backend.Kind() }

// Degraded reports whether the mock fallback is serving requests.
func (g *Gateway) Degraded() bool { return g.backend.Kind() == KindDegraded }

// Ready blocks until schema initialisation has completed.
func (g *Gateway) Ready(ctx context.Context) error {
	select {
	case <-g.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Query executes a neutral-dialect statement. Read statements return their
// rows; a mutating statement is executed through the same path as Run and
// returns no rows (use Run when the insert id is needed).
func (g *Gateway) Query(ctx context.Context, stmt string, args ...any) ([]Row, error) {
	if err := g.Ready(ctx); err != nil {
		return nil, err
	}
	if !isRead(stmt) {
		_, err := g.backend.Exec(ctx, stmt, args...)
		return nil, err
	}
	return g.backend.Query(ctx, stmt, args...)
}

// Get returns the first row of a read statement, or nil when there is none.
func (g *Gateway) Get(ctx context.Context, stmt string, args ...any) (Row, error) {
	rows, err := g.Query(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// Run executes a mutating statement and reports the insert id and row count.
func (g *Gateway) Run(ctx context.Context, stmt string, args ...any) (Result, error) {
	if err := g.Ready(ctx); err != nil {
		return Result{}, err
	}
	return g.backend.Exec(ctx, stmt, args...)
}

// Close releases backend resources. Safe to call more than once.
func (g *Gateway) Close() error {
	g.closeOnce.Do(func() {
		g.closeErr = g.backend.Close()
	})
	return g.closeErr
}
