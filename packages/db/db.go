// Package db runs SQL queries for case actuals and backs the run history.
// Connection strings take the form sqlite://path or sqlite:path.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	// SQLite driver
	_ "github.com/mattn/go-sqlite3"
)

// ErrUnsupportedDriver is returned for connection strings of an unknown
// kind.
var ErrUnsupportedDriver = errors.New("unsupported database")

// QueryResult holds the rows returned by a query.
type QueryResult struct {
	Columns []string
	Rows    [][]any
}

// Column returns the values of column i of every row.
func (r *QueryResult) Column(i int) []any {
	values := make([]any, 0, len(r.Rows))
	for _, row := range r.Rows {
		if i < len(row) {
			values = append(values, row[i])
		}
	}
	return values
}

// Client is a database connection.
type Client struct {
	db           *sql.DB
	queryTimeout time.Duration
}

// Open connects to the database named by connectionString.
func Open(ctx context.Context, connectionString string) (*Client, error) {
	driver, dsn, err := parseConnectionString(connectionString)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &Client{
		db:           db,
		queryTimeout: 30 * time.Second,
	}, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Exec runs a statement that returns no rows.
func (c *Client) Exec(ctx context.Context, query string, args ...any) error {
	ctx, cancel := context.WithTimeout(ctx, c.queryTimeout)
	defer cancel()
	if _, err := c.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("exec failed: %w", err)
	}
	return nil
}

// Query runs query and returns every row. []byte values are returned as
// strings.
func (c *Client) Query(ctx context.Context, query string, args ...any) (*QueryResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.queryTimeout)
	defer cancel()

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	result := &QueryResult{Columns: columns, Rows: make([][]any, 0)}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return result, nil
}

// parseConnectionString splits a connection string into driver and DSN.
// Supported formats:
//   - sqlite://path/to/db.sqlite
//   - sqlite:./test.db
func parseConnectionString(connStr string) (driver, dsn string, err error) {
	connStr = strings.TrimSpace(connStr)
	if rest, ok := strings.CutPrefix(connStr, "sqlite://"); ok {
		return "sqlite3", rest, nil
	}
	if rest, ok := strings.CutPrefix(connStr, "sqlite:"); ok {
		return "sqlite3", rest, nil
	}
	return "", "", fmt.Errorf("%w: %q (expected sqlite://path)", ErrUnsupportedDriver, connStr)
}

// Pool shares one Client per connection string. It is safe for concurrent
// use.
type Pool struct {
	mu      sync.Mutex
	clients map[string]*Client
}

// NewPool returns an empty Pool.
func NewPool() *Pool {
	return &Pool{clients: make(map[string]*Client)}
}

// Get returns the client for connectionString, opening it on first use.
func (p *Pool) Get(ctx context.Context, connectionString string) (*Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.clients[connectionString]; ok {
		return c, nil
	}
	c, err := Open(ctx, connectionString)
	if err != nil {
		return nil, err
	}
	p.clients[connectionString] = c
	return c, nil
}

// Close closes every client.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var errs []error
	for key, c := range p.clients {
		errs = append(errs, c.Close())
		delete(p.clients, key)
	}
	return errors.Join(errs...)
}
