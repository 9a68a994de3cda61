package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

// Driver names registered with database/sql.
const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite3"
)

// ErrNotConnected is returned while the startup connect loop has not succeeded yet.
var ErrNotConnected = errors.New("database not connected")

// State mirrors the connection states reported by /api/health/db.
type State int32

const (
	StateDisconnected  State = 0
	StateConnected     State = 1
	StateConnecting    State = 2
	StateDisconnecting State = 3
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnected:
		return "connected"
	case StateConnecting:
		return "connecting"
	case StateDisconnecting:
		return "disconnecting"
	default:
		return "unknown"
	}
}

// RetryPolicy controls the startup connect loop. Attempts never stop until one succeeds
// or the context is cancelled.
type RetryPolicy struct {
	Interval time.Duration
	Jitter   time.Duration
}

func (p RetryPolicy) wait() time.Duration {
	interval := p.Interval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if p.Jitter <= 0 {
		return interval
	}
	return interval + time.Duration(rand.Int63n(int64(p.Jitter+1)))
}

// DB wraps sql.DB for Postgres (pgx) or SQLite and tracks the connection state.
type DB struct {
	driver string
	dsn    string

	mu     sync.RWMutex
	client *sql.DB
	state  atomic.Int32
}

// NewDB parses a DATABASE_URL without connecting. postgres:// and postgresql:// select pgx,
// sqlite://<path> and file: select SQLite.
func NewDB(databaseURL string) (*DB, error) {
	d := &DB{}
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		d.driver, d.dsn = DriverPostgres, databaseURL
	case strings.HasPrefix(databaseURL, "sqlite://"):
		path := strings.TrimPrefix(databaseURL, "sqlite://")
		if path == "" {
			return nil, errors.New("sqlite url needs a file path")
		}
		d.driver, d.dsn = DriverSQLite, path+"?_journal_mode=WAL&_busy_timeout=5000"
	case strings.HasPrefix(databaseURL, "file:"):
		d.driver, d.dsn = DriverSQLite, databaseURL
	default:
		return nil, fmt.Errorf("unsupported database url %q", redact(databaseURL))
	}
	return d, nil
}

// Driver returns the database/sql driver name in use.
func (d *DB) Driver() string { return d.driver }

// State returns the last known connection state.
func (d *DB) State() State { return State(d.state.Load()) }

// Client returns the live pool or ErrNotConnected.
func (d *DB) Client() (*sql.DB, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.client == nil {
		return nil, ErrNotConnected
	}
	return d.client, nil
}

// Connect makes a single attempt: open, ping, migrate.
func (d *DB) Connect(ctx context.Context) error {
	d.state.Store(int32(StateConnecting))
	if err := d.connect(ctx); err != nil {
		d.state.Store(int32(StateDisconnected))
		return err
	}
	return nil
}

// ConnectWithRetry blocks until a connection succeeds or ctx is done, sleeping
// policy.Interval (plus jitter) between attempts.
func (d *DB) ConnectWithRetry(ctx context.Context, policy RetryPolicy, log logrus.FieldLogger) error {
	d.state.Store(int32(StateConnecting))
	for attempt := 1; ; attempt++ {
		err := d.connect(ctx)
		if err == nil {
			log.WithFields(logrus.Fields{"driver": d.driver, "attempt": attempt}).Info("database connected")
			return nil
		}

		wait := policy.wait()
		log.WithError(err).WithFields(logrus.Fields{"attempt": attempt, "retry_in": wait.String()}).
			Warn("database connect failed")

		select {
		case <-ctx.Done():
			d.state.Store(int32(StateDisconnected))
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

func (d *DB) connect(ctx context.Context) error {
	if d.driver == DriverSQLite {
		if dir := filepath.Dir(sqlitePath(d.dsn)); dir != "." && dir != "" {
			_ = os.MkdirAll(dir, 0o755)
		}
	}

	db, err := sql.Open(d.driver, d.dsn)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	if d.driver == DriverSQLite {
		// single writer keeps SQLite from returning SQLITE_BUSY under concurrent inserts
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(time.Hour)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("ping db: %w", err)
	}
	if err := migrate(ctx, db, d.driver); err != nil {
		_ = db.Close()
		return fmt.Errorf("migrate: %w", err)
	}

	d.mu.Lock()
	old := d.client
	d.client = db
	d.mu.Unlock()
	if old != nil {
		_ = old.Close()
	}
	d.state.Store(int32(StateConnected))
	return nil
}

// Health pings the pool and updates the state. Before the first successful
// connect it reports the loop's state without touching the network.
func (d *DB) Health(ctx context.Context) State {
	db, err := d.Client()
	if err != nil {
		return d.State()
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		d.state.Store(int32(StateDisconnected))
		return StateDisconnected
	}
	d.state.Store(int32(StateConnected))
	return StateConnected
}

// Rebind rewrites '?' placeholders into the driver's positional form.
func (d *DB) Rebind(query string) string {
	if d.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Close closes the underlying connection.
func (d *DB) Close() error {
	if d == nil {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.client == nil {
		d.state.Store(int32(StateDisconnected))
		return nil
	}
	d.state.Store(int32(StateDisconnecting))
	err := d.client.Close()
	d.client = nil
	d.state.Store(int32(StateDisconnected))
	return err
}

func sqlitePath(dsn string) string {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	return path
}

func redact(raw string) string {
	if i := strings.Index(raw, "@"); i >= 0 {
		if j := strings.Index(raw, "://"); j >= 0 && j < i {
			return raw[:j+3] + "***" + raw[i:]
		}
	}
	return raw
}
