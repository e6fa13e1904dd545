package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

// Dialect names the SQL flavour behind a DB handle.
type Dialect string

const (
	MySQL    Dialect = "mysql"
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite3"
)

// ParseDialect maps the DB_DRIVER value onto a Dialect.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mysql", "":
		return MySQL, nil
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	}
	return "", fmt.Errorf("database: unsupported driver %q", s)
}

// Options carries connection parameters. For SQLite Name is the file path
// (or a file: URI); the other fields are ignored.
type Options struct {
	Dialect Dialect
	User    string
	Pass    string
	Host    string
	Port    string
	Name    string
}

// DB wraps *sql.DB so repositories can keep writing MySQL-style "?"
// placeholders regardless of dialect.
type DB struct {
	*sql.DB
	Dialect Dialect
}

// DSN builds the driver-specific data source name.
func (o Options) DSN() string {
	switch o.Dialect {
	case Postgres:
		auth := o.User
		if o.Pass != "" {
			auth = o.User + ":" + o.Pass
		}
		return fmt.Sprintf("postgres://%s@%s:%s/%s?sslmode=disable", auth, o.Host, o.Port, o.Name)
	case SQLite:
		name := o.Name
		if !strings.Contains(name, "_foreign_keys") {
			if strings.Contains(name, "?") {
				name += "&_foreign_keys=on"
			} else {
				name += "?_foreign_keys=on"
			}
		}
		return name
	default:
		auth := o.User
		if o.Pass != "" {
			auth = fmt.Sprintf("%s:%s", o.User, o.Pass)
		}
		// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
		return fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
			auth, o.Host, o.Port, o.Name)
	}
}

func (d Dialect) driverName() string {
	if d == Postgres {
		return "pgx"
	}
	return string(d)
}

// Open connects to the configured database and verifies the connection.
// The handle is returned even when the ping fails so the caller can decide
// whether to keep serving; only a malformed configuration yields a nil DB.
func Open(o Options) (*DB, error) {
	raw, err := sql.Open(o.Dialect.driverName(), o.DSN())
	if err != nil {
		return nil, err
	}

	// Pool settings
	if o.Dialect == SQLite {
		// one writer; also keeps ":memory:" databases on a single connection
		raw.SetMaxOpenConns(1)
	} else {
		raw.SetMaxOpenConns(25)
		raw.SetMaxIdleConns(25)
		raw.SetConnMaxLifetime(30 * time.Minute)
	}
	db := &DB{DB: raw, Dialect: o.Dialect}

	// Ping with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := raw.PingContext(ctx); err != nil {
		return db, fmt.Errorf("database: ping %s: %w", o.Dialect, err)
	}
	return db, nil
}

// Rebind rewrites "?" placeholders to "$n" for PostgreSQL.
func (db *DB) Rebind(query string) string {
	return rebind(db.Dialect, query)
}

func rebind(d Dialect, query string) string {
	if d != Postgres || !strings.Contains(query, "?") {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inQuote := false
	for i := 0; i < len(query); i++ {
		ch := query[i]
		switch {
		case ch == '\'':
			inQuote = !inQuote
			b.WriteByte(ch)
		case ch == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(ch)
		}
	}
	return b.String()
}

// SupportsReturning reports whether INSERT ... RETURNING is available.
func (db *DB) SupportsReturning() bool { return db.Dialect != MySQL }

func (db *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.DB.ExecContext(ctx, db.Rebind(query), args...)
}

func (db *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.DB.QueryContext(ctx, db.Rebind(query), args...)
}

func (db *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return db.DB.QueryRowContext(ctx, db.Rebind(query), args...)
}

// Tx is the transactional counterpart of DB.
type Tx struct {
	*sql.Tx
	dialect Dialect
}

// BeginTx starts a transaction that rebinds like its parent.
func (db *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*Tx, error) {
	tx, err := db.DB.BeginTx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Tx{Tx: tx, dialect: db.Dialect}, nil
}

func (tx *Tx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return tx.Tx.ExecContext(ctx, rebind(tx.dialect, query), args...)
}

func (tx *Tx) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return tx.Tx.QueryRowContext(ctx, rebind(tx.dialect, query), args...)
}
