package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"wildfire/internal/metrics"
)

// SQLStore implements Store over MySQL or SQLite. Queries use `?`
// placeholders, which both drivers accept. Timestamps are stored as UTC
// unix microseconds.
type SQLStore struct {
	conn   *sql.DB
	driver string
}

// NewMySQLStore connects to MySQL and initializes the schema.
// dsn format: "username:password@tcp(host:port)/dbname?parseTime=true"
func NewMySQLStore(ctx context.Context, dsn string) (*SQLStore, error) {
	conn, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	return initStore(ctx, conn, "mysql", mysqlSchema)
}

// NewSQLiteStore opens (or creates) a SQLite database file
func NewSQLiteStore(ctx context.Context, path string) (*SQLStore, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite serializes writers anyway; one connection avoids SQLITE_BUSY
	conn.SetMaxOpenConns(1)

	return initStore(ctx, conn, "sqlite", sqliteSchema)
}

func initStore(ctx context.Context, conn *sql.DB, driver string, schema []string) (*SQLStore, error) {
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &SQLStore{conn: conn, driver: driver}
	for _, stmt := range schema {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to initialize schema: %w", err)
		}
	}
	return s, nil
}

// Driver names the backing database, "mysql" or "sqlite"
func (s *SQLStore) Driver() string {
	return s.driver
}

func (s *SQLStore) Close() error {
	return s.conn.Close()
}

// MySQL can't run several statements in one Exec, so each table is separate
var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS alerts (
		id VARCHAR(36) PRIMARY KEY,
		title VARCHAR(255) NOT NULL,
		message TEXT NOT NULL,
		latitude DOUBLE NOT NULL,
		longitude DOUBLE NOT NULL,
		severity VARCHAR(32) NOT NULL,
		status VARCHAR(16) NOT NULL,
		created_at BIGINT NOT NULL,
		expires_at BIGINT NOT NULL,
		metadata TEXT NOT NULL,
		INDEX idx_alerts_status_expires (status, expires_at),
		INDEX idx_alerts_created (created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS fire_reports (
		id VARCHAR(36) PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL,
		province VARCHAR(100) NOT NULL,
		district VARCHAR(100) NOT NULL,
		location_details TEXT NOT NULL,
		fire_date VARCHAR(10) NOT NULL,
		description TEXT NOT NULL,
		latitude DOUBLE NULL,
		longitude DOUBLE NULL,
		resolved BOOLEAN NOT NULL DEFAULT FALSE,
		created_at BIGINT NOT NULL,
		INDEX idx_fire_reports_date (fire_date)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS contact_messages (
		id VARCHAR(36) PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL,
		subject VARCHAR(255) NOT NULL,
		message TEXT NOT NULL,
		created_at BIGINT NOT NULL,
		INDEX idx_contact_messages_created (created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS users (
		id VARCHAR(36) PRIMARY KEY,
		email VARCHAR(255) NOT NULL UNIQUE,
		username VARCHAR(100) NOT NULL UNIQUE,
		nid VARCHAR(100) NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		role VARCHAR(16) NOT NULL,
		is_approved BOOLEAN NOT NULL DEFAULT FALSE,
		is_verified BOOLEAN NOT NULL DEFAULT FALSE,
		otp VARCHAR(6) NOT NULL DEFAULT '',
		otp_created_at BIGINT NULL,
		reset_otp VARCHAR(6) NOT NULL DEFAULT '',
		reset_otp_created_at BIGINT NULL,
		created_at BIGINT NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS alerts (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		message TEXT NOT NULL,
		latitude REAL NOT NULL,
		longitude REAL NOT NULL,
		severity TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		expires_at INTEGER NOT NULL,
		metadata TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_alerts_status_expires ON alerts (status, expires_at)`,
	`CREATE INDEX IF NOT EXISTS idx_alerts_created ON alerts (created_at)`,

	`CREATE TABLE IF NOT EXISTS fire_reports (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		province TEXT NOT NULL,
		district TEXT NOT NULL,
		location_details TEXT NOT NULL,
		fire_date TEXT NOT NULL,
		description TEXT NOT NULL,
		latitude REAL NULL,
		longitude REAL NULL,
		resolved INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_fire_reports_date ON fire_reports (fire_date)`,

	`CREATE TABLE IF NOT EXISTS contact_messages (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		subject TEXT NOT NULL,
		message TEXT NOT NULL,
		created_at INTEGER NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		username TEXT NOT NULL UNIQUE,
		nid TEXT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL,
		is_approved INTEGER NOT NULL DEFAULT 0,
		is_verified INTEGER NOT NULL DEFAULT 0,
		otp TEXT NOT NULL DEFAULT '',
		otp_created_at INTEGER NULL,
		reset_otp TEXT NOT NULL DEFAULT '',
		reset_otp_created_at INTEGER NULL,
		created_at INTEGER NOT NULL
	)`,
}

// exec runs a statement and records its timing under queryType/table
func (s *SQLStore) exec(ctx context.Context, queryType, table, query string, args ...interface{}) (sql.Result, error) {
	start := time.Now()
	res, err := s.conn.ExecContext(ctx, query, args...)
	metrics.RecordDBQuery(queryType, table, time.Since(start), err)
	metrics.UpdateDBConnectionStats(s.conn.Stats())
	return res, err
}

func (s *SQLStore) query(ctx context.Context, table, query string, args ...interface{}) (*sql.Rows, error) {
	start := time.Now()
	rows, err := s.conn.QueryContext(ctx, query, args...)
	metrics.RecordDBQuery("SELECT", table, time.Since(start), err)
	metrics.UpdateDBConnectionStats(s.conn.Stats())
	return rows, err
}

// deleteByID removes one row and reports whether it existed
func (s *SQLStore) deleteByID(ctx context.Context, table, id string) (bool, error) {
	res, err := s.exec(ctx, "DELETE", table, "DELETE FROM "+table+" WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func isDuplicateKey(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func toMicros(t time.Time) int64 {
	return t.UTC().UnixMicro()
}

func fromMicros(v int64) time.Time {
	return time.UnixMicro(v).UTC()
}

func nullMicros(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toMicros(*t), Valid: true}
}

func timeFromNull(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := fromMicros(v.Int64)
	return &t
}

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}
