// Package database reads backup records from the Pterodactyl panel database.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/imedwei/wings-backup-purger/internal/backup"
	"github.com/imedwei/wings-backup-purger/internal/config"
)

// ErrConnection is returned when the panel database cannot be reached.
var ErrConnection = errors.New("database connection failed")

const connectTimeout = 10 * time.Second

// Store reads the panel's backups table.
type Store struct {
	db    *sql.DB
	table string
}

// Open connects to the panel database and verifies the connection.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	dsn, err := DSN(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(cfg.Driver(), dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open database: %w", ErrConnection, err)
	}

	// The purger issues a single query; keep the pool small.
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: failed to ping database: %w", ErrConnection, err)
	}

	return NewStore(db, cfg.TablePrefix), nil
}

// NewStore wraps an open database handle. prefix is the panel's DB_PREFIX.
func NewStore(db *sql.DB, prefix string) *Store {
	return &Store{db: db, table: prefix + "backups"}
}

// DSN builds the driver connection string for cfg.
func DSN(cfg config.DatabaseConfig) (string, error) {
	port, err := cfg.PortNumber()
	if err != nil {
		return "", err
	}
	addr := net.JoinHostPort(cfg.Host, fmt.Sprint(port))

	if cfg.Driver() == "postgres" {
		u := url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(cfg.Username, cfg.Password),
			Host:   addr,
			Path:   "/" + cfg.Name,
		}
		q := u.Query()
		q.Set("sslmode", "disable")
		q.Set("connect_timeout", fmt.Sprint(int(connectTimeout.Seconds())))
		u.RawQuery = q.Encode()
		return u.String(), nil
	}

	mc := mysql.NewConfig()
	mc.User = cfg.Username
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = addr
	mc.DBName = cfg.Name
	mc.Timeout = connectTimeout
	mc.ParseTime = true
	return mc.FormatDSN(), nil
}

// Snapshot returns every row of the backups table. Columns are selected by name
// so the query is independent of the table's column order.
func (s *Store) Snapshot(ctx context.Context) ([]backup.Record, error) {
	query := fmt.Sprintf("SELECT uuid, is_successful, checksum FROM %s", s.table)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", s.table, err)
	}
	defer rows.Close()

	var records []backup.Record
	for rows.Next() {
		var (
			id         string
			successful sql.NullBool
			checksum   sql.NullString
		)
		if err := rows.Scan(&id, &successful, &checksum); err != nil {
			return nil, fmt.Errorf("failed to scan backup record: %w", err)
		}
		records = append(records, backup.Record{
			ID:         id,
			Successful: successful.Valid && successful.Bool,
			Checksum:   checksum.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read backup records: %w", err)
	}

	return records, nil
}

// Ping checks that the database is still reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrConnection, err)
	}
	return nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}
