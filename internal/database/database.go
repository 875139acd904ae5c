// Package database persists pealscope runs to MySQL.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/dbsmedya/pealscope/internal/config"
	"github.com/dbsmedya/pealscope/internal/logger"
)

const (
	maxConnectRetries   = 3
	initialRetryBackoff = time.Second
)

// Manager owns the connection to the result store.
type Manager struct {
	DB     *sql.DB
	config *config.DatabaseConfig
	logger *logger.Logger

	// backoff is the first retry delay; tests shorten it.
	backoff time.Duration
}

// NewManager creates a new database manager from configuration.
func NewManager(cfg *config.DatabaseConfig, log *logger.Logger) *Manager {
	if log == nil {
		log = logger.NewDefault()
	}
	return &Manager{
		config:  cfg,
		logger:  log,
		backoff: initialRetryBackoff,
	}
}

// Connect establishes the connection, retrying with exponential backoff.
func (m *Manager) Connect(ctx context.Context) error {
	if m.config == nil {
		return fmt.Errorf("database config is nil")
	}

	db, err := m.connectWithRetry(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect to result database: %w", err)
	}
	m.DB = db

	m.logger.Infow("Connected to result database",
		"host", m.config.Host,
		"port", m.config.Port,
		"database", m.config.Database,
	)
	return nil
}

// connectWithRetry attempts to connect with exponential backoff.
func (m *Manager) connectWithRetry(ctx context.Context) (*sql.DB, error) {
	var db *sql.DB
	var err error

	backoff := m.backoff
	for i := 0; i < maxConnectRetries; i++ {
		db, err = m.connect()
		if err == nil {
			// Verify connection
			if pingErr := db.PingContext(ctx); pingErr == nil {
				return db, nil
			} else {
				db.Close()
				err = pingErr
			}
		}

		if i < maxConnectRetries-1 {
			m.logger.Warnw("Database connection attempt failed",
				"attempt", i+1,
				"retry_in", backoff,
				"error", err,
			)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
				backoff *= 2 // Exponential backoff
			}
		}
	}

	return nil, fmt.Errorf("failed after %d retries: %w", maxConnectRetries, err)
}

// connect creates a database handle and configures its pool.
func (m *Manager) connect() (*sql.DB, error) {
	connector, err := mysql.NewConnector(NewDriverConfig(m.config))
	if err != nil {
		return nil, err
	}
	db := sql.OpenDB(connector)

	// Configure connection pool
	if m.config.MaxConnections > 0 {
		db.SetMaxOpenConns(m.config.MaxConnections)
	}
	if m.config.MaxIdleConnections > 0 {
		db.SetMaxIdleConns(m.config.MaxIdleConnections)
	}
	db.SetConnMaxLifetime(10 * time.Minute)

	return db, nil
}

// NewDriverConfig maps the configuration onto the MySQL driver's config.
func NewDriverConfig(cfg *config.DatabaseConfig) *mysql.Config {
	dc := mysql.NewConfig()
	dc.User = cfg.User
	dc.Passwd = cfg.Password
	dc.Net = "tcp"
	dc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	dc.DBName = cfg.Database
	dc.ParseTime = true
	dc.Loc = time.UTC

	switch cfg.TLS {
	case "disable":
		dc.TLSConfig = "false"
	case "required":
		dc.TLSConfig = "true"
	default:
		dc.TLSConfig = "preferred"
	}
	return dc
}

// BuildDSN constructs a MySQL DSN from configuration. The password is
// included, so the result must not be logged.
func BuildDSN(cfg *config.DatabaseConfig) string {
	return NewDriverConfig(cfg).FormatDSN()
}

// Close closes the connection gracefully.
func (m *Manager) Close() error {
	if m.DB == nil {
		return nil
	}
	if err := m.DB.Close(); err != nil {
		return fmt.Errorf("result database close: %w", err)
	}
	m.DB = nil
	return nil
}

// Ping verifies the connection is alive.
func (m *Manager) Ping(ctx context.Context) error {
	if m.DB == nil {
		return fmt.Errorf("result database is not connected")
	}
	if err := m.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("result database ping failed: %w", err)
	}
	return nil
}
