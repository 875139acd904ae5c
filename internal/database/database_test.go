package database

import (
	"context"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/pealscope/internal/config"
	"github.com/dbsmedya/pealscope/internal/logger"
)

func TestBuildDSN(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.DatabaseConfig
		wantTLS string
		wantDB  string
	}{
		{
			name:    "preferred TLS",
			cfg:     &config.DatabaseConfig{Host: "localhost", Port: 3306, User: "root", Password: "secret", Database: "towers", TLS: "preferred"},
			wantTLS: "preferred",
			wantDB:  "towers",
		},
		{
			name:    "empty TLS defaults to preferred",
			cfg:     &config.DatabaseConfig{Host: "localhost", Port: 3306, User: "root", Password: "secret"},
			wantTLS: "preferred",
		},
		{
			name:    "TLS disabled",
			cfg:     &config.DatabaseConfig{Host: "db", Port: 3307, User: "ringer", Password: "p", Database: "towers", TLS: "disable"},
			wantTLS: "false",
			wantDB:  "towers",
		},
		{
			name:    "TLS required",
			cfg:     &config.DatabaseConfig{Host: "db", Port: 3307, User: "ringer", Password: "p", Database: "towers", TLS: "required"},
			wantTLS: "true",
			wantDB:  "towers",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dsn := BuildDSN(tt.cfg)
			assert.Contains(t, dsn, "tls="+tt.wantTLS)
			assert.Contains(t, dsn, "parseTime=true")

			parsed, err := mysql.ParseDSN(dsn)
			require.NoError(t, err)
			assert.Equal(t, tt.cfg.User, parsed.User)
			assert.Equal(t, tt.cfg.Password, parsed.Passwd)
			assert.Equal(t, "tcp", parsed.Net)
			assert.Equal(t, tt.wantDB, parsed.DBName)
			assert.True(t, parsed.ParseTime)
		})
	}
}

func TestBuildDSN_SpecialCharacters(t *testing.T) {
	cfg := &config.DatabaseConfig{
		Host:     "::1",
		Port:     3306,
		User:     "ringer",
		Password: "p@ss:w/rd",
		Database: "towers",
	}

	parsed, err := mysql.ParseDSN(BuildDSN(cfg))
	require.NoError(t, err)
	assert.Equal(t, "p@ss:w/rd", parsed.Passwd)
	assert.Equal(t, "[::1]:3306", parsed.Addr)
}

func TestNewDriverConfig(t *testing.T) {
	dc := NewDriverConfig(&config.DatabaseConfig{Host: "db.example.com", Port: 3310, User: "u", Database: "d"})
	assert.Equal(t, "db.example.com:3310", dc.Addr)
	assert.Equal(t, time.UTC, dc.Loc)
}

func TestNewManager(t *testing.T) {
	cfg := &config.DatabaseConfig{Host: "localhost", Port: 3306}
	m := NewManager(cfg, nil)

	require.NotNil(t, m)
	assert.Nil(t, m.DB)
	assert.Equal(t, cfg, m.config)
	assert.NotNil(t, m.logger)
	assert.Equal(t, initialRetryBackoff, m.backoff)
}

func TestManagerCloseWithoutConnect(t *testing.T) {
	m := NewManager(&config.DatabaseConfig{}, logger.NewNop())
	assert.NoError(t, m.Close())
}

func TestManagerPingWithoutConnect(t *testing.T) {
	m := NewManager(&config.DatabaseConfig{}, logger.NewNop())
	err := m.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not connected")
}

func TestManagerConnectNilConfig(t *testing.T) {
	m := NewManager(nil, logger.NewNop())
	err := m.Connect(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config is nil")
}

func TestManagerConnectCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := NewManager(&config.DatabaseConfig{Host: "127.0.0.1", Port: 1, User: "u", TLS: "disable"}, logger.NewNop())
	m.backoff = time.Millisecond

	err := m.Connect(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, m.DB)
}

func TestManagerConnectUnreachable(t *testing.T) {
	m := NewManager(&config.DatabaseConfig{Host: "127.0.0.1", Port: 1, User: "u", TLS: "disable"}, logger.NewNop())
	m.backoff = time.Millisecond

	err := m.Connect(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed after 3 retries")
}
