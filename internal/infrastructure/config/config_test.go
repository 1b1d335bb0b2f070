package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	// Save original env vars and restore after tests
	originalEnv := map[string]string{
		"PORTAL_APP_NAME":                os.Getenv("PORTAL_APP_NAME"),
		"PORTAL_APP_ENV":                 os.Getenv("PORTAL_APP_ENV"),
		"PORTAL_APP_PORT":                os.Getenv("PORTAL_APP_PORT"),
		"PORTAL_DATABASE_HOST":           os.Getenv("PORTAL_DATABASE_HOST"),
		"PORTAL_DATABASE_PORT":           os.Getenv("PORTAL_DATABASE_PORT"),
		"PORTAL_DATABASE_USER":           os.Getenv("PORTAL_DATABASE_USER"),
		"PORTAL_DATABASE_PASSWORD":       os.Getenv("PORTAL_DATABASE_PASSWORD"),
		"PORTAL_DATABASE_DBNAME":         os.Getenv("PORTAL_DATABASE_DBNAME"),
		"PORTAL_DATABASE_SSLMODE":        os.Getenv("PORTAL_DATABASE_SSLMODE"),
		"PORTAL_DATABASE_MAX_OPEN_CONNS": os.Getenv("PORTAL_DATABASE_MAX_OPEN_CONNS"),
		"PORTAL_DATABASE_MAX_IDLE_CONNS": os.Getenv("PORTAL_DATABASE_MAX_IDLE_CONNS"),
		"PORTAL_AGENT_HOST":              os.Getenv("PORTAL_AGENT_HOST"),
		"PORTAL_AGENT_REQUEST_TIMEOUT":   os.Getenv("PORTAL_AGENT_REQUEST_TIMEOUT"),
		"PORTAL_SCHEDULER_INTERVAL":      os.Getenv("PORTAL_SCHEDULER_INTERVAL"),
		"PORTAL_JWT_SECRET":              os.Getenv("PORTAL_JWT_SECRET"),
		"PORTAL_SYNC_SIGNING_SECRET":     os.Getenv("PORTAL_SYNC_SIGNING_SECRET"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	clearEnv := func() {
		for k := range originalEnv {
			os.Unsetenv(k)
		}
	}

	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv()

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "catalogportal-backend", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "postgres", cfg.Database.User)
		assert.Equal(t, "", cfg.Database.Password)
		assert.Equal(t, "catalogportal", cfg.Database.DBName)
		assert.Equal(t, "disable", cfg.Database.SSLMode)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)
		assert.Equal(t, "localhost", cfg.Agent.Host)
		assert.Equal(t, 30*time.Second, cfg.Agent.RequestTimeout)
		assert.Equal(t, 5*time.Minute, cfg.Scheduler.Interval)
	})

	t.Run("loads values from environment variables with PORTAL prefix", func(t *testing.T) {
		clearEnv()
		os.Setenv("PORTAL_APP_NAME", "test-app")
		os.Setenv("PORTAL_APP_ENV", "testing")
		os.Setenv("PORTAL_APP_PORT", "9000")
		os.Setenv("PORTAL_DATABASE_HOST", "testdb.local")
		os.Setenv("PORTAL_DATABASE_PORT", "5433")
		os.Setenv("PORTAL_DATABASE_USER", "testuser")
		os.Setenv("PORTAL_DATABASE_PASSWORD", "testpass")
		os.Setenv("PORTAL_DATABASE_DBNAME", "testdb")
		os.Setenv("PORTAL_DATABASE_SSLMODE", "require")
		os.Setenv("PORTAL_AGENT_HOST", "agent.internal")
		os.Setenv("PORTAL_AGENT_REQUEST_TIMEOUT", "10s")
		os.Setenv("PORTAL_SCHEDULER_INTERVAL", "2m")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "testing", cfg.App.Env)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, "testuser", cfg.Database.User)
		assert.Equal(t, "testpass", cfg.Database.Password)
		assert.Equal(t, "testdb", cfg.Database.DBName)
		assert.Equal(t, "require", cfg.Database.SSLMode)
		assert.Equal(t, "agent.internal", cfg.Agent.Host)
		assert.Equal(t, 10*time.Second, cfg.Agent.RequestTimeout)
		assert.Equal(t, 2*time.Minute, cfg.Scheduler.Interval)
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearEnv()
		os.Setenv("PORTAL_DATABASE_MAX_OPEN_CONNS", "10")
		os.Setenv("PORTAL_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns")
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("validates scheduler interval lower bound", func(t *testing.T) {
		clearEnv()
		os.Setenv("PORTAL_SCHEDULER_INTERVAL", "100ms")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "scheduler.interval")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	originalEnv := map[string]string{
		"PORTAL_APP_ENV":             os.Getenv("PORTAL_APP_ENV"),
		"PORTAL_JWT_SECRET":          os.Getenv("PORTAL_JWT_SECRET"),
		"PORTAL_SYNC_SIGNING_SECRET": os.Getenv("PORTAL_SYNC_SIGNING_SECRET"),
		"PORTAL_DATABASE_PASSWORD":   os.Getenv("PORTAL_DATABASE_PASSWORD"),
		"PORTAL_DATABASE_SSLMODE":    os.Getenv("PORTAL_DATABASE_SSLMODE"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	clearEnv := func() {
		for k := range originalEnv {
			os.Unsetenv(k)
		}
	}

	setValidProductionBase := func() {
		os.Setenv("PORTAL_APP_ENV", "production")
		os.Setenv("PORTAL_JWT_SECRET", "this-is-a-very-secure-jwt-secret-key-32chars")
		os.Setenv("PORTAL_SYNC_SIGNING_SECRET", "this-is-a-very-secure-sync-secret-32chars")
		os.Setenv("PORTAL_DATABASE_PASSWORD", "secure-password")
		os.Setenv("PORTAL_DATABASE_SSLMODE", "require")
	}

	t.Run("requires jwt.secret in production", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()
		os.Unsetenv("PORTAL_JWT_SECRET")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt.secret is required in production")
	})

	t.Run("requires sync.signing_secret in production", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()
		os.Unsetenv("PORTAL_SYNC_SIGNING_SECRET")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sync.signing_secret is required in production")
	})

	t.Run("requires sync.signing_secret at least 32 characters", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()
		os.Setenv("PORTAL_SYNC_SIGNING_SECRET", "short")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sync.signing_secret must be at least 32 characters")
	})

	t.Run("requires SSL enabled in production", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()
		os.Setenv("PORTAL_DATABASE_SSLMODE", "disable")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode cannot be 'disable' in production")
	})

	t.Run("passes validation with valid production config", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "testuser",
			Password: "testpass",
			DBName:   "testdb",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost")
		assert.Contains(t, dsn, "5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "pass@word#123",
			DBName:   "db",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "pass%40word%23123")
	})
}

func TestRedisConfig_Addr(t *testing.T) {
	cfg := RedisConfig{Host: "cache.local", Port: 6380}
	assert.Equal(t, "cache.local:6380", cfg.Addr())
}
