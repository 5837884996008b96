package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

type DatabaseType string

const (
	DatabaseTypeSQLite     DatabaseType = "sqlite"
	DatabaseTypePostgreSQL DatabaseType = "postgres"
)

// DatabaseConfig selects the store and carries the settings of each kind.
type DatabaseConfig struct {
	Type     DatabaseType   `json:"type"`
	SQLite   SQLiteConfig   `json:"sqlite"`
	Postgres PostgresConfig `json:"postgres"`
}

type SQLiteConfig struct {
	Path string `json:"path"`
}

type PostgresConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Database string `json:"database"`
	Username string `json:"username"`
	Password string `json:"password"`
	SSLMode  string `json:"sslMode"`
	TimeZone string `json:"timeZone"`
}

// GetDSN returns the SQLite file path or the libpq keyword/value connection string.
func (c *DatabaseConfig) GetDSN() string {
	if c.Type != DatabaseTypePostgreSQL {
		return c.SQLite.Path
	}
	p := c.Postgres
	parts := []string{
		"host=" + p.Host,
		"port=" + strconv.Itoa(p.Port),
		"user=" + p.Username,
		"dbname=" + p.Database,
	}
	if p.Password != "" {
		parts = append(parts, "password="+p.Password)
	}
	if p.SSLMode != "" {
		parts = append(parts, "sslmode="+p.SSLMode)
	}
	if p.TimeZone != "" {
		parts = append(parts, "TimeZone="+p.TimeZone)
	}
	return strings.Join(parts, " ")
}

// GetDefaultDatabaseConfig returns the database configuration of an environment.
// Development and production share a server and differ by database name.
func GetDefaultDatabaseConfig(env string) *DatabaseConfig {
	dbName := "flaskaskdb"
	if env == EnvProduction {
		dbName = "flaskaskdb_prod"
	}
	return &DatabaseConfig{
		Type:   DatabaseTypeSQLite,
		SQLite: SQLiteConfig{Path: GetDBPath()},
		Postgres: PostgresConfig{
			Host:     "localhost",
			Port:     5432,
			Database: dbName,
			Username: "flaskuser",
			SSLMode:  "disable",
			TimeZone: "UTC",
		},
	}
}

// LoadDatabaseConfig starts from the environment defaults and applies ASK_DB_* and
// ASK_PG_* overrides.
func LoadDatabaseConfig(env string) (*DatabaseConfig, error) {
	c := GetDefaultDatabaseConfig(env)
	if t := os.Getenv("ASK_DB_TYPE"); t != "" {
		c.Type = DatabaseType(strings.ToLower(t))
	}
	if v := os.Getenv("ASK_DB_PATH"); v != "" {
		c.SQLite.Path = v
	}
	if v := os.Getenv("ASK_PG_HOST"); v != "" {
		c.Postgres.Host = v
	}
	if v := os.Getenv("ASK_PG_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid ASK_PG_PORT %q: %w", v, err)
		}
		c.Postgres.Port = port
	}
	if v := os.Getenv("ASK_PG_DATABASE"); v != "" {
		c.Postgres.Database = v
	}
	if v := os.Getenv("ASK_PG_USER"); v != "" {
		c.Postgres.Username = v
	}
	if v := os.Getenv("ASK_PG_PASSWORD"); v != "" {
		c.Postgres.Password = v
	}
	if v := os.Getenv("ASK_PG_SSLMODE"); v != "" {
		c.Postgres.SSLMode = v
	}
	if err := c.ValidateConfig(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *DatabaseConfig) ValidateConfig() error {
	switch c.Type {
	case DatabaseTypeSQLite:
		if c.SQLite.Path == "" {
			return errors.New("ASK_DB_PATH is empty")
		}
		return nil
	case DatabaseTypePostgreSQL:
		p := c.Postgres
		switch {
		case p.Host == "":
			return errors.New("ASK_PG_HOST is empty")
		case p.Database == "":
			return errors.New("ASK_PG_DATABASE is empty")
		case p.Username == "":
			return errors.New("ASK_PG_USER is empty")
		case p.Port <= 0 || p.Port > 65535:
			return fmt.Errorf("ASK_PG_PORT %d is out of range", p.Port)
		}
		return nil
	}
	return fmt.Errorf("unsupported database type %q", c.Type)
}

func (c *DatabaseConfig) IsPostgreSQL() bool {
	return c.Type == DatabaseTypePostgreSQL
}

func (c *DatabaseConfig) IsSQLite() bool {
	return c.Type == DatabaseTypeSQLite
}

// EnsureDirectoryExists creates the folder of the SQLite file.
func (c *DatabaseConfig) EnsureDirectoryExists() error {
	if !c.IsSQLite() {
		return nil
	}
	return os.MkdirAll(filepath.Dir(c.SQLite.Path), 0o750)
}
