// Package config provides environment-driven settings for askboard: runtime paths,
// log level, mail delivery, pagination and the database connection.
package config

import (
	_ "embed"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

//go:embed version
var version string

//go:embed name
var name string

type LogLevel string

const (
	Debug  LogLevel = "debug"
	Info   LogLevel = "info"
	Notice LogLevel = "notice"
	Warn   LogLevel = "warn"
	Error  LogLevel = "error"
)

func init() {
	// Values already present in the environment win over .env entries.
	_ = godotenv.Load()
}

func GetVersion() string {
	return strings.TrimSpace(version)
}

func GetName() string {
	return strings.TrimSpace(name)
}

// envOr returns the trimmed value of key, or fallback when it is unset or blank.
func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func GetLogLevel() LogLevel {
	if IsDebug() {
		return Debug
	}
	return LogLevel(strings.ToLower(envOr("ASK_LOG_LEVEL", string(Info))))
}

func IsDebug() bool {
	return os.Getenv("ASK_DEBUG") == "true"
}

// GetEnv returns the deployment environment, "development" unless ASK_ENV says otherwise.
func GetEnv() string {
	return strings.ToLower(envOr("ASK_ENV", EnvDevelopment))
}

func GetDBFolderPath() string {
	return envOr("ASK_DB_FOLDER", "/etc/askboard")
}

func GetDBPath() string {
	return filepath.Join(GetDBFolderPath(), GetName()+".db")
}

func GetLogFolder() string {
	return envOr("ASK_LOG_FOLDER", "/var/log")
}

func GetListen() string {
	return os.Getenv("ASK_LISTEN")
}

func GetPort() int {
	port, err := strconv.Atoi(os.Getenv("ASK_PORT"))
	if err != nil || port <= 0 || port > 65535 {
		return 8080
	}
	return port
}
