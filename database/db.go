// Package database opens the askboard store (SQLite or PostgreSQL), migrates the schema
// and hands out the shared gorm handle.
package database

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"

	"github.com/visioweb/askboard/config"
	"github.com/visioweb/askboard/database/model"
	"github.com/visioweb/askboard/logger"
	"github.com/visioweb/askboard/util/common"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var (
	db     *gorm.DB
	dbType config.DatabaseType
)

func initModels() error {
	models := []any{
		&model.User{},
		&model.Question{},
		&model.Answer{},
		&model.Upvote{},
	}
	for _, model := range models {
		if err := db.AutoMigrate(model); err != nil {
			logger.Errorf("Error auto migrating model %T: %v", model, err)
			return err
		}
	}
	return nil
}

func openDialector(cfg *config.DatabaseConfig) gorm.Dialector {
	if cfg.IsPostgreSQL() {
		return postgres.Open(cfg.GetDSN())
	}
	dsn := cfg.GetDSN() + "?cache=shared&_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=on"
	return sqlite.Open(dsn)
}

// InitDB connects to the configured database and migrates every model.
func InitDB(cfg *config.DatabaseConfig) error {
	if err := cfg.ValidateConfig(); err != nil {
		return err
	}
	if err := cfg.EnsureDirectoryExists(); err != nil {
		return err
	}
	if cfg.IsSQLite() {
		if err := checkSQLiteFile(cfg.SQLite.Path); err != nil {
			return err
		}
	}

	var gormLogger gormlogger.Interface
	if config.IsDebug() {
		gormLogger = gormlogger.Default
	} else {
		gormLogger = gormlogger.Discard
	}

	c := &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
		TranslateError:         true,
	}

	var err error
	db, err = gorm.Open(openDialector(cfg), c)
	if err != nil {
		return err
	}
	dbType = cfg.Type

	if cfg.IsSQLite() {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		for _, pragma := range []string{
			"PRAGMA cache_size = -64000;",
			"PRAGMA temp_store = MEMORY;",
			"PRAGMA foreign_keys = ON;",
		} {
			if _, err := sqlDB.Exec(pragma); err != nil {
				return err
			}
		}
	}

	return initModels()
}

func CloseDB() error {
	if db == nil {
		return nil
	}
	if dbType == config.DatabaseTypeSQLite {
		if err := Checkpoint(); err != nil {
			logger.Warning("error executing checkpoint: ", err)
		}
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	err = sqlDB.Close()
	db = nil
	return err
}

func GetDB() *gorm.DB {
	return db
}

// IsSQLite reports whether the open database is SQLite.
func IsSQLite() bool {
	return db != nil && dbType == config.DatabaseTypeSQLite
}

func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func IsSQLiteDB(file io.ReaderAt) (bool, error) {
	signature := []byte("SQLite format 3\x00")
	buf := make([]byte, len(signature))
	_, err := file.ReadAt(buf, 0)
	if err != nil {
		return false, err
	}
	return bytes.Equal(buf, signature), nil
}

// checkSQLiteFile refuses an existing non-empty file that is not a SQLite database.
func checkSQLiteFile(path string) error {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	if info.Size() == 0 {
		return nil
	}
	ok, err := IsSQLiteDB(f)
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	if !ok {
		return common.NewErrorf("%s is not a SQLite database", path)
	}
	return nil
}

// Checkpoint flushes the SQLite write-ahead log into the main database file.
func Checkpoint() error {
	if !IsSQLite() {
		return nil
	}
	return db.Exec("PRAGMA wal_checkpoint;").Error
}
