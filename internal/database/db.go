package database

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"ems-inventory/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverMySQL    Driver = "mysql"
	DriverSQLite   Driver = "sqlite"
)

type Options struct {
	DSN      string
	LogLevel string // silent, error, warn, info
}

// ParseDSN picks the driver from the DSN and returns the string the driver
// expects.
func ParseDSN(dsn string) (Driver, string, error) {
	dsn = strings.TrimSpace(dsn)
	switch {
	case dsn == "":
		return "", "", fmt.Errorf("empty database DSN")
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"), strings.HasPrefix(dsn, "host="):
		return DriverPostgres, dsn, nil
	case strings.HasPrefix(dsn, "mysql://"):
		return DriverMySQL, strings.TrimPrefix(dsn, "mysql://"), nil
	case strings.HasPrefix(dsn, "sqlite://"):
		return DriverSQLite, withSQLitePragmas(strings.TrimPrefix(dsn, "sqlite://")), nil
	case dsn == ":memory:", strings.HasPrefix(dsn, "file:"), strings.HasSuffix(dsn, ".db"):
		return DriverSQLite, withSQLitePragmas(dsn), nil
	}
	return "", "", fmt.Errorf("unsupported database DSN %q", dsn)
}

func withSQLitePragmas(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// Open connects to the configured store. The caller owns the handle and
// closes it with Close.
func Open(opts Options) (*gorm.DB, error) {
	driver, dsn, err := ParseDSN(opts.DSN)
	if err != nil {
		return nil, err
	}

	var dialector gorm.Dialector
	switch driver {
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	case DriverMySQL:
		dialector = mysql.Open(dsn)
	default:
		dialector = sqlite.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 newLogger(opts.LogLevel),
		SkipDefaultTransaction: true,
		TranslateError:         true,
		NowFunc:                func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if driver == DriverSQLite {
		// One connection serializes writers and keeps :memory: databases alive.
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(0)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	log.Printf("[INFO] connected to %s database", driver)
	return db, nil
}

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Supply{},
		&models.Transaction{},
		&models.AuditLog{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return createLowerNameIndexes(db)
}

// Supply and category names are unique ignoring case. The plain uniqueIndex
// on name is case-sensitive on postgres, so the rule needs an expression index.
var lowerNameIndexes = []struct {
	model any
	table string
	name  string
}{
	{&models.Category{}, "categories", "idx_categories_name_lower"},
	{&models.Supply{}, "supplies", "idx_supplies_name_lower"},
}

func createLowerNameIndexes(db *gorm.DB) error {
	expr := "(LOWER(name))"
	if db.Dialector.Name() == string(DriverMySQL) {
		expr = "((LOWER(name)))"
	}
	for _, ix := range lowerNameIndexes {
		if db.Migrator().HasIndex(ix.model, ix.name) {
			continue
		}
		sql := fmt.Sprintf("CREATE UNIQUE INDEX %s ON %s %s", ix.name, ix.table, expr)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("create index %s: %w", ix.name, err)
		}
	}
	return nil
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func newLogger(level string) logger.Interface {
	lvl := logger.Warn
	switch strings.ToLower(level) {
	case "silent", "off":
		lvl = logger.Silent
	case "error":
		lvl = logger.Error
	case "info":
		lvl = logger.Info
	}
	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  lvl,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}
