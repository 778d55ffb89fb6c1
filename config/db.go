package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"kayak-backend/models"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// defaultRoutes are created on first start so the booking form has something to offer.
var defaultRoutes = []models.Route{
	{ID: 1, Name: "Trasa krótka", Color: "#22c55e"},
	{ID: 2, Name: "Trasa średnia", Color: "#3b82f6"},
	{ID: 3, Name: "Trasa długa", Color: "#ef4444"},
}

// SeedDatabase fills empty lookup tables.
func SeedDatabase(db *gorm.DB) error {
	var count int64
	if err := db.Table(models.TableRoutes).Count(&count).Error; err != nil {
		return fmt.Errorf("count routes: %w", err)
	}
	if count > 0 {
		return nil
	}

	now := models.Now()
	rows := make([]models.Envelope, 0, len(defaultRoutes))
	for _, r := range defaultRoutes {
		r.CreatedAt, r.UpdatedAt = now, now
		env, err := models.Wrap(r.ID, now, r)
		if err != nil {
			return err
		}
		rows = append(rows, env)
	}
	if err := db.Table(models.TableRoutes).Create(&rows).Error; err != nil {
		return fmt.Errorf("seed routes: %w", err)
	}
	log.Printf("routes seeded (%d)", len(rows))
	return nil
}

// Migrate creates every envelope table.
func Migrate(db *gorm.DB) error {
	for _, table := range models.EnvelopeTables {
		if err := db.Table(table).AutoMigrate(&models.Envelope{}); err != nil {
			return fmt.Errorf("migrate %s: %w", table, err)
		}
	}
	return nil
}

func mysqlDSNFromURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}

	user := u.User.Username()
	pass, _ := u.User.Password()
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "3306"
	}

	dbName := strings.TrimPrefix(u.Path, "/")
	if dbName == "" {
		return "", fmt.Errorf("mysql url missing database name")
	}

	q := u.Query()
	if q.Get("charset") == "" {
		q.Set("charset", "utf8mb4")
	}
	if q.Get("parseTime") == "" {
		q.Set("parseTime", "True")
	}
	if q.Get("loc") == "" {
		q.Set("loc", "UTC")
	}

	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?%s", user, pass, host, port, dbName, q.Encode()), nil
}

func resolveMySQLDSN(s Settings) (string, error) {
	if s.DatabaseURL != "" {
		if strings.HasPrefix(s.DatabaseURL, "mysql://") {
			return mysqlDSNFromURL(s.DatabaseURL)
		}
		return s.DatabaseURL, nil
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		s.DBUser, s.DBPass, s.DBHost, s.DBPort, s.DBName,
	), nil
}

func resolvePostgresDSN(s Settings) string {
	if s.DatabaseURL != "" {
		return s.DatabaseURL
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
		s.DBHost, s.DBPort, s.DBUser, s.DBPass, s.DBName,
	)
}

// Dialector picks the gorm driver for s.DBDriver.
func Dialector(s Settings) (gorm.Dialector, error) {
	switch s.DBDriver {
	case "", "mysql":
		dsn, err := resolveMySQLDSN(s)
		if err != nil {
			return nil, err
		}
		return mysql.Open(dsn), nil
	case "postgres", "postgresql":
		return postgres.Open(resolvePostgresDSN(s)), nil
	case "sqlite", "sqlite3":
		return sqlite.Open(s.SQLitePath), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", s.DBDriver)
	}
}

func parseLogLevel(raw string) logger.LogLevel {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

// Open connects to the configured database. It does not migrate.
func Open(s Settings) (*gorm.DB, error) {
	dialector, err := Dialector(s)
	if err != nil {
		return nil, err
	}

	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  parseLogLevel(s.DBLogLevel),
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{Logger: newLogger})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	if s.DBDriver == "sqlite" || s.DBDriver == "sqlite3" {
		// one writer at a time; also keeps a ":memory:" database on a single connection
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(25)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}
	return db, nil
}

// ConnectDatabase opens, migrates and seeds the database.
func ConnectDatabase(s Settings) (*gorm.DB, error) {
	db, err := Open(s)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	if err := SeedDatabase(db); err != nil {
		log.Printf("warning: %v", err)
	}
	return db, nil
}
