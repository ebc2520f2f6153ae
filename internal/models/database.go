package models

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	go_sqlite "github.com/glebarez/go-sqlite"
	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

type ContextKey string

const (
	DBContextURL ContextKey = "consortium-backend-url"
)

// Driver is the database driver used for a connection.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// uniqueViolations maps unique constraints to domain errors. Each entry
// holds the SQLite message fragment and the Postgres index name.
var uniqueViolations = []struct {
	sqlite   string
	postgres string
	err      error
}{
	{"UNIQUE constraint failed: memberships.consortium_id, memberships.member_id", "membership_consortium_member", ErrMembershipNotUnique},
	{"UNIQUE constraint failed: obligations.consortium_id, obligations.member_id, obligations.month", "obligation_consortium_member_month", ErrObligationNotUnique},
}

// Connect opens the SQLite database at dsn, migrates it and configures
// the connection pool.
func Connect(dsn string) error {
	return ConnectDriver(DriverSQLite, dsn)
}

// ConnectDriver opens a database with the driver, migrates it and sets DB.
func ConnectDriver(driver Driver, dsn string) error {
	config := &gorm.Config{
		NowFunc: func() time.Time {
			return time.Now().In(time.UTC)
		},
		Logger: &logger{
			Logger:        log.Logger,
			SlowThreshold: 200 * time.Millisecond,
		},
	}

	var db *gorm.DB
	var err error

	switch driver {
	case DriverSQLite, "":
		db, err = connectSQLite(dsn, config)
	case DriverPostgres:
		db, err = connectPostgres(dsn, config)
	default:
		return fmt.Errorf("unsupported database driver %q, must be one of sqlite, postgres", driver)
	}

	if err != nil {
		return err
	}

	err = registerCallbacks(db)
	if err != nil {
		return err
	}

	// Set the exported variable
	DB = db

	return nil
}

// connectSQLite migrates with foreign keys disabled, then reconnects with
// foreign keys enabled.
//
// sqlite does not support ALTER COLUMN, so tables are copied to a temporary table,
// then the table is dropped and recreated
func connectSQLite(dsn string, config *gorm.Config) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	err = migrate(db)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database object: %w", err)
	}
	sqlDB.Close()

	separator := "?"
	if strings.Contains(dsn, "?") {
		separator = "&"
	}

	db, err = gorm.Open(sqlite.Open(dsn+separator+"_pragma=foreign_keys(1)"), config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err = db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database object: %w", err)
	}

	// Get new connections after one hour
	sqlDB.SetConnMaxLifetime(time.Hour)

	// SQLite allows a single writer. One connection serializes all
	// transactions and prevents SQLITE_BUSY errors.
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetMaxOpenConns(1)

	return db, nil
}

func connectPostgres(dsn string, config *gorm.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	err = migrate(db)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database object: %w", err)
	}

	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(20)

	return db, nil
}

func registerCallbacks(db *gorm.DB) error {
	callbacks := []struct {
		name     string
		register func(string, func(*gorm.DB)) error
		fn       func(*gorm.DB)
	}{
		{"consortium:after_query", db.Callback().Query().After("*").Register, queryCallback},
		{"consortium:after_query_general", db.Callback().Query().After("*").Register, generalCallback},
		{"consortium:after_create", db.Callback().Create().After("*").Register, createUpdateCallback},
		{"consortium:after_create_general", db.Callback().Create().After("*").Register, generalCallback},
		{"consortium:after_update", db.Callback().Update().After("*").Register, createUpdateCallback},
		{"consortium:after_update_general", db.Callback().Update().After("*").Register, generalCallback},
		{"consortium:after_delete_general", db.Callback().Delete().After("*").Register, generalCallback},
	}

	for _, cb := range callbacks {
		err := cb.register(cb.name, cb.fn)
		if err != nil {
			return fmt.Errorf("failed to register callback %s: %w", cb.name, err)
		}
	}

	return nil
}

// queryCallback replaces the generic "no record" error with a more user
// friendly one
func queryCallback(db *gorm.DB) {
	if errors.Is(db.Error, gorm.ErrRecordNotFound) {
		db.Error = fmt.Errorf("%w %s matching your query", ErrResourceNotFound, resourceName(db.Statement.Table))
	}
}

var pluralIes = regexp.MustCompile("ies$")

// resourceName derives a readable resource name from a table name,
// "consortiums" becomes "consortium".
func resourceName(table string) string {
	name := strings.ReplaceAll(table, "_", " ")
	name = pluralIes.ReplaceAllString(name, "y")
	return strings.TrimSuffix(name, "s")
}

// createUpdateCallback inspects errors returned by the database for create
// and update calls and replaces them with user friendly ones
func createUpdateCallback(db *gorm.DB) {
	if db.Error == nil {
		return
	}

	msg := db.Error.Error()
	for _, v := range uniqueViolations {
		if strings.Contains(msg, v.sqlite) || (strings.Contains(msg, "duplicate key value") && strings.Contains(msg, v.postgres)) {
			db.Error = v.err
			return
		}
	}
}

// generalCallback handles unspecified errors.
//
// For these errors, we cannot provide the user with a helpful message.
// Instead, the error is logged and we return a general message to users.
func generalCallback(db *gorm.DB) {
	if db.Error == nil {
		return
	}

	// "sql: database is closed" is hard-coded in the sql module
	if db.Error.Error() == "sql: database is closed" || reflect.TypeOf(db.Error) == reflect.TypeOf(&go_sqlite.Error{}) {
		log.Error().Str("table", db.Statement.Table).Msgf("%T: %v", db.Error, db.Error.Error())
		db.Error = ErrGeneral
	}
}

// migrate migrates all models to the schema defined in the code.
func migrate(db *gorm.DB) (err error) {
	err = db.AutoMigrate(Consortium{}, Member{}, Membership{}, Obligation{}, Contemplation{})
	if err != nil {
		return fmt.Errorf("error during DB migration: %w", err)
	}

	return nil
}
