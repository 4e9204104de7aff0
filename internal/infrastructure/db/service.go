package db

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/ThreeDotsLabs/watermill"
	watermillsql "github.com/ThreeDotsLabs/watermill-sql/v3/pkg/sql"
	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/sanchit-4/universal-nft/internal/core/domain"
	"github.com/sanchit-4/universal-nft/internal/core/ports"
	badgerdb "github.com/sanchit-4/universal-nft/internal/infrastructure/db/badger"
	pgdb "github.com/sanchit-4/universal-nft/internal/infrastructure/db/postgres"
	sqlitedb "github.com/sanchit-4/universal-nft/internal/infrastructure/db/sqlite"
	watermilldb "github.com/sanchit-4/universal-nft/internal/infrastructure/db/watermill"
)

//go:embed sqlite/migration/*
var migrations embed.FS

//go:embed postgres/migration/*
var pgMigration embed.FS

var (
	configStoreTypes = map[string]func(...interface{}) (domain.ConfigRepository, error){
		"badger":   badgerdb.NewConfigRepository,
		"sqlite":   sqlitedb.NewConfigRepository,
		"postgres": pgdb.NewConfigRepository,
	}
	receiptStoreTypes = map[string]func(...interface{}) (domain.ReceiptRepository, error){
		"badger":   badgerdb.NewReceiptRepository,
		"sqlite":   sqlitedb.NewReceiptRepository,
		"postgres": pgdb.NewReceiptRepository,
	}
	emissionStoreTypes = map[string]func(...interface{}) (domain.EmissionRepository, error){
		"badger":   badgerdb.NewEmissionRepository,
		"sqlite":   sqlitedb.NewEmissionRepository,
		"postgres": pgdb.NewEmissionRepository,
	}
)

const (
	sqliteDbFile = "sqlite.db"
)

type ServiceConfig struct {
	EventStoreType string
	DataStoreType  string

	EventStoreConfig []interface{}
	DataStoreConfig  []interface{}
}

type service struct {
	eventStore    domain.EventRepository
	configStore   domain.ConfigRepository
	receiptStore  domain.ReceiptRepository
	emissionStore domain.EmissionRepository
}

func NewService(config ServiceConfig) (ports.RepoManager, error) {
	configStoreFactory, ok := configStoreTypes[config.DataStoreType]
	if !ok {
		return nil, fmt.Errorf("invalid data store type: %s", config.DataStoreType)
	}
	receiptStoreFactory := receiptStoreTypes[config.DataStoreType]
	emissionStoreFactory := emissionStoreTypes[config.DataStoreType]

	var eventStore domain.EventRepository
	switch config.EventStoreType {
	case "inmemory":
		eventStore = watermilldb.NewInMemoryEventRepository()
	case "postgres":
		db, err := openPostgres(config.EventStoreConfig)
		if err != nil {
			return nil, err
		}

		eventStore, err = newPostgresEventStore(db)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown event store db type")
	}

	var storeConfig []interface{}
	switch config.DataStoreType {
	case "badger":
		storeConfig = config.DataStoreConfig

	case "postgres":
		db, err := openPostgres(config.DataStoreConfig)
		if err != nil {
			return nil, err
		}

		pgDriver, err := migratepg.WithInstance(db, &migratepg.Config{})
		if err != nil {
			return nil, fmt.Errorf("failed to init postgres migration driver: %s", err)
		}

		source, err := iofs.New(pgMigration, "postgres/migration")
		if err != nil {
			return nil, fmt.Errorf("failed to embed postgres migrations: %s", err)
		}

		m, err := migrate.NewWithInstance("iofs", source, "postgres", pgDriver)
		if err != nil {
			return nil, fmt.Errorf("failed to create postgres migration instance: %s", err)
		}

		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return nil, fmt.Errorf("failed to run postgres migrations: %s", err)
		}

		storeConfig = []interface{}{db}

	case "sqlite":
		if len(config.DataStoreConfig) != 1 {
			return nil, fmt.Errorf("invalid data store config")
		}

		baseDir, ok := config.DataStoreConfig[0].(string)
		if !ok {
			return nil, fmt.Errorf("invalid base directory")
		}

		dbFile := filepath.Join(baseDir, sqliteDbFile)
		db, err := sqlitedb.OpenDb(dbFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open db: %s", err)
		}

		driver, err := sqlitemigrate.WithInstance(db, &sqlitemigrate.Config{})
		if err != nil {
			return nil, fmt.Errorf("failed to init driver: %s", err)
		}

		source, err := iofs.New(migrations, "sqlite/migration")
		if err != nil {
			return nil, fmt.Errorf("failed to embed migrations: %s", err)
		}

		m, err := migrate.NewWithInstance("iofs", source, "nftbridgedb", driver)
		if err != nil {
			return nil, fmt.Errorf("failed to create migration instance: %s", err)
		}

		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return nil, fmt.Errorf("failed to run migrations: %s", err)
		}

		storeConfig = []interface{}{db}
	}

	configStore, err := configStoreFactory(storeConfig...)
	if err != nil {
		return nil, fmt.Errorf("failed to open config store: %s", err)
	}
	receiptStore, err := receiptStoreFactory(storeConfig...)
	if err != nil {
		return nil, fmt.Errorf("failed to open receipt store: %s", err)
	}
	emissionStore, err := emissionStoreFactory(storeConfig...)
	if err != nil {
		return nil, fmt.Errorf("failed to open emission store: %s", err)
	}

	return &service{
		eventStore:    eventStore,
		configStore:   configStore,
		receiptStore:  receiptStore,
		emissionStore: emissionStore,
	}, nil
}

func (s *service) Events() domain.EventRepository {
	return s.eventStore
}

func (s *service) Config() domain.ConfigRepository {
	return s.configStore
}

func (s *service) Receipts() domain.ReceiptRepository {
	return s.receiptStore
}

func (s *service) Emissions() domain.EmissionRepository {
	return s.emissionStore
}

func (s *service) Close() {
	s.eventStore.Close()
	s.configStore.Close()
	s.receiptStore.Close()
	s.emissionStore.Close()
}

// openPostgres expects a (dsn, autoCreate) config.
func openPostgres(config []interface{}) (*sql.DB, error) {
	if len(config) != 2 {
		return nil, fmt.Errorf("invalid data store config for postgres")
	}

	dsn, ok := config[0].(string)
	if !ok {
		return nil, fmt.Errorf("invalid DSN for postgres")
	}

	autoCreate, ok := config[1].(bool)
	if !ok {
		return nil, fmt.Errorf("invalid autocreate flag for postgres")
	}

	db, err := pgdb.OpenDb(dsn, autoCreate)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres db: %s", err)
	}
	return db, nil
}

// newPostgresEventStore publishes events into watermill_<topic> tables, created on first publish.
func newPostgresEventStore(db *sql.DB) (domain.EventRepository, error) {
	publisher, err := watermillsql.NewPublisher(
		db,
		watermillsql.PublisherConfig{
			SchemaAdapter:        watermillsql.DefaultPostgreSQLSchema{},
			AutoInitializeSchema: true,
		},
		watermill.NopLogger{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create event publisher: %s", err)
	}
	return watermilldb.NewWatermillEventRepository(publisher, db), nil
}
