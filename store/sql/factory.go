package sqlstore

import (
	"fmt"

	"github.com/goliatone/go-escrow/core"
	persistence "github.com/goliatone/go-persistence-bun"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/uptrace/bun"
)

// RepositoryFactory builds the SQL-backed store set on top of a shared bun
// connection. The same factory instance satisfies core.StoreProvider once
// BuildStores has run.
type RepositoryFactory struct {
	db    *bun.DB
	cache repositorycache.CacheService

	orderStore core.OrderStore
	eventStore *EventStore
}

func NewRepositoryFactory() *RepositoryFactory {
	return &RepositoryFactory{}
}

func NewRepositoryFactoryFromPersistence(client *persistence.Client) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory()
	if _, err := factory.BuildStores(client); err != nil {
		return nil, err
	}
	return factory, nil
}

func NewRepositoryFactoryFromDB(db *bun.DB) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory()
	if _, err := factory.BuildStores(db); err != nil {
		return nil, err
	}
	return factory, nil
}

// WithCache enables read-through order caching. Must be set before
// BuildStores runs.
func (f *RepositoryFactory) WithCache(cacheService repositorycache.CacheService) *RepositoryFactory {
	if f != nil {
		f.cache = cacheService
	}
	return f
}

func (f *RepositoryFactory) BuildStores(persistenceClient any) (core.StoreProvider, error) {
	if f == nil {
		return nil, fmt.Errorf("sqlstore: repository factory is nil")
	}
	if f.db == nil {
		db, err := resolveBunDB(persistenceClient)
		if err != nil {
			return nil, err
		}
		f.db = db
	}
	if f.orderStore != nil && f.eventStore != nil {
		return f, nil
	}
	if err := f.initStores(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *RepositoryFactory) OrderStore() core.OrderStore {
	if f == nil {
		return nil
	}
	return f.orderStore
}

func (f *RepositoryFactory) NotificationStore() core.NotificationStore {
	if f == nil || f.eventStore == nil {
		return nil
	}
	return f.eventStore
}

func (f *RepositoryFactory) DB() *bun.DB {
	if f == nil {
		return nil
	}
	return f.db
}

func (f *RepositoryFactory) initStores() error {
	orderStore, err := NewOrderStore(f.db)
	if err != nil {
		return err
	}
	if f.cache != nil {
		cached, cacheErr := NewCachedOrderStore(orderStore, f.cache)
		if cacheErr != nil {
			return cacheErr
		}
		f.orderStore = cached
	} else {
		f.orderStore = orderStore
	}

	eventStore, err := NewEventStore(f.db)
	if err != nil {
		return err
	}
	f.eventStore = eventStore
	return nil
}

func resolveBunDB(candidate any) (*bun.DB, error) {
	switch typed := candidate.(type) {
	case nil:
		return nil, fmt.Errorf("sqlstore: persistence client is required")
	case *bun.DB:
		return typed, nil
	case interface{ DB() *bun.DB }:
		db := typed.DB()
		if db == nil {
			return nil, fmt.Errorf("sqlstore: persistence client returned nil bun db")
		}
		return db, nil
	default:
		return nil, fmt.Errorf("sqlstore: unsupported persistence client type %T", candidate)
	}
}
