package sqlstore

import "github.com/goliatone/go-escrow/core"

var (
	_ core.OrderStore             = (*OrderStore)(nil)
	_ core.OrderStore             = (*CachedOrderStore)(nil)
	_ core.NotificationStore      = (*EventStore)(nil)
	_ core.StoreProvider          = (*RepositoryFactory)(nil)
	_ core.RepositoryStoreFactory = (*RepositoryFactory)(nil)
)
