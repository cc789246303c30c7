package domain

import "context"

// InventoryRepository reads and mutates the ledger.
type InventoryRepository interface {
	// Read paths
	OnlineHotel(ctx context.Context, id int64) (Hotel, error)
	RoomType(ctx context.Context, id int64) (RoomType, error)
	HotelRoomTypes(ctx context.Context, hotelID int64) ([]RoomType, error)
	LedgerRange(ctx context.Context, roomTypeID int64, r DateRange) ([]LedgerRow, error)
	HotelLedger(ctx context.Context, hotelID int64, r DateRange) ([]LedgerRow, error)

	// Write paths
	BookableRoomType(ctx context.Context, id int64) (RoomType, error)
	BookRange(ctx context.Context, roomTypeID int64, r DateRange) error
}

// SearchRepository holds the three tier query builders.
type SearchRepository interface {
	SearchExact(ctx context.Context, q TierQuery) ([]HotelCandidate, error)
	SearchStatic(ctx context.Context, q TierQuery) ([]HotelCandidate, error)
	SearchGlobal(ctx context.Context, q TierQuery) ([]HotelCandidate, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
	DelPrefix(ctx context.Context, prefix string) error
}

// InventoryEvents publishes ledger mutations to other processes.
type InventoryEvents interface {
	PublishInventoryChanged(ctx context.Context, ev InventoryChanged) error
}

// InventoryNotifier reacts to ledger mutations inside this process.
type InventoryNotifier interface {
	InventoryChanged(ctx context.Context, ev InventoryChanged)
}
