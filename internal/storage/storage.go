package storage

import (
	"database/sql"

	"github.com/redis/go-redis/v9"
)

type Storage struct {
	PoolState *PoolStateStorage
	Trade     *TradeStorage
}

func New(redisClient *redis.Client, sqlClient *sql.DB) *Storage {
	return &Storage{
		PoolState: NewPoolStateStorage(redisClient),
		Trade:     NewTradeStorage(sqlClient),
	}
}
