package adapter

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

var (
	clients   = make(map[int]*redis.Client)
	clientsMu sync.RWMutex
)

// InitRedisClients connects one client per database index.
func InitRedisClients(ctx context.Context, addr string, password string, dbs ...int) error {
	if addr == "" {
		return errors.New("Redis host is empty")
	}

	clientsMu.Lock()
	defer clientsMu.Unlock()

	for _, db := range dbs {
		if _, exists := clients[db]; exists {
			continue
		}

		client := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		})

		// Ping the Redis server to check the connection
		if _, err := client.Ping(ctx).Result(); err != nil {
			client.Close()
			return fmt.Errorf("failed to connect to Redis DB %d: %w", db, err)
		}

		clients[db] = client
	}

	return nil
}

func GetRedisClient(db int) (*redis.Client, error) {
	clientsMu.RLock()
	defer clientsMu.RUnlock()

	client, exists := clients[db]
	if !exists {
		return nil, fmt.Errorf("redis client for DB %d is not initialized. call InitRedisClients first", db)
	}
	return client, nil
}

func CloseRedisClients() error {
	clientsMu.Lock()
	defer clientsMu.Unlock()

	var errs []error
	for db, client := range clients {
		errs = append(errs, client.Close())
		delete(clients, db)
	}
	return errors.Join(errs...)
}
