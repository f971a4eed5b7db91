package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/iqbalbaharum/constant-product-pool/internal/types"
)

// PoolStateStorage caches pool snapshots in a single redis hash keyed by authority.
type PoolStateStorage struct {
	client *redis.Client
}

func NewPoolStateStorage(client *redis.Client) *PoolStateStorage {
	return &PoolStateStorage{client: client}
}

func (s *PoolStateStorage) Set(ctx context.Context, snapshot *types.PoolSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}

	if err := s.client.HSet(ctx, KEY_POOLSTATE, snapshot.Authority.String(), data).Err(); err != nil {
		return err
	}

	return nil
}

// List returns every cached snapshot.
func (s *PoolStateStorage) List(ctx context.Context) ([]types.PoolSnapshot, error) {
	values, err := s.client.HVals(ctx, KEY_POOLSTATE).Result()
	if err != nil {
		return nil, err
	}

	snapshots := make([]types.PoolSnapshot, 0, len(values))
	for _, value := range values {
		var snapshot types.PoolSnapshot
		if err := json.Unmarshal([]byte(value), &snapshot); err != nil {
			return nil, fmt.Errorf("unexpected value in Redis: %w", err)
		}
		snapshots = append(snapshots, snapshot)
	}

	return snapshots, nil
}
