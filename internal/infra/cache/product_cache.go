package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storefront/internal/usecase"

	"github.com/redis/go-redis/v9"
)

const productKeyPrefix = "product:"

// 商品詳細のキャッシュ（cache-aside）
type ProductRedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// DI
func NewProductRedisCache(client *redis.Client, ttl time.Duration) *ProductRedisCache {
	return &ProductRedisCache{client: client, ttl: ttl}
}

func (c *ProductRedisCache) Get(ctx context.Context, id string) (usecase.ProductOutput, bool, error) {
	data, err := c.client.Get(ctx, productKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return usecase.ProductOutput{}, false, nil
	}
	if err != nil {
		return usecase.ProductOutput{}, false, fmt.Errorf("redis get product: %w", err)
	}

	var p usecase.ProductOutput
	if err := json.Unmarshal(data, &p); err != nil {
		// 壊れた値はミス扱いにして消す
		_ = c.client.Del(ctx, productKeyPrefix+id).Err()
		return usecase.ProductOutput{}, false, nil
	}
	return p, true, nil
}

func (c *ProductRedisCache) Set(ctx context.Context, p usecase.ProductOutput) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal product: %w", err)
	}
	if err := c.client.Set(ctx, productKeyPrefix+p.ID, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set product: %w", err)
	}
	return nil
}

// Connect はPingまで確認したクライアントを返す
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}
