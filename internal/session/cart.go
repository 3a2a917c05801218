// Package session keeps the anonymous shopping cart of a browser session.
package session

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/marketplace/internal/models"
)

// Cart maps product id to requested quantity.
type Cart map[uint]int

// ProductIDs returns the ids with a positive quantity in ascending order.
func (c Cart) ProductIDs() []uint {
	ids := make([]uint, 0, len(c))
	for id, q := range c {
		if q > 0 {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

type Store interface {
	Get(ctx context.Context, sessionID string) (Cart, error)
	Add(ctx context.Context, sessionID string, productID uint, qty int) (Cart, error)
	Set(ctx context.Context, sessionID string, productID uint, qty int) (Cart, error)
	Clear(ctx context.Context, sessionID string) error
}

type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 14 * 24 * time.Hour
	}
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, sessionID string) (Cart, error) {
	raw, err := s.client.HGetAll(ctx, cartKey(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall failed: %w", err)
	}
	return parseCart(raw), nil
}

func (s *RedisStore) Add(ctx context.Context, sessionID string, productID uint, qty int) (Cart, error) {
	key := cartKey(sessionID)
	field := strconv.FormatUint(uint64(productID), 10)
	qty = max(min(qty, models.MaxQuantity), -models.MaxQuantity)

	var incr *redis.IntCmd
	if _, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.HIncrBy(ctx, key, field, int64(qty))
		p.Expire(ctx, key, s.ttl)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("redis add failed: %w", err)
	}
	switch {
	case incr.Val() <= 0:
		if err := s.client.HDel(ctx, key, field).Err(); err != nil {
			return nil, fmt.Errorf("redis hdel failed: %w", err)
		}
	case incr.Val() > models.MaxQuantity:
		if err := s.client.HSet(ctx, key, field, models.MaxQuantity).Err(); err != nil {
			return nil, fmt.Errorf("redis hset failed: %w", err)
		}
	}
	return s.Get(ctx, sessionID)
}

// Set overwrites the quantity of one product; qty <= 0 removes it.
func (s *RedisStore) Set(ctx context.Context, sessionID string, productID uint, qty int) (Cart, error) {
	key := cartKey(sessionID)
	field := strconv.FormatUint(uint64(productID), 10)

	if _, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		if qty <= 0 {
			p.HDel(ctx, key, field)
		} else {
			p.HSet(ctx, key, field, min(qty, models.MaxQuantity))
		}
		p.Expire(ctx, key, s.ttl)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("redis set failed: %w", err)
	}
	return s.Get(ctx, sessionID)
}

func (s *RedisStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, cartKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func parseCart(raw map[string]string) Cart {
	cart := make(Cart, len(raw))
	for k, v := range raw {
		id, err := strconv.ParseUint(k, 10, 64)
		if err != nil || id == 0 {
			continue
		}
		q, err := strconv.Atoi(v)
		if err != nil || q <= 0 {
			continue
		}
		cart[uint(id)] = min(q, models.MaxQuantity)
	}
	return cart
}

func cartKey(sessionID string) string {
	return fmt.Sprintf("cart:%s", sessionID)
}
