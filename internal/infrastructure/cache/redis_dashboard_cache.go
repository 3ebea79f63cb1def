package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/jhoicas/inventario-ledger/internal/application/ports"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

// DashboardKey clave única del snapshot; el dashboard no tiene parámetros.
const DashboardKey = "inventario:dashboard:snapshot"

// DashboardGenerationKey contador que avanza con cada Invalidate.
const DashboardGenerationKey = "inventario:dashboard:generation"

var _ ports.DashboardCache = (*RedisDashboardCache)(nil)

// RedisDashboardCache guarda el DashboardSnapshot serializado en JSON junto con
// la generación con la que se calculó. Una entrada de otra generación es miss.
type RedisDashboardCache struct {
	client redis.Cmdable
	key    string
	genKey string
}

type cachedSnapshot struct {
	Generation int64                    `json:"generation"`
	Snapshot   entity.DashboardSnapshot `json:"snapshot"`
}

// NewRedisClient abre el cliente con la configuración de la app.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// NewRedisDashboardCache construye la caché sobre un cliente ya creado.
func NewRedisDashboardCache(client redis.Cmdable) *RedisDashboardCache {
	return &RedisDashboardCache{client: client, key: DashboardKey, genKey: DashboardGenerationKey}
}

func (c *RedisDashboardCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, c.genKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get generación dashboard: %w", err)
	}
	return gen, nil
}

func (c *RedisDashboardCache) Get(ctx context.Context) (*entity.DashboardSnapshot, bool, error) {
	gen, err := c.Generation(ctx)
	if err != nil {
		return nil, false, err
	}
	val, err := c.client.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get dashboard: %w", err)
	}
	var entry cachedSnapshot
	if err := json.Unmarshal(val, &entry); err != nil {
		// Entrada corrupta o de una versión anterior: se trata como miss.
		return nil, false, nil
	}
	if entry.Generation != gen {
		return nil, false, nil
	}
	return &entry.Snapshot, true, nil
}

// Set no escribe si la generación avanzó desde que se empezó a calcular snap.
func (c *RedisDashboardCache) Set(ctx context.Context, snap *entity.DashboardSnapshot, generation int64, ttl time.Duration) error {
	if snap == nil {
		return nil
	}
	cur, err := c.Generation(ctx)
	if err != nil {
		return err
	}
	if cur != generation {
		return nil
	}
	payload, err := json.Marshal(cachedSnapshot{Generation: generation, Snapshot: *snap})
	if err != nil {
		return fmt.Errorf("serializar dashboard: %w", err)
	}
	if err := c.client.Set(ctx, c.key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set dashboard: %w", err)
	}
	return nil
}

func (c *RedisDashboardCache) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, c.genKey).Err(); err != nil {
		return fmt.Errorf("redis incr generación dashboard: %w", err)
	}
	if err := c.client.Del(ctx, c.key).Err(); err != nil {
		return fmt.Errorf("redis del dashboard: %w", err)
	}
	return nil
}
