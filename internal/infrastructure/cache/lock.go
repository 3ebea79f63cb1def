package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	redis "github.com/redis/go-redis/v9"

	"github.com/jhoicas/inventario-ledger/internal/domain"
)

// Locker candado distribuido sobre Redis para tareas que no deben correr dos veces a la vez.
type Locker struct {
	client *redislock.Client
}

// NewLocker construye el candado sobre un cliente ya creado.
func NewLocker(client redis.UniversalClient) *Locker {
	return &Locker{client: redislock.New(client)}
}

// Obtain toma la clave por ttl. Si otro proceso la tiene devuelve domain.ErrConflict.
// release libera la clave; es seguro llamarlo aunque el ttl ya haya vencido.
func (l *Locker) Obtain(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, err error) {
	lock, err := l.client.Obtain(ctx, key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, fmt.Errorf("%w: %s en uso", domain.ErrConflict, key)
	}
	if err != nil {
		return nil, fmt.Errorf("redis lock %s: %w", key, err)
	}
	return func(ctx context.Context) error {
		if err := lock.Release(ctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			return err
		}
		return nil
	}, nil
}
