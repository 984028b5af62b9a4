package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Persister stores the full cart snapshot. Load returns no items and no
// error when nothing has been saved yet.
type Persister interface {
	Load(ctx context.Context) ([]Item, error)
	Save(ctx context.Context, items []Item) error
}

type MemoryPersister struct {
	mu    sync.Mutex
	items []Item
	// Err, when set, is returned from Save.
	Err error
}

func (m *MemoryPersister) Load(context.Context) ([]Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Item(nil), m.items...), nil
}

func (m *MemoryPersister) Save(_ context.Context, items []Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.items = append([]Item(nil), items...)
	return nil
}

// FileKey is the fixed name of the on-device cart snapshot.
const FileKey = "cart"

// FilePersister keeps the cart as JSON in <Dir>/cart.json.
type FilePersister struct {
	Dir string
}

func (f FilePersister) path() string {
	return filepath.Join(f.Dir, FileKey+".json")
}

func (f FilePersister) Load(context.Context) ([]Item, error) {
	b, err := os.ReadFile(f.path())
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var items []Item
	if err := json.Unmarshal(b, &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", f.path(), err)
	}
	return items, nil
}

func (f FilePersister) Save(_ context.Context, items []Item) error {
	if items == nil {
		items = []Item{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(f.Dir, 0o755); err != nil {
		return err
	}
	tmp := f.path() + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, f.path())
}

const keyCart = "cart:%s"

// RedisPersister keeps one key per user. Every save refreshes the TTL.
type RedisPersister struct {
	RDB    *redis.Client
	UserID uuid.UUID
	TTL    time.Duration
}

func (r RedisPersister) key() string {
	return fmt.Sprintf(keyCart, r.UserID)
}

func (r RedisPersister) Load(ctx context.Context) ([]Item, error) {
	b, err := r.RDB.Get(ctx, r.key()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var items []Item
	if err := json.Unmarshal(b, &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", r.key(), err)
	}
	return items, nil
}

func (r RedisPersister) Save(ctx context.Context, items []Item) error {
	if len(items) == 0 {
		return r.RDB.Del(ctx, r.key()).Err()
	}
	b, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return r.RDB.Set(ctx, r.key(), b, r.TTL).Err()
}
