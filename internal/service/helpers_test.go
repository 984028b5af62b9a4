package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/food_market/internal/db/dbtest"
	"github.com/Skotchmaster/food_market/internal/models"
	"github.com/Skotchmaster/food_market/internal/mykafka"
	"github.com/Skotchmaster/food_market/internal/repo"
	"github.com/Skotchmaster/food_market/internal/role"
)

type published struct {
	topic string
	key   string
	env   mykafka.Envelope
}

type fakePublisher struct {
	mu   sync.Mutex
	sent []published
	err  error
}

func (f *fakePublisher) PublishEvent(_ context.Context, topic, key string, event any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, published{topic: topic, key: key, env: event.(mykafka.Envelope)})
	return nil
}

func (f *fakePublisher) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, p := range f.sent {
		out = append(out, p.env.EventType)
	}
	return out
}

type env struct {
	repo     *repo.GormRepo
	rdb      *redis.Client
	mr       *miniredis.Miniredis
	pub      *fakePublisher
	carts    *CartService
	orders   *OrderService
	payments *PaymentService
	profiles *ProfileService
	catalog  *CatalogService
}

func newEnv(t *testing.T) *env {
	t.Helper()

	r := &repo.GormRepo{DB: dbtest.New(t)}
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	pub := &fakePublisher{}
	sink := EventSink{Pub: pub, Topic: "order_events", Producer: "test"}
	opener := RedisCarts(rdb, time.Hour)

	return &env{
		repo:     r,
		rdb:      rdb,
		mr:       mr,
		pub:      pub,
		carts:    &CartService{Repo: r, Carts: opener},
		orders:   &OrderService{Repo: r, Carts: opener, Idem: rdb, IdemTTL: time.Hour, Events: sink},
		payments: &PaymentService{Repo: r, Events: sink},
		profiles: &ProfileService{Repo: r},
		catalog:  &CatalogService{Repo: r},
	}
}

func (e *env) profile(t *testing.T, r role.Role) uuid.UUID {
	t.Helper()
	id := uuid.New()
	require.NoError(t, e.repo.CreateProfile(context.Background(), &models.Profile{
		UserID: id, Email: id.String() + "@example.com", Role: r,
	}))
	return id
}

func (e *env) vendor(t *testing.T, owner uuid.UUID, fee, minOrder int64) *models.Vendor {
	t.Helper()
	v := &models.Vendor{OwnerID: owner, Name: "Vendor " + owner.String()[:4], DeliveryFee: fee, MinOrder: minOrder, IsActive: true}
	require.NoError(t, e.repo.CreateVendor(context.Background(), v))
	return v
}

func (e *env) product(t *testing.T, vendorID uuid.UUID, price int64) *models.Product {
	t.Helper()
	p := &models.Product{VendorID: vendorID, Name: "dish", Price: price, IsAvailable: true}
	require.NoError(t, e.repo.CreateProduct(context.Background(), p))
	return p
}

func (e *env) countRows(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.repo.DB.Model(model).Count(&n).Error)
	return n
}
