package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/food_market/internal/db/dbtest"
	"github.com/Skotchmaster/food_market/internal/models"
	"github.com/Skotchmaster/food_market/internal/role"
)

func newRepo(t *testing.T) *GormRepo {
	t.Helper()
	return &GormRepo{DB: dbtest.New(t)}
}

func seedOrder(t *testing.T, r *GormRepo) *models.Order {
	t.Helper()
	o := &models.Order{
		UserID:          uuid.New(),
		VendorID:        uuid.New(),
		Status:          models.OrderStatusPending,
		PaymentStatus:   models.PaymentStatusPending,
		DeliveryAddress: "addr",
		Phone:           "080",
		DeliveryFee:     300,
		TotalAmount:     2300,
		Items: []models.OrderItem{
			{ProductID: uuid.New(), Name: "jollof", Quantity: 2, UnitPrice: 1000, TotalPrice: 2000},
		},
	}
	require.NoError(t, r.CreateOrder(context.Background(), o))
	return o
}

func TestCreateOrder_StoresItems(t *testing.T) {
	t.Parallel()
	r := newRepo(t)
	o := seedOrder(t, r)

	got, err := r.GetOrder(context.Background(), o.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, o.ID, got.Items[0].OrderID)
	assert.Equal(t, got.TotalAmount, got.Subtotal()+got.DeliveryFee)
}

func TestCreateOrder_ItemFailureLeavesNoOrder(t *testing.T) {
	t.Parallel()
	r := newRepo(t)
	ctx := context.Background()

	o := &models.Order{
		UserID:          uuid.New(),
		VendorID:        uuid.New(),
		Status:          models.OrderStatusPending,
		PaymentStatus:   models.PaymentStatusPending,
		DeliveryAddress: "addr",
		Phone:           "080",
		Items: []models.OrderItem{
			{ProductID: uuid.New(), Name: "ok", Quantity: 1, UnitPrice: 100, TotalPrice: 100},
			{ProductID: uuid.New(), Name: "bad", Quantity: 0, UnitPrice: 100, TotalPrice: 0},
		},
	}
	require.Error(t, r.CreateOrder(ctx, o))

	var orders, items int64
	require.NoError(t, r.DB.Model(&models.Order{}).Count(&orders).Error)
	require.NoError(t, r.DB.Model(&models.OrderItem{}).Count(&items).Error)
	assert.Zero(t, orders)
	assert.Zero(t, items)
}

func TestGetOrder_NotFound(t *testing.T) {
	t.Parallel()
	r := newRepo(t)

	_, err := r.GetOrder(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func to(s models.OrderStatus) DecideFunc {
	return func(*models.Order) (models.OrderStatus, error) { return s, nil }
}

func TestTransitionStatus(t *testing.T) {
	t.Parallel()
	r := newRepo(t)
	ctx := context.Background()
	o := seedOrder(t, r)
	actor := Actor{ID: uuid.New(), Role: role.Vendor}

	got, from, err := r.TransitionStatus(ctx, o.ID, actor, to(models.OrderStatusConfirmed))
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, from)
	assert.Equal(t, models.OrderStatusConfirmed, got.Status)

	_, _, err = r.TransitionStatus(ctx, o.ID, actor, to(models.OrderStatusPending))
	assert.ErrorIs(t, err, models.ErrInvalidTransition)

	_, _, err = r.TransitionStatus(ctx, o.ID, actor, to(models.OrderStatusDelivered))
	assert.ErrorIs(t, err, models.ErrInvalidTransition)

	_, _, err = r.TransitionStatus(ctx, o.ID, actor, to(models.OrderStatusCancelled))
	assert.ErrorIs(t, err, models.ErrInvalidTransition)

	stored, err := r.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusConfirmed, stored.Status)

	events, err := r.ListStatusEvents(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, models.OrderStatusPending, events[0].FromStatus)
	assert.Equal(t, models.OrderStatusConfirmed, events[0].ToStatus)
	assert.Equal(t, actor.ID, events[0].ActorID)
	assert.Equal(t, role.Vendor, events[0].ActorRole)
}

func TestTransitionStatus_DecideErrorAborts(t *testing.T) {
	t.Parallel()
	r := newRepo(t)
	ctx := context.Background()
	o := seedOrder(t, r)
	denied := errors.New("denied")

	_, _, err := r.TransitionStatus(ctx, o.ID, Actor{ID: uuid.New(), Role: role.Customer}, func(*models.Order) (models.OrderStatus, error) {
		return "", denied
	})
	assert.ErrorIs(t, err, denied)

	events, err := r.ListStatusEvents(ctx, o.ID)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestRecordPaymentAndVerify(t *testing.T) {
	t.Parallel()
	r := newRepo(t)
	ctx := context.Background()
	o := seedOrder(t, r)
	pass := func(*models.Order) error { return nil }

	p := &models.Payment{Method: "bank_transfer", Reference: "NF_1_abc"}
	got, err := r.RecordPayment(ctx, o.ID, p, pass)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusAwaitingVerification, got.PaymentStatus)
	assert.Equal(t, o.TotalAmount, p.Amount)

	_, err = r.RecordPayment(ctx, o.ID, &models.Payment{Method: "ussd", Reference: "NF_2_abc"}, pass)
	assert.ErrorIs(t, err, models.ErrInvalidTransition)

	_, err = r.SetPaymentStatus(ctx, o.ID, models.PaymentStatusPaid)
	require.NoError(t, err)
	_, err = r.SetPaymentStatus(ctx, o.ID, models.PaymentStatusFailed)
	assert.ErrorIs(t, err, models.ErrInvalidTransition)

	ps, err := r.ListPayments(ctx, o.ID)
	require.NoError(t, err)
	assert.Len(t, ps, 1)
}

func TestDecideApplication(t *testing.T) {
	t.Parallel()
	r := newRepo(t)
	ctx := context.Background()

	user := uuid.New()
	require.NoError(t, r.CreateProfile(ctx, &models.Profile{UserID: user, Email: "a@b.c", Role: role.Customer}))

	_, _, err := r.DecideApplication(ctx, user, true)
	assert.ErrorIs(t, err, ErrApplicationState)

	_, err = r.SaveApplication(ctx, user, "Mama Put", "home cooking", "restaurant", func(*models.Profile) error { return nil })
	require.NoError(t, err)

	p, v, err := r.DecideApplication(ctx, user, true)
	require.NoError(t, err)
	assert.Equal(t, role.Vendor, p.Role)
	require.NotNil(t, v)
	assert.Equal(t, user, v.OwnerID)
	assert.True(t, v.IsActive)

	got, err := r.RoleOf(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, role.Vendor, got)

	owned, err := r.VendorsOwnedBy(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{v.ID}, owned)
}

func TestListVendors_OnlyActive(t *testing.T) {
	t.Parallel()
	r := newRepo(t)
	ctx := context.Background()

	require.NoError(t, r.CreateVendor(ctx, &models.Vendor{OwnerID: uuid.New(), Name: "A", IsActive: true}))
	require.NoError(t, r.CreateVendor(ctx, &models.Vendor{OwnerID: uuid.New(), Name: "B", IsActive: false}))

	vs, total, err := r.ListVendors(ctx, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, vs, 1)
	assert.Equal(t, "A", vs[0].Name)
}
