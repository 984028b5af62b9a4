package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/food_market/internal/checkout"
	"github.com/Skotchmaster/food_market/internal/models"
	"github.com/Skotchmaster/food_market/internal/mykafka"
	"github.com/Skotchmaster/food_market/internal/role"
)

var details = checkout.Details{DeliveryAddress: "3 Marina Rd", Phone: "08012345678"}

func TestCheckout_CreatesOrderAndClearsCart(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	customer := e.profile(t, role.Customer)
	v := e.vendor(t, e.profile(t, role.Vendor), 300, 1500)
	a := e.product(t, v.ID, 1000)
	b := e.product(t, v.ID, 250)

	_, err := e.carts.AddToCart(ctx, customer, a.ID, 2)
	require.NoError(t, err)
	_, err = e.carts.AddToCart(ctx, customer, b.ID, 1)
	require.NoError(t, err)

	order, replayed, err := e.orders.Checkout(ctx, customer, details, "")
	require.NoError(t, err)
	assert.False(t, replayed)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, models.PaymentStatusPending, order.PaymentStatus)
	assert.Equal(t, int64(2250+300), order.TotalAmount)
	assert.Equal(t, int64(1), e.countRows(t, &models.Order{}))
	assert.Equal(t, int64(2), e.countRows(t, &models.OrderItem{}))

	stored, err := e.repo.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, stored.TotalAmount, stored.Subtotal()+stored.DeliveryFee)

	c, err := e.carts.GetCart(ctx, customer)
	require.NoError(t, err)
	assert.Empty(t, c.Items)

	assert.Equal(t, []string{mykafka.EventOrderCreated}, e.pub.types())
	assert.Equal(t, order.ID.String(), e.pub.sent[0].key)
}

func TestCheckout_Scenarios(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		price   int64
		qty     int
		fee     int64
		min     int64
		wantErr error
		total   int64
	}{
		{name: "two of ten dollars with fifteen minimum", price: 1000, qty: 2, fee: 300, min: 1500, total: 2300},
		{name: "five dollars with fifteen minimum", price: 500, qty: 1, fee: 300, min: 1500, wantErr: checkout.ErrBelowMinimum},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := newEnv(t)
			ctx := context.Background()

			customer := e.profile(t, role.Customer)
			v := e.vendor(t, e.profile(t, role.Vendor), tt.fee, tt.min)
			p := e.product(t, v.ID, tt.price)
			_, err := e.carts.AddToCart(ctx, customer, p.ID, tt.qty)
			require.NoError(t, err)

			order, _, err := e.orders.Checkout(ctx, customer, details, "")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, ErrValidation)
				assert.Zero(t, e.countRows(t, &models.Order{}))
				assert.Zero(t, e.countRows(t, &models.OrderItem{}))
				c, err := e.carts.GetCart(ctx, customer)
				require.NoError(t, err)
				assert.Len(t, c.Items, 1)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.total, order.TotalAmount)
		})
	}
}

func TestCheckout_Rejections(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	customer := e.profile(t, role.Customer)
	_, _, err := e.orders.Checkout(ctx, customer, details, "")
	assert.ErrorIs(t, err, checkout.ErrEmptyCart)

	v := e.vendor(t, e.profile(t, role.Vendor), 0, 0)
	p := e.product(t, v.ID, 100)
	_, err = e.carts.AddToCart(ctx, customer, p.ID, 1)
	require.NoError(t, err)

	_, _, err = e.orders.Checkout(ctx, customer, checkout.Details{DeliveryAddress: "x"}, "")
	assert.ErrorIs(t, err, checkout.ErrMissingPhone)

	require.NoError(t, e.repo.DB.Model(&models.Product{}).Where("id = ?", p.ID).Update("is_available", false).Error)
	_, _, err = e.orders.Checkout(ctx, customer, details, "")
	assert.ErrorIs(t, err, ErrValidation)
	assert.Zero(t, e.countRows(t, &models.Order{}))
}

func TestCheckout_Idempotent(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	customer := e.profile(t, role.Customer)
	v := e.vendor(t, e.profile(t, role.Vendor), 0, 0)
	p := e.product(t, v.ID, 700)
	_, err := e.carts.AddToCart(ctx, customer, p.ID, 1)
	require.NoError(t, err)

	first, replayed, err := e.orders.Checkout(ctx, customer, details, "key-1")
	require.NoError(t, err)
	assert.False(t, replayed)

	again, replayed, err := e.orders.Checkout(ctx, customer, details, "key-1")
	require.NoError(t, err)
	assert.True(t, replayed)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, int64(1), e.countRows(t, &models.Order{}))

	require.NoError(t, e.mr.Set("idem:checkout:"+customer.String()+":key-2", "pending"))
	_, _, err = e.orders.Checkout(ctx, customer, details, "key-2")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestCheckout_FailedAttemptReleasesKey(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	customer := e.profile(t, role.Customer)
	_, _, err := e.orders.Checkout(ctx, customer, details, "retry")
	require.ErrorIs(t, err, checkout.ErrEmptyCart)
	assert.False(t, e.mr.Exists("idem:checkout:"+customer.String()+":retry"))
}

func TestCheckout_PublishFailureDoesNotFail(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	e.pub.err = errors.New("broker down")

	customer := e.profile(t, role.Customer)
	v := e.vendor(t, e.profile(t, role.Vendor), 0, 0)
	p := e.product(t, v.ID, 700)
	_, err := e.carts.AddToCart(ctx, customer, p.ID, 1)
	require.NoError(t, err)

	_, _, err = e.orders.Checkout(ctx, customer, details, "")
	assert.NoError(t, err)
}

func placeOrder(t *testing.T, e *env) (customer, owner uuid.UUID, order *models.Order) {
	t.Helper()
	ctx := context.Background()
	customer = e.profile(t, role.Customer)
	owner = e.profile(t, role.Vendor)
	v := e.vendor(t, owner, 100, 0)
	p := e.product(t, v.ID, 900)
	_, err := e.carts.AddToCart(ctx, customer, p.ID, 1)
	require.NoError(t, err)
	order, _, err = e.orders.Checkout(ctx, customer, details, "")
	require.NoError(t, err)
	return customer, owner, order
}

func TestAdvance_WalksLifecycle(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	_, owner, order := placeOrder(t, e)
	vendor := Actor{ID: owner, Role: role.Vendor}

	want := []models.OrderStatus{
		models.OrderStatusConfirmed,
		models.OrderStatusPreparing,
		models.OrderStatusReady,
		models.OrderStatusDelivered,
	}
	for _, st := range want {
		o, err := e.orders.Advance(ctx, vendor, order.ID)
		require.NoError(t, err)
		assert.Equal(t, st, o.Status)
	}

	_, err := e.orders.Advance(ctx, vendor, order.ID)
	assert.ErrorIs(t, err, models.ErrInvalidTransition)

	events, err := e.orders.History(ctx, vendor, order.ID)
	require.NoError(t, err)
	assert.Len(t, events, 4)
	assert.Len(t, e.pub.types(), 5)
}

func TestChangeStatus_Permissions(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	customer, owner, order := placeOrder(t, e)

	stranger := Actor{ID: e.profile(t, role.Customer), Role: role.Customer}
	otherVendor := Actor{ID: e.profile(t, role.Vendor), Role: role.Vendor}
	e.vendor(t, otherVendor.ID, 0, 0)

	_, err := e.orders.ChangeStatus(ctx, Actor{ID: customer, Role: role.Customer}, order.ID, "confirmed")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = e.orders.ChangeStatus(ctx, stranger, order.ID, "cancelled")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = e.orders.ChangeStatus(ctx, otherVendor, order.ID, "confirmed")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = e.orders.ChangeStatus(ctx, Actor{ID: owner, Role: role.Vendor}, order.ID, "shipped")
	assert.ErrorIs(t, err, ErrValidation)

	o, err := e.orders.ChangeStatus(ctx, Actor{ID: owner, Role: role.Vendor}, order.ID, "confirmed")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusConfirmed, o.Status)

	_, err = e.orders.ChangeStatus(ctx, Actor{ID: customer, Role: role.Customer}, order.ID, "cancelled")
	assert.ErrorIs(t, err, models.ErrInvalidTransition)

	_, err = e.orders.ChangeStatus(ctx, Actor{ID: uuid.New(), Role: role.Admin}, order.ID, "pending")
	assert.ErrorIs(t, err, models.ErrInvalidTransition)

	_, err = e.orders.ChangeStatus(ctx, Actor{ID: uuid.New(), Role: role.Admin}, uuid.New(), "confirmed")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestChangeStatus_CustomerCancelsPending(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	customer, owner, order := placeOrder(t, e)

	o, err := e.orders.ChangeStatus(ctx, Actor{ID: customer, Role: role.Customer}, order.ID, "cancelled")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, o.Status)

	_, err = e.orders.Advance(ctx, Actor{ID: owner, Role: role.Vendor}, order.ID)
	assert.ErrorIs(t, err, models.ErrInvalidTransition)
}

func TestGetOrder_Visibility(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	customer, owner, order := placeOrder(t, e)

	for _, a := range []Actor{
		{ID: customer, Role: role.Customer},
		{ID: owner, Role: role.Vendor},
		{ID: uuid.New(), Role: role.Admin},
	} {
		_, err := e.orders.GetOrder(ctx, a, order.ID)
		assert.NoError(t, err, a.Role)
	}

	_, err := e.orders.GetOrder(ctx, Actor{ID: uuid.New(), Role: role.Customer}, order.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	mine, err := e.orders.ListMine(ctx, customer, 1, 10)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	incoming, err := e.orders.ListForVendor(ctx, owner, "pending", 1, 10)
	require.NoError(t, err)
	assert.Len(t, incoming, 1)

	incoming, err = e.orders.ListForVendor(ctx, owner, "delivered", 1, 10)
	require.NoError(t, err)
	assert.Empty(t, incoming)
}
