package checkout

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/apiclient"
	"github.com/Skotchmaster/storefront/internal/cart"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/session"
	"github.com/Skotchmaster/storefront/internal/storage"
)

type fakeOrders struct {
	err   error
	token string
	draft models.OrderDraft
	calls int
}

func (f *fakeOrders) CreateOrder(_ context.Context, token string, draft models.OrderDraft) (*models.OrderConfirmation, error) {
	f.calls++
	f.token = token
	f.draft = draft
	if f.err != nil {
		return nil, f.err
	}
	return &models.OrderConfirmation{ID: "ORD-1", Status: "PENDING", Total: draft.Total}, nil
}

type profileOf struct{ user *models.User }

func (p profileOf) FetchProfile(context.Context, string, string) (*models.User, error) {
	return p.user, nil
}

var buyer = &models.User{ID: "u2", FullName: "Bob", PhoneNumber: "555", Address: "1 Main St"}

func fixture(t *testing.T, loggedIn bool, qty int) (*session.Store, *cart.Store) {
	t.Helper()
	ctx := context.Background()
	st := storage.NewMemoryStore()

	sess := session.New(st, profileOf{user: buyer})
	sess.Initialize(ctx)
	if loggedIn {
		require.NoError(t, sess.Login(ctx, &models.AuthResponse{Token: "tok", ID: buyer.ID}))
	}

	c := cart.New(st)
	if qty > 0 {
		p := models.Product{ID: "A", Title: "Lamp", OriginPrice: decimal.NewFromInt(100)}
		_, err := c.AddToCart(ctx, p, qty)
		require.NoError(t, err)
	}
	return sess, c
}

func validShipping() models.ShippingInfo {
	return DefaultShipping(buyer)
}

func newTestService(orders *fakeOrders) *Service {
	s := NewService(orders)
	s.NewKey = func() string { return "key-1" }
	return s
}

func TestCheckout_Success(t *testing.T) {
	t.Parallel()

	orders := &fakeOrders{}
	sess, c := fixture(t, true, 3)

	conf, err := newTestService(orders).Checkout(context.Background(), sess, c, validShipping())
	require.NoError(t, err)

	assert.Equal(t, "ORD-1", conf.ID)
	assert.False(t, conf.Mock)
	assert.Equal(t, "tok", orders.token)
	assert.Equal(t, "key-1", orders.draft.IdempotencyKey)
	assert.Equal(t, "u2", orders.draft.UserID)
	require.Len(t, orders.draft.Items, 1)
	assert.Equal(t, 3, orders.draft.Items[0].Quantity)
	assert.True(t, decimal.NewFromInt(300).Equal(orders.draft.Total))
	assert.Empty(t, c.Items())
}

func TestCheckout_Preconditions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("anonymous", func(t *testing.T) {
		orders := &fakeOrders{}
		sess, c := fixture(t, false, 1)
		_, err := newTestService(orders).Checkout(ctx, sess, c, validShipping())
		assert.ErrorIs(t, err, ErrNotAuthenticated)
		assert.Zero(t, orders.calls)
	})

	t.Run("empty cart", func(t *testing.T) {
		orders := &fakeOrders{}
		sess, c := fixture(t, true, 0)
		_, err := newTestService(orders).Checkout(ctx, sess, c, validShipping())
		assert.ErrorIs(t, err, ErrEmptyCart)
		assert.Zero(t, orders.calls)
	})

	t.Run("missing address", func(t *testing.T) {
		orders := &fakeOrders{}
		sess, c := fixture(t, true, 1)
		info := validShipping()
		info.Address = "  "
		_, err := newTestService(orders).Checkout(ctx, sess, c, info)
		assert.ErrorIs(t, err, ErrValidation)
		assert.Len(t, c.Items(), 1)
	})
}

func TestCheckout_BackendOutcomes(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("unreachable backend gives mock confirmation", func(t *testing.T) {
		orders := &fakeOrders{err: fmt.Errorf("dial: %w", apiclient.ErrUnavailable)}
		sess, c := fixture(t, true, 2)
		conf, err := newTestService(orders).Checkout(ctx, sess, c, validShipping())
		require.NoError(t, err)
		assert.True(t, conf.Mock)
		assert.Equal(t, MockStatus, conf.Status)
		assert.True(t, decimal.NewFromInt(200).Equal(conf.Total))
		assert.Len(t, c.Items(), 1)
	})

	t.Run("rejected order keeps cart", func(t *testing.T) {
		orders := &fakeOrders{err: fmt.Errorf("POST /orders: %w", apiclient.ErrRejected)}
		sess, c := fixture(t, true, 2)
		_, err := newTestService(orders).Checkout(ctx, sess, c, validShipping())
		assert.ErrorIs(t, err, ErrRejected)
		assert.Len(t, c.Items(), 1)
	})

	t.Run("expired credential", func(t *testing.T) {
		orders := &fakeOrders{err: fmt.Errorf("POST /orders: %w", apiclient.ErrUnauthorized)}
		sess, c := fixture(t, true, 2)
		_, err := newTestService(orders).Checkout(ctx, sess, c, validShipping())
		assert.ErrorIs(t, err, ErrNotAuthenticated)
	})
}

func TestValidate(t *testing.T) {
	t.Parallel()

	ok := validShipping()
	require.NoError(t, Validate(ok))

	vnpay := ok
	vnpay.PaymentMethod = models.PaymentVNPay
	require.NoError(t, Validate(vnpay))

	bad := ok
	bad.PaymentMethod = "BITCOIN"
	assert.ErrorIs(t, Validate(bad), ErrValidation)

	err := Validate(models.ShippingInfo{PaymentMethod: models.PaymentCOD})
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "fullName, phoneNumber, address")
}

func TestDefaultShipping(t *testing.T) {
	t.Parallel()

	assert.Equal(t, models.ShippingInfo{PaymentMethod: models.PaymentCOD}, DefaultShipping(nil))

	info := DefaultShipping(buyer)
	assert.Equal(t, "Bob", info.FullName)
	assert.Equal(t, "555", info.PhoneNumber)
	assert.Equal(t, "1 Main St", info.Address)
}
