package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/internal/apiclient"
	"github.com/Skotchmaster/storefront/internal/cart"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/session"
)

const MockStatus = "PENDING"

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrEmptyCart        = errors.New("cart is empty")
	ErrValidation       = errors.New("validation")
	ErrRejected         = errors.New("order rejected")
)

type OrderAPI interface {
	CreateOrder(ctx context.Context, token string, draft models.OrderDraft) (*models.OrderConfirmation, error)
}

type Service struct {
	Orders OrderAPI
	NewKey func() string
}

func NewService(orders OrderAPI) *Service {
	return &Service{Orders: orders, NewKey: uuid.NewString}
}

// DefaultShipping prefills the shipping form from the profile.
func DefaultShipping(user *models.User) models.ShippingInfo {
	info := models.ShippingInfo{PaymentMethod: models.PaymentCOD}
	if user == nil {
		return info
	}
	info.FullName = user.FullName
	info.PhoneNumber = user.PhoneNumber
	info.Address = user.Address
	return info
}

func Validate(info models.ShippingInfo) error {
	var missing []string
	if strings.TrimSpace(info.FullName) == "" {
		missing = append(missing, "fullName")
	}
	if strings.TrimSpace(info.PhoneNumber) == "" {
		missing = append(missing, "phoneNumber")
	}
	if strings.TrimSpace(info.Address) == "" {
		missing = append(missing, "address")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: required %s", ErrValidation, strings.Join(missing, ", "))
	}
	switch info.PaymentMethod {
	case models.PaymentCOD, models.PaymentVNPay:
		return nil
	default:
		return fmt.Errorf("%w: unknown payment method %q", ErrValidation, info.PaymentMethod)
	}
}

// BuildDraft snapshots the cart lines and total into an order.
func BuildDraft(userID string, info models.ShippingInfo, items []models.CartItem) models.OrderDraft {
	lines := make([]models.OrderLine, 0, len(items))
	for _, it := range items {
		lines = append(lines, models.OrderLine{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.Price,
			Classify:  it.Classify,
		})
	}
	return models.OrderDraft{
		UserID:   userID,
		Shipping: info,
		Items:    lines,
		Total:    cart.TotalPrice(items),
	}
}

// Checkout submits the cart as an order. An unreachable backend yields a mock confirmation and
// leaves the cart in place; only a confirmed order clears it.
func (s *Service) Checkout(ctx context.Context, sess *session.Store, c *cart.Store, info models.ShippingInfo) (*models.OrderConfirmation, error) {
	l := logging.FromContext(ctx).With("svc", "checkout")

	st := sess.State()
	if !st.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}
	items := c.Items()
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}
	if info.PaymentMethod == "" {
		info.PaymentMethod = models.PaymentCOD
	}
	if err := Validate(info); err != nil {
		return nil, err
	}

	var userID string
	if st.User != nil {
		userID = st.User.ID
	}
	draft := BuildDraft(userID, info, items)
	draft.IdempotencyKey = s.NewKey()

	conf, err := s.Orders.CreateOrder(ctx, st.Token, draft)
	switch {
	case err == nil:
		c.ClearCart(ctx)
		l.Info("order_created", "order_id", conf.ID, "total", conf.Total.String())
		return conf, nil
	case errors.Is(err, apiclient.ErrUnavailable):
		l.Warn("backend_unavailable", "reason", "mock order confirmation", "error", err)
		return mockConfirmation(draft.Total), nil
	case errors.Is(err, apiclient.ErrUnauthorized):
		return nil, fmt.Errorf("%w: %v", ErrNotAuthenticated, err)
	case errors.Is(err, apiclient.ErrRejected), errors.Is(err, apiclient.ErrNotFound):
		return nil, fmt.Errorf("%w: %v", ErrRejected, err)
	default:
		return nil, fmt.Errorf("create order: %w", err)
	}
}

func mockConfirmation(total decimal.Decimal) *models.OrderConfirmation {
	return &models.OrderConfirmation{
		ID:     "MOCK-" + strings.ToUpper(uuid.NewString()[:8]),
		Status: MockStatus,
		Total:  total,
		Mock:   true,
	}
}
