package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/storage"
)

const StorageKey = "cart"

var (
	ErrValidation      = errors.New("validation")
	ErrInvalidQuantity = fmt.Errorf("quantity must be at least 1: %w", ErrValidation)
)

type AddOption func(*models.CartItem)

// WithClassify records a variant label (colour, size) on a newly created line.
func WithClassify(label string) AddOption {
	return func(it *models.CartItem) { it.Classify = label }
}

// Store holds the line items of one client. Lines keep insertion order and
// there is at most one line per product id.
type Store struct {
	Storage storage.Store

	mu    sync.Mutex
	items []models.CartItem
}

func New(st storage.Store) *Store {
	return &Store{Storage: st}
}

// Load replaces the in-memory lines with the persisted cart. A missing cart is not an error.
func (s *Store) Load(ctx context.Context) error {
	if s.Storage == nil {
		return nil
	}
	raw, err := s.Storage.Get(ctx, StorageKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read cart: %w", err)
	}

	var items []models.CartItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return fmt.Errorf("decode cart: %w", err)
	}
	items = slices.DeleteFunc(items, func(it models.CartItem) bool { return it.Quantity < 1 || it.ProductID == "" })

	s.mu.Lock()
	s.items = items
	s.mu.Unlock()
	return nil
}

func (s *Store) AddToCart(ctx context.Context, product models.Product, quantity int, opts ...AddOption) (models.CartItem, error) {
	if quantity < 1 {
		return models.CartItem{}, ErrInvalidQuantity
	}
	if product.ID == "" {
		return models.CartItem{}, fmt.Errorf("product id is required: %w", ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(product.ID); i >= 0 {
		s.items[i].Quantity += quantity
		item := s.items[i]
		s.persist(ctx)
		return item, nil
	}

	item := models.CartItem{
		ProductID:    product.ID,
		ProductTitle: product.Title,
		ProductImage: product.ImageURL(),
		Quantity:     quantity,
		Price:        product.EffectivePrice(),
	}
	for _, opt := range opts {
		opt(&item)
	}
	s.items = append(s.items, item)
	s.persist(ctx)
	return item, nil
}

// UpdateQuantity sets the quantity of a line; quantity <= 0 removes it. Unknown ids are ignored.
func (s *Store) UpdateQuantity(ctx context.Context, productID string, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(productID)
	if i < 0 {
		return
	}
	if quantity <= 0 {
		s.items = slices.Delete(s.items, i, i+1)
	} else {
		s.items[i].Quantity = quantity
	}
	s.persist(ctx)
}

func (s *Store) RemoveFromCart(ctx context.Context, productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(productID)
	if i < 0 {
		return
	}
	s.items = slices.Delete(s.items, i, i+1)
	s.persist(ctx)
}

func (s *Store) ClearCart(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	s.persist(ctx)
}

func (s *Store) Items() []models.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.items)
}

func (s *Store) Item(productID string) (models.CartItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(productID); i >= 0 {
		return s.items[i], true
	}
	return models.CartItem{}, false
}

func (s *Store) TotalItems() int {
	return TotalItems(s.Items())
}

func (s *Store) TotalPrice() decimal.Decimal {
	return TotalPrice(s.Items())
}

func TotalItems(items []models.CartItem) int {
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n
}

func TotalPrice(items []models.CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return total
}

func (s *Store) indexOf(productID string) int {
	return slices.IndexFunc(s.items, func(it models.CartItem) bool { return it.ProductID == productID })
}

// persist must be called with mu held. Storage failures are logged; memory stays authoritative.
func (s *Store) persist(ctx context.Context) {
	if s.Storage == nil {
		return
	}
	l := logging.FromContext(ctx).With("svc", "cart.persist")

	if len(s.items) == 0 {
		if err := s.Storage.Remove(ctx, StorageKey); err != nil {
			l.Error("cart_persist_error", "error", err)
		}
		return
	}

	data, err := json.Marshal(s.items)
	if err != nil {
		l.Error("cart_persist_error", "error", err)
		return
	}
	if err := s.Storage.Set(ctx, StorageKey, string(data)); err != nil {
		l.Error("cart_persist_error", "error", err)
	}
}
