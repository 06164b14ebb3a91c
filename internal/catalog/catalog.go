package catalog

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/Skotchmaster/storefront/internal/apiclient"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/util"
)

var ErrNotFound = errors.New("product not found")

type API interface {
	ListProducts(ctx context.Context, page, perPage int) (*models.Page[models.Product], error)
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	BestSellers(ctx context.Context) ([]models.Product, error)
	SaleProducts(ctx context.Context) ([]models.Product, error)
	SearchProducts(ctx context.Context, keyword string, page, perPage int) (*models.Page[models.Product], error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	ListOrders(ctx context.Context, token string) ([]models.OrderSummary, error)
}

type Searcher interface {
	Search(ctx context.Context, query string, from, size int) (int64, []models.Product, error)
}

// Service answers every catalog read. Backend failures never reach the caller: they are
// logged and replaced with the mock tables.
type Service struct {
	API      API
	Searcher Searcher
	Mock     *MockData
}

type Home struct {
	BestSellers []models.Product `json:"bestSellers"`
	Sale        []models.Product `json:"sale"`
	Fallback    bool             `json:"fallback"`
}

type Listing struct {
	Products   models.Page[models.Product] `json:"products"`
	Categories []models.Category           `json:"categories"`
	Fallback   bool                        `json:"fallback"`
}

func (s *Service) Home(ctx context.Context) Home {
	l := logging.FromContext(ctx).With("svc", "catalog.home")

	best, err := s.API.BestSellers(ctx)
	if err != nil {
		l.Warn("backend_unavailable", "reason", "switching to mock data for home", "error", err)
		return Home{BestSellers: s.Mock.Featured, Sale: s.Mock.Featured, Fallback: true}
	}
	sale, err := s.API.SaleProducts(ctx)
	if err != nil {
		l.Warn("backend_unavailable", "reason", "switching to mock data for home", "error", err)
		return Home{BestSellers: s.Mock.Featured, Sale: s.Mock.Featured, Fallback: true}
	}

	h := Home{BestSellers: best, Sale: sale}
	if len(h.BestSellers) == 0 {
		h.BestSellers = s.Mock.Featured
		h.Fallback = true
	}
	if len(h.Sale) == 0 {
		h.Sale = s.Mock.Featured
		h.Fallback = true
	}
	return h
}

func (s *Service) Listing(ctx context.Context, page, perPage int) Listing {
	l := logging.FromContext(ctx).With("svc", "catalog.listing")
	page, perPage = util.Normalize(page, perPage)

	products, err := s.API.ListProducts(ctx, page, perPage)
	if err == nil {
		var categories []models.Category
		categories, err = s.API.ListCategories(ctx)
		if err == nil {
			if products.Data == nil {
				products.Data = []models.Product{}
			}
			if categories == nil {
				categories = []models.Category{}
			}
			return Listing{Products: *products, Categories: categories}
		}
	}

	l.Warn("backend_unavailable", "reason", "using mock data for product list", "error", err)
	return Listing{
		Products:   mockPage(s.Mock.Products, page, perPage),
		Categories: s.Mock.Categories,
		Fallback:   true,
	}
}

func (s *Service) Categories(ctx context.Context) []models.Category {
	cats, err := s.API.ListCategories(ctx)
	if err != nil {
		logging.FromContext(ctx).Warn("backend_unavailable", "svc", "catalog.categories", "error", err)
		return s.Mock.Categories
	}
	if cats == nil {
		return []models.Category{}
	}
	return cats
}

// Product returns ErrNotFound when the backend says so; when the backend is unreachable the
// mock tables are consulted instead.
func (s *Service) Product(ctx context.Context, id string) (*models.Product, error) {
	p, err := s.API.GetProduct(ctx, id)
	if err == nil {
		return p, nil
	}
	if errors.Is(err, apiclient.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	logging.FromContext(ctx).Warn("backend_unavailable", "svc", "catalog.product", "product_id", id, "error", err)
	if mp, ok := s.Mock.Product(id); ok {
		return &mp, nil
	}
	return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
}

// Search tries the search index, then the backend, then the mock tables.
func (s *Service) Search(ctx context.Context, keyword string, page, perPage int) models.Page[models.Product] {
	l := logging.FromContext(ctx).With("svc", "catalog.search")
	page, perPage = util.Normalize(page, perPage)

	if s.Searcher != nil {
		total, items, err := s.Searcher.Search(ctx, keyword, page*perPage, perPage)
		if err == nil {
			return models.Page[models.Product]{
				Data: items,
				Pagination: models.Pagination{
					Page: page, PerPage: perPage, Total: total,
					LastPage: util.LastPage(total, perPage),
				},
			}
		}
		l.Warn("search_index_error", "error", err)
	}

	res, err := s.API.SearchProducts(ctx, keyword, page, perPage)
	if err == nil {
		if res.Data == nil {
			res.Data = []models.Product{}
		}
		return *res
	}

	l.Warn("backend_unavailable", "reason", "searching mock data", "error", err)
	return mockPage(s.Mock.Search(keyword), page, perPage)
}

func (s *Service) Orders(ctx context.Context, token string) ([]models.OrderSummary, bool) {
	orders, err := s.API.ListOrders(ctx, token)
	if err != nil {
		logging.FromContext(ctx).Warn("backend_unavailable", "svc", "catalog.orders", "error", err)
		return s.Mock.Orders, true
	}
	if orders == nil {
		orders = []models.OrderSummary{}
	}
	return orders, false
}

func (s *Service) Promotions() []models.Coupon {
	return slices.Clone(s.Mock.Coupons)
}

func (s *Service) Dashboard() models.Dashboard {
	return s.Mock.Dashboard
}

func mockPage(all []models.Product, page, perPage int) models.Page[models.Product] {
	from, to := util.Window(page, perPage, len(all))
	data := slices.Clone(all[from:to])
	if data == nil {
		data = []models.Product{}
	}
	total := int64(len(all))
	return models.Page[models.Product]{
		Data: data,
		Pagination: models.Pagination{
			Page:     page,
			PerPage:  perPage,
			LastPage: util.LastPage(total, perPage),
			Total:    total,
		},
	}
}
