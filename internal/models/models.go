package models

import (
	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

type UserRole struct {
	RoleName Role `json:"roleName" yaml:"roleName"`
}

type User struct {
	ID          string   `json:"id"`
	UserName    string   `json:"userName"`
	FullName    string   `json:"fullName"`
	Email       string   `json:"email"`
	PhoneNumber string   `json:"phoneNumber"`
	Address     string   `json:"address"`
	Role        UserRole `json:"role"`
	Avatar      string   `json:"avatar,omitempty"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role.RoleName == RoleAdmin
}

type Category struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

type ProductImage struct {
	ID        string `json:"id" yaml:"id"`
	ImageName string `json:"imageName" yaml:"imageName"`
	URL       string `json:"url" yaml:"url"`
}

type Product struct {
	ID          string          `json:"id" yaml:"id"`
	Title       string          `json:"title" yaml:"title"`
	OriginPrice decimal.Decimal `json:"originPrice" yaml:"originPrice"`
	SalePrice   decimal.Decimal `json:"salePrice" yaml:"salePrice"`
	Discount    float64         `json:"discount" yaml:"discount"`
	Description string          `json:"description" yaml:"description"`
	Quantity    int             `json:"quantity" yaml:"quantity"`
	Category    Category        `json:"category" yaml:"category"`
	Images      []ProductImage  `json:"images" yaml:"images"`
	Thumbnail   string          `json:"thumbnail" yaml:"thumbnail"`
}

// EffectivePrice is the sale price when the product is discounted, the origin price otherwise.
func (p Product) EffectivePrice() decimal.Decimal {
	if p.Discount > 0 && p.SalePrice.IsPositive() {
		return p.SalePrice
	}
	return p.OriginPrice
}

type CartItem struct {
	ProductID    string          `json:"productId"`
	ProductTitle string          `json:"productTitle"`
	ProductImage string          `json:"productImage"`
	Quantity     int             `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
	Classify     string          `json:"classify,omitempty"`
}

func (i CartItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Pagination struct {
	Page     int   `json:"page"`
	PerPage  int   `json:"perPage"`
	LastPage int   `json:"lastPage"`
	Total    int64 `json:"total"`
}

type Page[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

type AuthResponse struct {
	Token    string `json:"token"`
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
}

type LoginRequest struct {
	UserName string `json:"userName"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	UserName    string `json:"userName"`
	Password    string `json:"password"`
	FullName    string `json:"fullName"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
}

type PaymentMethod string

const (
	PaymentCOD   PaymentMethod = "COD"
	PaymentVNPay PaymentMethod = "VNPAY"
)

type ShippingInfo struct {
	FullName      string        `json:"fullName"`
	PhoneNumber   string        `json:"phoneNumber"`
	Address       string        `json:"address"`
	Note          string        `json:"note,omitempty"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
}

type OrderLine struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Classify  string          `json:"classify,omitempty"`
}

type OrderDraft struct {
	IdempotencyKey string          `json:"-"`
	UserID         string          `json:"userId"`
	Shipping       ShippingInfo    `json:"shipping"`
	Items          []OrderLine     `json:"items"`
	Total          decimal.Decimal `json:"total"`
}

type OrderConfirmation struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Total  decimal.Decimal `json:"total"`
	Mock   bool            `json:"mock,omitempty"`
}

type OrderSummaryItem struct {
	Name  string          `json:"name" yaml:"name"`
	Price decimal.Decimal `json:"price" yaml:"price"`
	Qty   int             `json:"qty" yaml:"qty"`
	Image string          `json:"image" yaml:"image"`
}

type OrderSummary struct {
	ID     string             `json:"id" yaml:"id"`
	Date   string             `json:"date" yaml:"date"`
	Status string             `json:"status" yaml:"status"`
	Total  decimal.Decimal    `json:"total" yaml:"total"`
	Items  []OrderSummaryItem `json:"items" yaml:"items"`
}

type Coupon struct {
	Code        string `json:"code" yaml:"code"`
	Description string `json:"description" yaml:"description"`
}

type StatCard struct {
	Title string `json:"title" yaml:"title"`
	Value string `json:"value" yaml:"value"`
}

type MonthlyRevenue struct {
	Name    string `json:"name" yaml:"name"`
	Revenue int64  `json:"revenue" yaml:"revenue"`
}

type Dashboard struct {
	Stats   []StatCard       `json:"stats" yaml:"stats"`
	Revenue []MonthlyRevenue `json:"revenue" yaml:"revenue"`
}
