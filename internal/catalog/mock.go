package catalog

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/Skotchmaster/storefront/internal/models"
)

//go:embed mockdata.yaml
var mockYAML []byte

type MockData struct {
	Featured   []models.Product      `yaml:"featured"`
	Products   []models.Product      `yaml:"products"`
	Categories []models.Category     `yaml:"categories"`
	Orders     []models.OrderSummary `yaml:"orders"`
	Coupons    []models.Coupon       `yaml:"coupons"`
	Dashboard  models.Dashboard      `yaml:"dashboard"`
}

func ParseMockData(data []byte) (*MockData, error) {
	var m MockData
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse mock data: %w", err)
	}
	return &m, nil
}

// LoadMockData parses the embedded tables.
func LoadMockData() (*MockData, error) {
	return ParseMockData(mockYAML)
}

func (m *MockData) Product(id string) (models.Product, bool) {
	for _, set := range [][]models.Product{m.Featured, m.Products} {
		for _, p := range set {
			if p.ID == id {
				return p, true
			}
		}
	}
	return models.Product{}, false
}

func (m *MockData) Search(keyword string) []models.Product {
	kw := strings.ToLower(strings.TrimSpace(keyword))
	out := []models.Product{}
	for _, set := range [][]models.Product{m.Featured, m.Products} {
		for _, p := range set {
			if kw == "" || strings.Contains(strings.ToLower(p.Title), kw) || strings.Contains(strings.ToLower(p.Description), kw) {
				out = append(out, p)
			}
		}
	}
	return out
}
