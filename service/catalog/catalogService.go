package catalogsvc

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Muhammed-Altan/LejGoProLive-sub000/model"
	catalogrepo "github.com/Muhammed-Altan/LejGoProLive-sub000/repository/catalog"
	"github.com/Muhammed-Altan/LejGoProLive-sub000/util/cache"
)

const productListKey = "catalog:products"

type Service interface {
	CreateProduct(ctx context.Context, p *model.Product) error
	ListProducts(ctx context.Context) ([]model.Product, error)
	GetProduct(ctx context.Context, id int64) (*model.Product, error)
	AddCameras(ctx context.Context, productID int64, n int) (int64, error)

	CreateAccessory(ctx context.Context, a *model.Accessory) error
	ListAccessories(ctx context.Context) ([]model.Accessory, error)
	AddAccessoryInstances(ctx context.Context, accessoryID int64, n int) (int64, error)
	RetireAccessoryInstance(ctx context.Context, id int64) error
}

type service struct {
	r     catalogrepo.Repo
	cache *cache.Cache
	ttl   time.Duration
}

func New(r catalogrepo.Repo, c *cache.Cache, ttl time.Duration) Service {
	return &service{r: r, cache: c, ttl: ttl}
}

func (s *service) CreateProduct(ctx context.Context, p *model.Product) error {
	if p.Name == "" {
		return errors.New("name is required")
	}
	if p.PriceDaily < 0 || p.PriceWeekly < 0 || p.PriceTwoWeeks < 0 {
		return errors.New("prices must not be negative")
	}
	if err := s.r.CreateProduct(ctx, p); err != nil {
		return err
	}
	s.cache.ClearByPrefix(productListKey)
	return nil
}

// ListProducts serves the slow-changing product list from cache.
func (s *service) ListProducts(ctx context.Context) ([]model.Product, error) {
	if raw, ok := s.cache.Get(productListKey); ok {
		var cached []model.Product
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
	}
	products, err := s.r.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(products); err == nil {
		s.cache.Set(productListKey, raw, s.ttl)
	}
	return products, nil
}

func (s *service) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	return s.r.GetProduct(ctx, id)
}

func (s *service) AddCameras(ctx context.Context, productID int64, n int) (int64, error) {
	if n <= 0 {
		return 0, errors.New("unit count must be positive")
	}
	added, err := s.r.AddCameras(ctx, productID, n)
	if err != nil {
		return 0, err
	}
	s.cache.ClearByPrefix(productListKey)
	return added, nil
}

func (s *service) CreateAccessory(ctx context.Context, a *model.Accessory) error {
	if a.Name == "" {
		return errors.New("name is required")
	}
	if a.Price < 0 {
		return errors.New("price must not be negative")
	}
	return s.r.CreateAccessory(ctx, a)
}

func (s *service) ListAccessories(ctx context.Context) ([]model.Accessory, error) {
	return s.r.ListAccessories(ctx)
}

func (s *service) AddAccessoryInstances(ctx context.Context, accessoryID int64, n int) (int64, error) {
	if n <= 0 {
		return 0, errors.New("instance count must be positive")
	}
	return s.r.AddAccessoryInstances(ctx, accessoryID, n)
}

func (s *service) RetireAccessoryInstance(ctx context.Context, id int64) error {
	return s.r.RetireAccessoryInstance(ctx, id)
}
