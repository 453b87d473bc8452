package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/smart-farming/internal/model"
	"github.com/iliyamo/smart-farming/internal/repository"
	"github.com/iliyamo/smart-farming/internal/validation"
)

// ProductStore is implemented by *repository.ProductRepo.
type ProductStore interface {
	Create(ctx context.Context, p *model.Product) error
	GetByID(ctx context.Context, id uint64) (*model.Product, error)
	List(ctx context.Context, category string) ([]model.Product, error)
	Update(ctx context.Context, p *model.Product) error
	DeleteByIDAndSeller(ctx context.Context, id, sellerID uint64) error
}

// ProductInput is a product create or patch body.  Nil fields are left
// unchanged on update.
type ProductInput struct {
	Name     *string          `json:"name"`
	Category *string          `json:"category"`
	Unit     *string          `json:"unit"`
	Price    *decimal.Decimal `json:"price"`
	Stock    *int64           `json:"stock"`
}

// ProductService manages marketplace listings.
type ProductService struct {
	store ProductStore
}

func NewProductService(store ProductStore) *ProductService {
	return &ProductService{store: store}
}

// Create lists a product sold by the actor.  Name and price are required.
func (s *ProductService) Create(ctx context.Context, actor Actor, in ProductInput) (*model.Product, error) {
	v := validation.New()
	if in.Name == nil {
		v.Add("name", "is required")
	}
	if in.Price == nil {
		v.Add("price", "is required")
	}
	p := &model.Product{SellerID: actor.UserID}
	applyProduct(p, in, v)
	if err := v.Err(); err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return p, nil
}

// Get returns any product.
func (s *ProductService) Get(ctx context.Context, id uint64) (*model.Product, error) {
	return s.store.GetByID(ctx, id)
}

// List returns all products, optionally restricted to one category.
func (s *ProductService) List(ctx context.Context, category string) ([]model.Product, error) {
	return s.store.List(ctx, strings.TrimSpace(category))
}

// Update patches a product owned by the actor (or any product for an admin).
func (s *ProductService) Update(ctx context.Context, actor Actor, id uint64, in ProductInput) (*model.Product, error) {
	p, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	v := validation.New()
	applyProduct(p, in, v)
	if err := v.Err(); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, p); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update product %d: %w", id, err)
	}
	return p, nil
}

// Delete removes a product owned by the actor (or any product for an admin).
func (s *ProductService) Delete(ctx context.Context, actor Actor, id uint64) error {
	p, err := s.owned(ctx, actor, id)
	if err != nil {
		return err
	}
	return s.store.DeleteByIDAndSeller(ctx, id, p.SellerID)
}

func (s *ProductService) owned(ctx context.Context, actor Actor, id uint64) (*model.Product, error) {
	p, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.owns(p.SellerID) {
		return nil, repository.ErrNotFound
	}
	return p, nil
}

func applyProduct(p *model.Product, in ProductInput, v *validation.Error) {
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
		v.Required("name", p.Name)
	}
	if in.Category != nil {
		p.Category = strings.ToLower(strings.TrimSpace(*in.Category))
	}
	if in.Unit != nil {
		p.Unit = strings.ToLower(strings.TrimSpace(*in.Unit))
	}
	if in.Price != nil {
		if in.Price.IsNegative() {
			v.Add("price", "must not be negative")
		}
		p.Price = *in.Price
	}
	if in.Stock != nil {
		if *in.Stock < 0 {
			v.Add("stock", "must not be negative")
		}
		p.Stock = *in.Stock
	}
}
