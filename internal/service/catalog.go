package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/Skotchmaster/food_market/internal/models"
	"github.com/Skotchmaster/food_market/internal/repo"
	"github.com/Skotchmaster/food_market/internal/util"
)

type CatalogService struct {
	Repo *repo.GormRepo
}

type VendorPage struct {
	Vendors []models.Vendor `json:"vendors"`
	Total   int64           `json:"total"`
	Page    int             `json:"page"`
	Size    int             `json:"size"`
}

func (s *CatalogService) ListVendors(ctx context.Context, page, size int) (*VendorPage, error) {
	pg := util.Paginate(page, size)
	vendors, total, err := s.Repo.ListVendors(ctx, pg.Size, pg.Offset())
	if err != nil {
		return nil, err
	}
	if vendors == nil {
		vendors = []models.Vendor{}
	}
	return &VendorPage{Vendors: vendors, Total: total, Page: pg.Number, Size: pg.Size}, nil
}

// GetVendor returns an active vendor. Inactive vendors are reported as
// missing.
func (s *CatalogService) GetVendor(ctx context.Context, id uuid.UUID) (*models.Vendor, error) {
	v, err := s.Repo.GetVendor(ctx, id)
	if err != nil {
		return nil, notFound(err, "vendor")
	}
	if !v.IsActive {
		return nil, ErrNotFound
	}
	return v, nil
}

func (s *CatalogService) ListProducts(ctx context.Context, vendorID uuid.UUID) ([]models.Product, error) {
	if _, err := s.GetVendor(ctx, vendorID); err != nil {
		return nil, err
	}
	products, err := s.Repo.ListProducts(ctx, vendorID, true)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []models.Product{}
	}
	return products, nil
}
