package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/food_market/internal/models"
)

func (r *GormRepo) ListVendors(ctx context.Context, limit, offset int) ([]models.Vendor, int64, error) {
	active := func() *gorm.DB {
		return r.DB.WithContext(ctx).Model(&models.Vendor{}).Where("is_active = ?", true)
	}

	var total int64
	if err := active().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var vendors []models.Vendor
	if err := active().Order("name ASC").Limit(limit).Offset(offset).Find(&vendors).Error; err != nil {
		return nil, 0, err
	}
	return vendors, total, nil
}

func (r *GormRepo) GetVendor(ctx context.Context, id uuid.UUID) (*models.Vendor, error) {
	var v models.Vendor
	if err := r.DB.WithContext(ctx).First(&v, "id = ?", id).Error; err != nil {
		return nil, mapErr(err)
	}
	return &v, nil
}

func (r *GormRepo) VendorsOwnedBy(ctx context.Context, ownerID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.DB.WithContext(ctx).Model(&models.Vendor{}).
		Where("owner_id = ?", ownerID).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *GormRepo) ListProducts(ctx context.Context, vendorID uuid.UUID, onlyAvailable bool) ([]models.Product, error) {
	q := r.DB.WithContext(ctx).Where("vendor_id = ?", vendorID)
	if onlyAvailable {
		q = q.Where("is_available = ?", true)
	}
	var products []models.Product
	if err := q.Order("name ASC").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *GormRepo) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var p models.Product
	if err := r.DB.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}

func (r *GormRepo) CreateVendor(ctx context.Context, v *models.Vendor) error {
	return mapErr(r.DB.WithContext(ctx).Create(v).Error)
}

func (r *GormRepo) CreateProduct(ctx context.Context, p *models.Product) error {
	return mapErr(r.DB.WithContext(ctx).Create(p).Error)
}
