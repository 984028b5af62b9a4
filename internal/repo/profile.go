package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/food_market/internal/models"
	"github.com/Skotchmaster/food_market/internal/role"
)

var ErrApplicationState = errors.New("vendor application is not in the expected state")

func (r *GormRepo) GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	var p models.Profile
	if err := r.DB.WithContext(ctx).First(&p, "user_id = ?", userID).Error; err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}

func (r *GormRepo) CreateProfile(ctx context.Context, p *models.Profile) error {
	return mapErr(r.DB.WithContext(ctx).Create(p).Error)
}

// RoleOf reads the stored role. Rows holding an unknown role fail to scan.
func (r *GormRepo) RoleOf(ctx context.Context, userID uuid.UUID) (role.Role, error) {
	p, err := r.GetProfile(ctx, userID)
	if err != nil {
		return "", err
	}
	return p.Role, nil
}

func (r *GormRepo) SetRole(ctx context.Context, userID uuid.UUID, to role.Role) error {
	res := r.DB.WithContext(ctx).Model(&models.Profile{}).
		Where("user_id = ?", userID).
		Update("role", to)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveApplication stores the business details and marks the application
// pending. check runs on the locked profile first.
func (r *GormRepo) SaveApplication(ctx context.Context, userID uuid.UUID, name, description, category string, check func(p *models.Profile) error) (*models.Profile, error) {
	var p models.Profile
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := forUpdate(tx).First(&p, "user_id = ?", userID).Error; err != nil {
			return mapErr(err)
		}
		if err := check(&p); err != nil {
			return err
		}
		status := models.ApplicationPending
		p.VendorBusinessName = name
		p.VendorDescription = description
		p.VendorCategory = category
		p.VendorApplicationStatus = &status
		return tx.Model(&models.Profile{}).Where("user_id = ?", userID).Updates(map[string]any{
			"vendor_business_name":      name,
			"vendor_description":        description,
			"vendor_category":           category,
			"vendor_application_status": status,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormRepo) ListApplications(ctx context.Context, status string, limit, offset int) ([]models.Profile, error) {
	q := r.DB.WithContext(ctx).Where("vendor_application_status IS NOT NULL")
	if status != "" {
		q = q.Where("vendor_application_status = ?", status)
	}
	var ps []models.Profile
	if err := q.Order("updated_at DESC").Limit(limit).Offset(offset).Find(&ps).Error; err != nil {
		return nil, err
	}
	return ps, nil
}

// DecideApplication approves or rejects a pending application. Approval
// promotes the user to vendor and creates an active vendor owned by them;
// rejection leaves the user a customer.
func (r *GormRepo) DecideApplication(ctx context.Context, userID uuid.UUID, approve bool) (*models.Profile, *models.Vendor, error) {
	var (
		p      models.Profile
		vendor *models.Vendor
	)
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := forUpdate(tx).First(&p, "user_id = ?", userID).Error; err != nil {
			return mapErr(err)
		}
		if p.VendorApplicationStatus == nil || *p.VendorApplicationStatus != models.ApplicationPending {
			return fmt.Errorf("%w: user %s", ErrApplicationState, userID)
		}

		status, newRole := models.ApplicationRejected, role.Customer
		if approve {
			status, newRole = models.ApplicationApproved, role.Vendor
		}
		if err := tx.Model(&models.Profile{}).Where("user_id = ?", userID).Updates(map[string]any{
			"vendor_application_status": status,
			"role":                      newRole,
		}).Error; err != nil {
			return err
		}
		p.VendorApplicationStatus = &status
		p.Role = newRole

		if !approve {
			return nil
		}
		vendor = &models.Vendor{
			OwnerID:     userID,
			Name:        p.VendorBusinessName,
			Description: p.VendorDescription,
			Category:    p.VendorCategory,
			IsActive:    true,
		}
		return mapErr(tx.Create(vendor).Error)
	})
	if err != nil {
		return nil, nil, err
	}
	return &p, vendor, nil
}
