package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Skotchmaster/food_market/internal/checkout"
	"github.com/Skotchmaster/food_market/internal/models"
	"github.com/Skotchmaster/food_market/internal/repo"
	"github.com/Skotchmaster/food_market/internal/role"
	"github.com/Skotchmaster/food_market/internal/util"
)

type ProfileService struct {
	Repo *repo.GormRepo
}

type Application struct {
	BusinessName string
	Description  string
	Category     string
}

// Apply files a vendor application for a customer.
func (s *ProfileService) Apply(ctx context.Context, userID uuid.UUID, a Application) (*models.Profile, error) {
	name := checkout.Sanitize(a.BusinessName)
	desc := checkout.Sanitize(a.Description)
	cat := checkout.Sanitize(a.Category)
	if name == "" || desc == "" || cat == "" {
		return nil, fmt.Errorf("%w: business name, description and category are required", ErrValidation)
	}

	p, err := s.Repo.SaveApplication(ctx, userID, name, desc, cat, func(p *models.Profile) error {
		if p.Role != role.Customer {
			return fmt.Errorf("%w: only customers can apply", ErrConflict)
		}
		if st := p.VendorApplicationStatus; st != nil && *st == models.ApplicationPending {
			return fmt.Errorf("%w: application already pending", ErrConflict)
		}
		return nil
	})
	if err != nil {
		return nil, notFound(err, "profile")
	}
	return p, nil
}

func (s *ProfileService) ListApplications(ctx context.Context, status string, page, size int) ([]models.Profile, error) {
	switch status {
	case "", models.ApplicationPending, models.ApplicationApproved, models.ApplicationRejected:
	default:
		return nil, fmt.Errorf("%w: unknown application status %q", ErrValidation, status)
	}
	pg := util.Paginate(page, size)
	ps, err := s.Repo.ListApplications(ctx, status, pg.Size, pg.Offset())
	if err != nil {
		return nil, err
	}
	if ps == nil {
		ps = []models.Profile{}
	}
	return ps, nil
}

func (s *ProfileService) Decide(ctx context.Context, userID uuid.UUID, approve bool) (*models.Profile, *models.Vendor, error) {
	p, v, err := s.Repo.DecideApplication(ctx, userID, approve)
	if errors.Is(err, repo.ErrApplicationState) {
		return nil, nil, fmt.Errorf("%w: %w", ErrConflict, err)
	}
	if err != nil {
		return nil, nil, notFound(err, "profile")
	}
	return p, v, nil
}

func (s *ProfileService) SetRole(ctx context.Context, userID uuid.UUID, r string) error {
	parsed, err := role.Parse(r)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return notFound(s.Repo.SetRole(ctx, userID, parsed), "profile")
}

// Dashboard returns the landing path for the user's role.
func (s *ProfileService) Dashboard(ctx context.Context, userID uuid.UUID) (string, error) {
	r, err := s.Repo.RoleOf(ctx, userID)
	if err != nil {
		return "", notFound(err, "profile")
	}
	return role.DashboardPath(r)
}
