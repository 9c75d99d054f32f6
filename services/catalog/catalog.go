package catalog

import (
	"context"
	"errors"
	"strings"

	catalogRepo "servana/database/repository/catalog"
	"servana/models"
)

var ErrUnknownCategory = errors.New("category must be beauty, laundry or cleaning")

// CatalogService exposes the bookable service-type catalog.
type CatalogService interface {
	ListByCategory(ctx context.Context, category string) ([]models.ServiceType, error)
}

// DefaultCatalogService implements CatalogService.
type DefaultCatalogService struct {
	Catalog catalogRepo.CatalogRepository
}

func (s *DefaultCatalogService) ListByCategory(ctx context.Context, category string) ([]models.ServiceType, error) {
	kind := models.BookingType(strings.ToLower(strings.TrimSpace(category)))
	switch kind {
	case models.BookingTypeBeauty, models.BookingTypeLaundry, models.BookingTypeCleaning:
	default:
		return nil, ErrUnknownCategory
	}
	return s.Catalog.ListByCategory(ctx, kind)
}
