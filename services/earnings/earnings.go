package earnings

import (
	"context"
	"math"

	earningRepo "servana/database/repository/earning"
	"servana/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SpecialistShare is the fraction of the service total paid out to the
// specialist. The platform keeps the remainder plus the booking fee.
const SpecialistShare = 0.90

// EarningsService records specialist payouts.
type EarningsService interface {
	ProcessCompletion(ctx context.Context, specialistID, resourceID, resourceType string, serviceTotal float64) error
	ListBySpecialist(ctx context.Context, specialistID string) ([]models.Earning, error)
}

// DefaultEarningsService implements EarningsService. Idempotent per
// resource: the repository's unique index swallows a second completion.
type DefaultEarningsService struct {
	Earnings earningRepo.EarningRepository
	Logger   *zap.Logger
}

func (s *DefaultEarningsService) ProcessCompletion(ctx context.Context, specialistID, resourceID, resourceType string, serviceTotal float64) error {
	if specialistID == "" {
		s.Logger.Warn("completion without assigned specialist, no earning recorded",
			zap.String("resourceId", resourceID))
		return nil
	}
	amount := math.Round(serviceTotal*SpecialistShare*100) / 100
	return s.Earnings.Create(ctx, &models.Earning{
		ID:           uuid.NewString(),
		SpecialistID: specialistID,
		ResourceID:   resourceID,
		ResourceType: resourceType,
		Amount:       amount,
	})
}

func (s *DefaultEarningsService) ListBySpecialist(ctx context.Context, specialistID string) ([]models.Earning, error) {
	return s.Earnings.ListBySpecialist(ctx, specialistID)
}
