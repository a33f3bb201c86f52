package service

import (
	"context"

	"predex/internal/models"
	"predex/internal/repository"
)

// PositionService exposes read access to aggregate exposure. Shares
// only change through fills and settlement.
type PositionService struct {
	Repo repository.Repository
}

func (s *PositionService) Get(ctx context.Context, userID, marketID uint64) (*models.Position, error) {
	position, err := s.Repo.GetPosition(ctx, userID, marketID)
	if err != nil {
		return nil, err
	}
	if position == nil {
		// No fills yet: report a zero position rather than an error.
		return &models.Position{UserID: userID, MarketID: marketID}, nil
	}
	return position, nil
}

func (s *PositionService) ListByUser(ctx context.Context, userID uint64) ([]models.Position, error) {
	return s.Repo.ListPositionsByUser(ctx, userID)
}
