package storage

import (
	"context"

	"github.com/cloudspend/multicloud-cost-advisor/pkg/models"
)

// Store defines the interface for persisting runs and recommendations.
type Store interface {
	SaveReport(ctx context.Context, report *models.Report) error
	GetReport(ctx context.Context, id string) (*models.Report, error)

	SaveRecommendation(ctx context.Context, reportID string, rec *models.Recommendation) error
	ListRecommendations(ctx context.Context, resourceID string, limit int) ([]models.Recommendation, error)

	Ping(ctx context.Context) error
	Close() error
}
