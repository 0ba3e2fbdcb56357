package http

import (
	"context"

	"salespulse/internal/dataprocessing"
	"salespulse/internal/pipeline"
	"salespulse/internal/services"
	"salespulse/pkg/contracts/domain"
)

// ReportServiceInterface defines the report operations the API serves
type ReportServiceInterface interface {
	Run(ctx context.Context) (*pipeline.RunResult, error)
	LatestRun() (*pipeline.RunResult, error)
	Normalized(limit, offset int) (*services.Page, error)
	Classification() (*dataprocessing.ClassificationResult, error)
	TierSummary() ([]domain.TierSummary, error)
	Reports() (*dataprocessing.Reports, error)
	Movers(n int) (domain.Movers, error)
}
