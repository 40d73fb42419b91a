package http

import (
	"context"

	"pricescope/internal/services"
)

// ReportServiceInterface defines the report operations used by ReportHandler
type ReportServiceInterface interface {
	GenerateForUser(ctx context.Context, req services.ReportRequest) (*services.ReportResult, error)
	Summary(ctx context.Context, req services.ReportRequest) (*services.ReportResult, error)
}
