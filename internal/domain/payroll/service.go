package payroll

import (
	"context"
	"io"
)

type PayrollService interface {
	ComputeRun(ctx context.Context, req RunRequest) (Run, error)
	ComputeFullExport(ctx context.Context, req ExportRequest) (Run, error)
	WriteExportCSV(ctx context.Context, req ExportRequest, w io.Writer) error
	GetPayslip(ctx context.Context, req PersonPeriodRequest) (CalculationResult, error)

	GetAdjustment(ctx context.Context, req PersonPeriodRequest) (AdjustmentResponse, error)
	SaveAdjustment(ctx context.Context, req SaveAdjustmentRequest) (AdjustmentResponse, error)
	DeleteAdjustment(ctx context.Context, req PersonPeriodRequest) error
}
