package payroll

import "errors"

var (
	ErrAdjustmentNotFound  = errors.New("payroll adjustment not found")
	ErrCascadeNotSupported = errors.New("cascade is only supported for the worker regime")
	ErrMalformedPerson     = errors.New("person record cannot be calculated")
	ErrInvalidExportFormat = errors.New("invalid export format, must be 'json' or 'csv'")
)
