package payrollconfig

import "context"

type ConfigRepository interface {
	ListEntries(ctx context.Context) ([]Entry, error)
	UpsertEntry(ctx context.Context, entry Entry) (Entry, error)
	ListAfpRates(ctx context.Context) ([]AfpRate, error)
	UpsertAfpRate(ctx context.Context, rate AfpRate) (AfpRate, error)
	// SeedDefaults inserts the given values and rates without overwriting
	// existing rows.
	SeedDefaults(ctx context.Context, entries []Entry, rates []AfpRate) error
}

// Provider supplies the configuration snapshot for a run.
type Provider interface {
	Load(ctx context.Context) (Snapshot, error)
}

type ConfigService interface {
	Provider
	ListEntries(ctx context.Context) ([]ConfigEntryResponse, error)
	UpdateEntry(ctx context.Context, req UpdateConfigValueRequest) (ConfigEntryResponse, error)
	ListAfpRates(ctx context.Context) ([]AfpRateResponse, error)
	UpsertAfpRate(ctx context.Context, req UpsertAfpRateRequest) (AfpRateResponse, error)
}
