package payrollconfig

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/obraplan/payroll-backend-go/internal/domain/payrollconfig"
	"github.com/obraplan/payroll-backend-go/internal/domain/person"
	"golang.org/x/sync/errgroup"
)

// ChangeListener is told when configuration values change, so results
// computed from an older snapshot can be dropped.
type ChangeListener interface {
	ConfigChanged()
}

type ConfigServiceImpl struct {
	repo      payrollconfig.ConfigRepository
	listeners []ChangeListener
}

func NewConfigService(repo payrollconfig.ConfigRepository, listeners ...ChangeListener) payrollconfig.ConfigService {
	return &ConfigServiceImpl{repo: repo, listeners: listeners}
}

// Load implements payrollconfig.Provider. It reads the store on every call so
// each run sees the current values.
func (s *ConfigServiceImpl) Load(ctx context.Context) (payrollconfig.Snapshot, error) {
	var entries []payrollconfig.Entry
	var rates []payrollconfig.AfpRate

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		entries, err = s.repo.ListEntries(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		rates, err = s.repo.ListAfpRates(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return payrollconfig.Snapshot{}, fmt.Errorf("failed to load payroll configuration: %w", err)
	}

	return payrollconfig.Snapshot{
		Config:   foldKeys(entries),
		AfpRates: rates,
		LoadedAt: time.Now().UTC(),
	}, nil
}

// foldKeys upper-cases the entry keys. When several rows fold to the same key
// the row already written in upper case wins; otherwise the lexically
// smallest original key wins, whatever order the rows arrived in.
func foldKeys(entries []payrollconfig.Entry) payrollconfig.Configuration {
	cfg := make(payrollconfig.Configuration, len(entries))
	source := make(map[string]string, len(entries))
	for _, e := range entries {
		key := strings.ToUpper(e.Key)
		if prev, seen := source[key]; seen && !preferKey(e.Key, prev, key) {
			continue
		}
		cfg[key] = e.Value
		source[key] = e.Key
	}
	return cfg
}

func preferKey(candidate, current, folded string) bool {
	if current == folded {
		return false
	}
	if candidate == folded {
		return true
	}
	return candidate < current
}

// ListEntries implements payrollconfig.ConfigService.
func (s *ConfigServiceImpl) ListEntries(ctx context.Context) ([]payrollconfig.ConfigEntryResponse, error) {
	entries, err := s.repo.ListEntries(ctx)
	if err != nil {
		return nil, err
	}

	resp := make([]payrollconfig.ConfigEntryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, toEntryResponse(e))
	}
	return resp, nil
}

// UpdateEntry implements payrollconfig.ConfigService. Unknown keys are
// created, which is how new category rates are introduced.
func (s *ConfigServiceImpl) UpdateEntry(ctx context.Context, req payrollconfig.UpdateConfigValueRequest) (payrollconfig.ConfigEntryResponse, error) {
	req.Key = strings.ToUpper(strings.TrimSpace(req.Key))
	if err := req.Validate(); err != nil {
		return payrollconfig.ConfigEntryResponse{}, err
	}

	saved, err := s.repo.UpsertEntry(ctx, payrollconfig.Entry{
		Key:         req.Key,
		Value:       req.Value,
		Description: req.Description,
	})
	if err != nil {
		return payrollconfig.ConfigEntryResponse{}, err
	}

	slog.Info("Payroll configuration updated", "key", saved.Key, "value", saved.Value.String())
	s.notify()
	return toEntryResponse(saved), nil
}

// ListAfpRates implements payrollconfig.ConfigService.
func (s *ConfigServiceImpl) ListAfpRates(ctx context.Context) ([]payrollconfig.AfpRateResponse, error) {
	rates, err := s.repo.ListAfpRates(ctx)
	if err != nil {
		return nil, err
	}

	resp := make([]payrollconfig.AfpRateResponse, 0, len(rates))
	for _, r := range rates {
		resp = append(resp, toAfpRateResponse(r))
	}
	return resp, nil
}

// UpsertAfpRate implements payrollconfig.ConfigService.
func (s *ConfigServiceImpl) UpsertAfpRate(ctx context.Context, req payrollconfig.UpsertAfpRateRequest) (payrollconfig.AfpRateResponse, error) {
	req.Provider = strings.ToUpper(strings.TrimSpace(req.Provider))
	req.Name = strings.TrimSpace(req.Name)
	if err := req.Validate(); err != nil {
		return payrollconfig.AfpRateResponse{}, err
	}

	saved, err := s.repo.UpsertAfpRate(ctx, payrollconfig.AfpRate{
		Provider:          person.AfpProvider(req.Provider),
		Name:              req.Name,
		AporteObligatorio: req.AporteObligatorio,
		PrimaSeguro:       req.PrimaSeguro,
		ComisionFlujo:     req.ComisionFlujo,
		ComisionMixta:     req.ComisionMixta,
	})
	if err != nil {
		return payrollconfig.AfpRateResponse{}, err
	}

	slog.Info("AFP rate updated", "provider", saved.Provider, "name", saved.Name)
	s.notify()
	return toAfpRateResponse(saved), nil
}

// Seed inserts the given defaults without overwriting existing values.
func Seed(ctx context.Context, repo payrollconfig.ConfigRepository, entries []payrollconfig.Entry, rates []payrollconfig.AfpRate) error {
	if err := repo.SeedDefaults(ctx, entries, rates); err != nil {
		return fmt.Errorf("failed to seed payroll defaults: %w", err)
	}
	slog.Info("Seeded payroll defaults", "config_entries", len(entries), "afp_rates", len(rates))
	return nil
}

func (s *ConfigServiceImpl) notify() {
	for _, l := range s.listeners {
		l.ConfigChanged()
	}
}

func toEntryResponse(e payrollconfig.Entry) payrollconfig.ConfigEntryResponse {
	return payrollconfig.ConfigEntryResponse{
		Key:         e.Key,
		Value:       e.Value,
		Description: e.Description,
		UpdatedAt:   formatTime(e.UpdatedAt),
	}
}

func toAfpRateResponse(r payrollconfig.AfpRate) payrollconfig.AfpRateResponse {
	return payrollconfig.AfpRateResponse{
		Provider:          string(r.Provider),
		Name:              r.Name,
		AporteObligatorio: r.AporteObligatorio,
		PrimaSeguro:       r.PrimaSeguro,
		ComisionFlujo:     r.ComisionFlujo,
		ComisionMixta:     r.ComisionMixta,
		UpdatedAt:         formatTime(r.UpdatedAt),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
