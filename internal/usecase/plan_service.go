package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"kotvukai/internal/domain"
	"kotvukai/internal/logger"
)

// PlanService seeds and serves subscription plans from system settings
type PlanService struct {
	settings domain.SettingsRepository
}

func NewPlanService(settings domain.SettingsRepository) *PlanService {
	return &PlanService{settings: settings}
}

// Seed writes the default plans, replacing stored ones
func (s *PlanService) Seed(ctx context.Context) error {
	for _, p := range domain.DefaultPlans {
		b, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("failed to marshal plan %s: %w", p.Name, err)
		}
		if err := s.settings.Set(ctx, domain.PlanSettingPrefix+p.Name, string(b)); err != nil {
			return fmt.Errorf("failed to seed plan %s: %w", p.Name, err)
		}
	}
	logger.Info(ctx, "Subscription plans seeded", "count", len(domain.DefaultPlans))
	return nil
}

// List returns stored plans, default tiers first in their usual order
func (s *PlanService) List(ctx context.Context) ([]domain.Plan, error) {
	raw, err := s.settings.List(ctx, domain.PlanSettingPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}

	plans := make([]domain.Plan, 0, len(raw))
	for key, value := range raw {
		var p domain.Plan
		if err := json.Unmarshal([]byte(value), &p); err != nil {
			logger.Warn(ctx, "Skipping malformed plan setting", "key", key, "error", err)
			continue
		}
		plans = append(plans, p)
	}

	slices.SortFunc(plans, func(a, b domain.Plan) int {
		ra, rb := planRank(a.Name), planRank(b.Name)
		if ra != rb {
			return ra - rb
		}
		return strings.Compare(a.Name, b.Name)
	})
	return plans, nil
}

// Get returns one plan by name
func (s *PlanService) Get(ctx context.Context, name string) (*domain.Plan, error) {
	value, err := s.settings.Get(ctx, domain.PlanSettingPrefix+name)
	if err != nil {
		return nil, err
	}
	var p domain.Plan
	if err := json.Unmarshal([]byte(value), &p); err != nil {
		return nil, fmt.Errorf("%w: plan %s: %v", domain.ErrMalformedPayload, name, err)
	}
	return &p, nil
}

func planRank(name string) int {
	for i, p := range domain.DefaultPlans {
		if p.Name == name {
			return i
		}
	}
	return len(domain.DefaultPlans)
}
