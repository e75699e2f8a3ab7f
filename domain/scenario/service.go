package scenario

import (
	"context"
	"errors"
	"sort"
)

// Common errors for scenario operations.
var (
	ErrScenarioNotFound = errors.New("scenario not found")
)

// Service provides business logic for scenario management.
type Service struct {
	repo Repository
}

// NewService creates a new scenario service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GetScenario retrieves a scenario by name.
func (s *Service) GetScenario(ctx context.Context, name string) (*Scenario, error) {
	scn, err := s.repo.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if scn == nil {
		return nil, ErrScenarioNotFound
	}
	return scn, nil
}

// ListScenarios retrieves all scenarios, sorted by name for stable ordering.
func (s *Service) ListScenarios(ctx context.Context) ([]*Scenario, error) {
	scenarios, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	sort.Slice(scenarios, func(i, j int) bool {
		return scenarios[i].Name < scenarios[j].Name
	})

	return scenarios, nil
}

// SaveScenario validates and stores a scenario, inserting or updating as
// appropriate.
func (s *Service) SaveScenario(ctx context.Context, scn *Scenario) error {
	if err := scn.Validate(); err != nil {
		return err
	}

	existing, err := s.repo.FindByName(ctx, scn.Name)
	if err != nil {
		return err
	}
	if existing == nil {
		return s.repo.Insert(ctx, scn)
	}
	return s.repo.Update(ctx, scn)
}

// DeleteScenario removes a scenario.
func (s *Service) DeleteScenario(ctx context.Context, name string) error {
	return s.repo.Delete(ctx, name)
}
