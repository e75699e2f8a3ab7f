package scenario

import "context"

// Repository defines the interface for scenario persistence operations.
// This interface follows the Repository pattern to abstract data access.
type Repository interface {
	// FindByName retrieves a scenario by its unique name.
	// Returns nil if not found.
	FindByName(ctx context.Context, name string) (*Scenario, error)

	// FindAll retrieves all stored scenarios.
	FindAll(ctx context.Context) ([]*Scenario, error)

	// Insert creates a new scenario.
	Insert(ctx context.Context, scn *Scenario) error

	// Update replaces an existing scenario.
	Update(ctx context.Context, scn *Scenario) error

	// Delete removes a scenario by name.
	Delete(ctx context.Context, name string) error
}
