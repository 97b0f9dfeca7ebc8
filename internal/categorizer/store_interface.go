package categorizer

import (
	"context"

	"fjacquet/bank-ingest/internal/models"

	"github.com/google/uuid"
)

// Repository is the persistence the rule engine needs. Rules and categories
// returned for a user include the default tenant's.
type Repository interface {
	ListEnabledRules(ctx context.Context, userID string) ([]models.Rule, error)
	ListVisibleCategories(ctx context.Context, userID string) ([]models.Category, error)
	FindUncategorized(ctx context.Context, userID string) ([]models.Transaction, error)
	BulkAssignCategory(ctx context.Context, assignments []models.CategoryAssignment) ([]models.CategoryAssignment, error)
	IncrementReferenceCounts(ctx context.Context, deltas map[uuid.UUID]int) error
}

// CatalogStore is the persistence the seeder needs.
type CatalogStore interface {
	CreateCategoryIfAbsent(ctx context.Context, c *models.Category) (bool, error)
	CreateRuleIfAbsent(ctx context.Context, r *models.Rule) (bool, error)
}
