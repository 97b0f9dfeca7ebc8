package categorizer

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"fjacquet/bank-ingest/internal/logging"
	"fjacquet/bank-ingest/internal/models"
	"fjacquet/bank-ingest/internal/parsererror"
	"fjacquet/bank-ingest/internal/validation"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultCatalogYAML []byte

// seedNamespace scopes the deterministic ids of seeded rows.
var seedNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("bank-ingest/seed"))

// CatalogCategory is one category of the seed catalog.
type CatalogCategory struct {
	Name string              `yaml:"name"`
	Type models.CategoryType `yaml:"type"`
}

// CatalogRule is one rule of the seed catalog. Priority defaults to the
// rule's 1-based position when zero.
type CatalogRule struct {
	Name         string           `yaml:"name"`
	Priority     int              `yaml:"priority,omitempty"`
	MatchType    models.MatchType `yaml:"match_type"`
	MatchValue   string           `yaml:"match_value"`
	Category     string           `yaml:"category"`
	MarkTransfer bool             `yaml:"mark_transfer,omitempty"`
}

// Catalog is the set of categories and rules created for a new user.
type Catalog struct {
	Categories []CatalogCategory `yaml:"categories"`
	Rules      []CatalogRule     `yaml:"rules"`
}

// DefaultCatalog returns the embedded catalog.
func DefaultCatalog() (*Catalog, error) {
	return LoadCatalog(defaultCatalogYAML)
}

// LoadCatalogFile reads and validates a catalog from a YAML file.
func LoadCatalogFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from the operator
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return LoadCatalog(data)
}

// LoadCatalog parses and validates a YAML catalog.
func LoadCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	for i := range c.Rules {
		if c.Rules[i].Priority == 0 {
			c.Rules[i].Priority = i + 1
		}
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks names are unique and every rule compiles and targets a
// catalog category.
func (c *Catalog) Validate() error {
	categories := make(map[string]bool, len(c.Categories))
	for _, cat := range c.Categories {
		if cat.Name == "" {
			return &parsererror.ValidationError{Field: "category name", Reason: "must not be empty"}
		}
		if categories[cat.Name] {
			return &parsererror.ValidationError{Field: "category name", Value: cat.Name, Reason: "duplicate"}
		}
		switch cat.Type {
		case models.CategoryIncome, models.CategoryExpense, models.CategoryTransfer:
		default:
			return &parsererror.ValidationError{Field: "category type", Value: string(cat.Type), Reason: "must be income, expense or transfer"}
		}
		categories[cat.Name] = true
	}

	rules := make(map[string]bool, len(c.Rules))
	for _, r := range c.Rules {
		if r.Name == "" {
			return &parsererror.ValidationError{Field: "rule name", Reason: "must not be empty"}
		}
		if rules[r.Name] {
			return &parsererror.ValidationError{Field: "rule name", Value: r.Name, Reason: "duplicate"}
		}
		if !categories[r.Category] {
			return &parsererror.ValidationError{Field: "rule category", Value: r.Category, Reason: "not in catalog"}
		}
		if _, err := compileMatcher(r.MatchType, r.MatchValue); err != nil {
			return fmt.Errorf("rule %q: %w", r.Name, err)
		}
		rules[r.Name] = true
	}
	return nil
}

// SeedResult reports how many rows a seeding run created.
type SeedResult struct {
	CategoriesCreated int
	RulesCreated      int
}

// Seeder creates the catalog for a user. Running it again only fills in
// what is missing.
type Seeder struct {
	store   CatalogStore
	catalog *Catalog
	logger  logging.Logger
}

// NewSeeder creates a Seeder for catalog.
func NewSeeder(store CatalogStore, catalog *Catalog, logger logging.Logger) *Seeder {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Seeder{store: store, catalog: catalog, logger: logger}
}

// SeedDefaults creates every catalog category and rule for userID that does
// not exist yet, keyed by owner and name.
func (s *Seeder) SeedDefaults(ctx context.Context, userID string) (SeedResult, error) {
	var res SeedResult
	if err := validation.ValidateUserID(userID); err != nil {
		return res, err
	}
	log := s.logger.WithField(logging.FieldUserID, userID)

	ids := make(map[string]uuid.UUID, len(s.catalog.Categories))
	for _, cc := range s.catalog.Categories {
		cat := models.Category{
			ID:     seedID(userID, "category", cc.Name),
			UserID: userID,
			Name:   cc.Name,
			Type:   cc.Type,
		}
		created, err := s.store.CreateCategoryIfAbsent(ctx, &cat)
		if err != nil {
			return res, err
		}
		if created {
			res.CategoriesCreated++
		}
		ids[cc.Name] = cat.ID
	}

	for _, cr := range s.catalog.Rules {
		categoryID := ids[cr.Category]
		rule := models.Rule{
			ID:           seedID(userID, "rule", cr.Name),
			UserID:       userID,
			Name:         cr.Name,
			Priority:     cr.Priority,
			Enabled:      true,
			MatchType:    cr.MatchType,
			MatchValue:   cr.MatchValue,
			CategoryID:   &categoryID,
			MarkTransfer: cr.MarkTransfer,
		}
		created, err := s.store.CreateRuleIfAbsent(ctx, &rule)
		if err != nil {
			return res, err
		}
		if created {
			res.RulesCreated++
		}
	}

	log.Info("Seeded default catalog",
		logging.F("categories_created", res.CategoriesCreated),
		logging.F("rules_created", res.RulesCreated))
	return res, nil
}

func seedID(userID, kind, name string) uuid.UUID {
	return uuid.NewSHA1(seedNamespace, []byte(userID+"/"+kind+"/"+name))
}
