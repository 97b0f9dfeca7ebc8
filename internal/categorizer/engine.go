// Package categorizer assigns categories to uncategorized transactions with a
// priority-ordered, first-match rule engine, and seeds the default category
// and rule catalog.
package categorizer

import (
	"context"
	"fmt"

	"fjacquet/bank-ingest/internal/jobs"
	"fjacquet/bank-ingest/internal/logging"
	"fjacquet/bank-ingest/internal/models"

	"github.com/google/uuid"
)

// compiledRule is a rule whose category resolved and whose match value
// compiled.
type compiledRule struct {
	rule     models.Rule
	category models.Category
	matcher  matcher
}

// Plan is the outcome of one evaluation pass before anything is written.
type Plan struct {
	Assignments []models.CategoryAssignment
	// Examined is the number of uncategorized transactions evaluated.
	Examined int
	// Dropped counts rules that can never match: unresolved category,
	// invalid pattern or range.
	Dropped int
}

// Engine evaluates rules against a snapshot of rules, categories and
// uncategorized transactions taken at the start of a pass.
type Engine struct {
	repo   Repository
	logger logging.Logger
}

// NewEngine creates a rule engine.
func NewEngine(repo Repository, logger logging.Logger) *Engine {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Engine{repo: repo, logger: logger}
}

// Plan evaluates every uncategorized transaction of userID and returns the
// assignments the pass would make. Nothing is written.
func (e *Engine) Plan(ctx context.Context, userID string) (*Plan, error) {
	rules, err := e.repo.ListEnabledRules(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}
	categories, err := e.repo.ListVisibleCategories(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	txs, err := e.repo.FindUncategorized(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load uncategorized transactions: %w", err)
	}

	compiled, dropped := e.compile(rules, categories)
	plan := &Plan{Examined: len(txs), Dropped: dropped}
	if len(compiled) == 0 {
		return plan, nil
	}

	for _, tx := range txs {
		if tx.Categorized() {
			continue
		}
		subject := MatchSubject(tx)
		for _, cr := range compiled {
			if !cr.matcher.match(subject, tx.Amount) {
				continue
			}
			plan.Assignments = append(plan.Assignments, models.CategoryAssignment{
				TransactionID: tx.ID,
				CategoryID:    cr.category.ID,
				MarkTransfer:  cr.rule.MarkTransfer,
			})
			break
		}
	}
	return plan, nil
}

// compile resolves categories and prepares matchers, keeping rule order.
func (e *Engine) compile(rules []models.Rule, categories []models.Category) ([]compiledRule, int) {
	byID := make(map[uuid.UUID]models.Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}

	out := make([]compiledRule, 0, len(rules))
	dropped := 0
	for _, r := range rules {
		log := e.logger.WithFields(
			logging.F(logging.FieldRule, r.Name),
			logging.F(logging.FieldUserID, r.UserID))

		if r.CategoryID == nil {
			log.Debug("Skipping rule without category")
			dropped++
			continue
		}
		category, ok := byID[*r.CategoryID]
		if !ok {
			log.Warn("Skipping rule with unknown category", logging.F(logging.FieldCategory, r.CategoryID.String()))
			dropped++
			continue
		}
		m, err := compileMatcher(r.MatchType, r.MatchValue)
		if err != nil {
			log.WithError(err).Warn("Skipping invalid rule")
			dropped++
			continue
		}
		log.Debug("Compiled rule", logging.F("matcher", m.String()))
		out = append(out, compiledRule{rule: r, category: category, matcher: m})
	}
	return out, dropped
}

// ApplyRules categorizes the uncategorized transactions of userID. The first
// matching rule in priority order wins. Assignments are written in one batch
// and reference counts in a second one, counting only the rows actually
// updated. It returns the number of transactions updated.
func (e *Engine) ApplyRules(ctx context.Context, userID string) (int, error) {
	log := e.logger.WithField(logging.FieldUserID, userID)

	plan, err := e.Plan(ctx, userID)
	if err != nil {
		return 0, err
	}
	if len(plan.Assignments) == 0 {
		log.Debug("No transactions matched", logging.F(logging.FieldCount, plan.Examined))
		return 0, nil
	}

	applied, err := e.repo.BulkAssignCategory(ctx, plan.Assignments)
	if err != nil {
		return 0, fmt.Errorf("failed to assign categories: %w", err)
	}
	updated := len(applied)
	if deltas := countByCategory(applied); len(deltas) > 0 {
		if err := e.repo.IncrementReferenceCounts(ctx, deltas); err != nil {
			// counts are advisory, assignments are already committed
			log.WithError(err).Warn("Failed to update category reference counts")
		}
	}

	log.Info("Applied rules",
		logging.F(logging.FieldCount, updated),
		logging.F("examined", plan.Examined),
		logging.F(logging.FieldSkipped, plan.Dropped))
	return updated, nil
}

func countByCategory(assignments []models.CategoryAssignment) map[uuid.UUID]int {
	deltas := make(map[uuid.UUID]int)
	for _, a := range assignments {
		deltas[a.CategoryID]++
	}
	return deltas
}

// HandleJob is the jobs.Handler for apply_rules jobs.
func (e *Engine) HandleJob(ctx context.Context, job *jobs.Job) error {
	_, err := e.ApplyRules(ctx, job.UserID)
	return err
}
