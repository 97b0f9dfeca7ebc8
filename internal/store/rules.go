package store

import (
	"context"
	"fmt"

	"fjacquet/bank-ingest/internal/models"

	"github.com/google/uuid"
)

const ruleColumns = `id, user_id, name, priority, enabled, match_type, match_value,
	category_id, mark_transfer, created_at`

func scanRule(row rowScanner) (models.Rule, error) {
	var (
		r          models.Rule
		categoryID uuid.NullUUID
	)
	err := row.Scan(&r.ID, &r.UserID, &r.Name, &r.Priority, &r.Enabled, &r.MatchType,
		&r.MatchValue, &categoryID, &r.MarkTransfer, &r.CreatedAt)
	if err != nil {
		return r, err
	}
	if categoryID.Valid {
		id := categoryID.UUID
		r.CategoryID = &id
	}
	return r, nil
}

// ListEnabledRules returns the enabled rules userID can see in evaluation
// order: ascending priority, the user's own rule before a default one of
// equal priority, then insertion order (rowid). Ties inside one tier are
// therefore broken by insertion order, and the order is total for a pass.
func (s *Store) ListEnabledRules(ctx context.Context, userID string) ([]models.Rule, error) {
	owners := visibleOwners(userID)
	rows, err := s.q.QueryContext(ctx, `
	SELECT `+ruleColumns+` FROM rules
	WHERE enabled = 1 AND user_id IN (?, ?)
	ORDER BY priority, CASE WHEN user_id = ? THEN 0 ELSE 1 END, rowid`,
		owners[0], owners[1], userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	defer rows.Close()

	var out []models.Rule
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CreateRuleIfAbsent inserts r unless a rule with the same owner and name
// exists. It reports whether a row was created.
func (s *Store) CreateRuleIfAbsent(ctx context.Context, r *models.Rule) (bool, error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	r.CreatedAt = now()
	res, err := s.q.ExecContext(ctx, `
	INSERT INTO rules(`+ruleColumns+`)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT DO NOTHING;`,
		r.ID, r.UserID, r.Name, r.Priority, r.Enabled, r.MatchType, r.MatchValue,
		r.CategoryID, r.MarkTransfer, r.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("failed to create rule %q: %w", r.Name, err)
	}
	return rowsAffected(res) == 1, nil
}

// SetRuleEnabled enables or disables a rule.
func (s *Store) SetRuleEnabled(ctx context.Context, id uuid.UUID, enabled bool) error {
	res, err := s.q.ExecContext(ctx, `UPDATE rules SET enabled = ? WHERE id = ?`, enabled, id)
	if err != nil {
		return fmt.Errorf("failed to update rule %s: %w", id, err)
	}
	if rowsAffected(res) == 0 {
		return ErrNotFound
	}
	return nil
}
