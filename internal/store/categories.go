package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"fjacquet/bank-ingest/internal/models"

	"github.com/google/uuid"
)

const categoryColumns = `id, user_id, name, type, reference_count, created_at`

func scanCategory(row rowScanner) (models.Category, error) {
	var c models.Category
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Type, &c.ReferenceCount, &c.CreatedAt)
	return c, err
}

// ListVisibleCategories returns the categories userID can see: its own,
// then the default tenant's, each tier ordered by name.
func (s *Store) ListVisibleCategories(ctx context.Context, userID string) ([]models.Category, error) {
	owners := visibleOwners(userID)
	rows, err := s.q.QueryContext(ctx, `
	SELECT `+categoryColumns+` FROM categories
	WHERE user_id IN (?, ?)
	ORDER BY CASE WHEN user_id = ? THEN 0 ELSE 1 END, name`,
		owners[0], owners[1], userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var out []models.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetCategory returns one category or ErrNotFound.
func (s *Store) GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	c, err := scanCategory(s.q.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category %s: %w", id, err)
	}
	return &c, nil
}

// GetCategoryByName resolves name for userID, preferring the user's own
// category over the default tenant's.
func (s *Store) GetCategoryByName(ctx context.Context, userID, name string) (*models.Category, error) {
	owners := visibleOwners(userID)
	c, err := scanCategory(s.q.QueryRowContext(ctx, `
	SELECT `+categoryColumns+` FROM categories
	WHERE user_id IN (?, ?) AND name = ?
	ORDER BY CASE WHEN user_id = ? THEN 0 ELSE 1 END
	LIMIT 1`, owners[0], owners[1], name, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category %q: %w", name, err)
	}
	return &c, nil
}

// CreateCategoryIfAbsent inserts c unless a category with the same owner and
// name exists. In both cases c.ID ends up holding the stored id. It reports
// whether a row was created.
func (s *Store) CreateCategoryIfAbsent(ctx context.Context, c *models.Category) (bool, error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = now()
	res, err := s.q.ExecContext(ctx, `
	INSERT INTO categories(`+categoryColumns+`)
	VALUES(?, ?, ?, ?, ?, ?)
	ON CONFLICT DO NOTHING;`,
		c.ID, c.UserID, c.Name, c.Type, c.ReferenceCount, c.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("failed to create category %q: %w", c.Name, err)
	}
	if rowsAffected(res) == 1 {
		return true, nil
	}

	existing, err := scanCategory(s.q.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE user_id = ? AND name = ?`, c.UserID, c.Name))
	if err != nil {
		return false, fmt.Errorf("failed to load category %q: %w", c.Name, err)
	}
	*c = existing
	return false, nil
}

// IncrementReferenceCounts adds each delta to its category's reference count
// in one transaction. The increment is done in SQL, so concurrent passes add
// up instead of overwriting each other.
func (s *Store) IncrementReferenceCounts(ctx context.Context, deltas map[uuid.UUID]int) error {
	if len(deltas) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(deltas))
	for id := range deltas {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	return s.WithTx(ctx, func(tx *Store) error {
		for _, id := range ids {
			if _, err := tx.q.ExecContext(ctx,
				`UPDATE categories SET reference_count = reference_count + ? WHERE id = ?`,
				deltas[id], id); err != nil {
				return fmt.Errorf("failed to update reference count of %s: %w", id, err)
			}
		}
		return nil
	})
}
