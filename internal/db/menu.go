package db

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"aura/internal/models"
)

const menuColumns = `id, name, description, price_cents, discount_percent, category, image_url,
	is_available, is_vegetarian, is_vegan, is_gluten_free, allergens, sort_order, updated_at`

func scanMenuItem(sc interface{ Scan(...any) error }) (*models.MenuItem, error) {
	var (
		m        models.MenuItem
		price    int64
		category string
	)
	err := sc.Scan(&m.ID, &m.Name, &m.Description, &price, &m.DiscountPercent, &category, &m.ImageURL,
		&m.IsAvailable, &m.IsVegetarian, &m.IsVegan, &m.IsGlutenFree, &m.Allergens, &m.SortOrder, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	m.Price = models.Cents(price)
	m.Category = models.MenuCategory(category)
	return &m, nil
}

// ListMenuItems returns the menu ordered by category rank, sort order, name.
func (c conn) ListMenuItems(ctx context.Context, onlyAvailable bool) ([]models.MenuItem, error) {
	q := `SELECT ` + menuColumns + ` FROM menu_items`
	if onlyAvailable {
		q += ` WHERE is_available = ?`
	}
	var args []any
	if onlyAvailable {
		args = append(args, true)
	}

	rows, err := c.query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list menu: %w", err)
	}
	defer rows.Close()

	out := []models.MenuItem{}
	for rows.Next() {
		m, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(out, func(i, j int) bool {
		if ri, rj := out[i].Category.Rank(), out[j].Category.Rank(); ri != rj {
			return ri < rj
		}
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// GetMenuItems loads the given ids; unknown ids are absent from the result.
func (c conn) GetMenuItems(ctx context.Context, ids []int64) (map[int64]models.MenuItem, error) {
	out := make(map[int64]models.MenuItem, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := c.query(ctx, `SELECT `+menuColumns+` FROM menu_items WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("get menu items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		m, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		out[m.ID] = *m
	}
	return out, rows.Err()
}

// UpsertMenuItem inserts or updates the item with the same name.
func (c conn) UpsertMenuItem(ctx context.Context, m *models.MenuItem) error {
	m.UpdatedAt = nowUTC()
	err := c.queryRow(ctx, `
		INSERT INTO menu_items (name, description, price_cents, discount_percent, category, image_url,
			is_available, is_vegetarian, is_vegan, is_gluten_free, allergens, sort_order, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			description = excluded.description,
			price_cents = excluded.price_cents,
			discount_percent = excluded.discount_percent,
			category = excluded.category,
			image_url = excluded.image_url,
			is_available = excluded.is_available,
			is_vegetarian = excluded.is_vegetarian,
			is_vegan = excluded.is_vegan,
			is_gluten_free = excluded.is_gluten_free,
			allergens = excluded.allergens,
			sort_order = excluded.sort_order,
			updated_at = excluded.updated_at
		RETURNING id`,
		m.Name, m.Description, int64(m.Price), m.DiscountPercent, string(m.Category), m.ImageURL,
		m.IsAvailable, m.IsVegetarian, m.IsVegan, m.IsGlutenFree, m.Allergens, m.SortOrder, m.UpdatedAt,
	).Scan(&m.ID)
	if err != nil {
		return fmt.Errorf("upsert menu item %q: %w", m.Name, err)
	}
	return nil
}

// DisableMenuItemsExcept marks every item whose name is not in keep as
// unavailable and returns how many rows changed.
func (c conn) DisableMenuItemsExcept(ctx context.Context, keep []string) (int64, error) {
	q := `UPDATE menu_items SET is_available = ?, updated_at = ? WHERE is_available = ?`
	args := []any{false, nowUTC(), true}
	if len(keep) > 0 {
		q += ` AND name NOT IN (` + strings.TrimSuffix(strings.Repeat("?,", len(keep)), ",") + `)`
		for _, name := range keep {
			args = append(args, name)
		}
	}
	res, err := c.exec(ctx, q, args...)
	if err != nil {
		return 0, fmt.Errorf("disable menu items: %w", err)
	}
	return res.RowsAffected()
}
