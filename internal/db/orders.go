package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"aura/internal/models"
)

const orderColumns = `id, user_id, customer_name, phone, delivery_address, notes, admin_notes,
	status, total_cents, created_at, updated_at`

func scanOrder(sc interface{ Scan(...any) error }) (*models.Order, error) {
	var (
		o      models.Order
		userID sql.NullInt64
		status string
		total  int64
	)
	err := sc.Scan(&o.ID, &userID, &o.CustomerName, &o.Phone, &o.DeliveryAddress, &o.Notes, &o.AdminNotes,
		&status, &total, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if userID.Valid {
		id := userID.Int64
		o.UserID = &id
	}
	o.Status = models.OrderStatus(status)
	o.Total = models.Cents(total)
	o.Items = []models.OrderItem{}
	return &o, nil
}

// InsertOrder stores o and its items. Call it inside WithTx so the order and
// items land together.
func (c conn) InsertOrder(ctx context.Context, o *models.Order) error {
	now := nowUTC()
	o.CreatedAt, o.UpdatedAt = now, now

	err := c.queryRow(ctx, `
		INSERT INTO orders (user_id, customer_name, phone, delivery_address, notes, admin_notes,
			status, total_cents, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		nullInt64(o.UserID), o.CustomerName, o.Phone, o.DeliveryAddress, o.Notes, o.AdminNotes,
		string(o.Status), int64(o.Total), o.CreatedAt, o.UpdatedAt,
	).Scan(&o.ID)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i := range o.Items {
		item := &o.Items[i]
		item.OrderID = o.ID
		err := c.queryRow(ctx, `
			INSERT INTO order_items (order_id, menu_item_id, name, unit_price_cents, quantity, notes)
			VALUES (?, ?, ?, ?, ?, ?)
			RETURNING id`,
			o.ID, item.MenuItemID, item.Name, int64(item.UnitPrice), item.Quantity, item.Notes,
		).Scan(&item.ID)
		if err != nil {
			return fmt.Errorf("insert order item %d: %w", item.MenuItemID, err)
		}
	}
	return nil
}

func (c conn) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	o, err := scanOrder(c.queryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("order %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get order %d: %w", id, err)
	}
	items, err := c.orderItems(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	o.Items = append(o.Items, items[id]...)
	return o, nil
}

func (c conn) orderItems(ctx context.Context, orderIDs []int64) (map[int64][]models.OrderItem, error) {
	out := make(map[int64][]models.OrderItem)
	if len(orderIDs) == 0 {
		return out, nil
	}
	args := make([]any, len(orderIDs))
	for i, id := range orderIDs {
		args[i] = id
	}
	rows, err := c.query(ctx, `
		SELECT id, order_id, menu_item_id, name, unit_price_cents, quantity, notes
		FROM order_items
		WHERE order_id IN (`+strings.TrimSuffix(strings.Repeat("?,", len(orderIDs)), ",")+`)
		ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			item  models.OrderItem
			price int64
		)
		if err := rows.Scan(&item.ID, &item.OrderID, &item.MenuItemID, &item.Name, &price, &item.Quantity, &item.Notes); err != nil {
			return nil, err
		}
		item.UnitPrice = models.Cents(price)
		out[item.OrderID] = append(out[item.OrderID], item)
	}
	return out, rows.Err()
}

// OrderFilter narrows ListOrders. Zero fields do not filter.
type OrderFilter struct {
	UserID int64
	Status models.OrderStatus
}

// ListOrders returns orders newest first, each with its items.
func (c conn) ListOrders(ctx context.Context, f OrderFilter) ([]models.Order, error) {
	var (
		where []string
		args  []any
	)
	if f.UserID != 0 {
		where = append(where, "user_id = ?")
		args = append(args, f.UserID)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	}
	q := `SELECT ` + orderColumns + ` FROM orders`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY created_at DESC, id DESC`

	rows, err := c.query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	out := []models.Order{}
	var ids []int64
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, *o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	items, err := c.orderItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Items = append(out[i].Items, items[out[i].ID]...)
	}
	return out, nil
}

// UpdateOrder writes the admin-editable fields of o.
func (c conn) UpdateOrder(ctx context.Context, o *models.Order) error {
	o.UpdatedAt = nowUTC()
	res, err := c.exec(ctx, `UPDATE orders SET status = ?, admin_notes = ?, updated_at = ? WHERE id = ?`,
		string(o.Status), o.AdminNotes, o.UpdatedAt, o.ID)
	if err != nil {
		return fmt.Errorf("update order %d: %w", o.ID, err)
	}
	if err := rowsAffectedOrNotFound(res); err != nil {
		return fmt.Errorf("order %d: %w", o.ID, err)
	}
	return nil
}

func (c conn) DeleteOrder(ctx context.Context, id int64) error {
	// Items are removed explicitly so the delete also holds where foreign
	// keys are not enforced.
	if _, err := c.exec(ctx, `DELETE FROM order_items WHERE order_id = ?`, id); err != nil {
		return fmt.Errorf("delete order %d items: %w", id, err)
	}
	res, err := c.exec(ctx, `DELETE FROM orders WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete order %d: %w", id, err)
	}
	if err := rowsAffectedOrNotFound(res); err != nil {
		return fmt.Errorf("order %d: %w", id, err)
	}
	return nil
}
