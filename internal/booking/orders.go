package booking

import (
	"context"
	"fmt"
	"strings"

	"aura/internal/db"
	"aura/internal/events"
	"aura/internal/metrics"
	"aura/internal/models"
)

type OrderLine struct {
	MenuItemID int64
	Quantity   int
	Notes      string
}

// OrderRequest is a delivery order. Signed-in users may omit name and phone;
// the session values are used instead.
type OrderRequest struct {
	Items           []OrderLine
	CustomerName    string
	Phone           string
	DeliveryAddress string
	Notes           string
}

func validateOrder(actor *Actor, req *OrderRequest) error {
	var verr ValidationError

	req.CustomerName = strings.TrimSpace(req.CustomerName)
	req.Phone = strings.TrimSpace(req.Phone)
	req.DeliveryAddress = strings.TrimSpace(req.DeliveryAddress)
	req.Notes = strings.TrimSpace(req.Notes)
	if actor != nil {
		if req.CustomerName == "" {
			req.CustomerName = actor.Name
		}
		if req.Phone == "" {
			req.Phone = actor.Phone
		}
	}

	if len(req.Items) == 0 {
		verr.add("items", "cart is empty")
	}
	for i, line := range req.Items {
		if line.MenuItemID <= 0 {
			verr.add(fmt.Sprintf("items[%d].menuItemId", i), "is required")
		}
		if line.Quantity < 1 {
			verr.add(fmt.Sprintf("items[%d].quantity", i), "must be at least 1")
		}
	}
	if actor == nil {
		if req.CustomerName == "" {
			verr.add("customerName", "is required")
		}
		if req.Phone == "" {
			verr.add("phone", "is required")
		}
	}
	if req.DeliveryAddress == "" {
		verr.add("deliveryAddress", "is required")
	}
	return verr.orNil()
}

// CreateOrder places an order for actor, or a guest order when actor is nil.
// Menu names and prices are copied into the order lines so later menu edits
// do not change placed orders.
func (s *Service) CreateOrder(ctx context.Context, actor *Actor, req OrderRequest) (*models.Order, error) {
	if actor != nil && actor.IsAdmin {
		return nil, ErrForbidden
	}
	if err := validateOrder(actor, &req); err != nil {
		return nil, err
	}

	o := &models.Order{
		CustomerName:    req.CustomerName,
		Phone:           req.Phone,
		DeliveryAddress: req.DeliveryAddress,
		Notes:           req.Notes,
		Status:          models.OrderPending,
	}
	kind, entry := "guest", &models.ActivityLog{Type: models.ActivityOrderCreated, UserName: models.DisplayName(req.CustomerName)}
	if actor != nil {
		kind = "user"
		o.UserID = actorID(*actor)
		entry.UserID = actorID(*actor)
		entry.UserEmail = actor.Email
	}

	err := s.store.WithTx(ctx, func(tx *db.Tx) error {
		ids := make([]int64, 0, len(req.Items))
		for _, line := range req.Items {
			ids = append(ids, line.MenuItemID)
		}
		menu, err := tx.GetMenuItems(ctx, ids)
		if err != nil {
			return err
		}

		var verr ValidationError
		o.Items = o.Items[:0]
		o.Total = 0
		for i, line := range req.Items {
			item, ok := menu[line.MenuItemID]
			if !ok || !item.IsAvailable {
				verr.add(fmt.Sprintf("items[%d].menuItemId", i), fmt.Sprintf("menu item %d is not available", line.MenuItemID))
				continue
			}
			oi := models.OrderItem{
				MenuItemID: item.ID,
				Name:       item.Name,
				UnitPrice:  item.EffectivePrice(),
				Quantity:   line.Quantity,
				Notes:      strings.TrimSpace(line.Notes),
			}
			o.Items = append(o.Items, oi)
			o.Total += oi.LineTotal()
		}
		if err := verr.orNil(); err != nil {
			return err
		}

		if err := tx.InsertOrder(ctx, o); err != nil {
			return err
		}
		entry.Description = fmt.Sprintf("New %s order: %d items, total %s", kind, len(o.Items), o.Total)
		entry.RelatedID = &o.ID
		return tx.InsertActivity(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	metrics.IncOrderCreated(kind)
	s.logger.Info().
		Int64("order_id", o.ID).
		Str("kind", kind).
		Int("items", len(o.Items)).
		Int64("total_cents", int64(o.Total)).
		Msg("Order created")
	s.publish(ctx, events.Event{Type: events.OrderCreated, Actor: o.CustomerName, Order: o})
	return o, nil
}

// OrderUpdate is a partial admin edit; nil fields are left untouched.
type OrderUpdate struct {
	Status     *string
	AdminNotes *string
}

func (s *Service) UpdateOrder(ctx context.Context, actor Actor, id int64, upd OrderUpdate) (*models.Order, error) {
	if !actor.IsAdmin {
		return nil, ErrForbidden
	}
	var next models.OrderStatus
	if upd.Status != nil {
		st, err := models.ParseOrderStatus(*upd.Status)
		if err != nil {
			return nil, &ValidationError{Fields: map[string]string{
				"status": "must be one of Pending, Confirmed, Preparing, OutForDelivery, Delivered, Cancelled",
			}}
		}
		next = st
	}

	var (
		o    *models.Order
		prev models.OrderStatus
	)
	err := s.store.WithTx(ctx, func(tx *db.Tx) error {
		var err error
		if o, err = tx.GetOrder(ctx, id); err != nil {
			return mapNotFound(err)
		}
		prev = o.Status
		if upd.Status != nil {
			if !prev.CanTransitionTo(next) {
				return fmt.Errorf("%w: order %d from %s to %s", ErrInvalidTransition, id, prev, next)
			}
			o.Status = next
		}
		if upd.AdminNotes != nil {
			o.AdminNotes = *upd.AdminNotes
		}
		if err := tx.UpdateOrder(ctx, o); err != nil {
			return mapNotFound(err)
		}

		entry := &models.ActivityLog{
			Type:        models.ActivityOrderUpdated,
			UserID:      actorID(actor),
			UserName:    models.DisplayName(actor.Name),
			UserEmail:   actor.Email,
			Description: fmt.Sprintf("Order #%d updated: %s -> %s", o.ID, prev, o.Status),
			RelatedID:   &o.ID,
		}
		if o.Status == models.OrderCancelled && prev != models.OrderCancelled {
			entry.Type = models.ActivityOrderCancelled
			entry.Description = fmt.Sprintf("Order #%d cancelled", o.ID)
		}
		return tx.InsertActivity(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("order_id", o.ID).
		Str("from", string(prev)).
		Str("to", string(o.Status)).
		Msg("Order updated")
	s.publish(ctx, events.Event{Type: events.OrderUpdated, Actor: actor.Name, Order: o})
	return o, nil
}

func (s *Service) DeleteOrder(ctx context.Context, actor Actor, id int64) error {
	if !actor.IsAdmin {
		return ErrForbidden
	}
	err := s.store.WithTx(ctx, func(tx *db.Tx) error {
		return mapNotFound(tx.DeleteOrder(ctx, id))
	})
	if err != nil {
		return err
	}
	s.logger.Info().Int64("order_id", id).Msg("Order deleted")
	return nil
}
