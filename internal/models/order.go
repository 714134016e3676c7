package models

import (
	"fmt"
	"time"
)

type OrderStatus string

const (
	OrderPending        OrderStatus = "Pending"
	OrderConfirmed      OrderStatus = "Confirmed"
	OrderPreparing      OrderStatus = "Preparing"
	OrderOutForDelivery OrderStatus = "OutForDelivery"
	OrderDelivered      OrderStatus = "Delivered"
	OrderCancelled      OrderStatus = "Cancelled"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:        {OrderConfirmed, OrderCancelled},
	OrderConfirmed:      {OrderPreparing, OrderCancelled},
	OrderPreparing:      {OrderOutForDelivery, OrderCancelled},
	OrderOutForDelivery: {OrderDelivered},
}

func ParseOrderStatus(s string) (OrderStatus, error) {
	for _, st := range []OrderStatus{OrderPending, OrderConfirmed, OrderPreparing, OrderOutForDelivery, OrderDelivered, OrderCancelled} {
		if equalFold(string(st), s) {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown order status %q", s)
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Order is a delivery order. UserID is nil for guest orders.
type Order struct {
	ID              int64       `json:"id"`
	UserID          *int64      `json:"userId,omitempty"`
	CustomerName    string      `json:"customerName"`
	Phone           string      `json:"phone"`
	DeliveryAddress string      `json:"deliveryAddress"`
	Notes           string      `json:"notes,omitempty"`
	AdminNotes      string      `json:"adminNotes,omitempty"`
	Status          OrderStatus `json:"status"`
	Total           Cents       `json:"-"`
	Items           []OrderItem `json:"items"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}

// OrderItem snapshots the menu item's name and unit price at order time.
type OrderItem struct {
	ID         int64  `json:"id"`
	OrderID    int64  `json:"orderId"`
	MenuItemID int64  `json:"menuItemId"`
	Name       string `json:"name"`
	UnitPrice  Cents  `json:"-"`
	Quantity   int    `json:"quantity"`
	Notes      string `json:"notes,omitempty"`
}

// LineTotal is unit price times quantity.
func (i OrderItem) LineTotal() Cents { return i.UnitPrice * Cents(i.Quantity) }
